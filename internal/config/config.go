package config

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultHTTPPort = 8080

	// DefaultCacheTTL is how long fetched rows stay trusted before a read
	// forces a remote refetch.
	DefaultCacheTTL = 60 * time.Second

	// DefaultMinRequestInterval is the minimum spacing between outbound
	// calls to the spreadsheet API. The quota is global per project, so one
	// call per second keeps a busy session comfortably under it.
	DefaultMinRequestInterval = 1 * time.Second

	DefaultRemoteTimeout = 15 * time.Second
)

// Config is the top-level configuration for sheetbridge.
// Fields map 1:1 to config.example.yaml.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Sheets SheetsConfig `yaml:"sheets"`
	Data   DataConfig   `yaml:"data"`
}

// ServerConfig holds the HTTP surface settings.
type ServerConfig struct {
	// HTTPPort is the port the REST API, metrics and WebSocket stream
	// listen on.
	HTTPPort int `yaml:"http_port"`

	// Auth configures how collaborators authenticate to the REST API.
	Auth ServerAuthConfig `yaml:"auth"`
}

// ServerAuthConfig configures REST API authentication.
type ServerAuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// Header is the HTTP header the key is expected in. Defaults to
	// "x-api-key" when empty.
	Header string `yaml:"header"`

	// KeyEnv is the name of the environment variable holding the expected key.
	KeyEnv string `yaml:"key_env"`
}

// EffectiveHeader returns the configured header name or the default.
func (a ServerAuthConfig) EffectiveHeader() string {
	if a.Header == "" {
		return "x-api-key"
	}
	return a.Header
}

// Key returns the API key resolved from the environment.
// Returns empty string if KeyEnv is unset or the variable is not found.
func (a ServerAuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// SheetsConfig holds the remote spreadsheet settings.
type SheetsConfig struct {
	// SpreadsheetID is the hosted spreadsheet acting as the row-store.
	SpreadsheetID string `yaml:"spreadsheet_id"`

	// BaseURL overrides the Sheets API endpoint. Leave empty for the public
	// API; set it when routing through a proxy or in tests.
	BaseURL string `yaml:"base_url"`

	// Timeout bounds a single remote call, on top of the caller's context.
	Timeout time.Duration `yaml:"timeout"`

	// Auth configures how sheetbridge authenticates to the Sheets API.
	Auth SheetsAuthConfig `yaml:"auth"`
}

// SheetsAuthConfig specifies the outbound authentication mode.
type SheetsAuthConfig struct {
	// Mode is one of: bearer | apikey | none. "apikey" only permits reads on
	// public spreadsheets; mutations need a bearer token.
	Mode string `yaml:"mode"`

	// TokenEnv is the name of the environment variable holding the OAuth
	// bearer token, used when Mode == "bearer".
	TokenEnv string `yaml:"token_env"`

	// KeyEnv is the name of the environment variable holding the API key,
	// used when Mode == "apikey".
	KeyEnv string `yaml:"key_env"`
}

// Token returns the bearer token resolved from the environment.
func (a SheetsAuthConfig) Token() string {
	if a.TokenEnv == "" {
		return ""
	}
	return os.Getenv(a.TokenEnv)
}

// Key returns the API key resolved from the environment.
func (a SheetsAuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// DataConfig holds the data-access mediation settings.
type DataConfig struct {
	// TTL is how long cached rows stay fresh.
	TTL time.Duration `yaml:"ttl"`

	// MinRequestInterval is the minimum spacing between remote calls.
	// Zero disables rate limiting (useful in tests only).
	MinRequestInterval time.Duration `yaml:"min_request_interval"`

	// Tables maps logical table names (the keys collaborators use) to
	// worksheet titles inside the spreadsheet.
	Tables map[string]string `yaml:"tables"`
}

// Worksheet resolves a logical table name to its worksheet title.
func (d DataConfig) Worksheet(name string) (string, bool) {
	title, ok := d.Tables[name]
	return title, ok
}

// TableNames returns the configured logical table names, sorted.
func (d DataConfig) TableNames() []string {
	names := make([]string, 0, len(d.Tables))
	for n := range d.Tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DefaultTables returns the standard logical-name → worksheet-title mapping
// for the record-management tool.
func DefaultTables() map[string]string {
	return map[string]string{
		"users":           "Users",
		"locations":       "Locations",
		"suppliers":       "Suppliers",
		"categories":      "Categories",
		"subcategories":   "SubCategories",
		"assets":          "Assets",
		"transfers":       "Transfers",
		"maintenance":     "AssetMaintenance",
		"assignments":     "EmployeeAssignments",
		"password_resets": "PasswordResets",
	}
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with sensible defaults; table mappings
// given in the file override the default mapping per key.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: DefaultHTTPPort,
		},
		Sheets: SheetsConfig{
			Timeout: DefaultRemoteTimeout,
		},
		Data: DataConfig{
			TTL:                DefaultCacheTTL,
			MinRequestInterval: DefaultMinRequestInterval,
			Tables:             DefaultTables(),
		},
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	if cfg.Sheets.SpreadsheetID == "" {
		return fmt.Errorf("sheets.spreadsheet_id is required")
	}
	if cfg.Sheets.Timeout <= 0 {
		return fmt.Errorf("sheets.timeout must be positive")
	}
	switch cfg.Sheets.Auth.Mode {
	case "bearer", "apikey", "none", "":
	default:
		return fmt.Errorf("sheets.auth: unknown mode %q", cfg.Sheets.Auth.Mode)
	}
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d out of range", cfg.Server.HTTPPort)
	}
	switch cfg.Server.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("server.auth: unknown mode %q", cfg.Server.Auth.Mode)
	}
	if cfg.Data.TTL <= 0 {
		return fmt.Errorf("data.ttl must be positive")
	}
	if cfg.Data.MinRequestInterval < 0 {
		return fmt.Errorf("data.min_request_interval must not be negative")
	}
	if len(cfg.Data.Tables) == 0 {
		return fmt.Errorf("data.tables must not be empty")
	}
	for name, title := range cfg.Data.Tables {
		if title == "" {
			return fmt.Errorf("data.tables[%q]: worksheet title is empty", name)
		}
	}
	return nil
}
