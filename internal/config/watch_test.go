package config_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/sheetbridge/sheetbridge/internal/config"
)

func TestWatchCollapsesSaveBurstIntoOneReload(t *testing.T) {
	path := writeConfig(t, `
sheets:
  spreadsheet_id: sheet-123
`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloads := make(chan *config.Config, 8)
	go func() {
		if err := config.Watch(ctx, path, func(c *config.Config) { reloads <- c }); err != nil {
			t.Errorf("Watch: %v", err)
		}
	}()
	time.Sleep(100 * time.Millisecond) // let the watcher register

	// Editors emit several write events per save; write the same update a few
	// times in quick succession.
	updated := []byte(`
server:
  http_port: 9090
sheets:
  spreadsheet_id: sheet-123
`)
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, updated, 0o644); err != nil {
			t.Fatalf("rewrite config: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case cfg := <-reloads:
		if cfg.Server.HTTPPort != 9090 {
			t.Errorf("reloaded http_port: got %d, want 9090", cfg.Server.HTTPPort)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no reload observed")
	}

	select {
	case <-reloads:
		t.Error("burst of writes produced more than one reload")
	case <-time.After(500 * time.Millisecond):
	}
}

func TestWatchKeepsPreviousConfigOnBadReload(t *testing.T) {
	path := writeConfig(t, `
sheets:
  spreadsheet_id: sheet-123
`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloads := make(chan *config.Config, 8)
	go func() {
		if err := config.Watch(ctx, path, func(c *config.Config) { reloads <- c }); err != nil {
			t.Errorf("Watch: %v", err)
		}
	}()
	time.Sleep(100 * time.Millisecond)

	// Fails validation (spreadsheet id removed), so onChange must not fire.
	if err := os.WriteFile(path, []byte("server:\n  http_port: 9090\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case <-reloads:
		t.Error("onChange called for a config that fails validation")
	case <-time.After(time.Second):
	}
}
