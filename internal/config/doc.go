// Package config loads and validates the sheetbridge YAML configuration.
// Secrets (API keys, bearer tokens) are never stored in the file itself;
// the file names environment variables and the accessors resolve them at
// call time. Watch provides fsnotify-based hot-reload.
package config
