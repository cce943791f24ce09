package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

// writeConfig drops body into a fresh config.yaml and returns its path.
func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_serverAndDebug(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantHost  string
		wantPort  int
		wantDebug bool
	}{
		{
			name:     "explicit server",
			body:     "server:\n  host: 127.0.0.1\n  port: 9000\n",
			wantHost: "127.0.0.1",
			wantPort: 9000,
		},
		{
			name:      "debug on",
			body:      "debug: true\n",
			wantHost:  "localhost",
			wantPort:  8080,
			wantDebug: true,
		},
		{
			name:     "empty file",
			body:     "",
			wantHost: "localhost",
			wantPort: 8080,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tt.body))
			if err != nil {
				t.Fatal(err)
			}
			if cfg.Server.Host != tt.wantHost || cfg.Server.Port != tt.wantPort {
				t.Errorf("server: got %s:%d, want %s:%d", cfg.Server.Host, cfg.Server.Port, tt.wantHost, tt.wantPort)
			}
			if cfg.Debug != tt.wantDebug {
				t.Errorf("debug: got %v", cfg.Debug)
			}
			if cfg.Storage.DatabasePath == "" {
				t.Error("database_path should be set")
			}
		})
	}
}

func TestLoad_relativePathsResolveAgainstConfigDir(t *testing.T) {
	path := writeConfig(t, `
storage:
  database_path: "./data/db/conversions.db"
  output_dir: "./data/output"
watch:
  directories: ["./inbox", "/abs/drop"]
`)
	dir := filepath.Dir(path)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "data", "db", "conversions.db"); cfg.Storage.DatabasePath != want {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, want)
	}
	if want := filepath.Join(dir, "data", "output"); cfg.Storage.OutputDir != want {
		t.Errorf("output_dir = %s, want %s", cfg.Storage.OutputDir, want)
	}
	if want := []string{filepath.Join(dir, "inbox"), "/abs/drop"}; !reflect.DeepEqual(cfg.Watch.Directories, want) {
		t.Errorf("watch directories = %v, want %v", cfg.Watch.Directories, want)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	tests := map[string]string{
		"/etc/kertas.db": "/etc/kertas.db",
		".":              "/cfg",
		"./out":          "/cfg/out",
		".kertas/out":    filepath.Join(home, ".kertas/out"),
	}
	for in, want := range tests {
		if got := expandPath(in, "/cfg"); got != want {
			t.Errorf("expandPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoad_rejectsBadSettings(t *testing.T) {
	tests := map[string]string{
		"unknown page size": "convert:\n  page_size: napkin\n",
		"negative cache":    "convert:\n  cache_size: -1\n",
		"port out of range": "server:\n  port: 70000\n",
		"negative upload":   "server:\n  max_upload_bytes: -5\n",
		"broken yaml":       "server: [unclosed\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoad_missingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "failed to read config") {
		t.Errorf("got %v", err)
	}
}

func TestLoad_pageSizeCaseInsensitive(t *testing.T) {
	cfg, err := Load(writeConfig(t, "convert:\n  page_size: letter\n  verify_output: true\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Convert.PageSize != "letter" || !cfg.Convert.VerifyOutput {
		t.Errorf("convert config: %+v", cfg.Convert)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8080 {
		t.Errorf("server: %+v", cfg.Server)
	}
	if cfg.Server.MaxUploadBytes != DefaultMaxUploadBytes {
		t.Errorf("max upload: got %d", cfg.Server.MaxUploadBytes)
	}
	if cfg.Convert.PageSize != "A4" || cfg.Convert.CacheSize != 128 || cfg.Convert.VerifyOutput {
		t.Errorf("convert: %+v", cfg.Convert)
	}
	if len(cfg.Convert.Extensions) != 9 || cfg.Convert.Extensions[0] != ".docx" {
		t.Errorf("convert extensions: %v", cfg.Convert.Extensions)
	}
	if !reflect.DeepEqual(cfg.Watch.Extensions, []string{".docx"}) {
		t.Errorf("watch extensions should default to .docx: %v", cfg.Watch.Extensions)
	}
	if cfg.Storage.DatabasePath == "" || cfg.Storage.OutputDir == "" {
		t.Errorf("storage paths should be set: %+v", cfg.Storage)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestApplyDefaults_keepsExplicitValues(t *testing.T) {
	cfg := &Config{
		Convert: ConvertConfig{PageSize: "Letter", CacheSize: 4, Extensions: []string{}},
		Watch:   WatchConfig{Extensions: []string{".odt"}},
	}
	ApplyDefaults(cfg)

	if cfg.Convert.PageSize != "Letter" || cfg.Convert.CacheSize != 4 {
		t.Errorf("explicit convert settings overwritten: %+v", cfg.Convert)
	}
	if len(cfg.Convert.Extensions) != 0 {
		t.Errorf("an explicit empty list stays empty: %v", cfg.Convert.Extensions)
	}
	if !reflect.DeepEqual(cfg.Watch.Extensions, []string{".odt"}) {
		t.Errorf("watch extensions: %v", cfg.Watch.Extensions)
	}
}

func TestApplyDefaults_watchRecursiveWhenDirectoriesSet(t *testing.T) {
	cfg := &Config{Watch: WatchConfig{Directories: []string{"/tmp/docs"}}}
	ApplyDefaults(cfg)
	if cfg.Watch.Recursive == nil || !*cfg.Watch.Recursive {
		t.Error("recursive should default to true when directories are set")
	}
}

func TestWatchConfig_RecursiveOrDefault(t *testing.T) {
	yes, no := true, false
	tests := []struct {
		recursive *bool
		want      bool
	}{
		{nil, true},
		{&yes, true},
		{&no, false},
	}
	for _, tt := range tests {
		if got := (&WatchConfig{Recursive: tt.recursive}).RecursiveOrDefault(); got != tt.want {
			t.Errorf("RecursiveOrDefault(%v) = %v, want %v", tt.recursive, got, tt.want)
		}
	}
}

func TestSave_roundTripsWatchDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")
	cfg := &Config{
		Server:  ServerConfig{Host: "localhost", Port: 9090},
		Storage: StorageConfig{DatabasePath: "/var/lib/kertas/history.db"},
		Watch:   WatchConfig{Directories: []string{"/srv/inbox"}},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 || loaded.Storage.DatabasePath != "/var/lib/kertas/history.db" {
		t.Errorf("loaded: port %d, db %s", loaded.Server.Port, loaded.Storage.DatabasePath)
	}
	if !reflect.DeepEqual(loaded.Watch.Directories, []string{"/srv/inbox"}) {
		t.Errorf("watch directories: %v", loaded.Watch.Directories)
	}
}

func TestSave_unwritableDirectory(t *testing.T) {
	err := Save(filepath.Join(t.TempDir(), "missing", "config.yaml"), &Config{})
	if err == nil || !strings.Contains(err.Error(), "failed to write config") {
		t.Errorf("got %v", err)
	}
}
