package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
server:
  port: 9090
catalog:
  db_path: /tmp/librarian/catalog.db
crawler:
  index_url: https://example.org/arcgis/rest/services
  snapshot_dir: /tmp/librarian/services
  user_agent: librarian-test
  timeout_seconds: 45
  delay_ms: 0
logging:
  development: false
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("server.port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Catalog.DBPath != "/tmp/librarian/catalog.db" {
		t.Errorf("catalog.db_path = %q", cfg.Catalog.DBPath)
	}
	if cfg.Crawler.IndexURL != "https://example.org/arcgis/rest/services" {
		t.Errorf("crawler.index_url = %q", cfg.Crawler.IndexURL)
	}
	if cfg.Crawler.UserAgent != "librarian-test" {
		t.Errorf("crawler.user_agent = %q", cfg.Crawler.UserAgent)
	}
	if got := cfg.FetchTimeout(); got != 45*time.Second {
		t.Errorf("FetchTimeout() = %v, want 45s", got)
	}
	if got := cfg.FetchDelay(); got != 0 {
		t.Errorf("FetchDelay() = %v, want 0", got)
	}
	if cfg.Logging.Development {
		t.Error("logging.development should be false")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("server.port default = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Catalog.DBPath != "data/catalog.db" {
		t.Errorf("catalog.db_path default = %q", cfg.Catalog.DBPath)
	}
	if cfg.Crawler.DelayMs != 250 {
		t.Errorf("crawler.delay_ms default = %d, want 250", cfg.Crawler.DelayMs)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"empty db path", func(c *Config) { c.Catalog.DBPath = "" }},
		{"empty index url", func(c *Config) { c.Crawler.IndexURL = "" }},
		{"zero timeout", func(c *Config) { c.Crawler.TimeoutSeconds = 0 }},
		{"negative delay", func(c *Config) { c.Crawler.DelayMs = -1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg, err := Load("")
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}
