package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_ValidConfig(t *testing.T) {
	// Create a temporary config file
	content := `
site:
  id: "test-line"
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
api:
  host: "0.0.0.0"
  port: 8080
simulation:
  poll_interval: 2.5
  realtime_factor: 4.0
  labels_per_product: 2
  max_events: 100
  stations:
    scan_time: 0.25
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Site.ID != "test-line" {
		t.Errorf("Site.ID = %q, want %q", cfg.Site.ID, "test-line")
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}

	if cfg.Simulation.RealtimeFactor != 4.0 {
		t.Errorf("Simulation.RealtimeFactor = %v, want 4.0", cfg.Simulation.RealtimeFactor)
	}

	if cfg.Simulation.Stations.ScanTime != 0.25 {
		t.Errorf("Stations.ScanTime = %v, want 0.25", cfg.Simulation.Stations.ScanTime)
	}

	// Unset station fields keep their defaults
	if cfg.Simulation.Stations.BeltToScanner != 2.0 {
		t.Errorf("Stations.BeltToScanner = %v, want default 2.0", cfg.Simulation.Stations.BeltToScanner)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
site:
  id: ""
database:
  path: "/tmp/test.db"
api:
  port: 8080
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error for empty site.id, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid defaults",
			mutate:  func(_ *Config) {},
			wantErr: false,
		},
		{
			name:    "missing site ID",
			mutate:  func(c *Config) { c.Site.ID = "" },
			wantErr: true,
		},
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: true,
		},
		{
			name:    "invalid API port",
			mutate:  func(c *Config) { c.API.Port = 99999 },
			wantErr: true,
		},
		{
			name:    "invalid MQTT QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: true,
		},
		{
			name:    "zero poll interval",
			mutate:  func(c *Config) { c.Simulation.PollInterval = 0 },
			wantErr: true,
		},
		{
			name:    "negative realtime factor",
			mutate:  func(c *Config) { c.Simulation.RealtimeFactor = -1 },
			wantErr: true,
		},
		{
			name:    "zero labels per product",
			mutate:  func(c *Config) { c.Simulation.LabelsPerProduct = 0 },
			wantErr: true,
		},
		{
			name:    "zero max events",
			mutate:  func(c *Config) { c.Simulation.MaxEvents = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	content := `
site:
  id: "test-line"
database:
  path: "/tmp/test.db"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	t.Setenv("FACTORYLINE_DATABASE_PATH", "/override/path.db")
	t.Setenv("FACTORYLINE_SIMULATION_REALTIME_FACTOR", "8.0")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/override/path.db" {
		t.Errorf("Database.Path = %q, want env override", cfg.Database.Path)
	}
	if cfg.Simulation.RealtimeFactor != 8.0 {
		t.Errorf("Simulation.RealtimeFactor = %v, want 8.0", cfg.Simulation.RealtimeFactor)
	}
}
