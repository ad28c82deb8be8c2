package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Factoryline Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site       SiteConfig       `yaml:"site"`
	Database   DatabaseConfig   `yaml:"database"`
	API        APIConfig        `yaml:"api"`
	WebSocket  WebSocketConfig  `yaml:"websocket"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	InfluxDB   InfluxDBConfig   `yaml:"influxdb"`
	Logging    LoggingConfig    `yaml:"logging"`
	Simulation SimulationConfig `yaml:"simulation"`
}

// SiteConfig contains site-specific information.
type SiteConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
// The MQTT bridge is optional; when disabled, simulation events are only
// available through the HTTP API and WebSocket.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains InfluxDB connection settings for stage metrics.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains structured logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SimulationConfig contains production simulator settings.
type SimulationConfig struct {
	// PollInterval is how long the driver waits between polls when no
	// scheduled order exists, in seconds.
	PollInterval float64 `yaml:"poll_interval"`

	// RealtimeFactor scales simulated stage durations to wall-clock time.
	// 1.0 means a 1-second stage takes 1 real second; values above 1.0
	// speed the simulation up, values below 1.0 slow it down.
	RealtimeFactor float64 `yaml:"realtime_factor"`

	// LabelsPerProduct is how many label cycles each product goes through.
	LabelsPerProduct int `yaml:"labels_per_product"`

	// MaxEvents is the capacity of the in-memory event log.
	MaxEvents int `yaml:"max_events"`

	// Stations holds the per-stage durations of the production line.
	Stations StationTimesConfig `yaml:"stations"`
}

// StationTimesConfig contains the per-stage durations of the labeling line,
// in seconds. Zero or negative values are treated as zero-length stages.
type StationTimesConfig struct {
	BeltToScanner    float64 `yaml:"belt_to_scanner"`
	ScanTime         float64 `yaml:"scan_time"`
	BeltToStop       float64 `yaml:"belt_to_stop"`
	JackUp           float64 `yaml:"jack_up"`
	MBIQuery         float64 `yaml:"mbi_query"`
	FeederTime       float64 `yaml:"feeder_time"`
	RobotPick        float64 `yaml:"robot_pick"`
	RobotToLocCam    float64 `yaml:"robot_to_loc_cam"`
	LocatingTime     float64 `yaml:"locating_time"`
	RobotToDevice    float64 `yaml:"robot_to_device"`
	LabelingTime     float64 `yaml:"labeling_time"`
	JackDown         float64 `yaml:"jack_down"`
	BeltToInspection float64 `yaml:"belt_to_inspection"`
	QCTime           float64 `yaml:"qc_time"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: FACTORYLINE_SECTION_KEY
// For example: FACTORYLINE_DATABASE_PATH, FACTORYLINE_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := Default()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with sensible defaults.
// The station durations match the physical line this simulator models.
func Default() *Config {
	return &Config{
		Site: SiteConfig{
			ID:       "line-001",
			Name:     "Factoryline",
			Timezone: "UTC",
		},
		Database: DatabaseConfig{
			Path:        "./data/factoryline.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		MQTT: MQTTConfig{
			Enabled: false,
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "factoryline-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Simulation: SimulationConfig{
			PollInterval:     5.0,
			RealtimeFactor:   1.0,
			LabelsPerProduct: 1,
			MaxEvents:        400,
			Stations: StationTimesConfig{
				BeltToScanner:    2.0,
				ScanTime:         1.0,
				BeltToStop:       1.5,
				JackUp:           0.5,
				MBIQuery:         0.5,
				FeederTime:       0.8,
				RobotPick:        1.0,
				RobotToLocCam:    0.6,
				LocatingTime:     0.4,
				RobotToDevice:    0.7,
				LabelingTime:     1.2,
				JackDown:         0.5,
				BeltToInspection: 1.8,
				QCTime:           0.8,
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: FACTORYLINE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("FACTORYLINE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// API
	if v := os.Getenv("FACTORYLINE_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("FACTORYLINE_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}

	// MQTT
	if v := os.Getenv("FACTORYLINE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("FACTORYLINE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("FACTORYLINE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("FACTORYLINE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Simulation
	if v := os.Getenv("FACTORYLINE_SIMULATION_REALTIME_FACTOR"); v != "" {
		if factor, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Simulation.RealtimeFactor = factor
		}
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Site validation
	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// API validation
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// Simulation validation
	if c.Simulation.PollInterval <= 0 {
		errs = append(errs, "simulation.poll_interval must be positive")
	}
	if c.Simulation.RealtimeFactor <= 0 {
		errs = append(errs, "simulation.realtime_factor must be positive")
	}
	if c.Simulation.LabelsPerProduct < 1 {
		errs = append(errs, "simulation.labels_per_product must be at least 1")
	}
	if c.Simulation.MaxEvents < 1 {
		errs = append(errs, "simulation.max_events must be at least 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// GetPollInterval returns the simulation poll interval as a Duration.
func (c *Config) GetPollInterval() time.Duration {
	return time.Duration(c.Simulation.PollInterval * float64(time.Second))
}
