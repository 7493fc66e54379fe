package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all wardsim configuration.
type Config struct {
	// Facility name, used in report headers and stored run metadata
	Facility string `yaml:"facility"`

	// Staffing levels for the generated roster
	Roster RosterConfig `yaml:"roster"`

	// Run parameters
	Run RunConfig `yaml:"run"`

	// Admissions log storage
	Storage StorageConfig `yaml:"storage"`

	// Observe API
	API APIConfig `yaml:"api"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// RosterConfig sets how many of each role the roster holds.
type RosterConfig struct {
	Doctors int `yaml:"doctors"`
	Nurses  int `yaml:"nurses"`
	Wards   int `yaml:"wards"`
}

// Size returns the total roster head count.
func (r RosterConfig) Size() int {
	return r.Doctors + r.Nurses + r.Wards
}

// RunConfig sets the shape of a single run.
type RunConfig struct {
	// Steps is the number of admission steps to execute.
	Steps int `yaml:"steps"`

	// Seed drives every random draw in the run. Zero means pick a
	// fresh seed at startup.
	Seed int64 `yaml:"seed"`

	// DiseaseWheel is the pool incoming patients are drawn from.
	DiseaseWheel []string `yaml:"disease_wheel"`

	// FactsPath points at a fact-set file. Empty means the embedded
	// fact set.
	FactsPath string `yaml:"facts_path"`
}

// StorageConfig configures the admissions log database.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	Disabled     bool   `yaml:"disabled"`
}

// APIConfig configures the observe API server.
type APIConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Facility: "Halvard General",

		Roster: RosterConfig{
			Doctors: 3,
			Nurses:  2,
			Wards:   2,
		},

		Run: RunConfig{
			Steps:        3,
			Seed:         0,
			DiseaseWheel: []string{"influenza", "pneumonia", "fracture", "migraine"},
			FactsPath:    "",
		},

		Storage: StorageConfig{
			DatabasePath: "data/wardsim.db",
		},

		API: APIConfig{
			ListenAddr: ":8321",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("WARDSIM_FACTS"); path != "" {
		c.Run.FactsPath = path
	}
	if path := os.Getenv("WARDSIM_DB"); path != "" {
		c.Storage.DatabasePath = path
	}
	if addr := os.Getenv("WARDSIM_LISTEN"); addr != "" {
		c.API.ListenAddr = addr
	}
	if steps := os.Getenv("WARDSIM_STEPS"); steps != "" {
		if n, err := strconv.Atoi(steps); err == nil {
			c.Run.Steps = n
		}
	}
	if seed := os.Getenv("WARDSIM_SEED"); seed != "" {
		if n, err := strconv.ParseInt(seed, 10, 64); err == nil {
			c.Run.Seed = n
		}
	}
	if level := os.Getenv("WARDSIM_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// LogLevel returns the configured slog level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	switch c.Logging.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Roster.Doctors < 1 {
		return fmt.Errorf("roster needs at least one doctor, got %d", c.Roster.Doctors)
	}
	if c.Roster.Nurses < 1 {
		return fmt.Errorf("roster needs at least one nurse, got %d", c.Roster.Nurses)
	}
	if c.Roster.Wards < 1 {
		return fmt.Errorf("roster needs at least one ward, got %d", c.Roster.Wards)
	}
	if c.Run.Steps < 0 {
		return fmt.Errorf("steps cannot be negative, got %d", c.Run.Steps)
	}
	if len(c.Run.DiseaseWheel) == 0 {
		return fmt.Errorf("disease wheel cannot be empty")
	}
	for i, d := range c.Run.DiseaseWheel {
		if d == "" {
			return fmt.Errorf("disease wheel entry %d is blank", i)
		}
	}
	return nil
}
