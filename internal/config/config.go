// Package config loads service configuration from YAML with environment
// and built-in fallbacks.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root service configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Index      IndexConfig      `yaml:"index"`
	Jobs       JobsConfig       `yaml:"jobs"`
	Generation GenerationConfig `yaml:"generation"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type StorageConfig struct {
	Backend  string `yaml:"backend"` // file or badger
	Dir      string `yaml:"dir"`
	Compress bool   `yaml:"compress"`
}

type IndexConfig struct {
	// Path of the SQLite job index. Empty means <storage.dir>/jobs.db.
	Path     string `yaml:"path"`
	Disabled bool   `yaml:"disabled"`
}

type JobsConfig struct {
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`
	// Retention is how long finished jobs stay in memory. Older ones are
	// served from the index.
	Retention time.Duration `yaml:"retention"`
}

type GenerationConfig struct {
	DefaultWorldSize int    `yaml:"default_world_size"`
	MinWorldSize     int    `yaml:"min_world_size"`
	MaxWorldSize     int    `yaml:"max_world_size"`
	MaxObjects       int    `yaml:"max_objects"`
	Noise            string `yaml:"noise"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
	Endpoint    string `yaml:"endpoint"`
}

// Defaults applied when neither the file nor the environment sets a value.
const (
	DefaultAddr             = ":8000"
	DefaultStorageDir       = "./storage"
	DefaultBackend          = "file"
	DefaultWorkers          = 2
	DefaultQueueSize        = 64
	DefaultRetention        = time.Hour
	DefaultWorldSize        = 512
	DefaultMinWorldSize     = 128
	DefaultMaxWorldSize     = 2048
	DefaultMaxObjects       = 50000
	DefaultNoise            = "uniform"
	DefaultServiceName      = "worldgen"
	DefaultTelemetryAddress = "localhost:4318"
)

// Load reads the YAML file at path. If path is empty it falls back to the
// WORLDGEN_CONFIG environment variable; with neither set, only environment
// variables and defaults apply. The result is always fully populated.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("WORLDGEN_CONFIG")
	}

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}
	cfg.applyFallbacks()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	var cfg Config
	cfg.applyFallbacks()
	return &cfg
}

func (c *Config) applyFallbacks() {
	c.Server.Addr = stringWithEnvFallback(c.Server.Addr, "WORLDGEN_ADDR", DefaultAddr)
	c.Storage.Dir = stringWithEnvFallback(c.Storage.Dir, "WORLDGEN_STORAGE_DIR", DefaultStorageDir)
	c.Storage.Backend = strings.ToLower(stringWithEnvFallback(c.Storage.Backend, "WORLDGEN_STORAGE_BACKEND", DefaultBackend))
	c.Index.Path = stringWithEnvFallback(c.Index.Path, "WORLDGEN_INDEX_PATH", filepath.Join(c.Storage.Dir, "jobs.db"))
	c.Jobs.Workers = intWithEnvFallback(c.Jobs.Workers, "WORLDGEN_WORKERS", DefaultWorkers)
	c.Jobs.QueueSize = intWithEnvFallback(c.Jobs.QueueSize, "WORLDGEN_QUEUE_SIZE", DefaultQueueSize)
	if c.Jobs.Retention <= 0 {
		c.Jobs.Retention = DefaultRetention
	}
	c.Generation.DefaultWorldSize = intWithEnvFallback(c.Generation.DefaultWorldSize, "WORLDGEN_DEFAULT_WORLD_SIZE", DefaultWorldSize)
	c.Generation.MinWorldSize = intWithEnvFallback(c.Generation.MinWorldSize, "WORLDGEN_MIN_WORLD_SIZE", DefaultMinWorldSize)
	c.Generation.MaxWorldSize = intWithEnvFallback(c.Generation.MaxWorldSize, "WORLDGEN_MAX_WORLD_SIZE", DefaultMaxWorldSize)
	c.Generation.MaxObjects = intWithEnvFallback(c.Generation.MaxObjects, "WORLDGEN_MAX_OBJECTS", DefaultMaxObjects)
	c.Generation.Noise = stringWithEnvFallback(c.Generation.Noise, "WORLDGEN_NOISE", DefaultNoise)
	c.Telemetry.ServiceName = stringWithEnvFallback(c.Telemetry.ServiceName, "OTEL_SERVICE_NAME", DefaultServiceName)
	c.Telemetry.Endpoint = stringWithEnvFallback(c.Telemetry.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT", DefaultTelemetryAddress)
	if !c.Telemetry.Enabled {
		c.Telemetry.Enabled = boolEnv("WORLDGEN_TELEMETRY")
	}
}

// Validate reports inconsistent settings.
func (c *Config) Validate() error {
	var errs []error
	g := c.Generation
	if g.MinWorldSize < 1 {
		errs = append(errs, fmt.Errorf("generation.min_world_size must be positive, got %d", g.MinWorldSize))
	}
	if g.MaxWorldSize < g.MinWorldSize {
		errs = append(errs, fmt.Errorf("generation.max_world_size %d below min_world_size %d", g.MaxWorldSize, g.MinWorldSize))
	}
	if g.DefaultWorldSize < g.MinWorldSize || g.DefaultWorldSize > g.MaxWorldSize {
		errs = append(errs, fmt.Errorf("generation.default_world_size %d outside [%d,%d]", g.DefaultWorldSize, g.MinWorldSize, g.MaxWorldSize))
	}
	if c.Storage.Backend != "file" && c.Storage.Backend != "badger" {
		errs = append(errs, fmt.Errorf("storage.backend must be file or badger, got %q", c.Storage.Backend))
	}
	if c.Jobs.Workers < 1 {
		errs = append(errs, fmt.Errorf("jobs.workers must be positive, got %d", c.Jobs.Workers))
	}
	return errors.Join(errs...)
}

// stringWithEnvFallback returns v, then the environment variable, then def.
func stringWithEnvFallback(v, envVar, def string) string {
	if v != "" {
		return v
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		return envVal
	}
	return def
}

// intWithEnvFallback returns v if positive, then a positive environment
// value, then def.
func intWithEnvFallback(v int, envVar string, def int) int {
	if v > 0 {
		return v
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		if n, err := strconv.Atoi(envVal); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func boolEnv(envVar string) bool {
	b, err := strconv.ParseBool(os.Getenv(envVar))
	return err == nil && b
}
