package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/marmot/engine/core"
	"github.com/spaghettifunk/marmot/engine/resources"
)

type ApplicationConfig struct {
	// The application name used in log lines.
	Name string `toml:"name"`
	// One of debug, info, warn, error, fatal.
	LogLevel string `toml:"log_level"`
	// Directories searched for definition files and payloads, relative to the
	// config file.
	DataDirectories []string `toml:"data_directories"`
	// Definition files added at initialization.
	ResourceFiles []string `toml:"resource_files"`
	// Groups loaded as soon as the engine is initialized.
	PreloadGroups []string `toml:"preload_groups"`
	// Watch the data directories for new definition files.
	HotReload bool `toml:"hot_reload"`
	// Engine ticks per second.
	UpdatesPerSecond int `toml:"updates_per_second"`
	// Resources the manager may drive in a single tick.
	ResourcesPerUpdate int `toml:"resources_per_update"`
	// Background workers for resources decoded off the main loop.
	JobWorkers int `toml:"job_workers"`
	// How long Shutdown waits for resources to unload.
	ShutdownTimeoutMS int `toml:"shutdown_timeout_ms"`
}

func DefaultApplicationConfig() *ApplicationConfig {
	return &ApplicationConfig{
		Name:               "Marmot",
		LogLevel:           "info",
		UpdatesPerSecond:   60,
		ResourcesPerUpdate: 1,
		JobWorkers:         2,
		ShutdownTimeoutMS:  5000,
	}
}

// ShutdownTimeout is the configured timeout as a duration.
func (c *ApplicationConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutMS) * time.Millisecond
}

// LoadApplicationConfig reads a TOML config file. A missing file yields the
// defaults. A .env file next to the config is loaded first, then non-empty
// MARMOT_* environment variables override what the file says.
func LoadApplicationConfig(path string) (*ApplicationConfig, error) {
	cfg := DefaultApplicationConfig()
	dir := filepath.Dir(path)

	envFile := filepath.Join(dir, ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrBadParam, envFile, err)
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", core.ErrBadParam, path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}

	if err := cfg.applyEnvironment(); err != nil {
		return nil, err
	}
	for i, d := range cfg.DataDirectories {
		if !filepath.IsAbs(d) {
			cfg.DataDirectories[i] = filepath.Join(dir, d)
		}
	}
	return cfg, cfg.Validate()
}

func (c *ApplicationConfig) applyEnvironment() error {
	if v := os.Getenv("MARMOT_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("MARMOT_DATA_DIRS"); v != "" {
		c.DataDirectories = resources.SplitList(strings.ReplaceAll(v, string(os.PathListSeparator), ","))
	}
	if v := os.Getenv("MARMOT_HOT_RELOAD"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: MARMOT_HOT_RELOAD=%q", core.ErrBadParam, v)
		}
		c.HotReload = b
	}
	return nil
}

func (c *ApplicationConfig) Validate() error {
	switch {
	case c.UpdatesPerSecond < 1:
		return fmt.Errorf("%w: updates_per_second must be at least 1", core.ErrBadParam)
	case c.ResourcesPerUpdate < 1:
		return fmt.Errorf("%w: resources_per_update must be at least 1", core.ErrBadParam)
	case c.JobWorkers < 0:
		return fmt.Errorf("%w: job_workers can not be negative", core.ErrBadParam)
	case c.ShutdownTimeoutMS < 0:
		return fmt.Errorf("%w: shutdown_timeout_ms can not be negative", core.ErrBadParam)
	}
	return nil
}
