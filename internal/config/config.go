// Package config loads fontogether configuration.
//
// Configuration is read from a single YAML file named by the
// FONTOGETHER_CONFIG environment variable or the --config flag. Missing
// fields keep their defaults. The file may contain development and
// production sections that override base values for that environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fontogether/fontogether/collab"
	"github.com/fontogether/fontogether/edit"
	"github.com/fontogether/fontogether/preview"
	"github.com/fontogether/fontogether/session"
)

// EnvVar names the environment variable holding the config path.
const EnvVar = "FONTOGETHER_CONFIG"

// Environment is the deployment type.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// Config is the complete configuration.
type Config struct {
	Environment Environment   `yaml:"environment"`
	Server      ServerConfig  `yaml:"server"`
	Log         LogConfig     `yaml:"log"`
	Editor      EditorConfig  `yaml:"editor"`
	Preview     PreviewConfig `yaml:"preview"`

	Development *Overrides `yaml:"development,omitempty"`
	Production  *Overrides `yaml:"production,omitempty"`
}

// Overrides holds the per-environment sections.
type Overrides struct {
	Server *ServerConfig `yaml:"server,omitempty"`
	Log    *LogConfig    `yaml:"log,omitempty"`
}

// ServerConfig configures the collaboration server.
type ServerConfig struct {
	// Listen is the TCP address of the collaboration socket.
	Listen string `yaml:"listen"`
	// Database is the SQLite file path. ${HOME} is expanded.
	Database          string        `yaml:"database"`
	PoolSize          int           `yaml:"pool_size"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`
	// Format is text or json.
	Format string `yaml:"format"`
}

// EditorConfig configures the interaction engine and glyph sessions.
type EditorConfig struct {
	SelectTolerance float64       `yaml:"select_tolerance"`
	PenTolerance    float64       `yaml:"pen_tolerance"`
	CurveTolerance  float64       `yaml:"curve_tolerance"`
	DragThreshold   float64       `yaml:"drag_threshold"`
	ClickZoomFactor float64       `yaml:"click_zoom_factor"`
	RetryInterval   time.Duration `yaml:"retry_interval"`
}

// PreviewConfig configures glyph thumbnails.
type PreviewConfig struct {
	Size         int `yaml:"size"`
	CacheEntries int `yaml:"cache_entries"`
}

// Default returns the built-in configuration.
func Default() *Config {
	ed := edit.DefaultConfig()
	return &Config{
		Environment: Development,
		Server: ServerConfig{
			Listen:            "127.0.0.1:7878",
			Database:          "fontogether.db",
			PoolSize:          4,
			HeartbeatInterval: collab.DefaultHeartbeatInterval,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Editor: EditorConfig{
			SelectTolerance: ed.SelectTolerance,
			PenTolerance:    ed.PenTolerance,
			CurveTolerance:  ed.CurveTolerance,
			DragThreshold:   ed.DragThreshold,
			ClickZoomFactor: ed.ClickZoomFactor,
			RetryInterval:   session.DefaultRetryInterval,
		},
		Preview: PreviewConfig{
			Size:         preview.DefaultSize,
			CacheEntries: preview.DefaultCacheSize,
		},
	}
}

// Load reads the file named by FONTOGETHER_CONFIG.
func Load() (*Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return nil, fmt.Errorf("config: %s not set; set it to the path of a config file or pass --config", EnvVar)
	}
	return LoadFile(path)
}

// LoadFile reads path over the defaults, applies the overrides for the
// selected environment and validates the result.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Parse is LoadFile for in-memory YAML.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.applyOverrides()
	cfg.Server.Database = expandVars(cfg.Server.Database)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyOverrides() {
	var o *Overrides
	switch c.Environment {
	case Development:
		o = c.Development
	case Production:
		o = c.Production
		// Production logs are machine-read.
		if o == nil {
			o = &Overrides{Log: &LogConfig{Format: "json"}}
		}
	}
	if o == nil {
		return
	}
	if s := o.Server; s != nil {
		if s.Listen != "" {
			c.Server.Listen = s.Listen
		}
		if s.Database != "" {
			c.Server.Database = s.Database
		}
		if s.PoolSize != 0 {
			c.Server.PoolSize = s.PoolSize
		}
		if s.HeartbeatInterval != 0 {
			c.Server.HeartbeatInterval = s.HeartbeatInterval
		}
	}
	if l := o.Log; l != nil {
		if l.Level != "" {
			c.Log.Level = l.Level
		}
		if l.Format != "" {
			c.Log.Format = l.Format
		}
	}
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} from the environment.
func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if v := os.Getenv(parts[1]); v != "" {
			return v
		}
		return parts[2]
	})
}

// Validate reports every invalid value.
func (c *Config) Validate() error {
	var errs []error
	if c.Environment != Development && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %q", c.Environment))
	}
	if c.Server.Listen == "" {
		errs = append(errs, errors.New("server.listen is required"))
	}
	if c.Server.Database == "" {
		errs = append(errs, errors.New("server.database is required"))
	}
	if c.Server.PoolSize < 1 {
		errs = append(errs, fmt.Errorf("server.pool_size must be positive, got %d", c.Server.PoolSize))
	}
	if c.Server.HeartbeatInterval <= 0 {
		errs = append(errs, errors.New("server.heartbeat_interval must be positive"))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	for name, v := range map[string]float64{
		"editor.select_tolerance":  c.Editor.SelectTolerance,
		"editor.pen_tolerance":     c.Editor.PenTolerance,
		"editor.curve_tolerance":   c.Editor.CurveTolerance,
		"editor.drag_threshold":    c.Editor.DragThreshold,
		"editor.click_zoom_factor": c.Editor.ClickZoomFactor,
	} {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", name, v))
		}
	}
	if c.Editor.ClickZoomFactor > 0 && c.Editor.ClickZoomFactor <= 1 {
		errs = append(errs, errors.New("editor.click_zoom_factor must exceed 1"))
	}
	if c.Editor.RetryInterval <= 0 {
		errs = append(errs, errors.New("editor.retry_interval must be positive"))
	}
	if c.Preview.Size < 1 || c.Preview.Size > 4096 {
		errs = append(errs, fmt.Errorf("preview.size must be in [1, 4096], got %d", c.Preview.Size))
	}
	if c.Preview.CacheEntries < 1 {
		errs = append(errs, fmt.Errorf("preview.cache_entries must be positive, got %d", c.Preview.CacheEntries))
	}
	return errors.Join(errs...)
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// EditConfig returns the interaction engine tolerances.
func (e EditorConfig) EditConfig() edit.Config {
	return edit.Config{
		SelectTolerance: e.SelectTolerance,
		PenTolerance:    e.PenTolerance,
		CurveTolerance:  e.CurveTolerance,
		DragThreshold:   e.DragThreshold,
		ClickZoomFactor: e.ClickZoomFactor,
	}
}
