// Package config loads the wattsup configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"wattsup/internal/store"
)

// Environment variables that override the reference API key, in order.
var apiKeyEnv = []string{"WATTSUP_GENAI_API_KEY", "GEMINI_API_KEY"}

type Config struct {
	UserID        string `toml:"user_id"`
	Pro           bool   `toml:"pro"`
	GridSize      int    `toml:"grid_size"`
	SaveDirectory string `toml:"save_directory"`

	Canvas    Canvas    `toml:"canvas"`
	Store     Store     `toml:"store"`
	Export    Export    `toml:"export"`
	Reference Reference `toml:"reference"`
	Server    Server    `toml:"server"`
	Log       Log       `toml:"log"`
}

type Canvas struct {
	CellWidth  int  `toml:"cell_width"`
	CellHeight int  `toml:"cell_height"`
	ShowGrid   bool `toml:"show_grid"`
}

type Store struct {
	Driver          string `toml:"driver"`
	Path            string `toml:"path"`
	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
	RedisAddr       string `toml:"redis_addr"`
	RedisPassword   string `toml:"redis_password"`
	RedisDB         int    `toml:"redis_db"`
	Timeout         string `toml:"timeout"`
}

type Export struct {
	Prefix      string  `toml:"prefix"`
	JPEGQuality int     `toml:"jpeg_quality"`
	Scale       float64 `toml:"scale"`
}

type Reference struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

type Server struct {
	Addr string `toml:"addr"`
}

type Log struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		UserID:   "local",
		Pro:      true,
		GridSize: 20,
		Canvas: Canvas{
			CellWidth:  10,
			CellHeight: 20,
			ShowGrid:   true,
		},
		Store: Store{
			Driver:          store.DriverFile,
			MongoURI:        store.DefaultMongoURI,
			MongoDatabase:   store.DefaultMongoDatabase,
			MongoCollection: store.DefaultMongoCollection,
			RedisAddr:       store.DefaultRedisAddr,
			Timeout:         "10s",
		},
		Export: Export{
			Prefix:      "WattsUp-Diagram",
			JPEGQuality: 90,
			Scale:       2,
		},
		Reference: Reference{
			Model: "gemini-2.5-flash",
		},
		Server: Server{
			Addr: ":8080",
		},
		Log: Log{
			Level: "info",
		},
	}
}

// Dir is the directory holding the default config, log and canvas files.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".config", "wattsup"), nil
}

// DefaultPath is ~/.config/wattsup/config.toml.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads path on top of the defaults. An empty path means DefaultPath;
// a missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	data, err := os.ReadFile(expandPath(path))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("load config: %w", err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	for _, name := range apiKeyEnv {
		if v := os.Getenv(name); v != "" {
			cfg.Reference.APIKey = v
			break
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	if c.GridSize <= 0 {
		return fmt.Errorf("grid_size must be positive, got %d", c.GridSize)
	}
	if c.Canvas.CellWidth <= 0 || c.Canvas.CellHeight <= 0 {
		return fmt.Errorf("canvas cell size must be positive")
	}
	if _, err := c.StoreTimeout(); err != nil {
		return err
	}
	c.SaveDirectory = expandPath(c.SaveDirectory)
	c.Store.Path = expandPath(c.Store.Path)
	c.Log.File = expandPath(c.Log.File)
	return nil
}

// StoreTimeout bounds every store round trip.
func (c *Config) StoreTimeout() (time.Duration, error) {
	if c.Store.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Store.Timeout)
	if err != nil {
		return 0, fmt.Errorf("store timeout: %w", err)
	}
	return d, nil
}

// StoreConfig converts the [store] table for store.Open.
func (c *Config) StoreConfig() store.Config {
	return store.Config{
		Driver:          c.Store.Driver,
		Path:            c.Store.Path,
		MongoURI:        c.Store.MongoURI,
		MongoDatabase:   c.Store.MongoDatabase,
		MongoCollection: c.Store.MongoCollection,
		RedisAddr:       c.Store.RedisAddr,
		RedisPassword:   c.Store.RedisPassword,
		RedisDB:         c.Store.RedisDB,
	}
}

// LogPath returns the TUI log file, defaulting to wattsup.log next to the
// config file.
func (c *Config) LogPath() (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "wattsup.log"), nil
}

// expandPath resolves a leading ~ and makes relative paths absolute.
func expandPath(value string) string {
	if value == "" {
		return ""
	}
	if strings.HasPrefix(value, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			value = filepath.Join(home, strings.TrimPrefix(value, "~"))
		}
	}
	if !filepath.IsAbs(value) {
		if abs, err := filepath.Abs(value); err == nil {
			value = abs
		}
	}
	return value
}
