package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// APIConfig points the client at the civic issue backend.
type APIConfig struct {
	// BaseURL is the root of the REST API, including the version prefix.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec bounds a single HTTP round-trip.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// MapConfig holds defaults for the map panel.
type MapConfig struct {
	Center   LatLng  `mapstructure:"center" yaml:"center"`
	Zoom     int     `mapstructure:"zoom" yaml:"zoom"`
	RadiusKm float64 `mapstructure:"radius_km" yaml:"radius_km"`

	// PageSize caps the issue list the map clusters client-side.
	PageSize int `mapstructure:"page_size" yaml:"page_size"`

	// Home, when set, is returned by the locate action in place of a
	// device geolocation reading.
	Home *LatLng `mapstructure:"home" yaml:"home,omitempty"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme           string `mapstructure:"theme" yaml:"theme"`
	PollIntervalSec int    `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
}

// StorageConfig locates the local snapshot database.
type StorageConfig struct {
	DBPath string `mapstructure:"db_path" yaml:"db_path"`
}

// LogConfig controls the file logger.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API     APIConfig     `mapstructure:"api" yaml:"api"`
	Map     MapConfig     `mapstructure:"map" yaml:"map"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// EnvPrefix is prepended to environment overrides, e.g. CIVICDASH_API_BASE_URL.
const EnvPrefix = "CIVICDASH"

// ConfigDir returns ~/.config/civicdash, falling back to the working
// directory when the home directory is unknown.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "civicdash")
}

// DefaultConfigPath returns the default path for the configuration file.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DefaultAppConfig returns the configuration used when no file exists.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		API: APIConfig{
			BaseURL:    "http://localhost:5000/api/v1",
			TimeoutSec: 30,
		},
		Map: MapConfig{
			Center:   LatLng{Latitude: 28.6139, Longitude: 77.2090},
			Zoom:     10,
			RadiusKm: 10,
			PageSize: 1000,
		},
		Display: DisplayConfig{
			Theme:           "default",
			PollIntervalSec: 120,
		},
		Storage: StorageConfig{
			DBPath: filepath.Join(ConfigDir(), "civicdash.db"),
		},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(ConfigDir(), "civicdash.log"),
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultAppConfig()
	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.timeout_sec", d.API.TimeoutSec)
	v.SetDefault("map.center.latitude", d.Map.Center.Latitude)
	v.SetDefault("map.center.longitude", d.Map.Center.Longitude)
	v.SetDefault("map.zoom", d.Map.Zoom)
	v.SetDefault("map.radius_km", d.Map.RadiusKm)
	v.SetDefault("map.page_size", d.Map.PageSize)
	v.SetDefault("display.theme", d.Display.Theme)
	v.SetDefault("display.poll_interval_sec", d.Display.PollIntervalSec)
	v.SetDefault("storage.db_path", d.Storage.DBPath)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// A missing file is not an error: defaults and environment overrides still
// apply.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := DefaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Map.PageSize <= 0 {
		cfg.Map.PageSize = 1000
	}
	if cfg.Display.PollIntervalSec <= 0 {
		cfg.Display.PollIntervalSec = 120
	}
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("api", cfg.API)
	v.Set("map", cfg.Map)
	v.Set("display", cfg.Display)
	v.Set("storage", cfg.Storage)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
