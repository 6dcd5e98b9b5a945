package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Data        DataConfig        `mapstructure:"data"`
	ConfigStore ConfigStoreConfig `mapstructure:"config_store"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// ServerConfig holds web presenter configuration
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// DataConfig says where portal documents live
type DataConfig struct {
	Dir     string `mapstructure:"dir"`      // documents are read from and saved to <dir>/<portal>.json
	BaseURL string `mapstructure:"base_url"` // when set, documents are fetched over HTTP instead of from Dir
}

// ConfigStoreConfig selects the key-value backend for the portal list
type ConfigStoreConfig struct {
	Driver string `mapstructure:"driver"` // "bolt", "sqlite" or "memory"
	Path   string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"` // empty logs to stderr
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
		},
		Data: DataConfig{
			Dir: filepath.Join(defaultDataPath(), "portals"),
		},
		ConfigStore: ConfigStoreConfig{
			Driver: "bolt",
			Path:   filepath.Join(defaultDataPath(), "config.db"),
		},
		Logging: LoggingConfig{
			File:  "",
			Level: "INFO",
		},
	}
}

// defaultDataPath returns the default data directory for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "portal")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "portal")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "portal")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "portal")
	}
}

// Load reads configuration from file and environment. An explicit path
// must exist; otherwise config.yaml is looked up in the user config
// directory and the working directory, and a missing file means defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(defaultConfigPath())
		v.AddConfigPath(".")
	}

	// Environment variable overrides, e.g. PORTAL_SERVER_ADDR
	v.SetEnvPrefix("PORTAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// bindDefaults registers every key so AutomaticEnv can see it during Unmarshal.
func bindDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("data.dir", cfg.Data.Dir)
	v.SetDefault("data.base_url", cfg.Data.BaseURL)
	v.SetDefault("config_store.driver", cfg.ConfigStore.Driver)
	v.SetDefault("config_store.path", cfg.ConfigStore.Path)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)
}
