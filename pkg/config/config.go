// Package config provides YAML-based configuration loading for
// ductworks tools.
package config

import (
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"

    "github.com/spf13/viper"
)

// Config is the root application configuration.
type Config struct {
    // AppName optional logical name of the process
    AppName string `mapstructure:"app_name"`

    // Log holds logging configuration
    Log LogConfig `mapstructure:"log"`

    // Duct holds duct endpoint defaults
    Duct DuctConfig `mapstructure:"duct"`
}

// LogConfig defines logger settings.
type LogConfig struct {
    // Level: debug, info, warn, error
    Level string `mapstructure:"level"`
    // Format: console or json
    Format string `mapstructure:"format"`
    // Outputs: list of outputs: stdout, stderr, or file paths
    Outputs []string `mapstructure:"outputs"`

    // Rotation controls file rotation when writing to files
    Rotation RotationConfig `mapstructure:"rotation"`
    // Development toggles development-friendly logging options
    Development bool `mapstructure:"development"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
    Enable     bool   `mapstructure:"enable"`
    Filename   string `mapstructure:"filename"`
    MaxSizeMB  int    `mapstructure:"max_size_mb"`
    MaxBackups int    `mapstructure:"max_backups"`
    MaxAgeDays int    `mapstructure:"max_age_days"`
    Compress   bool   `mapstructure:"compress"`
}

// DuctConfig carries duct endpoint defaults.
type DuctConfig struct {
    // Transport: local or tcp
    Transport string `mapstructure:"transport"`
    // Bind optional bind hint; empty means auto (unique local name, or
    // loopback with an ephemeral port for tcp)
    Bind string `mapstructure:"bind"`
    // MaxMessageBytes bounds one serialized message; 0 keeps the
    // library default
    MaxMessageBytes int `mapstructure:"max_message_bytes"`
    // AcceptTimeoutMS bounds waiting for the peer to connect; negative
    // waits forever
    AcceptTimeoutMS int `mapstructure:"accept_timeout_ms"`
    // ConnectTimeoutMS bounds the outbound dial
    ConnectTimeoutMS int `mapstructure:"connect_timeout_ms"`
}

// Default returns a Config populated with sensible defaults.
func Default() *Config {
    return &Config{
        AppName: "ductworks",
        Log: LogConfig{
            Level:       "info",
            Format:      "console",
            Outputs:     []string{"stderr"},
            Development: true,
            Rotation: RotationConfig{
                Enable:     false,
                Filename:   "logs/ductworks.log",
                MaxSizeMB:  50,
                MaxBackups: 3,
                MaxAgeDays: 28,
                Compress:   true,
            },
        },
        Duct: DuctConfig{
            Transport:        "local",
            Bind:             "",
            MaxMessageBytes:  0,
            AcceptTimeoutMS:  60000,
            ConnectTimeoutMS: 10000,
        },
    }
}

// Load reads configuration from the provided path (if non-empty),
// otherwise it searches common locations and supports environment
// overrides. Environment variables use the prefix DUCTWORKS and
// `.`/`-` are replaced with `_`. Example: DUCTWORKS_LOG_LEVEL=debug
func Load(path string) (*Config, error) {
    cfg := Default()

    v := viper.New()
    v.SetConfigType("yaml")
    v.SetEnvPrefix("DUCTWORKS")
    v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
    v.AutomaticEnv()

    // seed defaults for viper so env-only configs work
    v.SetDefault("app_name", cfg.AppName)
    v.SetDefault("log.level", cfg.Log.Level)
    v.SetDefault("log.format", cfg.Log.Format)
    v.SetDefault("log.outputs", cfg.Log.Outputs)
    v.SetDefault("log.development", cfg.Log.Development)
    v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
    v.SetDefault("log.rotation.filename", cfg.Log.Rotation.Filename)
    v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
    v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
    v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
    v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)
    v.SetDefault("duct.transport", cfg.Duct.Transport)
    v.SetDefault("duct.bind", cfg.Duct.Bind)
    v.SetDefault("duct.max_message_bytes", cfg.Duct.MaxMessageBytes)
    v.SetDefault("duct.accept_timeout_ms", cfg.Duct.AcceptTimeoutMS)
    v.SetDefault("duct.connect_timeout_ms", cfg.Duct.ConnectTimeoutMS)

    if path == "" {
        if envPath := os.Getenv("DUCTWORKS_CONFIG"); envPath != "" {
            path = envPath
        }
    }

    if path != "" {
        v.SetConfigFile(path)
    } else {
        v.SetConfigName("ductworks")
        v.AddConfigPath(".")
        v.AddConfigPath("./configs")
        if home, err := os.UserHomeDir(); err == nil {
            v.AddConfigPath(filepath.Join(home, ".ductworks"))
        }
    }

    // Read config file if present; if not found, continue with defaults/env
    if err := v.ReadInConfig(); err != nil {
        var notFound viper.ConfigFileNotFoundError
        if !errors.As(err, &notFound) {
            return nil, fmt.Errorf("read config: %w", err)
        }
    }

    if err := v.Unmarshal(&cfg); err != nil {
        return nil, fmt.Errorf("decode config: %w", err)
    }

    if err := cfg.validate(); err != nil {
        return nil, err
    }
    return cfg, nil
}

func (c *Config) validate() error {
    lvl := strings.ToLower(strings.TrimSpace(c.Log.Level))
    switch lvl {
    case "debug", "info", "warn", "warning", "error":
        // ok
    default:
        return fmt.Errorf("invalid log.level: %q", c.Log.Level)
    }

    if c.Log.Format == "" {
        c.Log.Format = "console"
    }
    if len(c.Log.Outputs) == 0 {
        c.Log.Outputs = []string{"stderr"}
    }
    if c.Log.Rotation.MaxSizeMB <= 0 {
        c.Log.Rotation.MaxSizeMB = 10
    }
    if c.Log.Rotation.MaxBackups <= 0 {
        c.Log.Rotation.MaxBackups = 1
    }
    if c.Log.Rotation.MaxAgeDays <= 0 {
        c.Log.Rotation.MaxAgeDays = 7
    }

    switch strings.ToLower(strings.TrimSpace(c.Duct.Transport)) {
    case "local", "unix", "pipe", "tcp":
        // ok
    default:
        return fmt.Errorf("invalid duct.transport: %q", c.Duct.Transport)
    }
    if c.Duct.MaxMessageBytes < 0 {
        return fmt.Errorf("invalid duct.max_message_bytes: %d", c.Duct.MaxMessageBytes)
    }
    return nil
}

// MustLoad is a convenience that panics on error.
func MustLoad(path string) *Config {
    cfg, err := Load(path)
    if err != nil {
        panic(err)
    }
    return cfg
}
