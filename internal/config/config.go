package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v9"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	appName   = "notibar"
	envPrefix = "NOTIBAR_"

	DefaultEndpoint     = "/notifications/check"
	DefaultViewPath     = "/requests/{id}"
	DefaultMarkReadPath = "/notifications/{id}/read"
	DefaultInterval     = 15 * time.Second
	DefaultVolume       = 0.5
)

type Config struct {
	Server       string `koanf:"server" env:"SERVER" validate:"required,url"`
	Endpoint     string `koanf:"endpoint" env:"ENDPOINT" validate:"required"`
	ViewPath     string `koanf:"view_path" env:"VIEW_PATH" validate:"required"`
	MarkReadPath string `koanf:"mark_read_path" env:"MARK_READ_PATH" validate:"required"`

	Interval       time.Duration `koanf:"interval" env:"INTERVAL" validate:"gt=0"`
	RequestTimeout time.Duration `koanf:"request_timeout" env:"REQUEST_TIMEOUT" validate:"gte=0"`

	// Credentials forwarded with every check request.
	Token  string `koanf:"token" env:"TOKEN"`
	Cookie string `koanf:"cookie" env:"COOKIE"`

	SoundFile            string  `koanf:"sound_file" env:"SOUND_FILE"` // wav, mp3 or flac; empty plays the bundled chime
	Volume               float64 `koanf:"volume" env:"VOLUME" validate:"gt=0,lte=1"`
	DesktopNotifications bool    `koanf:"desktop_notifications" env:"DESKTOP_NOTIFICATIONS"`
	Bell                 bool    `koanf:"bell" env:"BELL"`

	Log LogConfig `koanf:"log" envPrefix:"LOG_"`
}

// LogConfig mirrors log.ZapConfig.
type LogConfig struct {
	Level    string `koanf:"level" env:"LEVEL" validate:"omitempty,oneof=debug info warn error"`
	Mode     string `koanf:"mode" env:"MODE" validate:"omitempty,oneof=development production"`
	Encoding string `koanf:"encoding" env:"ENCODING" validate:"omitempty,oneof=console json"`
	File     string `koanf:"file" env:"FILE"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Endpoint:             DefaultEndpoint,
		ViewPath:             DefaultViewPath,
		MarkReadPath:         DefaultMarkReadPath,
		Interval:             DefaultInterval,
		Volume:               DefaultVolume,
		DesktopNotifications: true,
		Bell:                 true,
		Log: LogConfig{
			Level:    "info",
			Mode:     "development",
			Encoding: "console",
		},
	}
}

// Load layers defaults, TOML files, a .env file and NOTIBAR_* environment
// variables. explicit, when set, must exist and wins over the other files.
func Load(explicit string) (*Config, error) {
	k := koanf.New(".")

	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
	}

	for _, path := range getConfigPaths(explicit) {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", path, err)
			}
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	cfg.normalize()
	return cfg, nil
}

func getConfigPaths(explicit string) []string {
	paths := []string{
		// 1. $XDG_CONFIG_HOME/notibar/config.toml
		filepath.Join(xdg.ConfigHome, appName, "config.toml"),
		// 2. ./notibar.toml
		appName + ".toml",
	}
	// 3. --config (highest priority)
	if explicit != "" {
		paths = append(paths, explicit)
	}
	return paths
}

func (c *Config) normalize() {
	c.Server = strings.TrimSuffix(strings.TrimSpace(c.Server), "/")
	c.Endpoint = strings.TrimSpace(c.Endpoint)
	if c.SoundFile != "" {
		c.SoundFile = expandPath(c.SoundFile)
	}
	if c.Log.File != "" && c.Log.File != "-" {
		c.Log.File = expandPath(c.Log.File)
	}
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

var validate = validator.New()

// Validate reports every invalid field in one error.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			return err
		}
		msgs := make([]string, 0, len(ve))
		for _, fe := range ve {
			msgs = append(msgs, fmt.Sprintf("field '%s' failed '%s'", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
	}
	for name, tmpl := range map[string]string{"view_path": c.ViewPath, "mark_read_path": c.MarkReadPath} {
		if !strings.Contains(tmpl, "{id}") {
			return fmt.Errorf("invalid config: %s must contain {id}", name)
		}
	}
	return nil
}
