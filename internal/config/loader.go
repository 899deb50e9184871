package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	envPrefix            = "CLUBROOM"
	envConfigDefaultPath = "CLUBROOM_CONFIG_DEFAULT_PATH"
	defaultConfigName    = "config.yaml"
)

// Load builds configuration from defaults, optional config file, env vars, and returns the resolved path.
// Precedence: defaults < config file < env vars < caller overrides.
func Load(logger *zerolog.Logger, explicitPath string) (Config, string, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	for key, value := range defaultValues(cfg) {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath := resolveConfigPath(explicitPath)
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			if writeErr := writeDefaultConfig(configPath, cfg); writeErr != nil && logger != nil {
				logger.Warn().Err(writeErr).Str("path", configPath).Msg("failed to write default config")
			} else if logger != nil {
				logger.Info().Str("path", configPath).Msg("created default config")
			}
			if readErr := v.ReadInConfig(); readErr != nil && logger != nil {
				logger.Warn().Err(readErr).Str("path", configPath).Msg("failed to read config after writing default")
			}
		} else {
			return cfg, configPath, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, configPath, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, configPath, err
	}

	return cfg, configPath, nil
}

// Validate rejects values the server cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Addr == "":
		return errors.New("config: addr is empty")
	case c.JWTSecret == "":
		return errors.New("config: jwt_secret is empty")
	case c.OutboundBuffer <= 0:
		return errors.New("config: outbound_buffer must be positive")
	case c.MaxMessageBytes <= 0:
		return errors.New("config: max_message_bytes must be positive")
	case c.SweepInterval <= 0:
		return errors.New("config: sweep_interval must be positive")
	case c.PresenterGrace <= 0:
		return errors.New("config: presenter_grace must be positive")
	case c.RoomLifetime <= 0:
		return errors.New("config: room_lifetime must be positive")
	}
	return nil
}

// defaultValues flattens cfg into viper keys. Durations are kept as strings so
// the generated file stays readable.
func defaultValues(cfg Config) map[string]any {
	return map[string]any{
		"addr":                cfg.Addr,
		"read_header_timeout": cfg.ReadHeaderTimeout.String(),
		"shutdown_timeout":    cfg.ShutdownTimeout.String(),
		"log_level":           cfg.LogLevel,
		"log_format":          cfg.LogFormat,
		"database_path":       cfg.DatabasePath,
		"jwt_secret":          cfg.JWTSecret,
		"jwt_issuer":          cfg.JWTIssuer,
		"jwt_audience":        cfg.JWTAudience,
		"token_ttl":           cfg.TokenTTL.String(),
		"max_message_bytes":   cfg.MaxMessageBytes,
		"outbound_buffer":     cfg.OutboundBuffer,
		"frame_rate_limit":    cfg.FrameRateLimit,
		"presenter_grace":     cfg.PresenterGrace.String(),
		"room_lifetime":       cfg.RoomLifetime.String(),
		"sweep_interval":      cfg.SweepInterval.String(),
	}
}

func resolveConfigPath(explicitPath string) string {
	if explicitPath != "" {
		return explicitPath
	}

	if base := os.Getenv(envConfigDefaultPath); base != "" {
		if err := os.MkdirAll(base, 0o755); err == nil {
			return filepath.Join(base, defaultConfigName)
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return defaultConfigName
	}
	return filepath.Join(cwd, defaultConfigName)
}

func writeDefaultConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(defaultValues(cfg))
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
