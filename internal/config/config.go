package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`

	JWTSecret   string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	TokenTTL    time.Duration `mapstructure:"token_ttl" yaml:"token_ttl"`

	// WebSocket limits.
	MaxMessageBytes int64 `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	OutboundBuffer  int   `mapstructure:"outbound_buffer" yaml:"outbound_buffer"`
	FrameRateLimit  int   `mapstructure:"frame_rate_limit" yaml:"frame_rate_limit"` // inbound frames per minute

	// Room expiry.
	PresenterGrace time.Duration `mapstructure:"presenter_grace" yaml:"presenter_grace"`
	RoomLifetime   time.Duration `mapstructure:"room_lifetime" yaml:"room_lifetime"`
	SweepInterval  time.Duration `mapstructure:"sweep_interval" yaml:"sweep_interval"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		LogLevel:          "info",
		LogFormat:         "console",
		DatabasePath:      "clubroom.db",
		JWTSecret:         "change-me",
		JWTIssuer:         "clubroom",
		JWTAudience:       "clubroom",
		TokenTTL:          7 * 24 * time.Hour,
		MaxMessageBytes:   16 * 1024,
		OutboundBuffer:    64,
		FrameRateLimit:    120,
		PresenterGrace:    15 * time.Minute,
		RoomLifetime:      12 * time.Hour,
		SweepInterval:     time.Minute,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	setString(&c.Addr, other.Addr)
	setDuration(&c.ReadHeaderTimeout, other.ReadHeaderTimeout)
	setDuration(&c.ShutdownTimeout, other.ShutdownTimeout)
	setString(&c.LogLevel, other.LogLevel)
	setString(&c.LogFormat, other.LogFormat)
	setString(&c.DatabasePath, other.DatabasePath)
	setString(&c.JWTSecret, other.JWTSecret)
	setString(&c.JWTIssuer, other.JWTIssuer)
	setString(&c.JWTAudience, other.JWTAudience)
	setDuration(&c.TokenTTL, other.TokenTTL)
	if other.MaxMessageBytes != 0 {
		c.MaxMessageBytes = other.MaxMessageBytes
	}
	if other.OutboundBuffer != 0 {
		c.OutboundBuffer = other.OutboundBuffer
	}
	if other.FrameRateLimit != 0 {
		c.FrameRateLimit = other.FrameRateLimit
	}
	setDuration(&c.PresenterGrace, other.PresenterGrace)
	setDuration(&c.RoomLifetime, other.RoomLifetime)
	setDuration(&c.SweepInterval, other.SweepInterval)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v != 0 {
		*dst = v
	}
}
