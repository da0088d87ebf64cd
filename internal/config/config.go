// Package config provides configuration management for go-salas.
package config

import (
	"errors"
	"time"
)

var AppVersion = "-unset-" // will be set at build time

const (
	DefaultListenPort      = 11980
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second

	AccessLogJSON   = "json"
	AccessLogApache = "apache"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// MainConfig holds the main configuration for go-salas
type MainConfig struct {
	// Web interface settings
	Web WebConfig `mapstructure:"web" json:"web"`

	Log LogConfig `mapstructure:"log" json:"log"`

	Telemetry TelemetryConfig `mapstructure:"telemetry" json:"telemetry"`

	AppVersion string `mapstructure:"-" json:"app_version"` // Application version, set at build time
}

// WebConfig holds web interface configuration
type WebConfig struct {
	ListenPort      int           `mapstructure:"listen_port" json:"listen_port" validate:"min=1024,max=65535"`
	SSL             bool          `mapstructure:"ssl" json:"ssl"`
	CertFile        string        `mapstructure:"cert_file" json:"cert_file,omitempty" validate:"required_if=SSL true"`
	KeyFile         string        `mapstructure:"key_file" json:"key_file,omitempty" validate:"required_if=SSL true"`
	TemplateDir     string        `mapstructure:"template_dir" json:"template_dir,omitempty"` // empty: use embedded templates
	TrustedProxies  []string      `mapstructure:"trusted_proxies" json:"trusted_proxies"`
	AllowOrigins    []string      `mapstructure:"allow_origins" json:"allow_origins"`
	BlockBots       bool          `mapstructure:"block_bots" json:"block_bots"`
	AccessLog       string        `mapstructure:"access_log" json:"access_log" validate:"oneof=json apache"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" json:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" json:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" json:"shutdown_timeout" validate:"gt=0"`
	PprofAddr       string        `mapstructure:"pprof_addr" json:"pprof_addr,omitempty"` // e.g. "127.0.0.1:51111"
	Debug           bool          `mapstructure:"debug" json:"debug"`
}

type LogConfig struct {
	Level string `mapstructure:"level" json:"level" validate:"oneof=debug info warn error"`
}

type TelemetryConfig struct {
	Tracing     bool   `mapstructure:"tracing" json:"tracing"`
	ServiceName string `mapstructure:"service_name" json:"service_name" validate:"required"`
}

// NewDefaultConfig returns a configuration with sensible defaults
func NewDefaultConfig() *MainConfig {
	return &MainConfig{
		AppVersion: AppVersion,
		Web: WebConfig{
			ListenPort:      DefaultListenPort,
			SSL:             false,
			TrustedProxies:  []string{"127.0.0.1", "::1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"},
			AllowOrigins:    []string{"*"},
			AccessLog:       AccessLogJSON,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Log: LogConfig{
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			Tracing:     false,
			ServiceName: "go-salas",
		},
	}
}
