package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "SALAS"

// DefaultConfigPaths are tried in order when no explicit file is given.
var DefaultConfigPaths = []string{
	"./config.yaml",
	"./configs/config.yaml",
	"/etc/go-salas/config.yaml",
}

// LoadDotEnv loads a .env file into the process environment.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return fmt.Errorf("failed to check if %s exists: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("could not load %s: %w", path, err)
	}
	return nil
}

// Load builds the configuration from defaults, an optional YAML file and
// SALAS_* environment variables (web.listen_port -> SALAS_WEB_LISTEN_PORT).
// An explicit path that does not exist is an error; default paths are optional.
func Load(path string) (*MainConfig, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, NewDefaultConfig())

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	} else {
		for _, p := range DefaultConfigPaths {
			if _, err := os.Stat(p); err != nil {
				continue
			}
			v.SetConfigFile(p)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to load config file %s: %w", p, err)
			}
			break
		}
	}

	cfg := &MainConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.AppVersion = AppVersion

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints declared in the struct tags.
func (c *MainConfig) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, d *MainConfig) {
	v.SetDefault("web.listen_port", d.Web.ListenPort)
	v.SetDefault("web.ssl", d.Web.SSL)
	v.SetDefault("web.cert_file", d.Web.CertFile)
	v.SetDefault("web.key_file", d.Web.KeyFile)
	v.SetDefault("web.template_dir", d.Web.TemplateDir)
	v.SetDefault("web.trusted_proxies", d.Web.TrustedProxies)
	v.SetDefault("web.allow_origins", d.Web.AllowOrigins)
	v.SetDefault("web.block_bots", d.Web.BlockBots)
	v.SetDefault("web.access_log", d.Web.AccessLog)
	v.SetDefault("web.read_timeout", d.Web.ReadTimeout)
	v.SetDefault("web.write_timeout", d.Web.WriteTimeout)
	v.SetDefault("web.shutdown_timeout", d.Web.ShutdownTimeout)
	v.SetDefault("web.pprof_addr", d.Web.PprofAddr)
	v.SetDefault("web.debug", d.Web.Debug)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("telemetry.tracing", d.Telemetry.Tracing)
	v.SetDefault("telemetry.service_name", d.Telemetry.ServiceName)
}
