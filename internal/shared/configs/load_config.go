package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"log-analyzer/internal/shared/validators"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. LOG_ANALYZER_REPORT_SIZE or LOG_ANALYZER_SERVER_PORT.
const EnvPrefix = "LOG_ANALYZER"

// ErrConfiguration marks a configuration source that could not be read, decoded or validated.
var ErrConfiguration = errors.New("configuration failure")

// LoadConfig merges the defaults, the optional config file at configPath and environment
// overrides, then validates the result.
//
// On failure it returns an error wrapping ErrConfiguration together with the configuration
// held before the file was merged (defaults plus environment overrides), or the bare defaults
// when that is invalid too. Callers log the error and carry on.
var LoadConfig = func(configPath string) (*Config, error) {
	v := newViper()

	if configPath == "" {
		cfg, err := decode(v)
		if err != nil {
			return Defaults(), err
		}
		return cfg, nil
	}

	v.SetConfigFile(configPath)
	if filepath.Ext(configPath) == "" {
		v.SetConfigType("json")
	}

	var cfg *Config
	err := v.ReadInConfig()
	if err != nil {
		err = fmt.Errorf("%w: failed to read config file %q: %w", ErrConfiguration, configPath, err)
	} else {
		cfg, err = decode(v)
	}
	if err == nil {
		return cfg, nil
	}

	fallback, fallbackErr := decode(newViper())
	if fallbackErr != nil {
		return Defaults(), err
	}
	return fallback, err
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v, Defaults())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal config: %w", ErrConfiguration, err)
	}

	validate := validators.New()
	if err := validate.Struct(&cfg); err != nil {
		var validationErrors []string
		var ve validators.ValidationErrors
		if errors.As(err, &ve) {
			for _, e := range ve {
				validationErrors = append(validationErrors, formatValidationError(e))
			}
		}
		return nil, fmt.Errorf("%w: config validation failed: %s", ErrConfiguration, strings.Join(validationErrors, ", "))
	}

	return &cfg, nil
}

// LoadDotEnv exports the variables of a .env file into the process environment so that
// LoadConfig picks them up. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: failed to load env file %q: %w", ErrConfiguration, path, err)
	}
	return nil
}

// setDefaults registers every key with viper, which is also what makes AutomaticEnv
// consider the key during Unmarshal.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("report_size", d.ReportSize)
	v.SetDefault("report_dir", d.ReportDir)
	v.SetDefault("log_dir", d.LogDir)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("template_path", d.TemplatePath)
	v.SetDefault("metrics_file", d.MetricsFile)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.read_header_timeout", d.Server.ReadHeaderTimeout)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.idle_timeout", d.Server.IdleTimeout)
}

// formatValidationError formats a single validation error into a readable string.
func formatValidationError(e validators.FieldError) string {
	field := e.Field()

	// Namespace is "Config.server.port"; drop the struct name.
	if ns := e.Namespace(); ns != "" {
		parts := strings.Split(ns, ".")
		if len(parts) >= 2 {
			field = strings.ToLower(strings.Join(parts[1:], "."))
		}
	}

	switch tag := e.Tag(); tag {
	case "required":
		return fmt.Sprintf("%s (required)", field)
	case "min", "max", "oneof":
		return fmt.Sprintf("%s (%s=%s)", field, tag, e.Param())
	default:
		return fmt.Sprintf("%s (%s)", field, tag)
	}
}
