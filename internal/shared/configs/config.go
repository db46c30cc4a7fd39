package configs

// Config holds all configuration for the analyzer. Keys match the historical JSON config
// (REPORT_SIZE, REPORT_DIR, LOG_DIR); viper lowercases them before decoding.
type Config struct {
	ReportSize   int          `mapstructure:"report_size" validate:"required,min=1"`
	ReportDir    string       `mapstructure:"report_dir" validate:"required"`
	LogDir       string       `mapstructure:"log_dir" validate:"required"`
	LogLevel     string       `mapstructure:"log_level" validate:"required,oneof=trace debug info warn error"`
	LogFile      string       `mapstructure:"log_file"`
	TemplatePath string       `mapstructure:"template_path"`
	MetricsFile  string       `mapstructure:"metrics_file"`
	Server       ServerConfig `mapstructure:"server" validate:"required"`
}

// ServerConfig holds configuration of the report browser (serve command).
type ServerConfig struct {
	Port              int `mapstructure:"port" validate:"required,min=1,max=65535"`
	ReadHeaderTimeout int `mapstructure:"read_header_timeout" validate:"required,min=1"` // seconds
	ReadTimeout       int `mapstructure:"read_timeout" validate:"required,min=1"`        // seconds (headers+body)
	WriteTimeout      int `mapstructure:"write_timeout" validate:"required,min=1"`       // seconds (response)
	IdleTimeout       int `mapstructure:"idle_timeout" validate:"required,min=1"`        // seconds (keep-alive)
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		ReportSize: 1000,
		ReportDir:  "./reports",
		LogDir:     "./log",
		LogLevel:   "info",
		Server: ServerConfig{
			Port:              8080,
			ReadHeaderTimeout: 5,
			ReadTimeout:       10,
			WriteTimeout:      10,
			IdleTimeout:       60,
		},
	}
}
