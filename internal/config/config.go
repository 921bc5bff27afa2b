package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Stress StressConfig `yaml:"stress" mapstructure:"stress"`
	Solver SolverConfig `yaml:"solver" mapstructure:"solver"`
	Fetch  FetchConfig  `yaml:"fetch" mapstructure:"fetch"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// StressConfig configures the scenario engine.
type StressConfig struct {
	Severities     []int   `yaml:"severities" mapstructure:"severities"`
	ScenariosFile  string  `yaml:"scenarios_file" mapstructure:"scenarios_file"`
	VolMode        string  `yaml:"vol_mode" mapstructure:"vol_mode"`
	Gamma          float64 `yaml:"gamma" mapstructure:"gamma"`
	Concurrency    int     `yaml:"concurrency" mapstructure:"concurrency"`
	NonConvergence string  `yaml:"nonconvergence" mapstructure:"nonconvergence"`
}

// SolverConfig configures the asset value / volatility iteration.
type SolverConfig struct {
	Tolerance float64 `yaml:"tolerance" mapstructure:"tolerance"`
	MaxIter   int     `yaml:"max_iter" mapstructure:"max_iter"`
}

// FetchConfig configures remote firm data downloads.
type FetchConfig struct {
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries        int     `yaml:"max_retries" mapstructure:"max_retries"`
	UserAgent         string  `yaml:"user_agent" mapstructure:"user_agent"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CREDITSTRESS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("stress.severities", []int{0, 10, 20, 30})
	v.SetDefault("stress.scenarios_file", "")
	v.SetDefault("stress.vol_mode", "linear")
	v.SetDefault("stress.gamma", 0.5)
	v.SetDefault("stress.concurrency", 4)
	v.SetDefault("stress.nonconvergence", "warn")
	v.SetDefault("solver.tolerance", 1e-7)
	v.SetDefault("solver.max_iter", 200)
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.user_agent", "credit-stress/1.0")
	v.SetDefault("fetch.requests_per_second", 2.0)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on and reports every
// violation at once. Modes: "stress", "serve".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "stress":
		errs = append(errs, c.validateStress()...)
		errs = append(errs, c.validateFetch()...)
	case "serve":
		errs = append(errs, c.validateStress()...)
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateStress() []string {
	var errs []string

	switch c.Stress.VolMode {
	case "none", "linear":
	default:
		errs = append(errs, fmt.Sprintf("stress.vol_mode %q must be none or linear", c.Stress.VolMode))
	}
	if c.Stress.Gamma < 0 || math.IsNaN(c.Stress.Gamma) || math.IsInf(c.Stress.Gamma, 0) {
		errs = append(errs, "stress.gamma must be >= 0")
	}
	if c.Stress.Concurrency < 1 || c.Stress.Concurrency > 64 {
		errs = append(errs, "stress.concurrency must be between 1 and 64")
	}
	switch c.Stress.NonConvergence {
	case "accept", "warn", "reject":
	default:
		errs = append(errs, fmt.Sprintf("stress.nonconvergence %q must be accept, warn or reject", c.Stress.NonConvergence))
	}
	if !(c.Solver.Tolerance > 0) {
		errs = append(errs, "solver.tolerance must be > 0")
	}
	if c.Solver.MaxIter < 1 {
		errs = append(errs, "solver.max_iter must be >= 1")
	}
	return errs
}

func (c *Config) validateFetch() []string {
	var errs []string
	if c.Fetch.TimeoutSecs <= 0 {
		errs = append(errs, "fetch.timeout_secs must be > 0")
	}
	if c.Fetch.MaxRetries < 0 {
		errs = append(errs, "fetch.max_retries must be >= 0")
	}
	if c.Fetch.RequestsPerSecond <= 0 {
		errs = append(errs, "fetch.requests_per_second must be > 0")
	}
	return errs
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
