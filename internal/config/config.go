package config

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/RMahshie/spectra/internal/axis"
	"github.com/RMahshie/spectra/internal/loader"
	"github.com/RMahshie/spectra/internal/signaltype"
	"github.com/RMahshie/spectra/internal/storage"
)

// Config holds all configuration for the application
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Storage  storage.Config
	Loading  LoadingConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           string
	Env            string
	AllowedOrigins []string
}

// LoadingConfig holds the defaults applied when loading spectrum files
type LoadingConfig struct {
	DefaultReader        string
	UseUniformSignalAxis bool
	Tolerance            axis.Tolerance
	Capabilities         []signaltype.Capability
}

// Options converts the loading defaults into loader options
func (c LoadingConfig) Options() loader.Options {
	return loader.Options{
		Reader:               c.DefaultReader,
		UseUniformSignalAxis: c.UseUniformSignalAxis,
		Tolerance:            c.Tolerance,
	}
}

var keys = []string{
	"DATABASE_URL",
	"PORT",
	"ENVIRONMENT",
	"ALLOWED_ORIGINS",
	"STORAGE_BACKEND",
	"AWS_REGION",
	"AWS_ACCESS_KEY_ID",
	"AWS_SECRET_ACCESS_KEY",
	"S3_BUCKET",
	"S3_ENDPOINT",
	"S3_USE_SSL",
	"USE_UNIFORM_SIGNAL_AXIS",
	"AXIS_ABS_TOLERANCE",
	"AXIS_REL_TOLERANCE",
	"SIGNAL_CAPABILITIES",
	"DEFAULT_READER",
}

// Load loads configuration from environment variables and .env files
func Load() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetDefault("DATABASE_URL", "sqlite://spectra.db")
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENVIRONMENT", "dev")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")
	v.SetDefault("STORAGE_BACKEND", storage.BackendS3)
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("AWS_ACCESS_KEY_ID", "")
	v.SetDefault("AWS_SECRET_ACCESS_KEY", "")
	v.SetDefault("S3_BUCKET", "spectra-uploads")
	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("S3_USE_SSL", false)
	v.SetDefault("USE_UNIFORM_SIGNAL_AXIS", true)
	v.SetDefault("AXIS_ABS_TOLERANCE", axis.DefaultTolerance.Absolute)
	v.SetDefault("AXIS_REL_TOLERANCE", axis.DefaultTolerance.Relative)
	v.SetDefault("SIGNAL_CAPABILITIES", "")
	v.SetDefault("DEFAULT_READER", loader.JobinYvonName)

	// Bind specific environment variable names
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	// Read .env file for the current environment; it may not exist
	env := v.GetString("ENVIRONMENT")
	if env == "" {
		env = "dev"
	}
	v.SetConfigName(".env." + env)
	v.SetConfigType("env")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read .env.%s: %w", env, err)
		}
	}

	// Environment variables override .env file values
	v.AutomaticEnv()

	var cfg Config
	cfg.Database.URL = v.GetString("DATABASE_URL")
	cfg.Server.Port = v.GetString("PORT")
	cfg.Server.Env = v.GetString("ENVIRONMENT")
	cfg.Server.AllowedOrigins = splitList(v.GetString("ALLOWED_ORIGINS"))

	cfg.Storage = storage.Config{
		Backend:   v.GetString("STORAGE_BACKEND"),
		Bucket:    v.GetString("S3_BUCKET"),
		Endpoint:  v.GetString("S3_ENDPOINT"),
		Region:    v.GetString("AWS_REGION"),
		AccessKey: v.GetString("AWS_ACCESS_KEY_ID"),
		SecretKey: v.GetString("AWS_SECRET_ACCESS_KEY"),
		UseSSL:    v.GetBool("S3_USE_SSL"),
	}

	caps, err := signaltype.ParseCapabilities(v.GetString("SIGNAL_CAPABILITIES"))
	if err != nil {
		return nil, fmt.Errorf("SIGNAL_CAPABILITIES: %w", err)
	}
	cfg.Loading = LoadingConfig{
		DefaultReader:        v.GetString("DEFAULT_READER"),
		UseUniformSignalAxis: v.GetBool("USE_UNIFORM_SIGNAL_AXIS"),
		Tolerance: axis.Tolerance{
			Absolute: v.GetFloat64("AXIS_ABS_TOLERANCE"),
			Relative: v.GetFloat64("AXIS_REL_TOLERANCE"),
		},
		Capabilities: caps,
	}
	if cfg.Loading.Tolerance.Absolute < 0 || cfg.Loading.Tolerance.Relative < 0 {
		return nil, fmt.Errorf("axis tolerances must not be negative")
	}

	log.Info().
		Str("environment", cfg.Server.Env).
		Strs("allowed_origins", cfg.Server.AllowedOrigins).
		Str("storage_backend", cfg.Storage.Backend).
		Bool("use_uniform_signal_axis", cfg.Loading.UseUniformSignalAxis).
		Msg("Configuration loaded")

	return &cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
