package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RMahshie/spectra/internal/axis"
	"github.com/RMahshie/spectra/internal/loader"
	"github.com/RMahshie/spectra/internal/signaltype"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	log.Logger = zerolog.Nop()
	chdirTemp(t)
	for _, key := range keys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "sqlite://spectra.db", cfg.Database.URL)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "dev", cfg.Server.Env)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "s3", cfg.Storage.Backend)
	assert.Equal(t, "spectra-uploads", cfg.Storage.Bucket)
	assert.True(t, cfg.Loading.UseUniformSignalAxis)
	assert.Equal(t, axis.DefaultTolerance, cfg.Loading.Tolerance)
	assert.Empty(t, cfg.Loading.Capabilities)

	opts := cfg.Loading.Options()
	assert.Equal(t, loader.JobinYvonName, opts.Reader)
	assert.True(t, opts.UseUniformSignalAxis)
}

func TestLoad_Environment(t *testing.T) {
	log.Logger = zerolog.Nop()
	chdirTemp(t)

	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("STORAGE_BACKEND", "minio")
	t.Setenv("S3_ENDPOINT", "localhost:9000")
	t.Setenv("S3_USE_SSL", "true")
	t.Setenv("USE_UNIFORM_SIGNAL_AXIS", "false")
	t.Setenv("AXIS_ABS_TOLERANCE", "0.001")
	t.Setenv("AXIS_REL_TOLERANCE", "0")
	t.Setenv("SIGNAL_CAPABILITIES", "luminescence")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Server.Env)
	assert.Equal(t, "minio", cfg.Storage.Backend)
	assert.Equal(t, "localhost:9000", cfg.Storage.Endpoint)
	assert.True(t, cfg.Storage.UseSSL)
	assert.False(t, cfg.Loading.UseUniformSignalAxis)
	assert.Equal(t, axis.Tolerance{Absolute: 0.001, Relative: 0}, cfg.Loading.Tolerance)
	assert.Equal(t, []signaltype.Capability{signaltype.Luminescence}, cfg.Loading.Capabilities)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
}

func TestLoad_EnvFile(t *testing.T) {
	log.Logger = zerolog.Nop()
	dir := chdirTemp(t)

	t.Setenv("ENVIRONMENT", "staging")
	t.Setenv("PORT", "")
	os.Unsetenv("PORT")
	t.Setenv("DATABASE_URL", "")
	os.Unsetenv("DATABASE_URL")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.staging"),
		[]byte("PORT=9090\nDATABASE_URL=postgres://u:p@db:5432/spectra\n"), 0o644))

	cfg, err := load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "postgres://u:p@db:5432/spectra", cfg.Database.URL)
}

func TestLoad_Invalid(t *testing.T) {
	log.Logger = zerolog.Nop()
	chdirTemp(t)

	t.Setenv("SIGNAL_CAPABILITIES", "eels")
	_, err := load(viper.New())
	assert.ErrorIs(t, err, signaltype.ErrUnknownCapability)

	t.Setenv("SIGNAL_CAPABILITIES", "")
	t.Setenv("AXIS_ABS_TOLERANCE", "-1")
	_, err = load(viper.New())
	assert.Error(t, err)
}
