package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legacyvault/billing/pkg/config"
)

type defaultsConfig struct {
	Name    string        `env:"TEST_CFG_NAME" envDefault:"billing"`
	Port    int           `env:"TEST_CFG_PORT" envDefault:"8080"`
	Timeout time.Duration `env:"TEST_CFG_TIMEOUT" envDefault:"10s"`
}

type overrideConfig struct {
	Name    string   `env:"TEST_CFG_OVERRIDE_NAME" envDefault:"billing"`
	Origins []string `env:"TEST_CFG_ORIGINS" envSeparator:","`
}

type requiredConfig struct {
	Secret string `env:"TEST_CFG_REQUIRED_SECRET,required"`
}

type cachedConfig struct {
	Value string `env:"TEST_CFG_CACHED"`
}

type fileConfig struct {
	Key   string `env:"TEST_CFG_FILE_KEY"`
	Level string `env:"TEST_CFG_FILE_LEVEL"`
}

func TestLoad_Defaults(t *testing.T) {
	var cfg defaultsConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "billing", cfg.Name)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("TEST_CFG_OVERRIDE_NAME", "legacy")
	t.Setenv("TEST_CFG_ORIGINS", "https://a.example.com,https://b.example.com")

	var cfg overrideConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "legacy", cfg.Name)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Origins)
}

func TestLoad_MissingRequired(t *testing.T) {
	var cfg requiredConfig
	err := config.Load(&cfg)
	require.ErrorIs(t, err, config.ErrParsingConfig)
	assert.Panics(t, func() { config.MustLoad(&cfg) })
}

func TestLoad_Cached(t *testing.T) {
	t.Setenv("TEST_CFG_CACHED", "first")

	var first cachedConfig
	require.NoError(t, config.Load(&first))

	t.Setenv("TEST_CFG_CACHED", "second")

	var second cachedConfig
	require.NoError(t, config.Load(&second))
	assert.Equal(t, "first", second.Value)

	config.ResetCache()

	var third cachedConfig
	require.NoError(t, config.Load(&third))
	assert.Equal(t, "second", third.Value)
}

func TestLoad_NilPointer(t *testing.T) {
	var cfg *defaultsConfig
	assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, ".env")
	override := filepath.Join(dir, ".env.local")
	require.NoError(t, os.WriteFile(base, []byte("TEST_CFG_FILE_KEY=base\nTEST_CFG_FILE_LEVEL=info\n"), 0o600))
	require.NoError(t, os.WriteFile(override, []byte("TEST_CFG_FILE_LEVEL=debug\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("TEST_CFG_FILE_KEY")
		os.Unsetenv("TEST_CFG_FILE_LEVEL")
	})

	require.NoError(t, config.LoadEnv(base, override))

	var cfg fileConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "base", cfg.Key)
	assert.Equal(t, "debug", cfg.Level)

	err := config.LoadEnv(filepath.Join(dir, "missing.env"))
	assert.ErrorIs(t, err, config.ErrLoadingEnvFile)
}
