package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearStoreEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"STORE_URL", "STORE_SERVICE_KEY", "SUPABASE_URL", "SUPABASE_KEY", "SUPABASE_SERVICE_ROLE_KEY"} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	clearStoreEnv(t)
	t.Setenv("STORE_URL", "https://example.supabase.co")
	t.Setenv("STORE_SERVICE_KEY", "secret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 36, cfg.MaxPages)
	assert.Equal(t, 20*time.Second, cfg.WaitTimeout)
	assert.Equal(t, 2*time.Second, cfg.SettleDelay)
	assert.Equal(t, BackendREST, cfg.StoreBackend)
	assert.Equal(t, "all_cards", cfg.StoreTable)
	assert.False(t, cfg.PersistImageURL)
	assert.True(t, cfg.Headless)
	assert.Equal(t, "pokemon", cfg.ProductLine)
	assert.Len(t, cfg.SetNames, 4)
	assert.Equal(t, ".", cfg.DebugDir)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoad_MissingCredentials(t *testing.T) {
	t.Chdir(t.TempDir())
	clearStoreEnv(t)
	t.Setenv("STORE_URL", "https://example.supabase.co")
	t.Setenv("STORE_SERVICE_KEY", "   ")

	_, err := Load("")
	require.ErrorIs(t, err, ErrMissingCredentials)
	assert.Contains(t, err.Error(), "STORE_SERVICE_KEY")
}

func TestLoad_Aliases(t *testing.T) {
	t.Chdir(t.TempDir())
	clearStoreEnv(t)
	t.Setenv("SUPABASE_URL", "https://alias.supabase.co")
	t.Setenv("SUPABASE_KEY", "alias-key")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://alias.supabase.co", cfg.StoreURL)
	assert.Equal(t, "alias-key", cfg.StoreServiceKey)
}

func TestLoad_EnvFileAndOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	clearStoreEnv(t)

	envFile := filepath.Join(dir, "scraper.env")
	content := "STORE_URL=https://file.supabase.co\n" +
		"STORE_SERVICE_KEY=file-key\n" +
		"MAX_PAGES=3\n" +
		"SET_NAMES=crown-zenith, sv10-destined-rivals\n" +
		"STORE_BACKEND=Postgres\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	t.Setenv("MAX_PAGES", "5")
	t.Setenv("WAIT_TIMEOUT", "3s")

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, "https://file.supabase.co", cfg.StoreURL)
	assert.Equal(t, 5, cfg.MaxPages)
	assert.Equal(t, 3*time.Second, cfg.WaitTimeout)
	assert.Equal(t, BackendPostgres, cfg.StoreBackend)
	assert.Equal(t, []string{"crown-zenith", "sv10-destined-rivals"}, cfg.SetNames)
}

func TestLoad_ExplicitEnvFileMustExist(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := Load("does-not-exist.env")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{
		StoreURL:        "https://example.supabase.co",
		StoreServiceKey: "secret",
		StoreBackend:    BackendREST,
		MaxPages:        1,
		WaitTimeout:     time.Second,
		SetNames:        []string{"crown-zenith"},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.StoreBackend = "sqlite" }},
		{"zero pages", func(c *Config) { c.MaxPages = 0 }},
		{"zero wait", func(c *Config) { c.WaitTimeout = 0 }},
		{"no sets", func(c *Config) { c.SetNames = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
