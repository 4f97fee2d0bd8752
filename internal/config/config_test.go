package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves into an empty directory so no config.toml or .env is picked up.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, int32(20), cfg.Database.MaxConns)
	assert.Equal(t, 30*time.Second, cfg.Database.StatementTimeout)
	assert.Equal(t, 5*time.Second, cfg.Database.LockTimeout)
	assert.True(t, cfg.Idempotency.Enabled)
	assert.Equal(t, 24*time.Hour, cfg.Idempotency.TTL)
	assert.Equal(t, 100, cfg.Worker.BatchSize)
	assert.Equal(t, "EUR", cfg.Sales.DefaultCurrency)
	assert.Equal(t, "20", cfg.Sales.DefaultTaxRate.String())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("ERPCORE_APP_PORT", "9090")
	t.Setenv("ERPCORE_STORAGE_DRIVER", "MEMORY")
	t.Setenv("ERPCORE_WORKER_POLL_INTERVAL", "500ms")
	t.Setenv("ERPCORE_SALES_DEFAULT_CURRENCY", "usd")
	t.Setenv("ERPCORE_SALES_DEFAULT_TAX_RATE", "7.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, 500*time.Millisecond, cfg.Worker.PollInterval)
	assert.Equal(t, "USD", cfg.Sales.DefaultCurrency)
	assert.Equal(t, "7.5", cfg.Sales.DefaultTaxRate.String())
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	content := `
[database]
max_conns = 5
lock_timeout = "2s"

[idempotency]
enabled = false
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o600))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int32(5), cfg.Database.MaxConns)
	assert.Equal(t, 2*time.Second, cfg.Database.LockTimeout)
	assert.False(t, cfg.Idempotency.Enabled)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "unknown driver",
			env:  map[string]string{"ERPCORE_STORAGE_DRIVER": "sqlite"},
			want: "unknown storage.driver",
		},
		{
			name: "short secret in production",
			env:  map[string]string{"ERPCORE_APP_ENV": "production", "ERPCORE_AUTH_JWT_SECRET": "short"},
			want: "jwt_secret",
		},
		{
			name: "bad currency",
			env:  map[string]string{"ERPCORE_SALES_DEFAULT_CURRENCY": "EURO"},
			want: "ISO 4217",
		},
		{
			name: "bad tax rate",
			env:  map[string]string{"ERPCORE_SALES_DEFAULT_TAX_RATE": "abc"},
			want: "default_tax_rate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t, t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ERPCORE_APP_PORT=7070\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("ERPCORE_APP_PORT") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.App.Port)
}
