package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 50, cfg.Server.BodyLimitMB)
	assert.Equal(t, "memory", cfg.DB.Driver)
	assert.Equal(t, "eng", cfg.OCR.Language)
	assert.Equal(t, 4, cfg.OCR.PageSegMode)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("STMT_SERVER_PORT", ":9090")
	t.Setenv("STMT_DB_DRIVER", "postgres")
	t.Setenv("STMT_DB_PORT", "6543")
	t.Setenv("STMT_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, 6543, cfg.DB.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("STMT_OCR_LANGUAGE=deu\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("STMT_OCR_LANGUAGE") })

	cfg, err := Load(path, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "deu", cfg.OCR.Language)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("STMT_DB_DRIVER", "sqlite")
	_, err := Load()
	assert.ErrorContains(t, err, "unknown db driver")
}

func TestDBConfig_DSN(t *testing.T) {
	d := DBConfig{User: "u", Password: "p", Host: "db", Port: 5432, Name: "stmts", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/stmts?sslmode=disable", d.DSN())
}
