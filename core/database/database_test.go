package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigNormalize(t *testing.T) {
	cfg := Config{Name: "quiz", User: "bot"}
	require.NoError(t, cfg.Normalize())
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, "5432", cfg.Port)
	assert.Equal(t, "disable", cfg.SSLMode)
	assert.Equal(t, 5, cfg.MaxConnections)
	assert.Equal(t, DefaultMigrationsDir, cfg.MigrationsDir)

	assert.Error(t, (&Config{User: "bot"}).Normalize())
	assert.Error(t, (&Config{Name: "quiz"}).Normalize())
}

func TestConfigDSNAndURL(t *testing.T) {
	cfg := Config{Host: "db", Port: "5433", User: "bot", Password: "p@ss", Name: "quiz", SSLMode: "disable"}
	assert.Equal(t, "user=bot password=p@ss host=db port=5433 dbname=quiz sslmode=disable", cfg.DSN())
	assert.Equal(t, "postgres://bot:p%40ss@db:5433/quiz?sslmode=disable", cfg.URL())
}

func TestMigrationFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000002_quiz_results.up.sql",
		"000001_quiz_sessions.up.sql",
		"000001_quiz_sessions.down.sql",
		"README.md",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	files := migrationFiles(dir)
	assert.Equal(t, []string{"000001_quiz_sessions.up.sql", "000002_quiz_results.up.sql"}, files)
	assert.Equal(t, []string{"000002_quiz_results.up.sql"}, appliedBetween(files, 1, 2))
	assert.Empty(t, appliedBetween(files, 2, 2))
	assert.Nil(t, migrationFiles(filepath.Join(dir, "missing")))
}

func TestRealMigrationsPaired(t *testing.T) {
	dir := filepath.Join("..", "..", "migrations")
	ups := migrationFiles(dir)
	require.NotEmpty(t, ups)
	for _, up := range ups {
		down := up[:len(up)-len(".up.sql")] + ".down.sql"
		_, err := os.Stat(filepath.Join(dir, down))
		assert.NoError(t, err, "missing %s", down)
	}
}
