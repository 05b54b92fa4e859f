package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_DSN(t *testing.T) {
	cfg := Config{User: "todo", Password: "p@ss", Host: "db", Port: 5432, Database: "todolist"}
	assert.Equal(t, "postgres://todo:p%40ss@db:5432/todolist", cfg.DSN())
}

func TestRunMigrations(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	orig := gooseUpContext
	defer func() { gooseUpContext = orig }()

	var gotDir string
	gooseUpContext = func(_ context.Context, _ *sql.DB, dir string, _ ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}
	require.NoError(t, RunMigrations(context.Background(), db))
	assert.Equal(t, ".", gotDir)

	gooseUpContext = func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error {
		return errors.New("bad migration")
	}
	err = RunMigrations(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad migration")
}

func TestParseID(t *testing.T) {
	n, ok := parseID("42")
	assert.True(t, ok)
	assert.Equal(t, int64(42), n)

	for _, bad := range []string{"", "0", "-3", "abc", "65a3f0c2e4b0a1b2c3d4e5f6"} {
		_, ok := parseID(bad)
		assert.False(t, ok, bad)
	}
}
