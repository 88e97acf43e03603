package bootstrap

import (
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/wbcoef/wbcoef/core/config"
	coredatabase "github.com/wbcoef/wbcoef/core/database"
)

func noLogger(*coreconfig.Config) error { return nil }

func TestRunAppliesMigrations(t *testing.T) {
	migrations := fstest.MapFS{
		"migrations/000001_t.up.sql":   {Data: []byte(`CREATE TABLE t (id INTEGER PRIMARY KEY);`)},
		"migrations/000001_t.down.sql": {Data: []byte(`DROP TABLE t;`)},
	}
	res, err := Run(Options{
		Config:     &coreconfig.Config{},
		Database:   coredatabase.Config{Path: filepath.Join(t.TempDir(), "bot.db")},
		Migrations: migrations,
		LoggerInit: noLogger,
	})
	require.NoError(t, err)
	defer res.DB.Close()

	_, err = res.DB.Exec(`INSERT INTO t (id) VALUES (1)`)
	require.NoError(t, err)
}

func TestRunStopsOnMigrationFailure(t *testing.T) {
	boom := errors.New("boom")
	var connected *sqlx.DB
	_, err := Run(Options{
		Config:     &coreconfig.Config{},
		Database:   coredatabase.Config{Path: filepath.Join(t.TempDir(), "bot.db")},
		Migrations: fstest.MapFS{},
		LoggerInit: noLogger,
		Connect: func(cfg coredatabase.Config) (*sqlx.DB, error) {
			db, err := coredatabase.Connect(cfg)
			connected = db
			return db, err
		},
		Migrate: func(coredatabase.Config, fs.FS, string) error { return boom },
	})
	require.ErrorIs(t, err, boom)
	assert.Error(t, connected.Ping(), "db must be closed after a failed migration")
}

func TestRunRequiresConfig(t *testing.T) {
	_, err := Run(Options{})
	assert.Error(t, err)
}
