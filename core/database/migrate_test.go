package database

import (
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMigrations() fstest.MapFS {
	return fstest.MapFS{
		"migrations/000001_init.up.sql":    {Data: []byte(`CREATE TABLE IF NOT EXISTS items (id INTEGER PRIMARY KEY, name TEXT NOT NULL);`)},
		"migrations/000001_init.down.sql":  {Data: []byte(`DROP TABLE IF EXISTS items;`)},
		"migrations/000002_extra.up.sql":   {Data: []byte(`ALTER TABLE items ADD COLUMN note TEXT;`)},
		"migrations/000002_extra.down.sql": {Data: []byte(`ALTER TABLE items DROP COLUMN note;`)},
		"migrations/README.md":             {Data: []byte(`not a migration`)},
	}
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	cfg := Config{Path: filepath.Join(t.TempDir(), "bot.db")}

	require.NoError(t, RunMigrations(cfg, testMigrations(), "migrations"))
	require.NoError(t, RunMigrations(cfg, testMigrations(), "migrations"))

	db, err := Connect(cfg)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`INSERT INTO items (id, name, note) VALUES (1, 'a', 'b')`)
	require.NoError(t, err)
}

func TestListAndSelectApplied(t *testing.T) {
	files := listMigrationFiles(testMigrations(), "migrations")
	assert.Equal(t, []string{"000001_init.up.sql", "000002_extra.up.sql"}, files)

	assert.Equal(t, []string{"000002_extra.up.sql"}, selectApplied(files, 1, 2))
	assert.Empty(t, selectApplied(files, 2, 2))
	assert.Equal(t, uint64(2), parseVersion("000002_extra.up.sql"))
	assert.Equal(t, uint64(0), parseVersion("garbage"))
}

func TestDSNCarriesPragmas(t *testing.T) {
	dsn := DSN(Config{Path: "x.db"})
	assert.Contains(t, dsn, "file:x.db?")
	assert.Contains(t, dsn, "busy_timeout%285000%29")
	assert.Contains(t, dsn, "journal_mode%28WAL%29")
}
