package database

// Config holds settings of the embedded SQLite database file.
type Config struct {
	Path           string `yaml:"path" envconfig:"DB_PATH"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
	BusyTimeoutMS  int    `yaml:"busy_timeout_ms" envconfig:"DB_BUSY_TIMEOUT_MS"`
	// MigrationsTable overrides the golang-migrate bookkeeping table name.
	MigrationsTable string `yaml:"migrations_table"`
}

const (
	DefaultPath          = "bot.db"
	defaultBusyTimeoutMS = 5000
)

// WithDefaults fills zero values.
func (c Config) WithDefaults() Config {
	if c.Path == "" {
		c.Path = DefaultPath
	}
	if c.MaxConnections <= 0 {
		c.MaxConnections = 1
	}
	if c.BusyTimeoutMS <= 0 {
		c.BusyTimeoutMS = defaultBusyTimeoutMS
	}
	return c
}
