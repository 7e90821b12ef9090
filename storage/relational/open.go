package relational

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-sql-driver/mysql"

	// Registers the "sqlite" driver
	_ "modernc.org/sqlite"
)

// MySQLConfig holds connection settings for OpenMySQL
type MySQLConfig struct {
	Host     string `env:"OAUTH_DB_HOST" envDefault:"localhost"`
	Port     int    `env:"OAUTH_DB_PORT" envDefault:"3306"`
	User     string `env:"OAUTH_DB_USER"`
	Password string `env:"OAUTH_DB_PASSWORD"`
	Name     string `env:"OAUTH_DB_NAME"`

	MaxOpenConns    int           `env:"OAUTH_DB_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"OAUTH_DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"OAUTH_DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	PingTimeout     time.Duration `env:"OAUTH_DB_PING_TIMEOUT" envDefault:"5s"`
}

// LoadMySQLConfigFromEnv reads a MySQLConfig from OAUTH_DB_* environment variables
func LoadMySQLConfigFromEnv() (MySQLConfig, error) {
	var cfg MySQLConfig
	if err := env.Parse(&cfg); err != nil {
		return MySQLConfig{}, fmt.Errorf("failed to parse database config: %w", err)
	}
	return cfg, nil
}

// DSN returns the go-sql-driver/mysql data source name for cfg
func (cfg MySQLConfig) DSN() string {
	mysqlCfg := mysql.NewConfig()
	mysqlCfg.User = cfg.User
	mysqlCfg.Passwd = cfg.Password
	mysqlCfg.Net = "tcp"
	mysqlCfg.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	mysqlCfg.DBName = cfg.Name
	mysqlCfg.AllowNativePasswords = true
	mysqlCfg.Params = map[string]string{
		"charset": "utf8mb4",
	}

	return mysqlCfg.FormatDSN()
}

// OpenMySQL opens and verifies a MySQL connection pool
func OpenMySQL(ctx context.Context, cfg MySQLConfig) (*sql.DB, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("database name is required")
	}

	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open mysql connection: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns >= 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	return db, nil
}

// OpenSQLite opens a SQLite database file with foreign keys enforced.
// ":memory:" opens a private in-memory database on a single connection.
func OpenSQLite(path string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	memory := path == ":memory:"
	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if !memory {
		dsn += "&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if memory {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	return db, nil
}
