package config

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/udovin/gosql"

	// Register SQL drivers.
	_ "github.com/jackc/pgx/v4/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

type DatabaseDriver string

const (
	SQLiteDriver   DatabaseDriver = "sqlite"
	PostgresDriver DatabaseDriver = "postgres"
)

type DBOptions interface {
	Driver() DatabaseDriver
	create() (*gosql.DB, error)
}

// SQLiteOptions stores SQLite connection options.
type SQLiteOptions struct {
	Path string `json:"path"`
}

func (o SQLiteOptions) Driver() DatabaseDriver {
	return SQLiteDriver
}

func (o SQLiteOptions) create() (*gosql.DB, error) {
	conn, err := sql.Open(
		"sqlite3", fmt.Sprintf("file:%s?cache=shared", o.Path),
	)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = conn.Close()
		return nil, err
	}
	// SQLite does not support concurrent writes.
	conn.SetMaxOpenConns(1)
	return &gosql.DB{
		DB:      conn,
		RO:      conn,
		Builder: gosql.NewBuilder(gosql.SQLiteDialect),
	}, nil
}

// PostgresOptions stores Postgres connection options.
type PostgresOptions struct {
	Hosts    []string `json:"hosts"`
	Port     int      `json:"port"`
	User     string   `json:"user"`
	Password Secret   `json:"password"`
	Name     string   `json:"name"`
	SSLMode  string   `json:"sslmode,omitempty"`
}

func (o PostgresOptions) Driver() DatabaseDriver {
	return PostgresDriver
}

func (o PostgresOptions) create() (*gosql.DB, error) {
	password, err := o.Password.GetValue()
	if err != nil {
		return nil, err
	}
	sslMode := o.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}
	conn, err := sql.Open("pgx", fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		strings.Join(o.Hosts, ","), o.Port, o.User, password, o.Name, sslMode,
	))
	if err != nil {
		return nil, err
	}
	return &gosql.DB{
		DB:      conn,
		RO:      conn,
		Builder: gosql.NewBuilder(gosql.PostgresDialect),
	}, nil
}

// DB stores database connection config.
type DB struct {
	Options DBOptions `json:"options"`
}

// Create creates database connection using current configuration.
func (c DB) Create() (*gosql.DB, error) {
	if c.Options == nil {
		return nil, fmt.Errorf("database is not configured")
	}
	return c.Options.create()
}

func (c DB) MarshalJSON() ([]byte, error) {
	cfg := struct {
		Driver  DatabaseDriver `json:"driver"`
		Options DBOptions      `json:"options"`
	}{
		Driver:  c.Options.Driver(),
		Options: c.Options,
	}
	return json.Marshal(cfg)
}

func (c *DB) UnmarshalJSON(bytes []byte) error {
	var cfg struct {
		Driver  DatabaseDriver  `json:"driver"`
		Options json.RawMessage `json:"options"`
	}
	if err := json.Unmarshal(bytes, &cfg); err != nil {
		return err
	}
	switch cfg.Driver {
	case SQLiteDriver:
		var options SQLiteOptions
		if err := json.Unmarshal(cfg.Options, &options); err != nil {
			return err
		}
		c.Options = options
	case PostgresDriver:
		var options PostgresOptions
		if err := json.Unmarshal(cfg.Options, &options); err != nil {
			return err
		}
		c.Options = options
	default:
		return fmt.Errorf("driver %q is not supported", cfg.Driver)
	}
	return nil
}
