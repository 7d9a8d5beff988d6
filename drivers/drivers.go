// Package drivers registers the database/sql drivers xentity sessions are
// expected to run on and turns endpoint settings into driver DSNs.
//
// Importing it (even blank) makes the names MySQL, Postgres, PGX, SQLServer
// and SQLite available to sql.Open and xentity.Session.ConfigureDSN.
package drivers

import (
	"fmt"
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"

	_ "github.com/denisenkom/go-mssqldb" // sqlserver
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx
	_ "github.com/lib/pq"              // postgres
	_ "modernc.org/sqlite"             // sqlite

	"github.com/go-mizu/xentity"
)

// Registered driver names.
const (
	MySQL     = "mysql"
	Postgres  = "postgres"
	PGX       = "pgx"
	SQLServer = "sqlserver"
	SQLite    = "sqlite"
)

var defaultPorts = map[string]int{
	MySQL:     3306,
	Postgres:  5432,
	PGX:       5432,
	SQLServer: 1433,
}

// Endpoint is a database address in parts. For SQLite only Database (the
// file path) and Params are used.
type Endpoint struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	Params   map[string]string
}

// Canonical maps driver aliases (postgresql, mssql, sqlite3, ...) to the
// registered name.
func Canonical(driver string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "mysql", "mariadb":
		return MySQL, nil
	case "postgres", "postgresql", "pq":
		return Postgres, nil
	case "pgx":
		return PGX, nil
	case "sqlserver", "mssql":
		return SQLServer, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return "", fmt.Errorf("drivers: unsupported driver %q", driver)
}

// DSN builds the connection string of driver for e.
func DSN(driver string, e Endpoint) (string, error) {
	name, err := Canonical(driver)
	if err != nil {
		return "", err
	}
	if name == SQLite {
		return sqliteDSN(e)
	}
	if e.Host == "" {
		return "", fmt.Errorf("drivers: %s: host is required", name)
	}
	port := e.Port
	if port == 0 {
		port = defaultPorts[name]
	}
	addr := net.JoinHostPort(e.Host, strconv.Itoa(port))

	switch name {
	case MySQL:
		return mysqlDSN(addr, e), nil
	case Postgres, PGX:
		return postgresDSN(addr, e)
	default:
		return sqlserverDSN(addr, e), nil
	}
}

func mysqlDSN(addr string, e Endpoint) string {
	cfg := mysql.NewConfig()
	cfg.User = e.User
	cfg.Passwd = e.Password
	cfg.Net = "tcp"
	cfg.Addr = addr
	cfg.DBName = e.Database
	cfg.ParseTime = true
	if len(e.Params) > 0 {
		cfg.Params = make(map[string]string, len(e.Params))
		for k, v := range e.Params {
			cfg.Params[k] = v
		}
	}
	return cfg.FormatDSN()
}

func postgresDSN(addr string, e Endpoint) (string, error) {
	u := url.URL{Scheme: "postgres", Host: addr, Path: "/" + e.Database}
	if e.User != "" {
		if e.Password != "" {
			u.User = url.UserPassword(e.User, e.Password)
		} else {
			u.User = url.User(e.User)
		}
	}
	q := query(e.Params)
	if q.Get("sslmode") == "" {
		q.Set("sslmode", "disable")
	}
	u.RawQuery = q.Encode()
	dsn := u.String()
	if _, err := pgx.ParseConfig(dsn); err != nil {
		return "", fmt.Errorf("drivers: postgres dsn: %w", err)
	}
	return dsn, nil
}

func sqlserverDSN(addr string, e Endpoint) string {
	u := url.URL{Scheme: "sqlserver", Host: addr}
	if e.User != "" {
		u.User = url.UserPassword(e.User, e.Password)
	}
	q := query(e.Params)
	if e.Database != "" {
		q.Set("database", e.Database)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func sqliteDSN(e Endpoint) (string, error) {
	if e.Database == "" {
		return "", fmt.Errorf("drivers: sqlite: database path is required")
	}
	if len(e.Params) == 0 {
		return e.Database, nil
	}
	keys := make([]string, 0, len(e.Params))
	for k := range e.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString("file:")
	b.WriteString(e.Database)
	for i, k := range keys {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(e.Params[k]))
	}
	return b.String(), nil
}

func query(params map[string]string) url.Values {
	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	return q
}

// Open builds a session from cfg, deriving cfg.DSN from the endpoint fields
// when it is empty. The driver name is canonicalized first.
//
//	cfg, err := xentity.LoadConfig("db.yaml")
//	s, err := drivers.Open(cfg)
func Open(cfg xentity.Config, opts ...xentity.Option) (*xentity.Session, error) {
	name, err := Canonical(cfg.Driver)
	if err != nil {
		return nil, &xentity.ConfigurationError{Reason: err.Error()}
	}
	cfg.Driver = name
	if cfg.DSN == "" {
		dsn, err := DSN(name, Endpoint{
			Host:     cfg.Host,
			Port:     cfg.Port,
			Database: cfg.Database,
			User:     cfg.User,
			Password: cfg.Password,
			Params:   cfg.Params,
		})
		if err != nil {
			return nil, &xentity.ConfigurationError{Reason: err.Error()}
		}
		cfg.DSN = dsn
	}
	return xentity.OpenConfig(cfg, opts...)
}
