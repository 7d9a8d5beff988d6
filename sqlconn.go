package xentity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SQLConn adapts a database/sql handle to the [Conn] contract. It works with
// any registered driver (mysql, postgres, pgx, sqlserver, sqlite, ...).
type SQLConn struct {
	driverName string
	dsn        string
	db         *sql.DB
	state      ConnState
}

// NewSQLConn returns a closed connection for the given driver and DSN.
// Nothing is dialed until Open.
func NewSQLConn(driverName, dsn string) *SQLConn {
	return &SQLConn{driverName: driverName, dsn: dsn}
}

// WrapDB adapts an existing *sql.DB. The first Open pings it.
//
// Once closed, a wrapped handle cannot be reopened because the DSN is unknown.
func WrapDB(driverName string, db *sql.DB) *SQLConn {
	return &SQLConn{driverName: driverName, db: db}
}

// DriverName returns the database/sql driver name.
func (c *SQLConn) DriverName() string { return c.driverName }

// DB returns the underlying handle, or nil before the first Open.
func (c *SQLConn) DB() *sql.DB { return c.db }

// State implements [Conn].
func (c *SQLConn) State() ConnState { return c.state }

// Open implements [Conn]. It opens the handle if needed and verifies it with a ping.
func (c *SQLConn) Open(ctx context.Context) error {
	if c.db == nil {
		if c.dsn == "" {
			c.state = StateBroken
			return errors.New("xentity: sql conn: no DSN to open")
		}
		db, err := sql.Open(c.driverName, c.dsn)
		if err != nil {
			c.state = StateBroken
			return fmt.Errorf("xentity: sql conn: open %s: %w", c.driverName, err)
		}
		c.db = db
	}
	if err := c.db.PingContext(ctx); err != nil {
		c.state = StateBroken
		return fmt.Errorf("xentity: sql conn: ping %s: %w", c.driverName, err)
	}
	c.state = StateOpen
	return nil
}

// Close implements [Conn].
func (c *SQLConn) Close() error {
	c.state = StateClosed
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// NewCommand implements [Conn].
func (c *SQLConn) NewCommand() Command { return &sqlCommand{conn: c} }

type sqlCommand struct {
	conn  *SQLConn
	query string
	args  []any
}

func (c *sqlCommand) SetText(query string, args ...any) {
	c.query = query
	c.args = args
}

func (c *sqlCommand) Text() string { return c.query }

func (c *sqlCommand) Exec(ctx context.Context) (int64, error) {
	if c.conn.db == nil {
		return 0, errors.New("xentity: sql conn is not open")
	}
	res, err := c.conn.db.ExecContext(ctx, c.query, c.args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return -1, nil
	}
	return n, nil
}

func (c *sqlCommand) Query(ctx context.Context) (Rows, error) {
	if c.conn.db == nil {
		return nil, errors.New("xentity: sql conn is not open")
	}
	rows, err := c.conn.db.QueryContext(ctx, c.query, c.args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

var _ Conn = (*SQLConn)(nil)
