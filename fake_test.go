package xentity

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"testing"
)

// --- Fake Conn / Command / Rows ---------------------------------------------

type fakeConn struct {
	state    ConnState
	opens    int
	openErr  error
	fail     func(query string) error
	rows     func(query string, args []any) (cols []string, data [][]any)
	execs    []executed
	lastRows *fakeRows
}

type executed struct {
	query string
	args  []any
}

func newFakeConn() *fakeConn { return &fakeConn{} }

func (c *fakeConn) Open(context.Context) error {
	c.opens++
	if c.openErr != nil {
		c.state = StateBroken
		return c.openErr
	}
	c.state = StateOpen
	return nil
}

func (c *fakeConn) Close() error        { c.state = StateClosed; return nil }
func (c *fakeConn) State() ConnState    { return c.state }
func (c *fakeConn) NewCommand() Command { return &fakeCommand{conn: c} }

func (c *fakeConn) queries() []string {
	out := make([]string, len(c.execs))
	for i, e := range c.execs {
		out[i] = e.query
	}
	return out
}

type fakeCommand struct {
	conn  *fakeConn
	query string
	args  []any
}

func (c *fakeCommand) SetText(query string, args ...any) { c.query, c.args = query, args }
func (c *fakeCommand) Text() string                      { return c.query }

func (c *fakeCommand) Exec(context.Context) (int64, error) {
	if c.conn.state != StateOpen {
		return 0, errors.New("fake: not open")
	}
	c.conn.execs = append(c.conn.execs, executed{c.query, c.args})
	if c.conn.fail != nil {
		if err := c.conn.fail(c.query); err != nil {
			return 0, err
		}
	}
	return 1, nil
}

func (c *fakeCommand) Query(context.Context) (Rows, error) {
	if c.conn.state != StateOpen {
		return nil, errors.New("fake: not open")
	}
	c.conn.execs = append(c.conn.execs, executed{c.query, c.args})
	if c.conn.fail != nil {
		if err := c.conn.fail(c.query); err != nil {
			return nil, err
		}
	}
	var (
		cols []string
		data [][]any
	)
	if c.conn.rows != nil {
		cols, data = c.conn.rows(c.query, c.args)
	}
	r := &fakeRows{cols: cols, data: data, i: -1}
	c.conn.lastRows = r
	return r, nil
}

type fakeRows struct {
	cols    []string
	data    [][]any
	i       int
	closed  bool
	scanErr error
}

func (r *fakeRows) Columns() ([]string, error) { return append([]string(nil), r.cols...), nil }
func (r *fakeRows) Err() error                 { return nil }
func (r *fakeRows) Close() error               { r.closed = true; return nil }

func (r *fakeRows) Next() bool {
	if r.i+1 >= len(r.data) {
		return false
	}
	r.i++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	if r.scanErr != nil {
		return r.scanErr
	}
	row := r.data[r.i]
	for i, d := range dest {
		p := d.(*any)
		if i < len(row) {
			*p = row[i]
		} else {
			*p = nil
		}
	}
	return nil
}

// newFakeSession returns a session over a fresh fake connection.
func newFakeSession(t *testing.T, opts ...Option) (*Session, *fakeConn) {
	t.Helper()
	conn := newFakeConn()
	s := NewSession(append([]Option{WithRegistry(NewRegistry())}, opts...)...)
	if _, err := s.Configure(conn); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	return s, conn
}

// --- Minimal in-test database/sql driver ------------------------------------

type DBHandler func(query string, args []driver.NamedValue) (cols []string, rows [][]driver.Value, err error)

type testConnector struct {
	h DBHandler
}

func (c *testConnector) Connect(context.Context) (driver.Conn, error) { return &testConn{h: c.h}, nil }
func (c *testConnector) Driver() driver.Driver                        { return testDriver{} }

type testDriver struct{}

func (testDriver) Open(name string) (driver.Conn, error) {
	return nil, errors.New("testDriver.Open should not be called; use sql.OpenDB with connector")
}

type testConn struct {
	h DBHandler
}

func (c *testConn) Prepare(string) (driver.Stmt, error) { return nil, driver.ErrSkip }
func (c *testConn) Close() error                        { return nil }
func (c *testConn) Begin() (driver.Tx, error)           { return nil, driver.ErrSkip }

func (c *testConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	cols, data, err := c.h(query, args)
	if err != nil {
		return nil, err
	}
	return &testRows{cols: cols, data: data}, nil
}

func (c *testConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	if _, _, err := c.h(query, args); err != nil {
		return nil, err
	}
	return driver.RowsAffected(1), nil
}

type testRows struct {
	cols []string
	data [][]driver.Value
	i    int
}

func (r *testRows) Columns() []string { return append([]string(nil), r.cols...) }
func (r *testRows) Close() error      { return nil }
func (r *testRows) Next(dest []driver.Value) error {
	if r.i >= len(r.data) {
		return io.EOF
	}
	row := r.data[r.i]
	for i := range dest {
		if i < len(row) {
			dest[i] = row[i]
		} else {
			dest[i] = nil
		}
	}
	r.i++
	return nil
}

// newTestDB creates a *sql.DB backed by the in-memory test driver.
func newTestDB(t *testing.T, h DBHandler) *sql.DB {
	t.Helper()
	return sql.OpenDB(&testConnector{h: h})
}
