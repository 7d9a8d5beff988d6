package xentity

import (
	"context"
)

// ConnState reports whether a connection handle is usable.
type ConnState uint8

const (
	StateClosed ConnState = iota
	StateOpen
	StateBroken // last open attempt failed
)

func (s ConnState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateBroken:
		return "broken"
	default:
		return "closed"
	}
}

// Conn is the connection half of the driver contract. A [Session] owns exactly
// one Conn and calls Open whenever State is not [StateOpen].
//
// [SQLConn] implements Conn on top of database/sql; other backends only need
// these four methods.
type Conn interface {
	Open(ctx context.Context) error
	Close() error
	State() ConnState
	// NewCommand returns a command bound to this connection.
	NewCommand() Command
}

// Command is the statement half of the driver contract. A command may be
// reused: SetText replaces both the statement text and its arguments.
type Command interface {
	SetText(query string, args ...any)
	Text() string
	// Exec runs the statement as a non-query and reports the affected row count
	// (-1 when the driver cannot tell).
	Exec(ctx context.Context) (int64, error)
	// Query runs the statement and returns its row stream. The caller closes it.
	Query(ctx context.Context) (Rows, error)
}

// Rows is the row stream returned by [Command.Query]. It is implemented by
// *sql.Rows and by any iterator that can name its columns and scan a row.
type Rows interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// driverNamer is implemented by connections that know which database/sql
// driver they speak, so a [Session] can pick a placeholder style.
type driverNamer interface {
	DriverName() string
}
