package xentity

import (
	"context"
)

// Exec runs one statement that returns no rows (INSERT, UPDATE, DELETE, DDL)
// and discards the affected row count.
//
// The connection is opened first if it is not open. Driver failures come
// back as *ExecutionError; an empty query is an *ArgumentError.
//
// Example:
//
//	s := xentity.NewSession()
//	if _, err := s.ConfigureDSN("sqlite", "file:app.db"); err != nil {
//	    log.Fatal(err)
//	}
//	err := s.Exec(ctx, `CREATE TABLE test (ID INTEGER PRIMARY KEY, Name TEXT)`)
func (s *Session) Exec(ctx context.Context, query string, args ...any) error {
	if query == "" {
		return &ArgumentError{Arg: "query", Reason: "empty"}
	}
	conn, err := s.requireConn()
	if err != nil {
		return err
	}
	cmd := conn.NewCommand()
	cmd.SetText(query, args...)
	return s.run(ctx, cmd)
}

// ExecMany runs queries in order on one reused command, ensuring the
// connection is open before each. The first failure stops the sequence;
// statements that already ran are not undone.
//
// Notes:
//   - Wrap the statements in BEGIN/COMMIT yourself when you need atomicity.
func (s *Session) ExecMany(ctx context.Context, queries []string) error {
	if queries == nil {
		return &ArgumentError{Arg: "queries", Reason: "nil list"}
	}
	conn, err := s.requireConn()
	if err != nil {
		return err
	}
	cmd := conn.NewCommand()
	for _, q := range queries {
		if q == "" {
			return &ArgumentError{Arg: "query", Reason: "empty"}
		}
		cmd.SetText(q)
		if err := s.run(ctx, cmd); err != nil {
			return err
		}
	}
	return nil
}

// ExecBatch is ExecMany for prepared statements: each one gets its own
// command and keeps its bound arguments.
func (s *Session) ExecBatch(ctx context.Context, stmts []Statement) error {
	if stmts == nil {
		return &ArgumentError{Arg: "statements", Reason: "nil list"}
	}
	conn, err := s.requireConn()
	if err != nil {
		return err
	}
	for _, st := range stmts {
		if st.Text == "" {
			return &ArgumentError{Arg: "query", Reason: "empty"}
		}
		cmd := conn.NewCommand()
		cmd.SetText(st.Text, st.Args...)
		if err := s.run(ctx, cmd); err != nil {
			return err
		}
	}
	return nil
}

// Scalar runs a query and returns the first column of the LAST row read, as
// text. It returns "" when the query yields no rows or the value is NULL.
//
// Every row is read. Add ORDER BY or LIMIT to the query when only one row
// matters.
func (s *Session) Scalar(ctx context.Context, query string, args ...any) (string, error) {
	if query == "" {
		return "", &ArgumentError{Arg: "query", Reason: "empty"}
	}
	conn, err := s.requireConn()
	if err != nil {
		return "", err
	}
	cmd := conn.NewCommand()
	cmd.SetText(query, args...)
	rows, err := s.query(ctx, cmd)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return "", &ExecutionError{Op: "query", Query: query, Err: err}
	}
	if len(cols) == 0 {
		return "", nil
	}
	raw := make([]any, len(cols))
	dest := make([]any, len(cols))
	for i := range raw {
		dest[i] = &raw[i]
	}
	var out string
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return "", &ExecutionError{Op: "query", Query: query, Err: err}
		}
		out = ""
		if raw[0] != nil {
			v, err := Coerce(TypeText, raw[0])
			if err != nil {
				return "", err
			}
			out = v.(string)
		}
	}
	if err := rows.Err(); err != nil {
		return "", &ExecutionError{Op: "query", Query: query, Err: err}
	}
	return out, nil
}

// run ensures liveness and executes cmd as a non-query.
func (s *Session) run(ctx context.Context, cmd Command) error {
	if err := s.EnsureOpen(ctx); err != nil {
		return err
	}
	n, err := cmd.Exec(ctx)
	if err != nil {
		s.log.Debug().Err(err).Str("sql", cmd.Text()).Msg("xentity: exec failed")
		return &ExecutionError{Op: "exec", Query: cmd.Text(), Err: err}
	}
	s.log.Debug().Str("sql", cmd.Text()).Int64("rows", n).Msg("xentity: exec")
	return nil
}

// query ensures liveness and opens cmd's row stream.
func (s *Session) query(ctx context.Context, cmd Command) (Rows, error) {
	if err := s.EnsureOpen(ctx); err != nil {
		return nil, err
	}
	rows, err := cmd.Query(ctx)
	if err != nil {
		s.log.Debug().Err(err).Str("sql", cmd.Text()).Msg("xentity: query failed")
		return nil, &ExecutionError{Op: "query", Query: cmd.Text(), Err: err}
	}
	s.log.Debug().Str("sql", cmd.Text()).Msg("xentity: query")
	return rows, nil
}
