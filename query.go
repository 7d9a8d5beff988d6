package xentity

import (
	"context"
	"errors"
)

// Materialize reads every remaining row of rows into a new T.
//
// Columns bind to fields by name, case-insensitively; a quoted column name
// ("Name", `Name`, [Name]) matches too. Each value is coerced to the field's
// FieldType before Set is called. Columns without a field are dropped,
// fields without a column keep their zero value, and NULL leaves the field
// untouched.
//
// The whole result is consumed before returning. Materialize does not close
// rows.
func Materialize[T any](rows Rows, fields []Field[T]) ([]T, error) {
	if rows == nil {
		return nil, &ArgumentError{Arg: "rows", Reason: "nil"}
	}
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	byName := make(map[string]int, len(fields))
	for i, f := range fields {
		key := foldName(f.Name)
		if _, dup := byName[key]; !dup {
			byName[key] = i
		}
	}
	plan := make([]int, len(cols)) // column -> field index, -1 = drop
	for i, c := range cols {
		plan[i] = -1
		if fi, ok := byName[normalizeColumn(c)]; ok {
			plan[i] = fi
		}
	}

	raw := make([]any, len(cols))
	dest := make([]any, len(cols))
	for i := range raw {
		dest[i] = &raw[i]
	}

	var out []T
	for rows.Next() {
		clear(raw)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		var rec T
		for i, fi := range plan {
			if fi < 0 || raw[i] == nil {
				continue
			}
			f := fields[fi]
			v, err := Coerce(f.Type, raw[i])
			if err != nil {
				return nil, withField(err, f.Name)
			}
			if err := f.Set(&rec, v); err != nil {
				return nil, &ConversionError{Field: f.Name, Target: f.Type, Value: raw[i], Err: err}
			}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Query runs an arbitrary query and materializes the rows into T using the
// session's mapping for T.
//
// Example:
//
//	type User struct {
//	    ID    int64
//	    Email string `db:"email"`
//	}
//
//	users, err := xentity.Query[User](ctx, s, `SELECT ID, email FROM users WHERE active = ?`, true)
func Query[T any](ctx context.Context, s *Session, query string, args ...any) (out []T, err error) {
	if query == "" {
		return nil, &ArgumentError{Arg: "query", Reason: "empty"}
	}
	conn, err := s.requireConn()
	if err != nil {
		return nil, err
	}
	m, err := Lookup[T](s.registry)
	if err != nil {
		return nil, err
	}
	cmd := conn.NewCommand()
	cmd.SetText(query, args...)
	return queryInto(ctx, s, cmd, m)
}

func queryInto[T any](ctx context.Context, s *Session, cmd Command, m *Mapping[T]) (out []T, err error) {
	rows, err := s.query(ctx, cmd)
	if err != nil {
		return nil, err
	}
	// Propagate rows.Close() error if nothing else failed.
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = &ExecutionError{Op: "query", Query: cmd.Text(), Err: cerr}
		}
	}()

	out, err = Materialize(rows, m.fields)
	if err != nil {
		var ce *ConversionError
		if errors.As(err, &ce) {
			return nil, err
		}
		return nil, &ExecutionError{Op: "query", Query: cmd.Text(), Err: err}
	}
	return out, nil
}
