package xentity

import (
	"context"
)

// Insert writes v as a new row of T's table, one column per mapped field in
// field order.
//
// Example:
//
//	type Test struct {
//	    Id   int
//	    Name string
//	}
//
//	func (Test) TableIdentity() xentity.Table { return xentity.Table{Name: "test"} }
//
//	err := xentity.Insert(ctx, s, &Test{Id: 1, Name: "x"})
//	// bound mode:   insert into test(Id, Name)values(?, ?)   [1 "x"]
//	// literal mode: insert into test(Id, Name)values(1, 'x')
func Insert[T any](ctx context.Context, s *Session, v *T) error {
	if v == nil {
		return &ArgumentError{Arg: "entity", Reason: "nil"}
	}
	m, err := sessionMapping[T](s)
	if err != nil {
		return err
	}
	st, err := s.builder.Insert(m.Table(), m.Values(v))
	if err != nil {
		return err
	}
	return s.Exec(ctx, st.Text, st.Args...)
}

// Update overwrites every mapped column of the row whose ID column equals id.
// Matching no row is not an error.
func Update[T any](ctx context.Context, s *Session, v *T, id string) error {
	if v == nil {
		return &ArgumentError{Arg: "entity", Reason: "nil"}
	}
	if id == "" {
		return &ArgumentError{Arg: "id", Reason: "empty"}
	}
	m, err := sessionMapping[T](s)
	if err != nil {
		return err
	}
	st, err := s.builder.Update(m.Table(), m.Values(v), id)
	if err != nil {
		return err
	}
	return s.Exec(ctx, st.Text, st.Args...)
}

// Delete removes the row of T's table whose ID column equals id.
func Delete[T any](ctx context.Context, s *Session, id string) error {
	if id == "" {
		return &ArgumentError{Arg: "id", Reason: "empty"}
	}
	m, err := sessionMapping[T](s)
	if err != nil {
		return err
	}
	st, err := s.builder.Delete(m.Table(), id)
	if err != nil {
		return err
	}
	return s.Exec(ctx, st.Text, st.Args...)
}

// SelectAll reads every row of T's table.
//
// Example:
//
//	tests, err := xentity.SelectAll[Test](ctx, s)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, t := range tests {
//	    fmt.Println(t.Id, t.Name)
//	}
func SelectAll[T any](ctx context.Context, s *Session) ([]T, error) {
	m, err := sessionMapping[T](s)
	if err != nil {
		return nil, err
	}
	st, err := s.builder.SelectAll(m.Table())
	if err != nil {
		return nil, err
	}
	cmd := s.conn.NewCommand()
	cmd.SetText(st.Text, st.Args...)
	return queryInto(ctx, s, cmd, m)
}

// sessionMapping checks the session before resolving T, so an unconfigured
// session reports ErrNotConfigured first.
func sessionMapping[T any](s *Session) (*Mapping[T], error) {
	if _, err := s.requireConn(); err != nil {
		return nil, err
	}
	return Lookup[T](s.registry)
}
