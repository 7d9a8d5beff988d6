package xentity

import (
	"context"
)

// Get reads the row of T's table whose ID column equals id.
//
// It returns [ErrNotFound] when no row matches. When several rows share the
// ID, the first one wins.
//
// Example:
//
//	t, err := xentity.Get[Test](ctx, s, "42")
//	if errors.Is(err, xentity.ErrNotFound) {
//	    // handle not found
//	}
func Get[T any](ctx context.Context, s *Session, id string) (out T, err error) {
	if id == "" {
		return out, &ArgumentError{Arg: "id", Reason: "empty"}
	}
	m, err := sessionMapping[T](s)
	if err != nil {
		return out, err
	}
	st, err := s.builder.SelectByID(m.Table(), id)
	if err != nil {
		return out, err
	}
	cmd := s.conn.NewCommand()
	cmd.SetText(st.Text, st.Args...)
	recs, err := queryInto(ctx, s, cmd, m)
	if err != nil {
		return out, err
	}
	if len(recs) == 0 {
		return out, ErrNotFound
	}
	return recs[0], nil
}
