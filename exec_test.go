package xentity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExec_OpensAndRuns(t *testing.T) {
	s, conn := newFakeSession(t)
	require.Equal(t, StateClosed, conn.State())

	err := s.Exec(context.Background(), "CREATE TABLE test (ID INTEGER, Name TEXT)")
	require.NoError(t, err)
	assert.Equal(t, StateOpen, conn.State())
	assert.Equal(t, 1, conn.opens)

	// already open: no second Open
	require.NoError(t, s.Exec(context.Background(), "DELETE FROM test"))
	assert.Equal(t, 1, conn.opens)
	assert.Equal(t, []string{"CREATE TABLE test (ID INTEGER, Name TEXT)", "DELETE FROM test"}, conn.queries())
}

func TestExec_EmptyQuery(t *testing.T) {
	s, conn := newFakeSession(t)
	err := s.Exec(context.Background(), "")
	var ae *ArgumentError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "query", ae.Arg)
	assert.Empty(t, conn.execs)
}

func TestExec_DriverError(t *testing.T) {
	s, conn := newFakeSession(t)
	boom := errors.New("table missing")
	conn.fail = func(string) error { return boom }

	err := s.Exec(context.Background(), "DROP TABLE nope")
	var ee *ExecutionError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "exec", ee.Op)
	assert.Equal(t, "DROP TABLE nope", ee.Query)
	assert.ErrorIs(t, err, boom)
}

func TestExec_OpenError(t *testing.T) {
	s, conn := newFakeSession(t)
	conn.openErr = errors.New("refused")

	err := s.Exec(context.Background(), "SELECT 1")
	var ee *ExecutionError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "open", ee.Op)
	assert.Equal(t, StateBroken, conn.State())

	// a broken handle is reopened on the next call
	conn.openErr = nil
	require.NoError(t, s.Exec(context.Background(), "SELECT 1"))
	assert.Equal(t, 2, conn.opens)
}

func TestExecMany_StopsOnFirstFailure(t *testing.T) {
	s, conn := newFakeSession(t)
	conn.fail = func(q string) error {
		if q == "stmt-bad" {
			return errors.New("bad statement")
		}
		return nil
	}

	err := s.ExecMany(context.Background(), []string{"stmt-ok", "stmt-bad", "stmt-ok2"})
	var ee *ExecutionError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "stmt-bad", ee.Query)
	assert.Equal(t, []string{"stmt-ok", "stmt-bad"}, conn.queries())
}

func TestExecMany_Arguments(t *testing.T) {
	s, conn := newFakeSession(t)
	var ae *ArgumentError

	require.ErrorAs(t, s.ExecMany(context.Background(), nil), &ae)
	assert.Equal(t, "queries", ae.Arg)

	require.NoError(t, s.ExecMany(context.Background(), []string{}))

	require.ErrorAs(t, s.ExecMany(context.Background(), []string{"ok", ""}), &ae)
	assert.Equal(t, []string{"ok"}, conn.queries())
}

func TestExecMany_ReopensBetweenStatements(t *testing.T) {
	s, conn := newFakeSession(t)
	conn.fail = func(q string) error {
		if q == "close-it" {
			conn.state = StateClosed
		}
		return nil
	}
	require.NoError(t, s.ExecMany(context.Background(), []string{"a", "close-it", "b"}))
	assert.Equal(t, 2, conn.opens)
	assert.Equal(t, []string{"a", "close-it", "b"}, conn.queries())
}

func TestExecBatch(t *testing.T) {
	s, conn := newFakeSession(t)
	stmts := []Statement{
		{Text: "insert into t(a)values(?)", Args: []any{1}},
		{Text: "insert into t(a)values(?)", Args: []any{2}},
	}
	require.NoError(t, s.ExecBatch(context.Background(), stmts))
	require.Len(t, conn.execs, 2)
	assert.Equal(t, []any{1}, conn.execs[0].args)
	assert.Equal(t, []any{2}, conn.execs[1].args)

	var ae *ArgumentError
	assert.ErrorAs(t, s.ExecBatch(context.Background(), nil), &ae)
}

func TestScalar_LastRowWins(t *testing.T) {
	s, conn := newFakeSession(t)
	conn.rows = func(string, []any) ([]string, [][]any) {
		return []string{"n"}, [][]any{{int64(5)}, {int64(6)}, {int64(7)}}
	}
	got, err := s.Scalar(context.Background(), "SELECT n FROM numbers")
	require.NoError(t, err)
	assert.Equal(t, "7", got)
	assert.True(t, conn.lastRows.closed)
}

func TestScalar_EmptyAndNull(t *testing.T) {
	s, conn := newFakeSession(t)

	conn.rows = func(string, []any) ([]string, [][]any) { return []string{"n"}, nil }
	got, err := s.Scalar(context.Background(), "SELECT n FROM empty")
	require.NoError(t, err)
	assert.Equal(t, "", got)

	conn.rows = func(string, []any) ([]string, [][]any) {
		return []string{"n"}, [][]any{{"first"}, {nil}}
	}
	got, err = s.Scalar(context.Background(), "SELECT n FROM t")
	require.NoError(t, err)
	assert.Equal(t, "", got)

	conn.rows = func(string, []any) ([]string, [][]any) {
		return []string{"name", "id"}, [][]any{{[]byte("abc"), int64(1)}}
	}
	got, err = s.Scalar(context.Background(), "SELECT name, id FROM t")
	require.NoError(t, err)
	assert.Equal(t, "abc", got)
}

func TestNotConfigured(t *testing.T) {
	ctx := context.Background()
	s := NewSession()

	assert.ErrorIs(t, s.Exec(ctx, "SELECT 1"), ErrNotConfigured)
	assert.ErrorIs(t, s.ExecMany(ctx, []string{"SELECT 1"}), ErrNotConfigured)
	assert.ErrorIs(t, s.ExecBatch(ctx, []Statement{{Text: "SELECT 1"}}), ErrNotConfigured)
	_, err := s.Scalar(ctx, "SELECT 1")
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.ErrorIs(t, s.EnsureOpen(ctx), ErrNotConfigured)
	assert.ErrorIs(t, s.Close(), ErrNotConfigured)

	assert.ErrorIs(t, Insert(ctx, s, &record{Id: 1}), ErrNotConfigured)
	assert.ErrorIs(t, Update(ctx, s, &record{Id: 1}, "1"), ErrNotConfigured)
	assert.ErrorIs(t, Delete[record](ctx, s, "1"), ErrNotConfigured)
	_, err = SelectAll[record](ctx, s)
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = Get[record](ctx, s, "1")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = Query[record](ctx, s, "SELECT 1")
	assert.ErrorIs(t, err, ErrNotConfigured)

	var nilSession *Session
	assert.ErrorIs(t, nilSession.Exec(ctx, "SELECT 1"), ErrNotConfigured)
	_, err = SelectAll[record](ctx, nilSession)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Nil(t, nilSession.Conn())
}
