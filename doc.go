/*
Package xentity is a minimal entity-relational mapping layer over a pluggable
connection handle. A record type is mapped to one table; xentity builds the
INSERT, UPDATE, DELETE and SELECT statements for it, runs them through a
Session, and materializes result rows back into typed records.

# Overview

A Session owns one connection handle (any [Conn]; [SQLConn] adapts
database/sql) and reopens it lazily before every statement. CRUD helpers are
generic functions over the record type:

	s := xentity.NewSession()
	if _, err := s.ConfigureDSN("sqlite", "file:app.db"); err != nil {
	    log.Fatal(err)
	}
	err := xentity.Insert(ctx, s, &Test{Id: 1, Name: "x"})
	tests, err := xentity.SelectAll[Test](ctx, s)

The drivers package registers the MySQL, PostgreSQL (lib/pq and pgx), SQL
Server and SQLite drivers and builds DSNs from endpoint fields.

# Declaring records

By default a record's mapping is derived by reflection ([Reflect]) and cached
in a [Registry]. The table is named after the Go type unless the type
implements [Tabler]:

	type Test struct {
	    Id   int
	    Name string
	    Tags []string `db:"tags"`   // stored as JSON
	    Skip string   `db:"-"`
	}

	func (Test) TableIdentity() xentity.Table { return xentity.Table{Name: "test"} }

An explicit [Mapping] built with [NewMapping] and [FieldOf] skips reflection
entirely; install it with [Register].

# Statements and bind modes

Statements use bound parameters by default, with '?' markers rewritten to the
driver's [Placeholder] style ($1, @p1, :1). [BindLiteral] embeds values in
the text through [Literals] instead. Literal mode quotes strings by rewriting
JSON double quotes to single quotes and nothing more, so it must never see
untrusted input.

Update, Delete and Get address rows by the ID column ([IDColumn]).

# Mapping rules

  - Result columns bind to fields by name, case-insensitively; quoted column
    names ("Name", `Name`, [Name]) match too.
  - Columns without a field are dropped; fields without a column keep their zero value.
  - NULL leaves the field untouched.
  - Raw values are coerced to the field's [FieldType] first ([Coerce]); a value
    that cannot be coerced fails the whole read with a *ConversionError.

# Error handling

  - Operations on a session without a handle return ErrNotConfigured.
  - Missing entity, id or statement text is an *ArgumentError.
  - Driver failures are wrapped in *ExecutionError; use errors.As or IsExecution.
  - Get returns ErrNotFound when no row matches.

# Concurrency

A Session is not safe for concurrent use. Registries and Literals are.
*/
package xentity
