package xentity

import (
	"strings"

	json "github.com/goccy/go-json"
)

// IDColumn is the primary key column assumed by Update, Delete and Get.
// Tables without it cannot be updated or deleted through this package.
const IDColumn = "ID"

// BindMode selects how values reach the database.
type BindMode uint8

const (
	// BindParams sends values as bound parameters. This is the default.
	BindParams BindMode = iota
	// BindLiteral embeds values in the statement text via Literals. It is
	// kept for drivers without parameter support and offers no injection
	// protection beyond the double-to-single quote rewrite of Serialize.
	BindLiteral
)

func (m BindMode) String() string {
	if m == BindLiteral {
		return "literal"
	}
	return "params"
}

// Statement is SQL text plus its bound arguments (none in literal mode).
type Statement struct {
	Text string
	Args []any
}

// ColumnValue is one column of a write, in field order.
type ColumnValue struct {
	Name  string
	Type  FieldType
	Value any
}

// Builder composes CRUD statements. Its methods are pure: they never touch
// a connection.
type Builder struct {
	Mode        BindMode
	Placeholder Placeholder
	Literals    *Literals // nil means NewLiterals()
}

// Insert builds
//
//	insert into <table>(<a, b>)values(<va, vb>)
func (b Builder) Insert(t Table, cols []ColumnValue) (Statement, error) {
	q, err := qualified(t)
	if err != nil {
		return Statement{}, err
	}
	if len(cols) == 0 {
		return Statement{}, &ArgumentError{Arg: "columns", Reason: "empty"}
	}
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	values, args, err := b.values(cols)
	if err != nil {
		return Statement{}, err
	}
	text := "insert into " + q + "(" + strings.Join(names, ", ") + ")values(" + strings.Join(values, ", ") + ")"
	return b.finish(text, args), nil
}

// Update builds
//
//	update <table> SET a=va, b=vb WHERE ID=<id>
//
// It fails with *ArgumentError when id is empty.
func (b Builder) Update(t Table, cols []ColumnValue, id string) (Statement, error) {
	if id == "" {
		return Statement{}, &ArgumentError{Arg: "id", Reason: "empty"}
	}
	q, err := qualified(t)
	if err != nil {
		return Statement{}, err
	}
	if len(cols) == 0 {
		return Statement{}, &ArgumentError{Arg: "columns", Reason: "empty"}
	}
	values, args, err := b.values(cols)
	if err != nil {
		return Statement{}, err
	}
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = c.Name + "=" + values[i]
	}
	where, args := b.whereID(id, args)
	return b.finish("update "+q+" SET "+strings.Join(sets, ", ")+where, args), nil
}

// Delete builds
//
//	delete from <table> WHERE ID=<id>
//
// It fails with *ArgumentError when id is empty.
func (b Builder) Delete(t Table, id string) (Statement, error) {
	if id == "" {
		return Statement{}, &ArgumentError{Arg: "id", Reason: "empty"}
	}
	q, err := qualified(t)
	if err != nil {
		return Statement{}, err
	}
	where, args := b.whereID(id, nil)
	return b.finish("delete from "+q+where, args), nil
}

// SelectAll builds SELECT * FROM <table>.
func (b Builder) SelectAll(t Table) (Statement, error) {
	q, err := qualified(t)
	if err != nil {
		return Statement{}, err
	}
	return Statement{Text: "SELECT * FROM " + q}, nil
}

// SelectByID builds SELECT * FROM <table> WHERE ID=<id>.
func (b Builder) SelectByID(t Table, id string) (Statement, error) {
	if id == "" {
		return Statement{}, &ArgumentError{Arg: "id", Reason: "empty"}
	}
	q, err := qualified(t)
	if err != nil {
		return Statement{}, err
	}
	where, args := b.whereID(id, nil)
	return b.finish("SELECT * FROM "+q+where, args), nil
}

// values renders each column either as a literal token or as a '?' marker
// with its argument.
func (b Builder) values(cols []ColumnValue) ([]string, []any, error) {
	out := make([]string, len(cols))
	if b.Mode == BindLiteral {
		lits := b.Literals
		if lits == nil {
			lits = NewLiterals()
		}
		for i, c := range cols {
			s, err := lits.Encode(c.Type, c.Value)
			if err != nil {
				return nil, nil, withField(err, c.Name)
			}
			out[i] = s
		}
		return out, nil, nil
	}
	args := make([]any, len(cols))
	for i, c := range cols {
		v, err := bindValue(c)
		if err != nil {
			return nil, nil, withField(err, c.Name)
		}
		out[i] = "?"
		args[i] = v
	}
	return out, args, nil
}

// whereID embeds the id verbatim in literal mode and binds it otherwise.
func (b Builder) whereID(id string, args []any) (string, []any) {
	if b.Mode == BindLiteral {
		return " WHERE " + IDColumn + "=" + id, args
	}
	return " WHERE " + IDColumn + "=?", append(args, id)
}

func (b Builder) finish(text string, args []any) Statement {
	if b.Mode == BindLiteral {
		return Statement{Text: text}
	}
	return Statement{Text: rewritePlaceholders(text, b.Placeholder), Args: args}
}

// bindValue turns a field value into something database/sql can bind:
// nested structures become their JSON text. Nil slices, maps and pointers
// bind as NULL, as they do in literal mode.
func bindValue(c ColumnValue) (any, error) {
	if isNilValue(c.Value) {
		return nil, nil
	}
	if c.Type != TypeJSON {
		return c.Value, nil
	}
	if raw, ok := c.Value.([]byte); ok {
		return string(raw), nil
	}
	b, err := json.Marshal(c.Value)
	if err != nil {
		return nil, &ConversionError{Target: TypeJSON, Value: c.Value, Err: err}
	}
	return string(b), nil
}

func qualified(t Table) (string, error) {
	q := t.Qualified()
	if t.Name == "" {
		return "", &MetadataError{Reason: "table has no name"}
	}
	return q, nil
}

func withField(err error, field string) error {
	if ce, ok := err.(*ConversionError); ok && ce.Field == "" {
		cp := *ce
		cp.Field = field
		return &cp
	}
	return err
}
