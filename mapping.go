package xentity

import (
	"fmt"
	"reflect"
)

// Table is the identity of the table a record type persists to.
type Table struct {
	Schema string
	Name   string
}

// Qualified returns "schema.name", or just "name" when no schema is set.
func (t Table) Qualified() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// Tabler is the declarative table annotation. A record type implements it
// to override the default of "no schema, table named
// after the Go type":
//
//	type Test struct{ Id int; Name string }
//
//	func (Test) TableIdentity() xentity.Table { return xentity.Table{Name: "test"} }
type Tabler interface {
	TableIdentity() Table
}

// Field describes one persistable field of T.
//
// Get returns the field's current value. Set receives a value already coerced
// to the canonical Go type of Type (see [Coerce]) and is never called with nil.
type Field[T any] struct {
	Name string
	Type FieldType
	Get  func(*T) any
	Set  func(*T, any) error
}

// FieldOf builds a Field from an accessor returning the address of the Go
// field, which is how explicit mappings are usually declared:
//
//	xentity.FieldOf("Name", xentity.TypeText, func(t *Test) *string { return &t.Name })
//
// The setter converts the canonical value into V (int32, named string types,
// pointers, JSON-decoded structs, ...) with overflow checks.
func FieldOf[T, V any](name string, typ FieldType, ptr func(*T) *V) Field[T] {
	return Field[T]{
		Name: name,
		Type: typ,
		Get: func(v *T) any {
			return readValue(reflect.ValueOf(ptr(v)).Elem())
		},
		Set: func(v *T, val any) error {
			return assign(reflect.ValueOf(ptr(v)).Elem(), typ, val)
		},
	}
}

// Mapping is the resolved metadata of a record type: its table identity and
// its ordered field list. Field order drives column order on the write path;
// the read path binds by name.
type Mapping[T any] struct {
	table  Table
	fields []Field[T]
	byName map[string]int // folded name -> index into fields
}

// NewMapping validates an explicit descriptor. An empty table.Name falls back
// to the Tabler annotation of T and then to T's own type name.
func NewMapping[T any](table Table, fields ...Field[T]) (*Mapping[T], error) {
	typeName := typeNameOf[T]()
	t, err := resolveTable[T](table)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, &MetadataError{Type: typeName, Reason: "no eligible fields"}
	}
	m := &Mapping[T]{
		table:  t,
		fields: append([]Field[T](nil), fields...),
		byName: make(map[string]int, len(fields)),
	}
	for i, f := range m.fields {
		switch {
		case f.Name == "":
			return nil, &MetadataError{Type: typeName, Reason: fmt.Sprintf("field %d has no name", i)}
		case f.Get == nil || f.Set == nil:
			return nil, &MetadataError{Type: typeName, Reason: fmt.Sprintf("field %s is missing an accessor", f.Name)}
		}
		key := foldName(f.Name)
		if _, dup := m.byName[key]; dup {
			return nil, &MetadataError{Type: typeName, Reason: fmt.Sprintf("duplicate field %s", f.Name)}
		}
		m.byName[key] = i
	}
	return m, nil
}

// Table returns the resolved table identity.
func (m *Mapping[T]) Table() Table { return m.table }

// Fields returns the fields in declaration order.
func (m *Mapping[T]) Fields() []Field[T] {
	return append([]Field[T](nil), m.fields...)
}

// Lookup finds a field by column name, case-insensitively.
func (m *Mapping[T]) Lookup(column string) (Field[T], bool) {
	i, ok := m.byName[normalizeColumn(column)]
	if !ok {
		return Field[T]{}, false
	}
	return m.fields[i], true
}

// Values reads every field of v in declaration order.
func (m *Mapping[T]) Values(v *T) []ColumnValue {
	out := make([]ColumnValue, len(m.fields))
	for i, f := range m.fields {
		out[i] = ColumnValue{Name: f.Name, Type: f.Type, Value: f.Get(v)}
	}
	return out
}

func resolveTable[T any](t Table) (Table, error) {
	if t.Name == "" && reflect.TypeOf((*T)(nil)).Elem().Kind() != reflect.Pointer {
		var zero T
		tb, ok := any(zero).(Tabler)
		if !ok {
			tb, ok = any(&zero).(Tabler)
		}
		if ok {
			ann := tb.TableIdentity()
			if t.Schema == "" {
				t.Schema = ann.Schema
			}
			t.Name = ann.Name
		}
	}
	if t.Name == "" {
		t.Name = reflect.TypeOf((*T)(nil)).Elem().Name()
	}
	if t.Name == "" {
		return Table{}, &MetadataError{Type: typeNameOf[T](), Reason: "no table name and the type is unnamed"}
	}
	return t, nil
}

func typeNameOf[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}
