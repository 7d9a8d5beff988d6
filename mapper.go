package xentity

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"reflect"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/text/cases"
)

// Reflect derives a Mapping for the struct type T from its exported fields,
// in declaration order.
//
// Field rules:
//   - The column name is the `db:"name"` tag when present, else the Go field name.
//   - `db:"-"` omits a field; unexported fields are skipped.
//   - Embedded structs (and fields tagged `db:",inline"`) are flattened.
//   - The FieldType follows the Go kind: integers, unsigned integers, floats,
//     strings, bools, time.Time and []byte map to their scalar types; other
//     structs, maps, slices and arrays are stored as JSON; sql.Scanner and
//     driver.Valuer implementations are passed through as TypeAny.
//   - Pointer fields are nil-able; a NULL column leaves them nil.
//
// The table identity comes from the Tabler annotation or the type name.
// Reflect is deterministic; use a [Registry] to cache the result.
func Reflect[T any]() (*Mapping[T], error) {
	rt := reflect.TypeOf((*T)(nil)).Elem()
	if rt.Kind() != reflect.Struct {
		return nil, &MetadataError{Type: rt.String(), Reason: "not a struct type"}
	}
	var fields []Field[T]
	seen := make(map[string]struct{})

	var walk func(t reflect.Type, base []int, forceInline bool)
	walk = func(t reflect.Type, base []int, forceInline bool) {
		t = derefPtr(t)
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			if sf.PkgPath != "" && !sf.Anonymous {
				continue
			}
			tag := sf.Tag.Get("db")
			name, inline, omit := parseTag(tag)
			if omit {
				continue
			}
			path := append(append([]int(nil), base...), i)
			if inline || (sf.Anonymous && (forceInline || tag == "")) {
				if isStruct(sf.Type) && !isTime(derefPtr(sf.Type)) {
					walk(sf.Type, path, inline)
					continue
				}
			}
			if sf.PkgPath != "" {
				continue // unexported embedded non-struct
			}
			if name == "" {
				name = sf.Name
			}
			key := foldName(name)
			if _, dup := seen[key]; dup {
				continue // shallower field wins
			}
			seen[key] = struct{}{}
			fields = append(fields, reflectField[T](name, path, sf.Type))
		}
	}
	walk(rt, nil, false)
	return NewMapping[T](Table{}, fields...)
}

func reflectField[T any](name string, path []int, ft reflect.Type) Field[T] {
	typ := classify(ft)
	return Field[T]{
		Name: name,
		Type: typ,
		Get: func(v *T) any {
			fv, ok := fieldByPath(reflect.ValueOf(v).Elem(), path)
			if !ok {
				return nil
			}
			return readValue(fv)
		},
		Set: func(v *T, val any) error {
			return assign(fieldByPathAlloc(reflect.ValueOf(v).Elem(), path), typ, val)
		},
	}
}

// parseTag supports: "-", "col", ",inline", "col,inline", "inline,col".
func parseTag(tag string) (name string, inline bool, omit bool) {
	if tag == "-" {
		return "", false, true
	}
	start := 0
	for i := 0; i <= len(tag); i++ {
		if i == len(tag) || tag[i] == ',' {
			part := tag[start:i]
			if part == "inline" {
				inline = true
			} else if part != "" && name == "" {
				name = part
			}
			start = i + 1
		}
	}
	return name, inline, false
}

var (
	scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
	valuerType  = reflect.TypeOf((*driver.Valuer)(nil)).Elem()
	timeType    = reflect.TypeOf(time.Time{})
)

// classify picks the FieldType for a Go field type.
func classify(ft reflect.Type) FieldType {
	base := derefPtr(ft)
	if reflect.PointerTo(base).Implements(scannerType) || base.Implements(valuerType) {
		return TypeAny
	}
	if isTime(base) {
		return TypeTime
	}
	switch base.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return TypeInt
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return TypeUint
	case reflect.Float32, reflect.Float64:
		return TypeFloat
	case reflect.String:
		return TypeText
	case reflect.Bool:
		return TypeBool
	case reflect.Slice:
		if base.Elem().Kind() == reflect.Uint8 {
			return TypeBytes
		}
		return TypeJSON
	case reflect.Struct, reflect.Map, reflect.Array:
		return TypeJSON
	}
	return TypeAny
}

// readValue returns the persistable value held by fv: nil for a nil pointer,
// the pointee otherwise, and the driver value of a driver.Valuer.
func readValue(fv reflect.Value) any {
	for fv.Kind() == reflect.Pointer {
		if fv.IsNil() {
			return nil
		}
		if fv.Type().Implements(valuerType) {
			break
		}
		fv = fv.Elem()
	}
	v := fv.Interface()
	if vr, ok := v.(driver.Valuer); ok {
		if dv, err := vr.Value(); err == nil {
			return dv
		}
	}
	return v
}

// assign stores a canonical value (see Coerce) into dst, allocating pointers
// and checking numeric overflow.
func assign(dst reflect.Value, typ FieldType, val any) error {
	if val == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	if dst.Kind() == reflect.Pointer {
		p := reflect.New(dst.Type().Elem())
		if err := assign(p.Elem(), typ, val); err != nil {
			return err
		}
		dst.Set(p)
		return nil
	}
	if dst.CanAddr() {
		if sc, ok := dst.Addr().Interface().(sql.Scanner); ok {
			return sc.Scan(val)
		}
	}
	mismatch := func() error {
		return fmt.Errorf("xentity: cannot assign %T to %s field of type %s", val, typ, dst.Type())
	}
	if typ == TypeJSON {
		b, ok := val.([]byte)
		if !ok {
			return mismatch()
		}
		return json.Unmarshal(b, dst.Addr().Interface())
	}
	if isTime(dst.Type()) {
		t, ok := val.(time.Time)
		if !ok {
			return mismatch()
		}
		dst.Set(reflect.ValueOf(t).Convert(dst.Type()))
		return nil
	}
	switch dst.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := toInt64(val)
		if err != nil {
			return mismatch()
		}
		if dst.OverflowInt(n) {
			return fmt.Errorf("xentity: value %d overflows %s", n, dst.Type())
		}
		dst.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, err := toUint64(val)
		if err != nil {
			return mismatch()
		}
		if dst.OverflowUint(n) {
			return fmt.Errorf("xentity: value %d overflows %s", n, dst.Type())
		}
		dst.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := toFloat64(val)
		if err != nil {
			return mismatch()
		}
		if dst.OverflowFloat(f) {
			return fmt.Errorf("xentity: value %g overflows %s", f, dst.Type())
		}
		dst.SetFloat(f)
	case reflect.String:
		s, err := toText(val)
		if err != nil {
			return mismatch()
		}
		dst.SetString(s)
	case reflect.Bool:
		b, err := toBool(val)
		if err != nil {
			return mismatch()
		}
		dst.SetBool(b)
	case reflect.Slice:
		b, ok := val.([]byte)
		if !ok || dst.Type().Elem().Kind() != reflect.Uint8 {
			return mismatch()
		}
		dst.SetBytes(append([]byte(nil), b...))
	default:
		rv := reflect.ValueOf(val)
		if !rv.Type().AssignableTo(dst.Type()) {
			if !rv.Type().ConvertibleTo(dst.Type()) {
				return mismatch()
			}
			rv = rv.Convert(dst.Type())
		}
		dst.Set(rv)
	}
	return nil
}

func isStruct(t reflect.Type) bool { return derefPtr(t).Kind() == reflect.Struct }

func isTime(t reflect.Type) bool {
	return t == timeType || (t.Kind() == reflect.Struct && t.ConvertibleTo(timeType))
}

func derefPtr(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// fieldByPath walks fpath without allocating; ok is false when a nil pointer
// sits on the path.
func fieldByPath(root reflect.Value, fpath []int) (reflect.Value, bool) {
	v := root
	for _, i := range fpath {
		if v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return reflect.Value{}, false
			}
			v = v.Elem()
		}
		v = v.Field(i)
	}
	return v, true
}

// fieldByPathAlloc walks fpath, allocating nil embedded pointers so the final
// field is addressable.
func fieldByPathAlloc(root reflect.Value, fpath []int) reflect.Value {
	v := root
	for _, i := range fpath {
		if v.Kind() == reflect.Pointer {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(i)
	}
	return v
}

// normalizeColumn strips one level of "", `` or [] quoting and folds case.
func normalizeColumn(s string) string {
	if l := len(s); l >= 2 {
		switch {
		case s[0] == '"' && s[l-1] == '"',
			s[0] == '`' && s[l-1] == '`',
			s[0] == '[' && s[l-1] == ']':
			s = s[1 : l-1]
		}
	}
	return foldName(s)
}

// foldName is the case-insensitive key for field and column names.
func foldName(s string) string {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 0x80 || ('A' <= c && c <= 'Z') {
			return cases.Fold().String(s)
		}
	}
	return s
}
