package xentity

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// FieldType is the declared storage type of a mapped field. It selects both
// the literal encoder on the write path and the coercion on the read path.
type FieldType uint8

const (
	TypeAny   FieldType = iota // passed through unchanged
	TypeInt                    // int64
	TypeUint                   // uint64
	TypeFloat                  // float64
	TypeText                   // string
	TypeBool                   // bool
	TypeTime                   // time.Time
	TypeBytes                  // []byte
	TypeJSON                   // nested structure, carried as JSON bytes
)

var fieldTypeNames = [...]string{"any", "int", "uint", "float", "text", "bool", "time", "bytes", "json"}

func (t FieldType) String() string {
	if int(t) < len(fieldTypeNames) {
		return fieldTypeNames[t]
	}
	return "FieldType(" + strconv.Itoa(int(t)) + ")"
}

// timeLayouts are tried in order when text is coerced to TypeTime.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

var errShape = errors.New("unsupported value shape")

// Coerce converts a raw driver value into the canonical Go type of t:
// int64, uint64, float64, string, bool, time.Time, []byte (for TypeBytes and
// TypeJSON) or the value itself for TypeAny. A nil raw value stays nil.
//
// Text is parsed when a numeric, boolean or time type is requested, so a
// driver that returns everything as []byte still maps cleanly.
func Coerce(t FieldType, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	var (
		v   any
		err error
	)
	switch t {
	case TypeAny:
		if b, ok := raw.([]byte); ok {
			return append([]byte(nil), b...), nil
		}
		return raw, nil
	case TypeInt:
		v, err = toInt64(raw)
	case TypeUint:
		v, err = toUint64(raw)
	case TypeFloat:
		v, err = toFloat64(raw)
	case TypeText:
		v, err = toText(raw)
	case TypeBool:
		v, err = toBool(raw)
	case TypeTime:
		v, err = toTime(raw)
	case TypeBytes:
		v, err = toBytes(raw)
	case TypeJSON:
		v, err = toJSON(raw)
	default:
		err = fmt.Errorf("unknown field type %d", t)
	}
	if err != nil {
		return nil, &ConversionError{Target: t, Value: raw, Err: err}
	}
	return v, nil
}

func toInt64(raw any) (int64, error) {
	switch x := raw.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case float64:
		if x != math.Trunc(x) || x < math.MinInt64 || x >= math.MaxInt64 {
			return 0, errors.New("not an integral value")
		}
		return int64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(x), 10, 64)
	case []byte:
		return strconv.ParseInt(strings.TrimSpace(string(x)), 10, 64)
	}
	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, errors.New("value overflows int64")
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		return toInt64(rv.Float())
	case reflect.String:
		return toInt64(rv.String())
	}
	return 0, errShape
}

func toUint64(raw any) (uint64, error) {
	switch x := raw.(type) {
	case uint64:
		return x, nil
	case string:
		return strconv.ParseUint(strings.TrimSpace(x), 10, 64)
	case []byte:
		return strconv.ParseUint(strings.TrimSpace(string(x)), 10, 64)
	}
	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if rv.Int() < 0 {
			return 0, errors.New("negative value")
		}
		return uint64(rv.Int()), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f < 0 || f != math.Trunc(f) || f >= math.MaxUint64 {
			return 0, errors.New("not a non-negative integral value")
		}
		return uint64(f), nil
	case reflect.Bool:
		if rv.Bool() {
			return 1, nil
		}
		return 0, nil
	case reflect.String:
		return toUint64(rv.String())
	}
	return 0, errShape
}

func toFloat64(raw any) (float64, error) {
	switch x := raw.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(x), 64)
	case []byte:
		return strconv.ParseFloat(strings.TrimSpace(string(x)), 64)
	}
	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), nil
	case reflect.String:
		return toFloat64(rv.String())
	}
	return 0, errShape
}

func toText(raw any) (string, error) {
	switch x := raw.(type) {
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case time.Time:
		return x.Format(time.RFC3339Nano), nil
	}
	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32), nil
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	}
	return "", errShape
}

func toBool(raw any) (bool, error) {
	switch x := raw.(type) {
	case bool:
		return x, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(x))
	case []byte:
		return strconv.ParseBool(strings.TrimSpace(string(x)))
	}
	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0, nil
	case reflect.String:
		return toBool(rv.String())
	}
	return false, errShape
}

func toTime(raw any) (time.Time, error) {
	var s string
	switch x := raw.(type) {
	case time.Time:
		return x, nil
	case string:
		s = x
	case []byte:
		s = string(x)
	case int64:
		return time.Unix(x, 0).UTC(), nil
	default:
		return time.Time{}, errShape
	}
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

func toBytes(raw any) ([]byte, error) {
	switch x := raw.(type) {
	case []byte:
		return append([]byte(nil), x...), nil
	case string:
		return []byte(x), nil
	}
	return nil, errShape
}

// toJSON yields JSON bytes. Text is taken as already-encoded JSON; any other
// value is encoded.
func toJSON(raw any) ([]byte, error) {
	switch x := raw.(type) {
	case []byte:
		if !json.Valid(x) {
			return nil, errors.New("invalid JSON")
		}
		return append([]byte(nil), x...), nil
	case string:
		if !json.Valid([]byte(x)) {
			return nil, errors.New("invalid JSON")
		}
		return []byte(x), nil
	}
	return json.Marshal(raw)
}
