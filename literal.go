package xentity

import (
	"encoding/hex"
	"errors"
	"math"
	"reflect"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// Serialize renders v as a SQL literal token for literal-mode statements.
//
// The value is JSON-encoded (numbers bare, strings quoted, nil as null,
// structures recursively) and every double quote is then rewritten to a
// single quote so strings land in single-quoted SQL contexts.
//
// This is the only escaping applied: a string containing a single quote or
// other SQL metacharacters produces broken or injectable SQL. Prefer bound
// parameters; sanitize untrusted input before using literal mode.
func Serialize(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", &ConversionError{Target: TypeText, Value: v, Err: err}
	}
	return strings.ReplaceAll(string(b), `"`, `'`), nil
}

// Encoder renders one field value as a SQL literal token.
type Encoder func(v any) (string, error)

// Literals dispatches literal encoding by FieldType. The zero value is not
// usable; start from NewLiterals and override with With.
type Literals struct {
	enc map[FieldType]Encoder
}

// NewLiterals returns the default encoder set: integers, floats and bools are
// written bare, bytes as a hex blob literal (X'0102'), everything else goes
// through Serialize. Nil values, including nil slices, maps and pointers, are
// written as null for every type.
//
// SQL Server spells blob literals 0x0102; override TypeBytes with With there.
func NewLiterals() *Literals {
	return &Literals{enc: map[FieldType]Encoder{
		TypeAny:   Serialize,
		TypeInt:   encodeInt,
		TypeUint:  encodeUint,
		TypeFloat: encodeFloat,
		TypeText:  Serialize,
		TypeBool:  encodeBool,
		TypeTime:  Serialize,
		TypeBytes: encodeBytes,
		TypeJSON:  Serialize,
	}}
}

// With returns a copy of l that uses enc for t.
func (l *Literals) With(t FieldType, enc Encoder) *Literals {
	cp := &Literals{enc: make(map[FieldType]Encoder, len(l.enc)+1)}
	for k, v := range l.enc {
		cp.enc[k] = v
	}
	cp.enc[t] = enc
	return cp
}

// Encode renders v with the encoder registered for t, falling back to
// Serialize for unknown types.
func (l *Literals) Encode(t FieldType, v any) (string, error) {
	if isNilValue(v) {
		return "null", nil
	}
	enc, ok := l.enc[t]
	if !ok {
		enc = Serialize
	}
	return enc(v)
}

func encodeInt(v any) (string, error) {
	n, err := toInt64(v)
	if err != nil {
		return "", &ConversionError{Target: TypeInt, Value: v, Err: err}
	}
	return strconv.FormatInt(n, 10), nil
}

func encodeUint(v any) (string, error) {
	n, err := toUint64(v)
	if err != nil {
		return "", &ConversionError{Target: TypeUint, Value: v, Err: err}
	}
	return strconv.FormatUint(n, 10), nil
}

func encodeFloat(v any) (string, error) {
	f, err := toFloat64(v)
	if err != nil {
		return "", &ConversionError{Target: TypeFloat, Value: v, Err: err}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", &ConversionError{Target: TypeFloat, Value: v, Err: errors.New("no SQL literal for NaN or infinity")}
	}
	return strconv.FormatFloat(f, 'g', -1, 64), nil
}

func encodeBytes(v any) (string, error) {
	b, err := toBytes(v)
	if err != nil {
		return "", &ConversionError{Target: TypeBytes, Value: v, Err: err}
	}
	return "X'" + strings.ToUpper(hex.EncodeToString(b)) + "'", nil
}

func encodeBool(v any) (string, error) {
	b, err := toBool(v)
	if err != nil {
		return "", &ConversionError{Target: TypeBool, Value: v, Err: err}
	}
	return strconv.FormatBool(b), nil
}

// isNilValue reports nil itself and typed nil slices, maps and pointers.
func isNilValue(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Pointer:
		return rv.IsNil()
	}
	return false
}
