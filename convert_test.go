package xentity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerce(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	tests := []struct {
		name string
		typ  FieldType
		raw  any
		want any
	}{
		{"int from int64", TypeInt, int64(42), int64(42)},
		{"int from bytes", TypeInt, []byte(" 42 "), int64(42)},
		{"int from float", TypeInt, float64(3), int64(3)},
		{"int from uint8", TypeInt, uint8(7), int64(7)},
		{"int from bool", TypeInt, true, int64(1)},
		{"uint from int", TypeUint, int64(5), uint64(5)},
		{"uint from text", TypeUint, "18446744073709551615", uint64(18446744073709551615)},
		{"float from text", TypeFloat, "2.5", 2.5},
		{"float from int", TypeFloat, int64(2), 2.0},
		{"text from bytes", TypeText, []byte("abc"), "abc"},
		{"text from int", TypeText, int64(-3), "-3"},
		{"text from float", TypeText, 1.25, "1.25"},
		{"text from time", TypeText, ts, "2024-01-02T03:04:05Z"},
		{"bool from int", TypeBool, int64(0), false},
		{"bool from text", TypeBool, "true", true},
		{"bool from bytes", TypeBool, []byte("1"), true},
		{"time from text", TypeTime, "2024-01-02T03:04:05Z", ts},
		{"time from unix", TypeTime, ts.Unix(), ts},
		{"bytes from text", TypeBytes, "ab", []byte("ab")},
		{"json from text", TypeJSON, `{"a":1}`, []byte(`{"a":1}`)},
		{"json from value", TypeJSON, []int{1, 2}, []byte(`[1,2]`)},
		{"any passes through", TypeAny, int32(9), int32(9)},
		{"any copies bytes", TypeAny, []byte("x"), []byte("x")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce(tt.typ, tt.raw)
			require.NoError(t, err)
			if want, ok := tt.want.(time.Time); ok {
				assert.True(t, want.Equal(got.(time.Time)), "got %v", got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoerce_Nil(t *testing.T) {
	for _, typ := range []FieldType{TypeAny, TypeInt, TypeText, TypeJSON} {
		got, err := Coerce(typ, nil)
		assert.NoError(t, err)
		assert.Nil(t, got)
	}
}

func TestCoerce_Failures(t *testing.T) {
	tests := []struct {
		typ FieldType
		raw any
	}{
		{TypeInt, "x"},
		{TypeInt, 1.5},
		{TypeInt, uint64(1 << 63)},
		{TypeUint, int64(-1)},
		{TypeFloat, "nan?"},
		{TypeBool, "maybe"},
		{TypeTime, "yesterday"},
		{TypeTime, 1.5},
		{TypeBytes, 12},
		{TypeJSON, "{broken"},
		{TypeText, struct{}{}},
		{FieldType(99), 1},
	}
	for _, tt := range tests {
		_, err := Coerce(tt.typ, tt.raw)
		var ce *ConversionError
		if !assert.ErrorAs(t, err, &ce, "%s from %T", tt.typ, tt.raw) {
			continue
		}
		assert.Equal(t, tt.typ, ce.Target)
		assert.True(t, IsConversion(err))
	}
}

func TestFieldType_String(t *testing.T) {
	assert.Equal(t, "json", TypeJSON.String())
	assert.Equal(t, "any", TypeAny.String())
	assert.Equal(t, "FieldType(42)", FieldType(42).String())
}
