package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldTupleJSON(t *testing.T) {
	tests := []struct {
		name  string
		tuple FieldTuple
		wire  string
	}{
		{
			name: "user field",
			tuple: FieldTuple{
				Domain: DomainUser, FieldName: "password",
				Value: SomeValue("abcd"), Mtime: 300,
			},
			wire: `["user","password","abcd",300]`,
		},
		{
			name: "meta path",
			tuple: FieldTuple{
				Domain: DomainMeta, FieldName: "path",
				Value: SomeValue("work/email"), Mtime: 100,
			},
			wire: `["meta","path","work/email",100]`,
		},
		{
			name: "deleted field",
			tuple: FieldTuple{
				Domain: DomainUser, FieldName: "pin",
				Value: NoValue(), Mtime: 400,
			},
			wire: `["user","pin",null,400]`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.tuple)
			require.NoError(t, err)
			assert.JSONEq(t, tt.wire, string(data))

			var back FieldTuple
			require.NoError(t, json.Unmarshal([]byte(tt.wire), &back))
			assert.Equal(t, tt.tuple, back)
		})
	}
}

func TestFieldTupleUnmarshalRejects(t *testing.T) {
	tests := []struct {
		name string
		wire string
	}{
		{name: "too few elements", wire: `["user","password",300]`},
		{name: "too many elements", wire: `["user","password","x",300,1]`},
		{name: "unknown domain", wire: `["system","password","x",300]`},
		{name: "empty field name", wire: `["user","","x",300]`},
		{name: "non-integer mtime", wire: `["user","password","x","300x"]`},
		{name: "not an array", wire: `{"domain":"user"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tuple FieldTuple
			assert.Error(t, json.Unmarshal([]byte(tt.wire), &tuple))
		})
	}
}

func TestValueComparable(t *testing.T) {
	assert.Equal(t, SomeValue("x"), SomeValue("x"))
	assert.NotEqual(t, SomeValue("x"), SomeValue("y"))
	assert.NotEqual(t, SomeValue(""), NoValue())

	// Tuples must be comparable so merge can treat logs as sets.
	a := FieldTuple{Domain: DomainUser, FieldName: "f", Value: SomeValue("v"), Mtime: 1}
	b := a
	assert.True(t, a == b)
}
