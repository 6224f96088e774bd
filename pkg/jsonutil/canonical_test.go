package jsonutil_test

import (
	"errors"
	"testing"

	"github.com/baton-project/baton/pkg/jsonutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalMarshal_SortedKeys(t *testing.T) {
	input := map[string]any{
		"zebra": 1,
		"alpha": 2,
		"mid":   3,
	}
	out, err := jsonutil.CanonicalMarshal(input)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"mid":3,"zebra":1}`, string(out))
}

func TestCanonicalMarshal_Nested(t *testing.T) {
	input := map[string]any{
		"b": map[string]any{"z": 1, "a": 2},
		"a": 0,
	}
	out, err := jsonutil.CanonicalMarshal(input)
	require.NoError(t, err)
	assert.Equal(t, `{"a":0,"b":{"a":2,"z":1}}`, string(out))
}

func TestCanonicalMarshal_StructSortsFields(t *testing.T) {
	type sample struct {
		Zebra int    `json:"zebra"`
		Alpha string `json:"alpha"`
	}
	out, err := jsonutil.CanonicalMarshal(sample{Zebra: 1, Alpha: "a"})
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":"a","zebra":1}`, string(out))
}

func TestCanonicalMarshal_NoWhitespace(t *testing.T) {
	out, err := jsonutil.CanonicalMarshal(map[string]any{"a": []any{1, 2, 3}})
	require.NoError(t, err)
	assert.Equal(t, `{"a":[1,2,3]}`, string(out))
}

func TestCanonicalMarshal_NullValue(t *testing.T) {
	out, err := jsonutil.CanonicalMarshal(map[string]any{"key": nil})
	require.NoError(t, err)
	assert.Equal(t, `{"key":null}`, string(out))
}

func TestCanonicalMarshal_Deterministic(t *testing.T) {
	input := map[string]any{"c": 3, "a": 1, "b": 2}
	out1, err := jsonutil.CanonicalMarshal(input)
	require.NoError(t, err)
	out2, err := jsonutil.CanonicalMarshal(input)
	require.NoError(t, err)
	assert.Equal(t, string(out1), string(out2))
}

type failingMarshaler struct{}

func (failingMarshaler) MarshalJSON() ([]byte, error) {
	return nil, errors.New("marshal error")
}

func TestCanonicalMarshal_MarshalError(t *testing.T) {
	_, err := jsonutil.CanonicalMarshal(map[string]any{"bad": failingMarshaler{}})
	assert.Error(t, err)
}
