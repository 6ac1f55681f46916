package codec

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_KeepsLargeIntegers(t *testing.T) {
	var v any
	require.NoError(t, Decode([]byte(`{"id": 9007199254740993}`), &v))
	assert.Equal(t, map[string]any{"id": json.Number("9007199254740993")}, v)

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id": 9007199254740993}`, string(out))
}

func TestDecode_RejectsTrailingData(t *testing.T) {
	var v any
	assert.ErrorIs(t, Decode([]byte(`1 2`), &v), ErrTrailingData)
	assert.Error(t, Decode([]byte(`{"a":`), &v))
	require.NoError(t, Decode([]byte(`"x"  `), &v))
	assert.Equal(t, "x", v)
}

func TestClone(t *testing.T) {
	scalar, err := Clone(42)
	require.NoError(t, err)
	assert.Equal(t, 42, scalar)

	src := map[string]any{"tags": []string{"a"}}
	cp, err := Clone(src)
	require.NoError(t, err)
	src["tags"].([]string)[0] = "changed"
	src["new"] = true
	assert.Equal(t, map[string]any{"tags": []any{"a"}}, cp)

	_, err = Clone(make(chan int))
	assert.Error(t, err)
}
