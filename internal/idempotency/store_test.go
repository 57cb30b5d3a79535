package idempotency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleBody struct {
	B int    `json:"b"`
	A string `json:"a"`
}

func TestCanonicalJSON_SortsKeysAndIsCompact(t *testing.T) {
	got, err := CanonicalJSON(sampleBody{B: 2, A: "x"})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"x","b":2}`, string(got))
}

func TestCanonicalJSON_EscapesHTML(t *testing.T) {
	got, err := CanonicalJSON(map[string]string{"note": "<script>"})
	require.NoError(t, err)
	assert.NotContains(t, string(got), "<script>")
	assert.Contains(t, string(got), "\\u003cscript\\u003e")
}

func TestHashRequest_IsStableAcrossFieldOrder(t *testing.T) {
	h1, err := HashRequest(map[string]any{"a": 1, "b": 2})
	require.NoError(t, err)
	h2, err := HashRequest(map[string]any{"b": 2, "a": 1})
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestHashRequest_DiffersOnDifferentPayload(t *testing.T) {
	h1, err := HashRequest(map[string]any{"a": 1})
	require.NoError(t, err)
	h2, err := HashRequest(map[string]any{"a": 2})
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}
