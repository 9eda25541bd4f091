package sqlstore

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quka-ai/knowledge/pkg/types"
)

func TestToSqlValue(t *testing.T) {
	v, err := toSqlValue(json.Number("42"))
	require.NoError(t, err)
	assert.Equal(t, "42", v)

	v, err = toSqlValue([]any{"a", json.Number("1")})
	require.NoError(t, err)
	assert.Equal(t, `["a",1]`, v)

	v, err = toSqlValue(types.Metadata{"k": "v"})
	require.NoError(t, err)
	assert.Equal(t, `{"k":"v"}`, v)

	v, err = toSqlValue(nil)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestFromSqlValue(t *testing.T) {
	v, err := fromSqlValue([]byte("hello"), false)
	require.NoError(t, err)
	assert.Equal(t, "hello", v)

	v, err = fromSqlValue([]byte(`{"count":3}`), true)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"count": json.Number("3")}, v)

	v, err = fromSqlValue(int64(7), false)
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)
}
