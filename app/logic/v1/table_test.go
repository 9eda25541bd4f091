package v1_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/quka-ai/knowledge/app/logic/v1"
	"github.com/quka-ai/knowledge/app/store"
	"github.com/quka-ai/knowledge/pkg/types"
)

func TestParseRecords(t *testing.T) {
	one, err := v1.ParseRecords(json.RawMessage(`{"name":"John","age":30}`))
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, json.Number("30"), one[0]["age"])

	many, err := v1.ParseRecords(json.RawMessage(` [{"name":"a"},{"name":"b"}]`))
	require.NoError(t, err)
	assert.Len(t, many, 2)

	for _, raw := range []string{``, `null`, `[]`, `"text"`, `[1,2]`} {
		_, err = v1.ParseRecords(json.RawMessage(raw))
		assert.Error(t, err, raw)
	}
}

func TestTableOperations(t *testing.T) {
	c, _ := newTestCore(nil)
	logic := v1.NewTableLogic(context.Background(), c)

	created, err := logic.CreateTableRecords("users", []types.Record{
		{"name": "John", "is_active": true},
		{"name": "Jane", "is_active": false},
	})
	require.NoError(t, err)
	assert.Equal(t, v1.STATUS_SUCCESS, created.Status)
	assert.Equal(t, 2, created.Count)

	rows, err := logic.ReadTableRows("users", v1.ReadTableOptions{
		Filters: types.Filters{"is_active": true},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "John", rows[0].String("name"))

	rows, err = logic.ReadTableRows("users", v1.ReadTableOptions{Columns: "name", OrderBy: "name", Ascending: true, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []types.Record{{"name": "Jane"}}, rows)

	updated, err := logic.UpdateTableRecords("users", types.Record{"status": "premium"}, types.Filters{"is_active": true})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Count)
	assert.Equal(t, "premium", updated.Data[0].String("status"))

	// 没有匹配的行时 status 为 error
	none, err := logic.UpdateTableRecords("users", types.Record{"status": "x"}, types.Filters{"name": "nobody"})
	require.NoError(t, err)
	assert.Equal(t, v1.STATUS_ERROR, none.Status)
	assert.Equal(t, 0, none.Count)
	assert.NotNil(t, none.Data)

	deleted, err := logic.DeleteTableRecords("users", types.Filters{"is_active": false})
	require.NoError(t, err)
	assert.Equal(t, v1.STATUS_SUCCESS, deleted.Status)
	assert.Equal(t, "Jane", deleted.Data[0].String("name"))

	_, err = logic.DeleteTableRecords("users", nil)
	assert.ErrorIs(t, err, store.ErrEmptyFilters)

	_, err = logic.ReadTableRows("no_such_table", v1.ReadTableOptions{})
	assert.True(t, store.IsNotFound(err))
}
