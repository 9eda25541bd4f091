package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddingBatches(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req struct {
			Input      []string `json:"input"`
			Model      string   `json:"model"`
			Dimensions int      `json:"dimensions"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "text-embedding-3-small", req.Model)
		assert.Equal(t, 3, req.Dimensions)
		calls++

		var data []string
		for i, in := range req.Input {
			data = append(data, fmt.Sprintf(`{"object":"embedding","index":%d,"embedding":[%d,0.5,1]}`, i, len(in)))
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"object":"list","model":"text-embedding-3-small","data":[%s],"usage":{"prompt_tokens":2,"total_tokens":2}}`, strings.Join(data, ","))
	}))
	defer srv.Close()

	d := New("sk-test", srv.URL+"/v1", "", 3, 2)
	res, err := d.EmbeddingForDocument(context.Background(), "title", []string{"a", "bb", "ccc"})
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
	require.Len(t, res.Data, 3)
	assert.Equal(t, float32(3), res.Data[2][0])
	assert.Equal(t, 4, res.Usage.TotalTokens)
	assert.Len(t, res.Vectors(), 3)
}
