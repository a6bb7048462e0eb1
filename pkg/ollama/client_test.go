package ollama

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatServer(t *testing.T, content string, got *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		if got != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(got))
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		json.NewEncoder(w).Encode(map[string]any{
			"model":   "test",
			"message": map[string]any{"role": "assistant", "content": content},
			"done":    true,
		})
	}))
}

func TestLocateFaces(t *testing.T) {
	var req map[string]any
	srv := chatServer(t, `{"faces":[{"confidence":0.8,"box":{"x":0.1,"y":0.2,"w":0.3,"h":0.4}}],"description":"a face"}`, &req)
	defer srv.Close()

	c, err := NewClient(srv.URL + "/api/chat")
	require.NoError(t, err)

	img := base64.StdEncoding.EncodeToString([]byte{0xff, 0xd8, 0xff})
	result, err := c.LocateFaces(context.Background(), "minicpm-v4.5", "find faces", img)
	require.NoError(t, err)
	require.Len(t, result.Faces, 1)
	assert.Equal(t, 0.3, result.Faces[0].Box.W)

	assert.Equal(t, "minicpm-v4.5", req["model"])
	assert.Equal(t, false, req["stream"])
	options, ok := req["options"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 0.8, options["top_p"])
}

func TestSimpleQuery(t *testing.T) {
	srv := chatServer(t, "a person in front of a wall", nil)
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	answer, err := c.SimpleQuery(context.Background(), "llava", "describe", "")
	require.NoError(t, err)
	assert.Equal(t, "a person in front of a wall", answer)
}

func TestLocateFacesEmptyResponse(t *testing.T) {
	srv := chatServer(t, "", nil)
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	_, err = c.LocateFaces(context.Background(), "llava", "find faces", "")
	assert.ErrorContains(t, err, "empty response")
}

func TestBadInput(t *testing.T) {
	_, err := NewClient("localhost")
	assert.Error(t, err)

	c, err := NewClient("http://127.0.0.1:1")
	require.NoError(t, err)
	_, err = c.SimpleQuery(context.Background(), "llava", "describe", "***")
	assert.ErrorContains(t, err, "base64")
}

func TestModelOptions(t *testing.T) {
	assert.Empty(t, modelOptions("llava:13b"))
	assert.Equal(t, 4096, modelOptions("openbmb/MiniCPM-V-4")["num_ctx"])
}
