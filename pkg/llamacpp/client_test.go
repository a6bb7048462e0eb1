package llamacpp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completionServer(t *testing.T, status int, content interface{}, got *ChatCompletionRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		if got != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(got))
		}
		if status != http.StatusOK {
			http.Error(w, "model not loaded", status)
			return
		}
		json.NewEncoder(w).Encode(ChatCompletionResponse{
			Model:   "test",
			Choices: []Choice{{Message: Message{Role: "assistant", Content: content}}},
		})
	}))
}

func TestLocateFaces(t *testing.T) {
	var req ChatCompletionRequest
	srv := completionServer(t, http.StatusOK,
		"```json\n{\"faces\":[{\"confidence\":0.95,\"box\":{\"x\":0.25,\"y\":0.1,\"w\":0.5,\"h\":0.6}}]}\n```", &req)
	defer srv.Close()

	c, err := NewClient(srv.URL + "/")
	require.NoError(t, err)

	result, err := c.LocateFaces(context.Background(), "qwen2.5-vl", "find faces", "aGVsbG8=")
	require.NoError(t, err)
	require.Len(t, result.Faces, 1)
	assert.Equal(t, 0.95, result.Faces[0].Confidence)

	assert.Equal(t, "qwen2.5-vl", req.Model)
	assert.Equal(t, 4096, req.MaxTokens)
	parts, ok := req.Messages[0].Content.([]interface{})
	require.True(t, ok)
	require.Len(t, parts, 2)
	image := parts[1].(map[string]interface{})["image_url"].(map[string]interface{})
	assert.Equal(t, "data:image/jpeg;base64,aGVsbG8=", image["url"])
}

func TestSimpleQueryArrayContent(t *testing.T) {
	content := []map[string]string{{"type": "text", "text": "two people"}}
	srv := completionServer(t, http.StatusOK, content, nil)
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	answer, err := c.SimpleQuery(context.Background(), "m", "describe", "")
	require.NoError(t, err)
	assert.Equal(t, "two people", answer)
}

func TestServerError(t *testing.T) {
	srv := completionServer(t, http.StatusServiceUnavailable, nil, nil)
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	_, err = c.LocateFaces(context.Background(), "m", "find faces", "")
	assert.ErrorContains(t, err, "status 503")
}

func TestEmptyAnswer(t *testing.T) {
	srv := completionServer(t, http.StatusOK, "", nil)
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	_, err = c.LocateFaces(context.Background(), "m", "find faces", "")
	assert.ErrorContains(t, err, "empty response")
}

func TestNewClient(t *testing.T) {
	c, err := NewClient("")
	require.NoError(t, err)
	assert.Equal(t, DefaultURL, c.baseURL)

	_, err = NewClient("localhost:8080")
	assert.Error(t, err)
}
