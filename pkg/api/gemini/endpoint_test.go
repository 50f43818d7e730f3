package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_endpoint_GenerateJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1beta/models/test-model:generateContent", r.URL.Path)
		require.Equal(t, "secret", r.Header.Get("x-goog-api-key"))

		body := map[string]any{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		cfg := body["generationConfig"].(map[string]any)
		require.Equal(t, "application/json", cfg["responseMimeType"])
		require.Equal(t, "OBJECT", cfg["responseSchema"].(map[string]any)["type"])

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"gifts\":"},{"text":"[]}"}]},"finishReason":"STOP"}]}`))
	}))
	defer server.Close()

	text, err := New(server.URL, "secret", "test-model").
		GenerateJSON(context.Background(), "hello", Schema{"type": "OBJECT"})
	require.NoError(t, err)
	require.Equal(t, `{"gifts":[]}`, text)
}

func Test_endpoint_GenerateJSON_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	_, err := New(server.URL, "secret", "").GenerateJSON(context.Background(), "hello", Schema{})
	require.Error(t, err)
}

func Test_endpoint_GenerateJSON_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"API key not valid"}}`))
	}))
	defer server.Close()

	_, err := New(server.URL, "bad", "").GenerateJSON(context.Background(), "hello", Schema{})
	require.ErrorContains(t, err, "API key not valid")
}
