package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "lumen-chat/backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientChatStreamsFragments(t *testing.T) {
	var gotRequest chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))

		w.Header().Set("Content-Type", "application/x-ndjson")
		flusher := w.(http.Flusher)
		for _, line := range []string{
			thinkingLine("hm"),
			contentLine("hello"),
			contentLine(" there"),
			`{"message":{"role":"assistant","content":""},"done":true,` +
				`"total_duration":4000000000,"load_duration":500000000,` +
				`"prompt_eval_count":8,"eval_count":20,"eval_duration":1000000000}` + "\n",
		} {
			w.Write([]byte(line))
			flusher.Flush()
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)

	var fragments []string
	transcript, metrics, err := client.Chat(context.Background(), "llama3.2",
		[]ChatMessage{{Role: "user", Content: "hi"}},
		func(f string) { fragments = append(fragments, f) },
	)
	require.NoError(t, err)

	assert.True(t, gotRequest.Stream)
	assert.Equal(t, "llama3.2", gotRequest.Model)

	assert.Equal(t, "<think>\nhm\n</think>\nhello there", transcript)
	assert.Equal(t, []string{ReasoningOpen, "hm", ReasoningClose, "hello", " there"}, fragments)

	require.NotNil(t, metrics)
	assert.Equal(t, int64(20), metrics.EvalCount)
	assert.InDelta(t, 20.0, metrics.TokensPerSecond, 0.001)
}

func TestClientChatNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)

	_, _, err := client.Chat(context.Background(), "missing", nil, nil)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeBackendError))
}

func TestClientChatAbortedStreamReturnsPartialTranscript(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		w.Write([]byte(contentLine("partial")))
		flusher.Flush()
		// kill the connection before the terminal record
		conn, _, err := w.(http.Hijacker).Hijack()
		require.NoError(t, err)
		conn.Close()
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)

	transcript, metrics, err := client.Chat(context.Background(), "llama3.2", nil, nil)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeBackendError))
	assert.Equal(t, "partial", transcript)
	assert.Nil(t, metrics)
}

func TestClientChatRespectsContextCancel(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		w.Write([]byte(contentLine("stuck")))
		flusher.Flush()
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(server.URL, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, _, err := client.Chat(ctx, "llama3.2", nil, nil)
	require.Error(t, err)
}

func TestClientListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"models": []map[string]any{
				{"name": "llama3.2:latest"},
				{"name": "qwen2.5-coder:7b"},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)

	names, err := client.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"llama3.2:latest", "qwen2.5-coder:7b"}, names)
}
