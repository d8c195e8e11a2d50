package transcribe

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestAudio(t *testing.T, payload []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "clip.wav")
	require.NoError(t, os.WriteFile(path, payload, 0o600))
	return path
}

func TestHTTPEngineTranscribe(t *testing.T) {
	payload := []byte("fake audio bytes")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()

		assert.Equal(t, "clip.wav", header.Filename)

		got, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, payload, got)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"hello world","duration_seconds":3.5}`))
	}))
	defer srv.Close()

	engine := NewHTTPEngine(srv.URL, "sk-test", srv.Client())

	result, err := engine.Transcribe(context.Background(), writeTestAudio(t, payload))
	require.NoError(t, err)

	assert.Equal(t, "hello world", result.Text)
	require.NotNil(t, result.DurationSeconds)
	assert.Equal(t, 3.5, *result.DurationSeconds)
}

func TestHTTPEngineNoAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"text":"ok"}`))
	}))
	defer srv.Close()

	engine := NewHTTPEngine(srv.URL, "", srv.Client())

	result, err := engine.Transcribe(context.Background(), writeTestAudio(t, []byte("x")))
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Text)
	assert.Nil(t, result.DurationSeconds)
}

func TestHTTPEngineErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	engine := NewHTTPEngine(srv.URL, "", srv.Client())

	_, err := engine.Transcribe(context.Background(), writeTestAudio(t, []byte("x")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestHTTPEngineContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	engine := NewHTTPEngine(srv.URL, "", srv.Client())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Transcribe(ctx, writeTestAudio(t, []byte("x")))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTTPEngineMissingFile(t *testing.T) {
	engine := NewHTTPEngine("http://localhost:1", "", nil)

	_, err := engine.Transcribe(context.Background(), filepath.Join(t.TempDir(), "missing.wav"))
	assert.Error(t, err)
}

func TestHTTPEngineBadResponseBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	engine := NewHTTPEngine(srv.URL, "", srv.Client())

	_, err := engine.Transcribe(context.Background(), writeTestAudio(t, []byte("x")))
	assert.Error(t, err)
}
