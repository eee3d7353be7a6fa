package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitemapgen/internal/config"
	"sitemapgen/internal/logger"
)

func testLoader(t *testing.T) *Loader {
	t.Helper()

	cfg := config.Default().Source
	cfg.Retry.InitialDelayMs = 1
	cfg.Retry.MaxDelayMs = 5
	cfg.BufferSizeKb = 1

	return NewLoader(cfg, logger.Discard())
}

func TestLoad_LocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.js")
	require.NoError(t, os.WriteFile(path, []byte(`{ id: 'a' }`), 0644))

	content, err := testLoader(t).Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, `{ id: 'a' }`, string(content))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := testLoader(t).Load(context.Background(), filepath.Join(t.TempDir(), "missing.js"))
	require.ErrorIs(t, err, ErrSourceRead)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_InvalidUTF8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.js")
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0xfe, 'i', 'd'}, 0644))

	_, err := testLoader(t).Load(context.Background(), path)
	require.ErrorIs(t, err, ErrSourceRead)
	assert.ErrorIs(t, err, ErrInvalidEncoding)
}

func TestLoad_RemoteRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{ id: "remote" }`))
	}))
	defer server.Close()

	content, err := testLoader(t).Load(context.Background(), server.URL+"/notes.js")
	require.NoError(t, err)
	assert.Equal(t, `{ id: "remote" }`, string(content))
	assert.EqualValues(t, 3, calls.Load())
}

func TestLoad_RemoteExhaustsAttempts(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := testLoader(t).Load(context.Background(), server.URL)
	require.ErrorIs(t, err, ErrSourceRead)
	assert.ErrorIs(t, err, ErrUnexpectedStatusCode)
	assert.EqualValues(t, 3, calls.Load())
}

func TestLoad_RemoteNotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := testLoader(t).Load(context.Background(), server.URL)
	require.ErrorIs(t, err, ErrSourceRead)
	assert.Contains(t, err.Error(), "404")
	assert.EqualValues(t, 1, calls.Load())
}

func TestLoad_RemoteTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(make([]byte, 2048))
	}))
	defer server.Close()

	_, err := testLoader(t).Load(context.Background(), server.URL)
	require.ErrorIs(t, err, ErrSourceTooLarge)
}

func TestLoad_RemoteCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testLoader(t).Load(ctx, server.URL)
	require.ErrorIs(t, err, ErrSourceRead)
}

func TestIsRetryableStatus(t *testing.T) {
	for _, code := range []int{408, 429, 503, 504} {
		assert.True(t, isRetryableStatus(code), "status %d", code)
	}

	for _, code := range []int{400, 401, 403, 404, 500} {
		assert.False(t, isRetryableStatus(code), "status %d", code)
	}
}
