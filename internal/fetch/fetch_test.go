package fetch_test

import (
	"compress/gzip"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/jmylchreest/swfplayer/internal/backend"
	"github.com/jmylchreest/swfplayer/internal/fetch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(overrides func(*fetch.Config)) *fetch.Client {
	cfg := fetch.DefaultConfig()
	cfg.RetryDelay = time.Millisecond
	cfg.RetryMaxDelay = 5 * time.Millisecond
	cfg.Logger = slog.New(slog.DiscardHandler)
	if overrides != nil {
		overrides(&cfg)
	}
	return fetch.New(cfg)
}

func TestFetch_PlainBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	resp, err := testClient(nil).Fetch(context.Background(), backend.Get(srv.URL))
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), resp.Body)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, srv.URL, resp.URL)
}

func TestFetch_GzipDecompression(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Accept-Encoding"), "br")
		w.Header().Set("Content-Encoding", "gzip")
		zw := gzip.NewWriter(w)
		zw.Write([]byte("compressed payload"))
		zw.Close()
	}))
	defer srv.Close()

	resp, err := testClient(nil).Fetch(context.Background(), backend.Get(srv.URL))
	require.NoError(t, err)
	assert.Equal(t, []byte("compressed payload"), resp.Body)
}

func TestFetch_BrotliDecompression(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "br")
		bw := brotli.NewWriter(w)
		bw.Write([]byte("brotli payload"))
		bw.Close()
	}))
	defer srv.Close()

	resp, err := testClient(nil).Fetch(context.Background(), backend.Get(srv.URL))
	require.NoError(t, err)
	assert.Equal(t, []byte("brotli payload"), resp.Body)
}

func TestFetch_RetriesOnRetryableStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("finally"))
	}))
	defer srv.Close()

	resp, err := testClient(nil).Fetch(context.Background(), backend.Get(srv.URL))
	require.NoError(t, err)
	assert.Equal(t, []byte("finally"), resp.Body)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetch_404IsTerminal(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testClient(nil).Fetch(context.Background(), backend.Get(srv.URL))
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "client errors must not be retried")
}

func TestFetch_ResponseSizeLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 1024))
	}))
	defer srv.Close()

	client := testClient(func(cfg *fetch.Config) {
		cfg.MaxResponseSize = 100
	})
	_, err := client.Fetch(context.Background(), backend.Get(srv.URL))
	require.ErrorIs(t, err, fetch.ErrResponseTooLarge)
}

func TestFetch_PostRedirectURL(t *testing.T) {
	var target string
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target, http.StatusFound)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("moved"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	target = srv.URL + "/new"

	resp, err := testClient(nil).Fetch(context.Background(), backend.Get(srv.URL+"/old"))
	require.NoError(t, err)
	assert.Equal(t, target, resp.URL)
	assert.Equal(t, []byte("moved"), resp.Body)
}

func TestFetch_FileURL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "movie.swf")
	require.NoError(t, os.WriteFile(path, []byte("FWS movie"), 0o644))

	resp, err := testClient(nil).Fetch(context.Background(), backend.Get("file://"+path))
	require.NoError(t, err)
	assert.Equal(t, []byte("FWS movie"), resp.Body)

	_, err = testClient(nil).Fetch(context.Background(), backend.Get("file://"+filepath.Join(dir, "missing.swf")))
	require.Error(t, err)
}

func TestFetch_InvalidURL(t *testing.T) {
	_, err := testClient(nil).Fetch(context.Background(), backend.Get("http://%zz"))
	require.Error(t, err)
}
