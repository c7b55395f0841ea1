package upload

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVideo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "encoded.webm")
	require.NoError(t, os.WriteFile(path, []byte("not really a webm"), 0o644))
	return path
}

func TestUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "document.pdf", r.FormValue("title"))
		assert.Contains(t, r.FormValue("description"), "original_length")

		f, hdr, err := r.FormFile("video")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "encoded.webm", hdr.Filename)

		w.Write([]byte(`{"video_id": "abc123"}`))
	}))
	defer srv.Close()

	id, err := New(srv.URL).Upload(context.Background(), testVideo(t), "document.pdf", `{"original_length": 17}`)
	require.NoError(t, err)
	assert.Equal(t, "abc123", id)
}

func TestUploadBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Upload(context.Background(), testVideo(t), "t", "d")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestUploadMissingVideoID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Upload(context.Background(), testVideo(t), "t", "d")
	assert.Error(t, err)
}

func TestUploadMissingFile(t *testing.T) {
	_, err := New("http://localhost:1/upload").Upload(context.Background(), "/no/such/file", "t", "d")
	assert.Error(t, err)
}

func TestWatchURL(t *testing.T) {
	assert.Equal(t, "https://youtu.be/abc123", WatchURL("abc123"))
}
