package repository

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	appConfig "github.com/mansoorceksport/skinsight/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 records the requests an S3 client makes against a path-style endpoint
type fakeS3 struct {
	mu           sync.Mutex
	bucketExists bool
	requests     []string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	switch {
	case r.Method == http.MethodHead:
		if !f.bucketExists {
			w.WriteHeader(http.StatusNotFound)
			return
		}
	case r.Method == http.MethodPut && strings.Count(strings.Trim(r.URL.Path, "/"), "/") == 0:
		f.bucketExists = true
	default:
		_, _ = io.Copy(io.Discard, r.Body)
	}
	w.WriteHeader(http.StatusOK)
}

func TestPhotoKey(t *testing.T) {
	at := time.Unix(0, 1700000000123456789)
	assert.Equal(t, "analyses/01HZX/1700000000123456789.png", PhotoKey("01HZX", "png", at))
}

func TestSeaweedS3_CreatesBucketAndUploads(t *testing.T) {
	fake := &fakeS3{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	ctx := context.Background()
	repo, err := NewSeaweedS3Repository(ctx, appConfig.S3Config{
		Endpoint:  srv.URL,
		PublicURL: "https://cdn.example.com/",
		Region:    "us-east-1",
		Bucket:    "photos",
		AccessKey: "any",
		SecretKey: "any",
	})
	require.NoError(t, err)
	assert.Contains(t, fake.requests, "PUT /photos")

	url, err := repo.Upload(ctx, []byte("img"), "analyses/s1/1.png", "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/photos/analyses/s1/1.png", url)
	assert.Contains(t, fake.requests, "PUT /photos/analyses/s1/1.png")
}
