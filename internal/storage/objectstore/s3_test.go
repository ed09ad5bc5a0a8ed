package objectstore

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenomics-lab/internal/config"
	"tokenomics-lab/internal/domain"
)

type putRequest struct {
	path        string
	contentType string
	body        string
}

func newFakeS3(t *testing.T) (*httptest.Server, func() []putRequest) {
	t.Helper()

	var (
		mu   sync.Mutex
		puts []putRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		puts = append(puts, putRequest{path: r.URL.Path, contentType: r.Header.Get("Content-Type"), body: string(body)})
		mu.Unlock()
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	return srv, func() []putRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]putRequest(nil), puts...)
	}
}

func testConfig(endpoint string) config.S3Config {
	return config.S3Config{
		Bucket:          "artifacts",
		Region:          "us-east-1",
		Prefix:          "/tokenomics/",
		Endpoint:        endpoint,
		PathStyle:       true,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
	}
}

func TestUploader_UploadFile(t *testing.T) {
	srv, puts := newFakeS3(t)

	u, err := NewS3Uploader(context.Background(), testConfig(srv.URL), nil)
	require.NoError(t, err)

	p := filepath.Join(t.TempDir(), "all_chains_data.csv")
	require.NoError(t, os.WriteFile(p, []byte("date,chain\n2024-01-01,Atom\n"), 0o644))

	key, err := u.UploadFile(context.Background(), domain.MustParseDate("2024-08-30"), p)
	require.NoError(t, err)
	assert.Equal(t, "tokenomics/2024-08-30/all_chains_data.csv", key)

	got := puts()
	require.Len(t, got, 1)
	assert.Equal(t, "/artifacts/tokenomics/2024-08-30/all_chains_data.csv", got[0].path)
	assert.Equal(t, "text/csv", got[0].contentType)
	assert.True(t, strings.Contains(got[0].body, "2024-01-01,Atom"))
}

func TestUploader_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	u, err := NewS3Uploader(context.Background(), testConfig(srv.URL), nil)
	require.NoError(t, err)

	err = u.Upload(context.Background(), "k", strings.NewReader("x"), "text/plain")
	assert.Error(t, err)
}

func TestNewS3Uploader_RequiresBucket(t *testing.T) {
	_, err := NewS3Uploader(context.Background(), config.S3Config{Region: "us-east-1"}, nil)
	assert.Error(t, err)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/csv", contentType("a/b.CSV"))
	assert.Equal(t, "application/vnd.apache.parquet", contentType("x.parquet"))
	assert.Equal(t, "application/octet-stream", contentType("x.dat"))
}
