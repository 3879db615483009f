package storage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGCS serves the two JSON API calls the backend makes: object list and delete.
type fakeGCS struct {
	bucket  string
	mu      sync.Mutex
	objects map[string]struct{}
}

func (f *fakeGCS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	base := "/storage/v1/b/" + f.bucket + "/o"
	switch {
	case r.Method == http.MethodGet && r.URL.Path == base:
		prefix := r.URL.Query().Get("prefix")
		var names []string
		for name := range f.objects {
			if strings.HasPrefix(name, prefix) {
				names = append(names, name)
			}
		}
		sort.Strings(names)
		items := make([]map[string]string, len(names))
		for i, n := range names {
			items[i] = map[string]string{"kind": "storage#object", "name": n, "bucket": f.bucket}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"kind": "storage#objects", "items": items})
	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, base+"/"):
		name := strings.TrimPrefix(r.URL.Path, base+"/")
		if _, ok := f.objects[name]; !ok {
			http.Error(w, `{"error":{"code":404,"message":"not found"}}`, http.StatusNotFound)
			return
		}
		delete(f.objects, name)
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, `{"error":{"code":404,"message":"unexpected request"}}`, http.StatusNotFound)
	}
}

func newFakeGCS(t *testing.T, names ...string) (*GCSBackend, *fakeGCS) {
	t.Helper()

	fake := &fakeGCS{bucket: "lake", objects: map[string]struct{}{}}
	for _, n := range names {
		fake.objects[n] = struct{}{}
	}
	ts := httptest.NewServer(fake)
	t.Cleanup(ts.Close)

	b, err := NewGCSBackend(context.Background(), GCSOptions{
		Endpoint:  ts.URL + "/storage/v1/",
		Anonymous: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b, fake
}

func TestGCSBackend_ResetAndList(t *testing.T) {
	ctx := context.Background()
	b, fake := newFakeGCS(t,
		"out/time/year=2018/month=11/data_0.parquet",
		"out/time/year=2018/month=12/data_0.parquet",
		"out/users/data_0.parquet",
	)

	listed, err := b.List(ctx, "gs://lake/out/time")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"gs://lake/out/time/year=2018/month=11/data_0.parquet",
		"gs://lake/out/time/year=2018/month=12/data_0.parquet",
	}, listed)

	require.NoError(t, b.Reset(ctx, "gs://lake/out/time"))

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, map[string]struct{}{"out/users/data_0.parquet": {}}, fake.objects)
}

func TestGCSBackend_RejectsOtherSchemes(t *testing.T) {
	b, _ := newFakeGCS(t)
	assert.Error(t, b.Reset(context.Background(), "s3://lake/out"))
}

func TestPathOrContents(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "key.json")
	require.NoError(t, os.WriteFile(keyFile, []byte(`{"type":"service_account"}`), 0o600))

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "empty", input: "", want: ""},
		{name: "existing file", input: keyFile, want: `{"type":"service_account"}`},
		{name: "inline json", input: `{"type":"authorized_user"}`, want: `{"type":"authorized_user"}`},
		{name: "missing absolute path", input: "/no/such/key.json", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pathOrContents(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
