package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGCS answers the JSON API calls UploadObject makes.
type fakeGCS struct {
	mu       sync.Mutex
	aclCalls int
	deletes  []string
	aclFails bool
}

func (f *fakeGCS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Query().Get("uploadType") != "":
		io.Copy(io.Discard, r.Body)
		io.WriteString(w, `{"bucket":"attachments","name":"chat/a.png","size":"3"}`)
	case strings.Contains(r.URL.Path, "/acl"):
		f.aclCalls++
		if f.aclFails {
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"error":{"code":400,"message":"uniform bucket-level access is enabled"}}`)
			return
		}
		io.WriteString(w, `{"entity":"allUsers","role":"READER"}`)
	case r.Method == http.MethodDelete:
		f.deletes = append(f.deletes, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newFakeGCSClient(t *testing.T, fake *fakeGCS, publicACL bool) *CloudStorageClient {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	t.Setenv("STORAGE_EMULATOR_HOST", srv.URL)

	client, err := NewCloudStorageClient(context.Background(), "attachments", publicACL)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestUploadObject_PublicACL(t *testing.T) {
	fake := &fakeGCS{}
	client := newFakeGCSClient(t, fake, true)

	url, err := client.UploadObject(context.Background(), "/chat/a.png", strings.NewReader("png"), "image/png")
	require.NoError(t, err)

	assert.Equal(t, "https://storage.googleapis.com/attachments/chat/a.png", url)
	assert.Equal(t, 1, fake.aclCalls)
	assert.Empty(t, fake.deletes)
}

func TestUploadObject_ACLFailureRemovesObject(t *testing.T) {
	fake := &fakeGCS{aclFails: true}
	client := newFakeGCSClient(t, fake, true)

	url, err := client.UploadObject(context.Background(), "chat/a.png", strings.NewReader("png"), "image/png")
	require.Error(t, err)

	assert.Empty(t, url)
	require.Len(t, fake.deletes, 1)
	assert.Contains(t, fake.deletes[0], "/b/attachments/o/")
}

func TestUploadObject_WithoutACL(t *testing.T) {
	fake := &fakeGCS{aclFails: true}
	client := newFakeGCSClient(t, fake, false)

	url, err := client.UploadObject(context.Background(), "chat/a.png", strings.NewReader("png"), "image/png")
	require.NoError(t, err)

	assert.Equal(t, "https://storage.googleapis.com/attachments/chat/a.png", url)
	assert.Zero(t, fake.aclCalls)
	assert.Empty(t, fake.deletes)
}

func TestNewCloudStorageClient_RequiresBucket(t *testing.T) {
	_, err := NewCloudStorageClient(context.Background(), "", true)
	assert.Error(t, err)
}
