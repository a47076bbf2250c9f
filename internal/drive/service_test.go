package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

type recordedUpload struct {
	Method    string
	FileID    string
	Metadata  map[string]interface{}
	MediaType string
	Media     string
	Fields    string
}

type fakeDrive struct {
	mu      sync.Mutex
	uploads []recordedUpload
	queries []string
	status  int
}

func (f *fakeDrive) last() recordedUpload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uploads[len(f.uploads)-1]
}

func (f *fakeDrive) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if f.status != 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.status)
		fmt.Fprintf(w, `{"error":{"code":%d,"message":"File not found: missing."}}`, f.status)
		return
	}

	switch r.Method {
	case http.MethodGet:
		f.mu.Lock()
		f.queries = append(f.queries, r.URL.Query().Get("q"))
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"files":[{"id":"folder-1","name":"Reports","mimeType":"application/vnd.google-apps.folder"}]}`)
		return
	case http.MethodPost, http.MethodPatch:
	default:
		http.Error(w, "unexpected method", http.StatusMethodNotAllowed)
		return
	}

	rec := recordedUpload{Method: r.Method, Fields: r.URL.Query().Get("fields")}
	if r.Method == http.MethodPatch {
		rec.FileID = path.Base(r.URL.Path)
	}

	mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		http.Error(w, "expected multipart body", http.StatusBadRequest)
		return
	}
	mr := multipart.NewReader(r.Body, params["boundary"])

	metaPart, err := mr.NextPart()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := json.NewDecoder(metaPart).Decode(&rec.Metadata); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	mediaPart, err := mr.NextPart()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	rec.MediaType = mediaPart.Header.Get("Content-Type")
	body, _ := io.ReadAll(mediaPart)
	rec.Media = string(body)

	f.mu.Lock()
	f.uploads = append(f.uploads, rec)
	f.mu.Unlock()

	id := rec.FileID
	name, _ := rec.Metadata["name"].(string)
	if id == "" {
		id = "new-file-id"
	}
	if name == "" {
		name = "existing.txt"
	}

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"id":%q,"name":%q,"webViewLink":"https://drive.google.com/file/d/%s/view","webContentLink":"https://drive.google.com/uc?id=%s"}`,
		id, name, id, id)
}

func newTestService(t *testing.T, fake *fakeDrive) *Service {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	api, err := drive.NewService(context.Background(),
		option.WithHTTPClient(srv.Client()),
		option.WithEndpoint(srv.URL+"/"),
	)
	require.NoError(t, err)
	return NewService(api)
}

func TestCreateFile(t *testing.T) {
	fake := &fakeDrive{}
	ds := newTestService(t, fake)

	file, err := ds.CreateFile(context.Background(), "readme.txt", strings.NewReader("hello"), "text/plain", "")
	require.NoError(t, err)
	assert.Equal(t, "new-file-id", file.Id)
	assert.Equal(t, "readme.txt", file.Name)
	assert.Equal(t, "https://drive.google.com/file/d/new-file-id/view", file.WebViewLink)
	assert.Equal(t, "https://drive.google.com/uc?id=new-file-id", file.WebContentLink)

	got := fake.last()
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "readme.txt", got.Metadata["name"])
	assert.NotContains(t, got.Metadata, "parents")
	assert.Equal(t, "hello", got.Media)
	assert.True(t, strings.HasPrefix(got.MediaType, "text/plain"))
	assert.Equal(t, fileFields, got.Fields)
}

func TestCreateFileInFolder(t *testing.T) {
	fake := &fakeDrive{}
	ds := newTestService(t, fake)

	_, err := ds.CreateFile(context.Background(), "notes.md", strings.NewReader("# notes"), "text/markdown", "folder-123")
	require.NoError(t, err)

	got := fake.last()
	assert.Equal(t, []interface{}{"folder-123"}, got.Metadata["parents"])
	assert.True(t, strings.HasPrefix(got.MediaType, "text/markdown"))
}

func TestCreateFileDoesNotRequestConversion(t *testing.T) {
	fake := &fakeDrive{}
	ds := newTestService(t, fake)

	_, err := ds.CreateFile(context.Background(), "draft", strings.NewReader("text"), "application/vnd.google-apps.document", "")
	require.NoError(t, err)

	got := fake.last()
	assert.NotContains(t, got.Metadata, "mimeType")
	assert.True(t, strings.HasPrefix(got.MediaType, "application/vnd.google-apps.document"))
}

func TestUpdateContent(t *testing.T) {
	fake := &fakeDrive{}
	ds := newTestService(t, fake)

	file, err := ds.UpdateContent(context.Background(), "file-42", bytes.NewReader([]byte(`{"a":1}`)), "application/json")
	require.NoError(t, err)
	assert.Equal(t, "file-42", file.Id)

	got := fake.last()
	assert.Equal(t, http.MethodPatch, got.Method)
	assert.Equal(t, "file-42", got.FileID)
	assert.Equal(t, `{"a":1}`, got.Media)
	assert.True(t, strings.HasPrefix(got.MediaType, "application/json"))
	assert.NotContains(t, got.Metadata, "name")
}

func TestUpdateContentProviderError(t *testing.T) {
	ds := newTestService(t, &fakeDrive{status: http.StatusNotFound})

	_, err := ds.UpdateContent(context.Background(), "missing", strings.NewReader("x"), "text/plain")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "File not found: missing.")
}

func TestResolveFolder(t *testing.T) {
	fake := &fakeDrive{}
	ds := newTestService(t, fake)

	id, err := ds.ResolveFolder(context.Background(), "/")
	require.NoError(t, err)
	assert.Equal(t, DriveRootID, id)

	id, err = ds.ResolveFolder(context.Background(), "/Reports/")
	require.NoError(t, err)
	assert.Equal(t, "folder-1", id)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Len(t, fake.queries, 1)
	assert.Contains(t, fake.queries[0], "name = 'Reports'")
	assert.Contains(t, fake.queries[0], "'root' in parents")
}

func TestParseRemotePath(t *testing.T) {
	ds := &Service{}
	tests := []struct {
		input string
		want  []string
	}{
		{"", []string{}},
		{"/", []string{}},
		{"a/b", []string{"a", "b"}},
		{"/a/b/", []string{"a", "b"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ds.ParseRemotePath(tt.input), tt.input)
	}
}

func TestEscapeQuery(t *testing.T) {
	assert.Equal(t, `it\'s`, escapeQuery("it's"))
	assert.Equal(t, `a\\b`, escapeQuery(`a\b`))
}

func TestProgressReader(t *testing.T) {
	var out bytes.Buffer
	r := ProgressReader(strings.NewReader("payload"), 7, "Uploading", &out)

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
	assert.Contains(t, out.String(), "Uploading")
}
