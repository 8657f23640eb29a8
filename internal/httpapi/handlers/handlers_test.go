package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"filestream/internal/adapters/storage/localfs"
	"filestream/internal/balancer"
	"filestream/internal/cache"
	"filestream/internal/models"
	"filestream/internal/pkg/logger"
	"filestream/internal/ports"
	"filestream/internal/repositories"
)

// fakeStore is an in-memory FileStore for handler tests.
type fakeStore struct {
	files map[string]*models.File
}

func newFakeStore(files ...*models.File) *fakeStore {
	s := &fakeStore{files: make(map[string]*models.File)}
	for _, f := range files {
		s.files[f.ID] = f
	}
	return s
}

func (s *fakeStore) Create(ctx context.Context, f *models.File) error {
	if _, ok := s.files[f.ID]; ok {
		return repositories.ErrFileExists
	}
	s.files[f.ID] = f
	return nil
}

func (s *fakeStore) Get(ctx context.Context, id string) (*models.File, error) {
	f, ok := s.files[id]
	if !ok {
		return nil, repositories.ErrFileNotFound
	}
	return f, nil
}

func (s *fakeStore) List(ctx context.Context, limit int) ([]models.File, error) {
	out := make([]models.File, 0, len(s.files))
	for _, f := range s.files {
		out = append(out, *f)
	}
	return out, nil
}

func (s *fakeStore) Delete(ctx context.Context, id string) error {
	if _, ok := s.files[id]; !ok {
		return repositories.ErrFileNotFound
	}
	delete(s.files, id)
	return nil
}

// newTestHandler builds a handler over a localfs replica seeded with
// the given object contents.
func newTestHandler(t *testing.T, f *models.File, content []byte) *Handler {
	t.Helper()

	rep := localfs.New(t.TempDir())
	if content != nil {
		_, err := rep.PutObject(context.Background(), ports.PutObjectInput{
			ObjectKey: f.ObjectKey,
			Reader:    bytes.NewReader(content),
			Size:      int64(len(content)),
		})
		if err != nil {
			t.Fatalf("seed object: %v", err)
		}
	}

	var buf bytes.Buffer
	return New(Deps{
		Store:    newFakeStore(f),
		Balancer: balancer.New([]ports.Replica{rep}),
		Replicas: []ports.Replica{rep},
		Pages:    cache.NewPageCache(16, time.Minute),
		Log:      logger.New(logger.Config{Level: "error", Format: "json", Output: &buf}),

		Version:       "test",
		PublicBaseURL: "http://stream.example",
		ThumbsEnabled: true,
	})
}

func testFile() *models.File {
	return &models.File{
		ID:        "f_abc123",
		Name:      "clip.mp4",
		Mime:      "video/mp4",
		SizeBytes: 11,
		ObjectKey: "files/f_abc123/original.mp4",
		Provider:  "localfs",
		Secret:    "s3cr3t",
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

// get routes the request through chi so URL params resolve.
func get(h *Handler, target string, header map[string]string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Get("/watch/{fileID}", h.Watch)
	r.Get("/dl/{fileID}", h.Stream)
	r.Get("/thumb/{fileID}", h.Thumb)
	r.Get("/internal/objects/*", h.InternalObject)
	r.Get("/status", h.Status)
	r.Get("/health", h.Health)
	r.Get("/api/files/{fileID}", h.GetFile)

	req := httptest.NewRequest("GET", target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func signedPath(f *models.File, route string) string {
	return "/" + route + "/" + f.ID + "?h=" + accessHash(f.Secret, f.ID)
}

func TestWatchRendersPlayerPage(t *testing.T) {
	f := testFile()
	h := newTestHandler(t, f, []byte("mp4 content"))

	rec := get(h, signedPath(f, "watch"), nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "<title>File Stream | clip.mp4</title>") {
		t.Error("expected file name in title")
	}
	dl := "http://stream.example/dl/f_abc123?h=" + accessHash(f.Secret, f.ID)
	if !strings.Contains(body, dl) {
		t.Errorf("expected download link %s in page", dl)
	}
	// No thumbnail yet, so the poster renders empty.
	if !strings.Contains(body, `poster=""`) {
		t.Error("expected empty poster attribute")
	}
}

func TestWatchCachesRenderedPage(t *testing.T) {
	f := testFile()
	h := newTestHandler(t, f, []byte("mp4 content"))

	first := get(h, signedPath(f, "watch"), nil)
	second := get(h, signedPath(f, "watch"), nil)

	if !bytes.Equal(first.Body.Bytes(), second.Body.Bytes()) {
		t.Error("cached page differs from first render")
	}
	if h.pages.Len() != 1 {
		t.Errorf("page cache entries = %d, want 1", h.pages.Len())
	}
}

func TestWatchRejectsBadHash(t *testing.T) {
	f := testFile()
	h := newTestHandler(t, f, []byte("mp4 content"))

	rec := get(h, "/watch/"+f.ID+"?h=000000000000", nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}

	rec = get(h, "/watch/"+f.ID, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("missing hash status = %d, want 403", rec.Code)
	}
}

func TestWatchUnknownFile(t *testing.T) {
	f := testFile()
	h := newTestHandler(t, f, nil)

	rec := get(h, "/watch/f_missing?h=000000000000", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGetFileReturnsLinks(t *testing.T) {
	f := testFile()
	h := newTestHandler(t, f, nil)

	rec := get(h, "/api/files/"+f.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "/watch/f_abc123?h=") {
		t.Error("expected watch link in response")
	}
	if strings.Contains(body, f.Secret) {
		t.Error("secret must not appear in API responses")
	}
}

func TestStatusPayload(t *testing.T) {
	f := testFile()
	h := newTestHandler(t, f, nil)

	rec := get(h, "/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`"status":"running"`, `"version":"test"`, "localfs", "hit_rate"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in status payload: %s", want, body)
		}
	}
}

func TestHealthBasic(t *testing.T) {
	f := testFile()
	h := newTestHandler(t, f, nil)

	rec := get(h, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Error("expected ok status")
	}
}

func TestAccessHashShape(t *testing.T) {
	h1 := accessHash("secret", "f_1")
	h2 := accessHash("secret", "f_2")

	if len(h1) != hashLen {
		t.Errorf("hash length = %d, want %d", len(h1), hashLen)
	}
	if h1 == h2 {
		t.Error("different files must get different hashes")
	}
	if h1 != accessHash("secret", "f_1") {
		t.Error("hash must be deterministic")
	}
}
