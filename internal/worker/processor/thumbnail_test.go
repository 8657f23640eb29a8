package processor

import (
	"bytes"
	"context"
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"

	"filestream/internal/adapters/storage/localfs"
	"filestream/internal/models"
	"filestream/internal/ports"
)

type fakeStore struct {
	file     *models.File
	thumbKey string
}

func (s *fakeStore) Get(ctx context.Context, id string) (*models.File, error) {
	return s.file, nil
}

func (s *fakeStore) SetThumb(ctx context.Context, id, thumbKey string) error {
	s.thumbKey = thumbKey
	return nil
}

func seedImage(t *testing.T, rep ports.Replica, key string, width, height int) {
	t.Helper()
	img := imaging.New(width, height, color.NRGBA{R: 40, G: 80, B: 120, A: 255})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	_, err := rep.PutObject(context.Background(), ports.PutObjectInput{
		ObjectKey: key,
		Reader:    &buf,
		Size:      int64(buf.Len()),
	})
	if err != nil {
		t.Fatalf("seed image: %v", err)
	}
}

func testImageFile() *models.File {
	return &models.File{
		ID:        "f_img1",
		Name:      "photo.png",
		Mime:      "image/png",
		ObjectKey: "files/f_img1/original.png",
		Provider:  "localfs",
		CreatedAt: time.Now().UTC(),
	}
}

func TestProcessGeneratesPoster(t *testing.T) {
	rep := localfs.New(t.TempDir())
	f := testImageFile()
	seedImage(t, rep, f.ObjectKey, 1280, 720)

	store := &fakeStore{file: f}
	p := New(Deps{Store: store, Replica: rep})

	if err := p.Process(context.Background(), f.ID); err != nil {
		t.Fatalf("Process: %v", err)
	}

	if store.thumbKey != "files/f_img1/poster.jpg" {
		t.Errorf("thumb key = %q", store.thumbKey)
	}

	rc, err := rep.OpenRange(context.Background(), store.thumbKey, 0, -1)
	if err != nil {
		t.Fatalf("poster missing from storage: %v", err)
	}
	defer rc.Close()

	poster, err := imaging.Decode(rc)
	if err != nil {
		t.Fatalf("poster is not a decodable image: %v", err)
	}
	if got := poster.Bounds().Dx(); got != 640 {
		t.Errorf("poster width = %d, want 640", got)
	}
}

func TestProcessKeepsSmallImages(t *testing.T) {
	rep := localfs.New(t.TempDir())
	f := testImageFile()
	seedImage(t, rep, f.ObjectKey, 320, 240)

	store := &fakeStore{file: f}
	p := New(Deps{Store: store, Replica: rep})

	if err := p.Process(context.Background(), f.ID); err != nil {
		t.Fatalf("Process: %v", err)
	}

	rc, err := rep.OpenRange(context.Background(), store.thumbKey, 0, -1)
	if err != nil {
		t.Fatalf("open poster: %v", err)
	}
	defer rc.Close()

	poster, err := imaging.Decode(rc)
	if err != nil {
		t.Fatalf("decode poster: %v", err)
	}
	if got := poster.Bounds().Dx(); got != 320 {
		t.Errorf("poster width = %d, small sources must not upscale", got)
	}
}

func TestProcessSkipsExistingPoster(t *testing.T) {
	rep := localfs.New(t.TempDir())
	f := testImageFile()
	f.ThumbKey = "files/f_img1/poster.jpg"

	store := &fakeStore{file: f}
	p := New(Deps{Store: store, Replica: rep})

	if err := p.Process(context.Background(), f.ID); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if store.thumbKey != "" {
		t.Error("existing poster must not be regenerated")
	}
}

func TestProcessSkipsUndecodableVideo(t *testing.T) {
	rep := localfs.New(t.TempDir())
	f := testImageFile()
	f.Mime = "video/mp4"
	f.ObjectKey = "files/f_img1/original.mp4"

	_, err := rep.PutObject(context.Background(), ports.PutObjectInput{
		ObjectKey: f.ObjectKey,
		Reader:    strings.NewReader("not an image"),
		Size:      12,
	})
	if err != nil {
		t.Fatalf("seed object: %v", err)
	}

	store := &fakeStore{file: f}
	p := New(Deps{Store: store, Replica: rep})

	if err := p.Process(context.Background(), f.ID); err != nil {
		t.Fatalf("undecodable video must be skipped, got: %v", err)
	}
	if store.thumbKey != "" {
		t.Error("no poster should be recorded for undecodable sources")
	}
}
