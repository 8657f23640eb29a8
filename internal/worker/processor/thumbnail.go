// Package processor extracts poster images for uploaded files and
// records them in the registry.
package processor

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/disintegration/imaging"

	"filestream/internal/cache"
	"filestream/internal/models"
	"filestream/internal/pkg/logger"
	"filestream/internal/ports"
)

// posterWidth is the target width of generated posters; height follows
// the source aspect ratio.
const posterWidth = 640

// FileStore is the slice of the registry the processor needs.
type FileStore interface {
	Get(ctx context.Context, id string) (*models.File, error)
	SetThumb(ctx context.Context, id, thumbKey string) error
}

type Deps struct {
	Store   FileStore
	Replica ports.Replica
	Files   *cache.FileCache
	Log     *logger.Logger
}

type Processor struct {
	store   FileStore
	replica ports.Replica
	files   *cache.FileCache
	log     *logger.Logger
}

func New(d Deps) *Processor {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	return &Processor{
		store:   d.Store,
		replica: d.Replica,
		files:   d.Files,
		log:     log,
	}
}

// Process generates a poster for the file and stores it next to the
// original. Files the image decoder cannot read are skipped, not
// failed: a video without an embedded poster simply streams without one.
func (p *Processor) Process(ctx context.Context, fileID string) error {
	log := p.log.FromContext(ctx).WithFileID(fileID)

	f, err := p.store.Get(ctx, fileID)
	if err != nil {
		return fmt.Errorf("lookup file: %w", err)
	}
	if f.ThumbKey != "" {
		log.Debug("poster already exists, skipping")
		return nil
	}

	rc, err := p.replica.OpenRange(ctx, f.ObjectKey, 0, -1)
	if err != nil {
		return fmt.Errorf("open object: %w", err)
	}
	defer rc.Close()

	src, err := imaging.Decode(rc, imaging.AutoOrientation(true))
	if err != nil {
		if strings.HasPrefix(f.Mime, "image/") {
			return fmt.Errorf("decode image: %w", err)
		}
		log.Info("no decodable poster source, skipping", "mime", f.Mime)
		return nil
	}

	poster := src
	if src.Bounds().Dx() > posterWidth {
		poster = imaging.Resize(src, posterWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, poster, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return fmt.Errorf("encode poster: %w", err)
	}

	thumbKey := fmt.Sprintf("files/%s/poster.jpg", f.ID)
	out, err := p.replica.PutObject(ctx, ports.PutObjectInput{
		ObjectKey:   thumbKey,
		ContentType: "image/jpeg",
		Reader:      &buf,
		Size:        int64(buf.Len()),
	})
	if err != nil {
		return fmt.Errorf("store poster: %w", err)
	}

	if err := p.store.SetThumb(ctx, f.ID, out.ObjectKey); err != nil {
		return fmt.Errorf("record poster: %w", err)
	}

	// Drop the stale cache entry so the next lookup sees the poster.
	if p.files != nil {
		p.files.Invalidate(ctx, f.ID)
	}

	log.Info("poster generated",
		"thumb_key", out.ObjectKey,
		"size_bytes", out.Size,
	)
	return nil
}
