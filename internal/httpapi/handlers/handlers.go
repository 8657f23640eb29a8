// Package handlers implements the FileStream HTTP endpoints: the
// player page, ranged downloads, thumbnails, the file registry API and
// the service status pages.
package handlers

import (
	"context"
	"crypto/md5"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"filestream/internal/balancer"
	"filestream/internal/cache"
	"filestream/internal/models"
	apperrors "filestream/internal/pkg/errors"
	"filestream/internal/pkg/logger"
	"filestream/internal/ports"
	"filestream/internal/repositories"
)

// hashLen is the number of hex characters of the access hash carried in
// links. 12 matches the short-hash links users already share around.
const hashLen = 12

// FileStore is the registry handlers resolve files through.
type FileStore interface {
	Create(ctx context.Context, f *models.File) error
	Get(ctx context.Context, id string) (*models.File, error)
	List(ctx context.Context, limit int) ([]models.File, error)
	Delete(ctx context.Context, id string) error
}

type Deps struct {
	Pool     *pgxpool.Pool
	RDB      *redis.Client
	Store    FileStore
	Balancer *balancer.Balancer
	Replicas []ports.Replica
	Pages    *cache.PageCache
	Files    *cache.FileCache
	Log      *logger.Logger

	Version       string
	PublicBaseURL string
	ClusterToken  string
	QueueName     string
	ThumbsEnabled bool
}

type Handler struct {
	pool     *pgxpool.Pool
	rdb      *redis.Client
	store    FileStore
	balancer *balancer.Balancer
	replicas []ports.Replica
	pages    *cache.PageCache
	files    *cache.FileCache
	log      *logger.Logger

	version       string
	baseURL       string
	clusterToken  string
	queueName     string
	thumbsEnabled bool

	start       time.Time
	bytesServed atomic.Int64
	streamCount atomic.Int64
}

func New(d Deps) *Handler {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	return &Handler{
		pool:          d.Pool,
		rdb:           d.RDB,
		store:         d.Store,
		balancer:      d.Balancer,
		replicas:      d.Replicas,
		pages:         d.Pages,
		files:         d.Files,
		log:           log,
		version:       d.Version,
		baseURL:       d.PublicBaseURL,
		clusterToken:  d.ClusterToken,
		queueName:     d.QueueName,
		thumbsEnabled: d.ThumbsEnabled,
		start:         time.Now(),
	}
}

// lookupFile resolves a file through the metadata cache, falling back
// to the registry and warming the cache on a miss.
func (h *Handler) lookupFile(ctx context.Context, fileID string) (*models.File, error) {
	if h.files != nil {
		if f, ok := h.files.Get(ctx, fileID); ok {
			return f, nil
		}
	}

	f, err := h.store.Get(ctx, fileID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrFileNotFound) {
			return nil, apperrors.NotFound("file", fileID)
		}
		return nil, apperrors.Wrap(err, "file.lookup", "registry lookup failed")
	}

	if h.files != nil {
		h.files.Set(ctx, f)
	}
	return f, nil
}

// authorize checks the access hash carried in the h query parameter.
func (h *Handler) authorize(r *http.Request, f *models.File) error {
	got := r.URL.Query().Get("h")
	want := accessHash(f.Secret, f.ID)
	if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
		return apperrors.Forbidden("invalid access hash").WithField("file_id", f.ID)
	}
	return nil
}

// accessHash derives the short per-file hash embedded in share links.
func accessHash(secret, fileID string) string {
	sum := md5.Sum([]byte(secret + "|" + fileID))
	return hex.EncodeToString(sum[:])[:hashLen]
}

func newSecret() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func (h *Handler) watchURL(f *models.File) string {
	return fmt.Sprintf("%s/watch/%s?h=%s", h.baseURL, f.ID, accessHash(f.Secret, f.ID))
}

func (h *Handler) downloadURL(f *models.File) string {
	return fmt.Sprintf("%s/dl/%s?h=%s", h.baseURL, f.ID, accessHash(f.Secret, f.ID))
}

func (h *Handler) thumbURL(f *models.File) string {
	return fmt.Sprintf("%s/thumb/%s?h=%s", h.baseURL, f.ID, accessHash(f.Secret, f.ID))
}

// localReplica returns the first replica that can serve writes. Remote
// peers are read-only proxies and never take uploads.
func (h *Handler) localReplica() ports.Replica {
	for _, rep := range h.replicas {
		if rep.Provider() != "remote" {
			return rep
		}
	}
	return nil
}
