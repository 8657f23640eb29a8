package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"filestream/internal/models"
)

const fileKeyPrefix = "filestream:file:"

// FileCache is a Redis-backed cache for file metadata. Entries are
// shared between API nodes and the thumbnail worker, so a lookup on one
// node warms the others.
type FileCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewFileCache(rdb *redis.Client, ttl time.Duration) *FileCache {
	return &FileCache{rdb: rdb, ttl: ttl}
}

func (f *FileCache) Get(ctx context.Context, fileID string) (*models.File, bool) {
	raw, err := f.rdb.Get(ctx, fileKeyPrefix+fileID).Bytes()
	if err != nil {
		return nil, false
	}
	var file models.File
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, false
	}
	return &file, true
}

func (f *FileCache) Set(ctx context.Context, file *models.File) {
	raw, err := json.Marshal(file)
	if err != nil {
		return
	}
	_ = f.rdb.Set(ctx, fileKeyPrefix+file.ID, raw, f.ttl).Err()
}

func (f *FileCache) Invalidate(ctx context.Context, fileID string) {
	_ = f.rdb.Del(ctx, fileKeyPrefix+fileID).Err()
}
