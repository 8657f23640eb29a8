package worker

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"filestream/internal/cache"
	"filestream/internal/pkg/logger"
	"filestream/internal/ports"
)

type Deps struct {
	Pool      *pgxpool.Pool
	RDB       *redis.Client
	Replica   ports.Replica
	Files     *cache.FileCache
	QueueName string
	Log       *logger.Logger
}
