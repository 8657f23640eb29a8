package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"filestream/internal/cache"
	"filestream/internal/ports"
	"filestream/internal/storage"
	"filestream/internal/worker"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()

	dbURL := mustEnv("DATABASE_URL")
	redisAddr := mustEnv("REDIS_ADDR")
	queueName := env("THUMBNAIL_QUEUE", "filestream:thumbs")

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		panic(err)
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer rdb.Close()

	replicas, err := storage.NewReplicas()
	if err != nil {
		panic(err)
	}
	replica := localReplica(replicas)
	if replica == nil {
		panic("worker needs a writable storage replica")
	}

	deps := worker.Deps{
		Pool:      pool,
		RDB:       rdb,
		Replica:   replica,
		Files:     cache.NewFileCache(rdb, time.Hour),
		QueueName: queueName,
	}

	fmt.Println("FileStream worker started")
	if err := worker.Run(ctx, deps); err != nil {
		panic(err)
	}
}

// localReplica picks the first replica that accepts writes; remote
// peers are read-only.
func localReplica(replicas []ports.Replica) ports.Replica {
	for _, rep := range replicas {
		if rep.Provider() != "remote" {
			return rep
		}
	}
	return nil
}

func env(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}

func mustEnv(k string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}
