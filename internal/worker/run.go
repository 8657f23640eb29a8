package worker

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"filestream/internal/pkg/logger"
	"filestream/internal/repositories"
	"filestream/internal/worker/processor"
	"filestream/internal/worker/queue"
)

// Run consumes the thumbnail queue until ctx is canceled.
func Run(ctx context.Context, d Deps) error {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	log = log.WithComponent("worker")

	q := queue.NewRedisQueue(d.RDB, d.QueueName)

	p := processor.New(processor.Deps{
		Store:   repositories.NewFileRepository(d.Pool),
		Replica: d.Replica,
		Files:   d.Files,
		Log:     log,
	})

	for {
		select {
		case <-ctx.Done():
			log.Info("worker context canceled, stopping")
			return ctx.Err()
		default:
		}

		// Use a separate context with timeout for queue operations
		popCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		fileID, err := q.Pop(popCtx)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				log.Info("worker stopping due to context cancellation")
				return ctx.Err()
			}

			// An empty queue surfaces as a pop deadline; only real
			// Redis failures are worth a warning and a backoff.
			if isIdlePop(err) {
				continue
			}

			log.Warn("queue pop error, retrying",
				"error", err.Error(),
			)
			time.Sleep(1 * time.Second)
			continue
		}

		if fileID == "" {
			continue
		}

		fileCtx := logger.ContextWithFileID(ctx, fileID)
		fileLog := log.WithFileID(fileID)

		fileLog.Info("processing file")
		startTime := time.Now()

		if err := p.Process(fileCtx, fileID); err != nil {
			fileLog.Error("poster generation failed",
				"error", err.Error(),
				"duration_ms", time.Since(startTime).Milliseconds(),
			)
		} else {
			fileLog.Info("file processed",
				"duration_ms", time.Since(startTime).Milliseconds(),
			)
		}
	}
}

// isIdlePop reports whether a queue pop error just means the queue was
// empty for the whole poll window.
func isIdlePop(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, redis.Nil)
}
