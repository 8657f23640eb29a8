package handlers

import (
	"context"
	"net/http"
	"time"

	"filestream/internal/httpkit"
)

// Health performs a health check of the service.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := h.log.FromContext(ctx)

	health := map[string]any{
		"status":  "ok",
		"service": "filestream-api",
		"version": h.version,
	}

	// Check if deep health check is requested
	if r.URL.Query().Get("deep") == "true" {
		checks := h.deepHealthCheck(ctx)
		health["checks"] = checks

		for _, check := range checks {
			if checkMap, ok := check.(map[string]any); ok {
				if checkMap["status"] != "ok" {
					health["status"] = "degraded"
					log.Warn("health check degraded", "checks", checks)
					break
				}
			}
		}
	}

	httpkit.WriteJSON(w, 200, health)
}

func (h *Handler) deepHealthCheck(ctx context.Context) map[string]any {
	checks := make(map[string]any)
	checks["postgres"] = h.checkPostgres(ctx)
	checks["redis"] = h.checkRedis(ctx)
	checks["replicas"] = h.checkReplicas()
	return checks
}

func (h *Handler) checkPostgres(ctx context.Context) map[string]any {
	start := time.Now()
	result := map[string]any{
		"status": "ok",
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if h.pool == nil {
		result["status"] = "error"
		result["error"] = "pool not configured"
		return result
	}

	if err := h.pool.Ping(checkCtx); err != nil {
		result["status"] = "error"
		result["error"] = err.Error()
	} else if err := h.checkSchema(checkCtx); err != nil {
		result["status"] = "error"
		if httpkit.IsUndefinedTable(err) {
			result["error"] = "files table missing, schema not applied"
		} else {
			result["error"] = err.Error()
		}
	} else {
		stats := h.pool.Stat()
		result["total_conns"] = stats.TotalConns()
		result["idle_conns"] = stats.IdleConns()
		result["acquired_conns"] = stats.AcquiredConns()
	}

	result["latency_ms"] = time.Since(start).Milliseconds()
	return result
}

// checkSchema verifies the files table exists.
func (h *Handler) checkSchema(ctx context.Context) error {
	rows, err := h.pool.Query(ctx, `SELECT id FROM files LIMIT 1`)
	if err != nil {
		return err
	}
	rows.Close()
	return nil
}

func (h *Handler) checkRedis(ctx context.Context) map[string]any {
	start := time.Now()
	result := map[string]any{
		"status": "ok",
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if h.rdb == nil {
		result["status"] = "error"
		result["error"] = "redis not configured"
		return result
	}

	if err := h.rdb.Ping(checkCtx).Err(); err != nil {
		result["status"] = "error"
		result["error"] = err.Error()
	}

	result["latency_ms"] = time.Since(start).Milliseconds()
	return result
}

// checkReplicas reports balancer health; a deployment with every
// replica marked unhealthy still streams, so this degrades rather than
// fails.
func (h *Handler) checkReplicas() map[string]any {
	result := map[string]any{
		"status": "ok",
	}

	statuses := h.balancer.Status()
	healthy := 0
	providers := make([]string, 0, len(statuses))
	for _, s := range statuses {
		providers = append(providers, s.Provider)
		if s.Healthy {
			healthy++
		}
	}

	result["providers"] = providers
	result["healthy"] = healthy
	result["total"] = len(statuses)
	if healthy == 0 {
		result["status"] = "degraded"
	}
	return result
}
