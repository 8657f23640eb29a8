package handlers

import (
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"filestream/internal/httpkit"
)

// Status reports uptime, per-replica load and cache effectiveness. The
// endpoint is exempt from rate limiting so monitors can poll it freely.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	now := time.Now()

	payload := map[string]any{
		"status":  "running",
		"version": h.version,
		"uptime":  humanize.RelTime(h.start, now, "", ""),
		"started": h.start.UTC().Format(time.RFC3339),
	}

	payload["replicas"] = h.balancer.Status()

	if h.pages != nil {
		payload["page_cache"] = map[string]any{
			"entries":  h.pages.Len(),
			"hit_rate": h.pages.HitRate(),
		}
	}

	served := h.bytesServed.Load()
	payload["streams"] = map[string]any{
		"count":       h.streamCount.Load(),
		"bytes":       served,
		"bytes_human": humanize.Bytes(uint64(served)),
	}

	httpkit.WriteJSON(w, 200, payload)
}
