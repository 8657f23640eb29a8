package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"filestream/internal/httpkit"
)

// Thumb serves the poster image extracted by the worker. Posters are
// immutable once written, so clients may cache them for a year.
func (h *Handler) Thumb(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	fileID := chi.URLParam(r, "fileID")
	log := h.log.FromContext(ctx).WithFileID(fileID)

	f, err := h.lookupFile(ctx, fileID)
	if err != nil {
		httpkit.WriteAppErr(w, err)
		return
	}
	if err := h.authorize(r, f); err != nil {
		httpkit.WriteAppErr(w, err)
		return
	}

	if !h.thumbsEnabled {
		httpkit.WriteJSON(w, 200, map[string]any{"thumbnails": "disabled"})
		return
	}
	if f.ThumbKey == "" {
		httpkit.WriteErr(w, 404, "NOT_FOUND", "thumbnail not ready", map[string]any{"file_id": fileID})
		return
	}

	attempts := h.balancer.Len()
	for attempt := 0; attempt < attempts; attempt++ {
		idx, rep := h.balancer.Pick()

		start := time.Now()
		rc, err := rep.OpenRange(ctx, f.ThumbKey, 0, -1)
		if err != nil {
			h.balancer.Release(idx, 0)
			h.balancer.MarkUnhealthy(idx)
			log.Warn("thumbnail open failed, retrying",
				"provider", rep.Provider(),
				"attempt", attempt,
				"error", err.Error(),
			)
			continue
		}

		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		w.WriteHeader(http.StatusOK)
		_, _ = io.Copy(w, rc)
		rc.Close()
		h.balancer.Release(idx, time.Since(start))
		return
	}

	httpkit.WriteErr(w, 503, "UNAVAILABLE", "no replica could serve the thumbnail", nil)
}
