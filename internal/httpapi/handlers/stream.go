package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"filestream/internal/httpkit"
	"filestream/internal/httprange"
)

// Stream serves file bytes with Range support. The balancer picks the
// replica; a replica that fails to open is marked unhealthy and the
// request retries on another.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
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

	size := f.SizeBytes
	rng := httprange.Range{Start: 0, Length: size}
	partial := false

	if rangeHeader := r.Header.Get("Range"); rangeHeader != "" {
		ranges, err := httprange.ParseRange(rangeHeader, size)
		if err != nil || len(ranges) == 0 {
			w.Header().Set("Content-Range", httprange.Unsatisfiable(size))
			httpkit.WriteErr(w, http.StatusRequestedRangeNotSatisfiable, "VALIDATION_ERROR", "unsatisfiable range", map[string]any{"range": rangeHeader})
			return
		}
		// Players ask for one range at a time; serve the first.
		rng = ranges[0]
		partial = true
	}

	attempts := h.balancer.Len()
	for attempt := 0; attempt < attempts; attempt++ {
		idx, rep := h.balancer.Pick()

		start := time.Now()
		rc, err := rep.OpenRange(ctx, f.ObjectKey, rng.Start, rng.Length)
		if err != nil {
			h.balancer.Release(idx, 0)
			h.balancer.MarkUnhealthy(idx)
			log.Warn("replica open failed, retrying",
				"provider", rep.Provider(),
				"attempt", attempt,
				"error", err.Error(),
			)
			continue
		}

		w.Header().Set("Accept-Ranges", "bytes")
		w.Header().Set("Content-Type", f.Mime)
		w.Header().Set("Content-Disposition", contentDisposition(f.Mime, f.Name))
		w.Header().Set("Content-Length", strconv.FormatInt(rng.Length, 10))
		if partial {
			w.Header().Set("Content-Range", rng.ContentRange(size))
			w.WriteHeader(http.StatusPartialContent)
		} else {
			w.WriteHeader(http.StatusOK)
		}

		n, copyErr := io.Copy(w, rc)
		rc.Close()
		h.balancer.Release(idx, time.Since(start))

		h.streamCount.Add(1)
		h.bytesServed.Add(n)

		if copyErr != nil {
			// Client hangups land here; headers are out, nothing to do.
			log.Debug("stream copy ended early",
				"provider", rep.Provider(),
				"bytes", n,
				"error", copyErr.Error(),
			)
		}
		return
	}

	log.Error("all replicas failed", "object_key", f.ObjectKey)
	httpkit.WriteErr(w, 503, "UNAVAILABLE", "no replica could serve the file", nil)
}

// contentDisposition keeps playable media inline so browsers stream it;
// everything else downloads.
func contentDisposition(mimeType, name string) string {
	disposition := "attachment"
	if strings.HasPrefix(mimeType, "video/") || strings.HasPrefix(mimeType, "audio/") {
		disposition = "inline"
	}
	return fmt.Sprintf(`%s; filename=%q`, disposition, name)
}
