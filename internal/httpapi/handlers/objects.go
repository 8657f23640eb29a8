package handlers

import (
	"crypto/subtle"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"filestream/internal/adapters/storage/remote"
	"filestream/internal/httpkit"
)

// InternalObject serves raw object bytes to peer nodes. The route is
// guarded by the shared cluster token; peers mount it through the
// remote replica adapter.
func (h *Handler) InternalObject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := h.log.FromContext(ctx)

	token := r.Header.Get(remote.AuthHeader)
	if h.clusterToken == "" ||
		subtle.ConstantTimeCompare([]byte(token), []byte(h.clusterToken)) != 1 {
		httpkit.WriteErr(w, 403, "FORBIDDEN", "invalid cluster token", nil)
		return
	}

	objectKey := chi.URLParam(r, "*")
	if decoded, err := url.PathUnescape(objectKey); err == nil {
		objectKey = decoded
	}
	if objectKey == "" || strings.Contains(objectKey, "..") {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "invalid object key", nil)
		return
	}

	rep := h.localReplica()
	if rep == nil {
		httpkit.WriteErr(w, 503, "UNAVAILABLE", "no local replica configured", nil)
		return
	}

	offset, length, partial, ok := parsePeerRange(r.Header.Get("Range"))
	if !ok {
		httpkit.WriteErr(w, 416, "VALIDATION_ERROR", "unsupported range", nil)
		return
	}

	rc, err := rep.OpenRange(ctx, objectKey, offset, length)
	if err != nil {
		log.Warn("internal object open failed", "object_key", objectKey, "error", err.Error())
		httpkit.WriteErr(w, 404, "NOT_FOUND", "object not found", map[string]any{"object_key": objectKey})
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	if partial {
		if length > 0 {
			w.Header().Set("Content-Length", strconv.FormatInt(length, 10))
		}
		// Peers know the object size from the registry; the total here
		// is advisory.
		w.WriteHeader(http.StatusPartialContent)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	_, _ = io.Copy(w, rc)
}

// parsePeerRange handles the absolute byte ranges peers send:
// "bytes=start-" and "bytes=start-end". Anything else is rejected.
func parsePeerRange(header string) (offset, length int64, partial, ok bool) {
	if header == "" {
		return 0, -1, false, true
	}
	spec, found := strings.CutPrefix(header, "bytes=")
	if !found || strings.Contains(spec, ",") {
		return 0, 0, false, false
	}
	startStr, endStr, found := strings.Cut(spec, "-")
	if !found || startStr == "" {
		return 0, 0, false, false
	}
	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 0 {
		return 0, 0, false, false
	}
	if endStr == "" {
		return start, -1, true, true
	}
	end, err := strconv.ParseInt(endStr, 10, 64)
	if err != nil || end < start {
		return 0, 0, false, false
	}
	return start, end - start + 1, true, true
}
