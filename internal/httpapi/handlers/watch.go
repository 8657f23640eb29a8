package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"filestream/internal/httpkit"
	"filestream/internal/models"
	"filestream/internal/render"
)

// Watch serves the player page for a file. Pages are rendered once and
// kept in the in-process cache; identical requests get identical bytes.
func (h *Handler) Watch(w http.ResponseWriter, r *http.Request) {
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

	if h.pages != nil {
		if page, ok := h.pages.Get(fileID); ok {
			writePage(w, page)
			return
		}
	}

	page, err := render.Page(h.renderRequest(f))
	if err != nil {
		log.Error("page render failed", "error", err.Error())
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "page render failed", nil)
		return
	}

	if h.pages != nil {
		h.pages.Set(fileID, page)
	}
	writePage(w, page)
}

func (h *Handler) renderRequest(f *models.File) render.Request {
	req := render.Request{
		FileName: f.Name,
		FileURL:  h.downloadURL(f),
	}
	if f.ThumbKey != "" {
		req.PosterURL = h.thumbURL(f)
	}
	return req
}

func writePage(w http.ResponseWriter, page []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(page)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}
