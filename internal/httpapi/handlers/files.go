package handlers

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"filestream/internal/httpkit"
	"filestream/internal/models"
	"filestream/internal/ports"
	"filestream/internal/repositories"
)

// PostFile registers an uploaded file and stores its bytes on the local
// replica. The response carries the share links with the access hash
// already applied.
func (h *Handler) PostFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := h.log.FromContext(ctx)

	if err := r.ParseMultipartForm(512 << 20); err != nil {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "invalid multipart form", nil)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "file is required", map[string]any{"field": "file"})
		return
	}
	defer file.Close()

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		name = header.Filename
	}

	ext := filepath.Ext(header.Filename)
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(ext)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	rep := h.localReplica()
	if rep == nil {
		httpkit.WriteErr(w, 503, "UNAVAILABLE", "no writable replica configured", nil)
		return
	}

	fileID := "f_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	if ext == "" {
		ext = ".bin"
	}
	objectKey := fmt.Sprintf("files/%s/original%s", fileID, ext)

	out, err := rep.PutObject(ctx, ports.PutObjectInput{
		ObjectKey:   objectKey,
		ContentType: contentType,
		Reader:      file,
		Size:        header.Size,
	})
	if err != nil {
		log.Error("storage put failed", "error", err.Error(), "provider", rep.Provider())
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "storage put failed", nil)
		return
	}

	f := &models.File{
		ID:        fileID,
		Name:      name,
		Mime:      contentType,
		SizeBytes: out.Size,
		ObjectKey: out.ObjectKey,
		Provider:  rep.Provider(),
		Secret:    newSecret(),
		CreatedAt: time.Now().UTC(),
	}

	if err := h.store.Create(ctx, f); err != nil {
		if errors.Is(err, repositories.ErrFileExists) {
			httpkit.WriteErr(w, 409, "CONFLICT", "file already exists", map[string]any{"file_id": fileID})
			return
		}
		log.Error("db insert file failed", "error", err.Error())
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "db insert file failed", nil)
		return
	}

	if h.files != nil {
		h.files.Set(ctx, f)
	}

	h.enqueueThumbnail(r, f)

	httpkit.WriteJSON(w, 201, map[string]any{
		"file":  fileView(f),
		"links": h.linkView(f),
	})
}

// enqueueThumbnail queues poster extraction for media uploads.
func (h *Handler) enqueueThumbnail(r *http.Request, f *models.File) {
	if !h.thumbsEnabled || h.rdb == nil {
		return
	}
	if !strings.HasPrefix(f.Mime, "video/") && !strings.HasPrefix(f.Mime, "image/") {
		return
	}
	if err := h.rdb.LPush(r.Context(), h.queueName, f.ID).Err(); err != nil {
		h.log.FromContext(r.Context()).Warn("thumbnail enqueue failed",
			"file_id", f.ID,
			"error", err.Error(),
		)
	}
}

func (h *Handler) GetFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	fileID := chi.URLParam(r, "fileID")

	f, err := h.lookupFile(ctx, fileID)
	if err != nil {
		httpkit.WriteAppErr(w, err)
		return
	}

	httpkit.WriteJSON(w, 200, map[string]any{
		"file":  fileView(f),
		"links": h.linkView(f),
	})
}

func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	files, err := h.store.List(ctx, limit)
	if err != nil {
		h.log.FromContext(ctx).Error("db list files failed", "error", err.Error())
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "db list files failed", nil)
		return
	}

	views := make([]map[string]any, 0, len(files))
	for i := range files {
		views = append(views, fileView(&files[i]))
	}

	httpkit.WriteJSON(w, 200, map[string]any{
		"files": views,
		"count": len(views),
	})
}

func (h *Handler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	fileID := chi.URLParam(r, "fileID")
	log := h.log.FromContext(ctx).WithFileID(fileID)

	f, err := h.lookupFile(ctx, fileID)
	if err != nil {
		httpkit.WriteAppErr(w, err)
		return
	}

	if rep := h.replicaFor(f.Provider); rep != nil {
		if err := rep.DeleteObject(ctx, f.ObjectKey); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Error("storage delete failed", "error", err.Error(), "object_key", f.ObjectKey)
			httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "storage delete failed", map[string]any{"object_key": f.ObjectKey})
			return
		}
		if f.ThumbKey != "" {
			if err := rep.DeleteObject(ctx, f.ThumbKey); err != nil && !errors.Is(err, os.ErrNotExist) {
				log.Warn("thumbnail delete failed", "error", err.Error(), "object_key", f.ThumbKey)
			}
		}
	}

	if err := h.store.Delete(ctx, fileID); err != nil {
		if errors.Is(err, repositories.ErrFileNotFound) {
			httpkit.WriteErr(w, 404, "NOT_FOUND", "file not found", map[string]any{"file_id": fileID})
			return
		}
		log.Error("db delete file failed", "error", err.Error())
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "db delete failed", nil)
		return
	}

	if h.files != nil {
		h.files.Invalidate(ctx, fileID)
	}
	if h.pages != nil {
		h.pages.Remove(fileID)
	}

	w.WriteHeader(204)
}

// replicaFor finds the replica whose provider stored the object.
func (h *Handler) replicaFor(provider string) ports.Replica {
	for _, rep := range h.replicas {
		if rep.Provider() == provider {
			return rep
		}
	}
	return nil
}

func fileView(f *models.File) map[string]any {
	return map[string]any{
		"id":         f.ID,
		"name":       f.Name,
		"mime":       f.Mime,
		"size_bytes": f.SizeBytes,
		"provider":   f.Provider,
		"has_thumb":  f.ThumbKey != "",
		"created_at": f.CreatedAt,
	}
}

func (h *Handler) linkView(f *models.File) map[string]any {
	links := map[string]any{
		"watch":    h.watchURL(f),
		"download": h.downloadURL(f),
	}
	if f.ThumbKey != "" {
		links["thumbnail"] = h.thumbURL(f)
	}
	return links
}
