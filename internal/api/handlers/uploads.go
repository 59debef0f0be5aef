// uploads.go — обработчики загрузки и управления текстовыми файлами.
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/govoicestore/internal/api/errors"
	"github.com/bigkaa/govoicestore/internal/config"
	"github.com/bigkaa/govoicestore/internal/service"
)

// UploadsHandler обслуживает операции с загруженными файлами.
type UploadsHandler struct {
	cfg *config.Config
	svc *service.UploadService
}

// NewUploadsHandler создаёт обработчик загрузок.
func NewUploadsHandler(cfg *config.Config, svc *service.UploadService) *UploadsHandler {
	return &UploadsHandler{cfg: cfg, svc: svc}
}

// Upload обрабатывает POST /upload (multipart/form-data, поле "file").
func (h *UploadsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	// Жёсткий предел на размер запроса: лимит файла плюс запас на
	// multipart-обрамление.
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxFileSize+1<<20)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			apierrors.PayloadTooLarge(w, "файл превышает допустимый размер")
			return
		}
		apierrors.ValidationError(w, "в запросе отсутствует поле file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			apierrors.PayloadTooLarge(w, "файл превышает допустимый размер")
			return
		}
		apierrors.InternalError(w, "ошибка чтения файла из запроса")
		return
	}

	res, serr := h.svc.Upload(service.UploadParams{
		Data:        data,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
	})
	if serr != nil {
		writeServiceError(w, serr)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":             true,
		"file_id":             res.FileID,
		"filename":            res.Filename,
		"original_encoding":   res.Encoding,
		"encoding_confidence": res.Confidence,
		"size":                res.Size,
	})
}

// List обрабатывает GET /uploads.
func (h *UploadsHandler) List(w http.ResponseWriter, _ *http.Request) {
	records := h.svc.List()

	files := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		files = append(files, map[string]any{
			"file_id":     rec.FileID,
			"filename":    rec.OriginalName,
			"size":        rec.Size,
			"encoding":    rec.Encoding,
			"uploaded_at": rec.UploadedAt,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"files": files,
		"count": len(files),
	})
}

// Content обрабатывает GET /file-content/{fileId}.
func (h *UploadsHandler) Content(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileId")

	fc, serr := h.svc.Content(fileID)
	if serr != nil {
		writeServiceError(w, serr)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"content":   fc.Content,
		"filename":  fc.Filename,
		"file_size": fc.Size,
		"encoding":  fc.Encoding,
	})
}

// Delete обрабатывает DELETE /file/{fileId}.
func (h *UploadsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileId")

	if serr := h.svc.Delete(fileID); serr != nil {
		writeServiceError(w, serr)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "файл удалён",
	})
}
