// outputs.go — обработчики результатов синтеза: скачивание, архив, удаление.
package handlers

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/govoicestore/internal/api/errors"
	"github.com/bigkaa/govoicestore/internal/service"
	"github.com/bigkaa/govoicestore/internal/storage/filestore"
)

// OutputsHandler обслуживает операции над результатами синтеза.
type OutputsHandler struct {
	store   *filestore.Store
	synth   *service.SynthService
	archive *service.ArchiveService
}

// NewOutputsHandler создаёт обработчик результатов.
func NewOutputsHandler(store *filestore.Store, synth *service.SynthService, archive *service.ArchiveService) *OutputsHandler {
	return &OutputsHandler{store: store, synth: synth, archive: archive}
}

// Download обрабатывает GET /download/{outputId}.
// Клиенты передают идентификатор как с расширением .mp3, так и без него.
// Имя файла в Content-Disposition восстанавливается из исходной загрузки.
func (h *OutputsHandler) Download(w http.ResponseWriter, r *http.Request) {
	outputID := strings.TrimSuffix(chi.URLParam(r, "outputId"), ".mp3")

	rec, serr := h.synth.Output(outputID)
	if serr != nil {
		writeServiceError(w, serr)
		return
	}

	// Имя для сохранения у клиента: оригинальное имя загрузки с
	// заменой расширения на .mp3, либо {outputId}.mp3 для синтеза
	// по прямому тексту.
	downloadName := filestore.OutputName(outputID)
	if rec.OriginalName != "" {
		base := strings.TrimSuffix(rec.OriginalName, filepath.Ext(rec.OriginalName))
		downloadName = base + ".mp3"
	}

	f, err := h.store.Open(filestore.AreaOutputs, filestore.OutputName(outputID))
	if err != nil {
		apierrors.NotFound(w, "результат "+outputID+" не найден")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		apierrors.InternalError(w, "ошибка чтения файла результата")
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Disposition", `attachment; filename="`+downloadName+`"`)
	http.ServeContent(w, r, downloadName, info.ModTime(), f)
}

// zipRequest — JSON-тело POST /create-zip.
type zipRequest struct {
	OutputIDs []string `json:"output_ids"`
}

// CreateZip обрабатывает POST /create-zip: потоковая отдача zip-архива
// с указанными результатами синтеза.
func (h *OutputsHandler) CreateZip(w http.ResponseWriter, r *http.Request) {
	var req zipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "некорректное JSON-тело запроса")
		return
	}

	// Идентификаторы принимаются и с расширением .mp3.
	ids := make([]string, len(req.OutputIDs))
	for i, id := range req.OutputIDs {
		ids[i] = strings.TrimSuffix(id, ".mp3")
	}

	// Список проверяется до отправки заголовков: ошибки валидации и
	// полного отсутствия результатов уходят обычным конвертом.
	available, serr := h.archive.ResolveOutputs(ids)
	if serr != nil {
		writeServiceError(w, serr)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+service.ZipName()+`"`)

	// Ответ потоковый: после первой записи архива заголовки отправлены,
	// ошибка середины потока обрывает соединение без конверта.
	_ = h.archive.WriteZip(w, available)
}

// Delete обрабатывает DELETE /output/{outputId}.
func (h *OutputsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	outputID := strings.TrimSuffix(chi.URLParam(r, "outputId"), ".mp3")

	if serr := h.synth.DeleteOutput(outputID); serr != nil {
		writeServiceError(w, serr)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "результат удалён",
	})
}
