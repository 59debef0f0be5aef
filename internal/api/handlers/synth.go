// synth.go — обработчики синтеза речи: одиночный, батч, архив.
package handlers

import (
	"encoding/json"
	"net/http"

	apierrors "github.com/bigkaa/govoicestore/internal/api/errors"
	"github.com/bigkaa/govoicestore/internal/service"
)

// SynthHandler обслуживает операции синтеза.
type SynthHandler struct {
	svc *service.SynthService
}

// NewSynthHandler создаёт обработчик синтеза.
func NewSynthHandler(svc *service.SynthService) *SynthHandler {
	return &SynthHandler{svc: svc}
}

// ttsRequest — JSON-тело POST /tts.
type ttsRequest struct {
	Text   string `json:"text"`
	FileID string `json:"file_id"`
	// Filename — необязательное имя для скачивания при синтезе по тексту.
	Filename string `json:"filename"`
	Voice    string `json:"voice"`
	Rate     string `json:"rate"`
	Volume   string `json:"volume"`
	Pitch    string `json:"pitch"`
}

// TTS обрабатывает POST /tts: синтез по тексту или по загруженному файлу.
func (h *SynthHandler) TTS(w http.ResponseWriter, r *http.Request) {
	var req ttsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "некорректное JSON-тело запроса")
		return
	}

	res, serr := h.svc.Synthesize(r.Context(), service.SynthParams{
		Text:     req.Text,
		FileID:   req.FileID,
		Filename: req.Filename,
		Voice:    req.Voice,
		Rate:     req.Rate,
		Volume:   req.Volume,
		Pitch:    req.Pitch,
	})
	if serr != nil {
		writeServiceError(w, serr)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"output_id":  res.OutputID,
		"output_url": "/download/" + res.OutputID,
		"size":       res.Size,
	})
}

// batchRequest — JSON-тело POST /batch-process.
type batchRequest struct {
	FileIDs []string `json:"file_ids"`
	Voice   string   `json:"voice"`
	Rate    string   `json:"rate"`
	Volume  string   `json:"volume"`
	Pitch   string   `json:"pitch"`
}

// BatchProcess обрабатывает POST /batch-process: последовательный синтез
// списка загруженных файлов.
func (h *SynthHandler) BatchProcess(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "некорректное JSON-тело запроса")
		return
	}

	res, serr := h.svc.SynthesizeBatch(r.Context(), req.FileIDs, service.SynthParams{
		Voice:  req.Voice,
		Rate:   req.Rate,
		Volume: req.Volume,
		Pitch:  req.Pitch,
	})
	if serr != nil {
		writeServiceError(w, serr)
		return
	}

	files := make([]map[string]any, 0, len(res.Items))
	for _, item := range res.Items {
		files = append(files, map[string]any{
			"file_id":    item.FileID,
			"filename":   item.Filename,
			"output_id":  item.OutputID,
			"output_url": "/download/" + item.OutputID,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"batch_id": res.BatchID,
		"files":    files,
		"count":    len(files),
	})
}
