// Пакет handlers — HTTP-обработчики сервиса синтеза речи.
// handler.go — сборка обработчиков и маршрутизация chi.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apierrors "github.com/bigkaa/govoicestore/internal/api/errors"
	"github.com/bigkaa/govoicestore/internal/service"
)

// Handler — единый объект, собирающий все доменные обработчики.
type Handler struct {
	info    *InfoHandler
	uploads *UploadsHandler
	synth   *SynthHandler
	outputs *OutputsHandler
}

// NewHandler создаёт обработчики поверх сервисного слоя.
func NewHandler(info *InfoHandler, uploads *UploadsHandler, synth *SynthHandler, outputs *OutputsHandler) *Handler {
	return &Handler{
		info:    info,
		uploads: uploads,
		synth:   synth,
		outputs: outputs,
	}
}

// Routes строит chi-маршрутизатор.
//
// Открытые маршруты: информация о сервисе, голоса, health, метрики.
// Остальные операции закрыты Basic-аутентификацией; операции загрузки,
// синтеза и батчей дополнительно ограничены по частоте.
func (h *Handler) Routes(
	auth func(http.Handler) http.Handler,
	uploadLimit, ttsLimit, batchLimit func(http.Handler) http.Handler,
) chi.Router {
	r := chi.NewRouter()

	// Открытые маршруты
	r.Get("/", h.info.Info)
	r.Get("/voices", h.info.Voices)
	r.Get("/health/live", h.info.HealthLive)
	r.Get("/health/ready", h.info.HealthReady)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Защищённые маршруты
	r.Group(func(r chi.Router) {
		r.Use(auth)

		r.With(uploadLimit).Post("/upload", h.uploads.Upload)
		r.Get("/uploads", h.uploads.List)
		r.Get("/file-content/{fileId}", h.uploads.Content)
		r.Delete("/file/{fileId}", h.uploads.Delete)

		r.With(ttsLimit).Post("/tts", h.synth.TTS)
		r.With(batchLimit).Post("/batch-process", h.synth.BatchProcess)
		r.Post("/create-zip", h.outputs.CreateZip)

		r.Get("/download/{outputId}", h.outputs.Download)
		r.Delete("/output/{outputId}", h.outputs.Delete)
	})

	return r
}

// writeJSON сериализует ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeServiceError отдаёт ошибку сервисного слоя в стандартном конверте.
func writeServiceError(w http.ResponseWriter, serr *service.Error) {
	apierrors.WriteError(w, serr.StatusCode, serr.Code, serr.Message)
}
