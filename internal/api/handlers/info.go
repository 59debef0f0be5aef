// info.go — информация о сервисе, список голосов и health endpoints.
package handlers

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/bigkaa/govoicestore/internal/config"
	"github.com/bigkaa/govoicestore/internal/service"
	"github.com/bigkaa/govoicestore/internal/ttsengine"
	"github.com/bigkaa/govoicestore/internal/validate"
)

// engineCheckTimeout — таймаут проверки движка в HealthReady.
const engineCheckTimeout = 5 * time.Second

// statusFail — строковая константа для статуса "fail" в health checks.
const statusFail = "fail"

// InfoHandler обслуживает информационные и health endpoints.
type InfoHandler struct {
	cfg    *config.Config
	voices *service.VoicesService
	engine ttsengine.Engine
	// dataDirs — каталоги, проверяемые на запись в HealthReady
	dataDirs []string
}

// NewInfoHandler создаёт обработчик информационных endpoints.
func NewInfoHandler(cfg *config.Config, voices *service.VoicesService, engine ttsengine.Engine, dataDirs []string) *InfoHandler {
	return &InfoHandler{
		cfg:      cfg,
		voices:   voices,
		engine:   engine,
		dataDirs: dataDirs,
	}
}

// Info обрабатывает GET /.
// Возвращает имя сервиса, версию и сводку ограничений.
func (h *InfoHandler) Info(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "govoicestore",
		"version": config.Version,
		"limits": map[string]any{
			"max_file_size":   h.cfg.MaxFileSize,
			"max_text_length": h.cfg.MaxTextLength,
			"max_file_age":    h.cfg.MaxFileAge.String(),
			"max_batch_files": validate.MaxBatchFiles,
			"max_zip_files":   validate.MaxZipFiles,
		},
		"default_voice": h.cfg.DefaultVoice,
	})
}

// Voices обрабатывает GET /voices.
func (h *InfoHandler) Voices(w http.ResponseWriter, r *http.Request) {
	voices, serr := h.voices.List(r.Context())
	if serr != nil {
		writeServiceError(w, serr)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"voices": voices,
		"count":  len(voices),
	})
}

// HealthLive обрабатывает GET /health/live.
// Возвращает 200, если процесс жив. Не проверяет зависимости.
func (h *InfoHandler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   config.Version,
		"service":   "govoicestore",
	})
}

// HealthReady обрабатывает GET /health/ready.
// Проверяет: файловая система (запись в каталоги данных), движок синтеза.
// Недоступный движок даёт degraded, а не fail: загрузки и скачивание
// работают и без движка.
func (h *InfoHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	overallStatus := "ok"
	httpStatus := http.StatusOK

	fsCheck := h.checkFilesystem()
	if fsCheck["status"] != "ok" {
		overallStatus = statusFail
		httpStatus = http.StatusServiceUnavailable
	}

	engineCheck := h.checkEngine(r.Context())
	if engineCheck["status"] != "ok" && overallStatus != statusFail {
		overallStatus = "degraded"
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   config.Version,
		"service":   "govoicestore",
		"checks": map[string]any{
			"filesystem": fsCheck,
			"engine":     engineCheck,
		},
	})
}

// checkFilesystem проверяет каталоги данных на запись.
func (h *InfoHandler) checkFilesystem() map[string]any {
	for _, dir := range h.dataDirs {
		testFile := filepath.Join(dir, ".health_check")
		if err := os.WriteFile(testFile, []byte("ok"), 0o600); err != nil {
			return map[string]any{
				"status":  statusFail,
				"message": "Каталог недоступен для записи: " + dir,
			}
		}
		_ = os.Remove(testFile)
	}
	return map[string]any{"status": "ok"}
}

// checkEngine проверяет доступность движка синтеза.
func (h *InfoHandler) checkEngine(ctx context.Context) map[string]any {
	ctx, cancel := context.WithTimeout(ctx, engineCheckTimeout)
	defer cancel()

	if err := h.engine.Health(ctx); err != nil {
		return map[string]any{
			"status":  statusFail,
			"message": err.Error(),
		}
	}
	return map[string]any{"status": "ok"}
}
