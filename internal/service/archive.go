// archive.go — упаковка результатов синтеза в zip-архив.
package service

import (
	"archive/zip"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/govoicestore/internal/storage/filestore"
	"github.com/bigkaa/govoicestore/internal/storage/recstore"
	"github.com/bigkaa/govoicestore/internal/validate"
)

// zipsTotal — количество созданных zip-архивов.
var zipsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "tts_zips_total",
	Help: "Общее количество операций создания zip-архивов",
}, []string{"result"})

// ArchiveService — сервис упаковки аудиофайлов в архив.
type ArchiveService struct {
	store  *filestore.Store
	rec    *recstore.Store
	logger *slog.Logger
}

// NewArchiveService создаёт сервис архивации.
func NewArchiveService(store *filestore.Store, rec *recstore.Store, logger *slog.Logger) *ArchiveService {
	return &ArchiveService{
		store:  store,
		rec:    rec,
		logger: logger.With(slog.String("component", "archive_service")),
	}
}

// ZipName возвращает имя архива для заголовка Content-Disposition.
func ZipName() string {
	return "tts_batch_" + filestore.AllocateID() + ".zip"
}

// ResolveOutputs проверяет список идентификаторов и возвращает те,
// чьи результаты доступны для архивации: запись не удалена и файл
// существует на диске. Недоступные пропускаются; пустой итог — ошибка
// NotFound. Вызывается до отправки HTTP-заголовков, чтобы ошибки
// уходили клиенту обычным конвертом, а не хвостом после начала потока.
func (s *ArchiveService) ResolveOutputs(outputIDs []string) ([]string, *Error) {
	if err := validate.IDs(outputIDs, validate.MinZipFiles, validate.MaxZipFiles); err != nil {
		zipsTotal.WithLabelValues("rejected").Inc()
		return nil, errInvalidArgument(err.Error())
	}

	available := make([]string, 0, len(outputIDs))
	for _, outputID := range outputIDs {
		rec := s.rec.GetGeneration(outputID)
		if rec == nil || rec.Deleted {
			s.logger.Warn("Результат пропущен при архивации: запись отсутствует",
				slog.String("output_id", outputID),
			)
			continue
		}
		if !s.store.Exists(filestore.AreaOutputs, filestore.OutputName(outputID)) {
			s.logger.Warn("Результат пропущен при архивации: файл отсутствует",
				slog.String("output_id", outputID),
			)
			continue
		}
		available = append(available, outputID)
	}

	if len(available) == 0 {
		zipsTotal.WithLabelValues("rejected").Inc()
		return nil, errNotFound("ни один из указанных результатов не найден")
	}
	return available, nil
}

// WriteZip пишет zip-архив с результатами, отобранными ResolveOutputs,
// в w. Внутри архива файлы называются {outputId}.mp3.
//
// Архив пишется потоково, без буферизации в памяти: вызывающий код
// передаёт http.ResponseWriter напрямую. Ошибки середины потока
// логируются здесь же — конверт ошибки после начала тела уже не
// отправить.
func (s *ArchiveService) WriteZip(w io.Writer, outputIDs []string) *Error {
	zw := zip.NewWriter(w)
	added := 0

	for _, outputID := range outputIDs {
		f, err := s.store.Open(filestore.AreaOutputs, filestore.OutputName(outputID))
		if err != nil {
			// Файл исчез между ResolveOutputs и записью.
			s.logger.Warn("Результат пропущен при архивации: файл отсутствует",
				slog.String("output_id", outputID),
			)
			continue
		}

		entry, err := zw.Create(filestore.OutputName(outputID))
		if err != nil {
			f.Close()
			return s.zipError(fmt.Sprintf("ошибка создания записи архива: %v", err))
		}
		if _, err := io.Copy(entry, f); err != nil {
			f.Close()
			return s.zipError(fmt.Sprintf("ошибка записи архива: %v", err))
		}
		f.Close()
		added++
	}

	if err := zw.Close(); err != nil {
		return s.zipError(fmt.Sprintf("ошибка завершения архива: %v", err))
	}

	zipsTotal.WithLabelValues("success").Inc()
	s.logger.Info("Архив создан",
		slog.Int("requested", len(outputIDs)),
		slog.Int("added", added),
	)
	return nil
}

func (s *ArchiveService) zipError(message string) *Error {
	zipsTotal.WithLabelValues("error").Inc()
	s.logger.Error("Ошибка записи архива", slog.String("error", message))
	return errInternal(message)
}
