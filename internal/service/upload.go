// upload.go — сервис загрузки текстовых файлов.
//
// Поток:
//  1. Проверка размера и типа файла
//  2. Очистка имени файла
//  3. Определение кодировки и нормализация в UTF-8
//  4. Сохранение исходного файла и UTF-8 копии (атомарно, с откатом)
//  5. Запись в хранилище записей
//
// Любая ошибка после сохранения части файлов откатывает уже записанное:
// на диске либо обе копии и запись, либо ничего.
package service

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/govoicestore/internal/charset"
	"github.com/bigkaa/govoicestore/internal/config"
	"github.com/bigkaa/govoicestore/internal/domain/model"
	"github.com/bigkaa/govoicestore/internal/storage/filestore"
	"github.com/bigkaa/govoicestore/internal/storage/recstore"
	"github.com/bigkaa/govoicestore/internal/validate"
)

// Prometheus метрики загрузки
var (
	// uploadsTotal — количество загрузок по результату.
	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tts_uploads_total",
		Help: "Общее количество загрузок файлов",
	}, []string{"result"})

	// uploadBytesTotal — суммарный объём загруженных файлов.
	uploadBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tts_upload_bytes_total",
		Help: "Суммарный объём загруженных файлов в байтах",
	})
)

// UploadParams — параметры загрузки файла.
type UploadParams struct {
	// Data — содержимое файла
	Data []byte
	// Filename — имя файла, как его прислал клиент
	Filename string
	// ContentType — MIME-тип из multipart части
	ContentType string
}

// UploadResult — результат успешной загрузки.
type UploadResult struct {
	FileID     string
	Filename   string
	Encoding   string
	Confidence float64
	Size       int64
}

// UploadService — сервис загрузки файлов.
type UploadService struct {
	cfg    *config.Config
	store  *filestore.Store
	rec    *recstore.Store
	logger *slog.Logger
}

// NewUploadService создаёт сервис загрузки.
func NewUploadService(cfg *config.Config, store *filestore.Store, rec *recstore.Store, logger *slog.Logger) *UploadService {
	return &UploadService{
		cfg:    cfg,
		store:  store,
		rec:    rec,
		logger: logger.With(slog.String("component", "upload_service")),
	}
}

// Upload принимает текстовый файл, нормализует кодировку и сохраняет
// обе копии. Возвращает идентификатор, по которому файл доступен
// операциям синтеза.
func (s *UploadService) Upload(params UploadParams) (*UploadResult, *Error) {
	if err := validate.UploadSize(int64(len(params.Data)), s.cfg.MaxFileSize); err != nil {
		uploadsTotal.WithLabelValues("rejected").Inc()
		return nil, errPayloadTooLarge(err.Error())
	}

	if err := validate.UploadType(params.Filename, params.ContentType); err != nil {
		uploadsTotal.WithLabelValues("rejected").Inc()
		return nil, errUnsupportedMedia(err.Error())
	}

	safeName := filestore.Sanitize(params.Filename)

	normalized, detect, err := charset.Normalize(params.Data)
	if err != nil {
		uploadsTotal.WithLabelValues("rejected").Inc()
		s.logger.Warn("Файл отклонён при нормализации кодировки",
			slog.String("filename", safeName),
			slog.String("error", err.Error()),
		)
		return nil, errValidation(fmt.Sprintf("файл %s не удалось привести к UTF-8: %v", safeName, err))
	}

	fileID := filestore.AllocateID()

	// Откат: удаляем всё, что успели записать, в обратном порядке.
	var saved []string
	rollback := func() {
		for i := len(saved) - 1; i >= 0; i-- {
			if err := s.store.Delete(filestore.AreaUploads, saved[i]); err != nil {
				s.logger.Error("Ошибка отката загрузки",
					slog.String("file_id", fileID),
					slog.String("name", saved[i]),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	rawName := filestore.UploadName(fileID, safeName)
	if _, err := s.store.Save(filestore.AreaUploads, rawName, params.Data); err != nil {
		uploadsTotal.WithLabelValues("error").Inc()
		return nil, errInternal(fmt.Sprintf("ошибка сохранения файла: %v", err))
	}
	saved = append(saved, rawName)

	utf8Name := filestore.NormalizedName(fileID, safeName)
	if _, err := s.store.Save(filestore.AreaUploads, utf8Name, normalized); err != nil {
		rollback()
		uploadsTotal.WithLabelValues("error").Inc()
		return nil, errInternal(fmt.Sprintf("ошибка сохранения UTF-8 копии: %v", err))
	}
	saved = append(saved, utf8Name)

	record := &model.UploadRecord{
		FileID:             fileID,
		OriginalName:       safeName,
		StoredName:         rawName,
		NormalizedName:     utf8Name,
		Size:               int64(len(params.Data)),
		Encoding:           detect.Encoding,
		EncodingConfidence: detect.Confidence,
		UploadedAt:         time.Now().UTC(),
	}
	if err := s.rec.AddUpload(record); err != nil {
		// Коллизия UUID на практике невозможна, но запись обязана быть
		// согласована с файлами.
		if !errors.Is(err, recstore.ErrDuplicate) {
			rollback()
			uploadsTotal.WithLabelValues("error").Inc()
			return nil, errInternal(fmt.Sprintf("ошибка записи метаданных: %v", err))
		}
	}

	uploadsTotal.WithLabelValues("success").Inc()
	uploadBytesTotal.Add(float64(len(params.Data)))

	s.logger.Info("Файл загружен",
		slog.String("file_id", fileID),
		slog.String("filename", safeName),
		slog.String("encoding", detect.Encoding),
		slog.Int("size", len(params.Data)),
	)

	return &UploadResult{
		FileID:     fileID,
		Filename:   safeName,
		Encoding:   detect.Encoding,
		Confidence: detect.Confidence,
		Size:       int64(len(params.Data)),
	}, nil
}

// FileContent — содержимое загруженного файла для просмотра.
type FileContent struct {
	Content  string
	Filename string
	Size     int64
	Encoding string
}

// Content возвращает UTF-8 содержимое загрузки по идентификатору.
func (s *UploadService) Content(fileID string) (*FileContent, *Error) {
	if err := validate.ID(fileID); err != nil {
		return nil, errInvalidArgument(err.Error())
	}

	rec := s.rec.GetUpload(fileID)
	if rec == nil || rec.Deleted {
		return nil, errNotFound(fmt.Sprintf("файл %s не найден", fileID))
	}

	data, name, err := s.store.ReadNormalized(fileID)
	if err != nil {
		if errors.Is(err, filestore.ErrNotFound) {
			return nil, errNotFound(fmt.Sprintf("файл %s не найден", fileID))
		}
		return nil, errInternal(fmt.Sprintf("ошибка чтения файла: %v", err))
	}

	return &FileContent{
		Content:  string(data),
		Filename: name,
		Size:     rec.Size,
		Encoding: rec.Encoding,
	}, nil
}

// List возвращает записи активных загрузок (новые первые).
func (s *UploadService) List() []*model.UploadRecord {
	return s.rec.ListUploads(false)
}

// Delete удаляет загрузку: сначала файлы с диска, затем помечает запись.
// Если файлы удалить не удалось, запись остаётся нетронутой — повторный
// запрос сможет довершить удаление.
func (s *UploadService) Delete(fileID string) *Error {
	if err := validate.ID(fileID); err != nil {
		return errInvalidArgument(err.Error())
	}

	rec := s.rec.GetUpload(fileID)
	if rec == nil || rec.Deleted {
		return errNotFound(fmt.Sprintf("файл %s не найден", fileID))
	}

	removed, err := s.store.DeleteByPrefix(filestore.AreaUploads, fileID)
	if err != nil {
		return errInternal(fmt.Sprintf("ошибка удаления файлов: %v", err))
	}

	if err := s.rec.MarkUploadDeleted(fileID); err != nil {
		// Файлы уже удалены; потерянный флаг исправит Sweeper.
		s.logger.Error("Ошибка пометки записи загрузки",
			slog.String("file_id", fileID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("Загрузка удалена",
		slog.String("file_id", fileID),
		slog.Int("files_removed", removed),
	)
	return nil
}
