// synth.go — сервис синтеза речи: одиночные запросы и батчи.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/govoicestore/internal/config"
	"github.com/bigkaa/govoicestore/internal/domain/model"
	"github.com/bigkaa/govoicestore/internal/storage/filestore"
	"github.com/bigkaa/govoicestore/internal/storage/recstore"
	"github.com/bigkaa/govoicestore/internal/ttsengine"
	"github.com/bigkaa/govoicestore/internal/validate"
)

// Prometheus метрики синтеза
var (
	// synthTotal — количество запросов синтеза по результату.
	synthTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tts_synth_total",
		Help: "Общее количество запросов синтеза",
	}, []string{"kind", "result"})

	// synthDuration — длительность обращения к движку синтеза.
	synthDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tts_synth_duration_seconds",
		Help:    "Длительность синтеза одного текста в секундах",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	})

	// batchesTotal — количество батчей по результату.
	batchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tts_batches_total",
		Help: "Общее количество батчей синтеза",
	}, []string{"result"})
)

// SynthParams — параметры синтеза. Пустые поля заполняются значениями
// по умолчанию перед валидацией.
type SynthParams struct {
	// Text — текст для синтеза. Взаимоисключим с FileID.
	Text string
	// FileID — идентификатор ранее загруженного файла.
	FileID string
	// Filename — необязательное имя для скачивания при синтезе по тексту.
	Filename string
	// Voice, Rate, Volume, Pitch — параметры голоса и просодии.
	Voice  string
	Rate   string
	Volume string
	Pitch  string
}

// SynthResult — результат одиночного синтеза.
type SynthResult struct {
	OutputID string
	Size     int64
}

// BatchResult — результат синтеза батча.
type BatchResult struct {
	BatchID string
	Items   []BatchItem
}

// BatchItem — один завершённый элемент батча.
type BatchItem struct {
	FileID   string
	OutputID string
	Filename string
}

// SynthService — сервис синтеза речи.
type SynthService struct {
	cfg    *config.Config
	store  *filestore.Store
	rec    *recstore.Store
	engine ttsengine.Engine
	logger *slog.Logger
}

// NewSynthService создаёт сервис синтеза.
func NewSynthService(cfg *config.Config, store *filestore.Store, rec *recstore.Store, engine ttsengine.Engine, logger *slog.Logger) *SynthService {
	return &SynthService{
		cfg:    cfg,
		store:  store,
		rec:    rec,
		engine: engine,
		logger: logger.With(slog.String("component", "synth_service")),
	}
}

// applyDefaults заполняет незаданные параметры значениями по умолчанию.
func (s *SynthService) applyDefaults(p *SynthParams) {
	if p.Voice == "" {
		p.Voice = s.cfg.DefaultVoice
	}
	if p.Rate == "" {
		p.Rate = "+0%"
	}
	if p.Volume == "" {
		p.Volume = "+0%"
	}
	if p.Pitch == "" {
		p.Pitch = "+0Hz"
	}
}

// validateParams проверяет голос и просодию.
func validateParams(p SynthParams) *Error {
	if err := validate.Voice(p.Voice); err != nil {
		return errInvalidArgument(err.Error())
	}
	if err := validate.Prosody(p.Rate, p.Volume, p.Pitch); err != nil {
		return errInvalidArgument(err.Error())
	}
	return nil
}

// Synthesize выполняет одиночный синтез: либо по тексту из запроса,
// либо по содержимому ранее загруженного файла (FileID).
//
// Запись генерации создаётся только после успешного синтеза и
// сохранения аудио — неудачный запрос не оставляет следов.
func (s *SynthService) Synthesize(ctx context.Context, params SynthParams) (*SynthResult, *Error) {
	s.applyDefaults(&params)
	if serr := validateParams(params); serr != nil {
		synthTotal.WithLabelValues("single", "rejected").Inc()
		return nil, serr
	}

	var (
		text         string
		sourceFileID string
		originalName string
	)

	switch {
	case params.FileID != "":
		if err := validate.ID(params.FileID); err != nil {
			synthTotal.WithLabelValues("single", "rejected").Inc()
			return nil, errInvalidArgument(err.Error())
		}
		rec := s.rec.GetUpload(params.FileID)
		if rec == nil || rec.Deleted {
			synthTotal.WithLabelValues("single", "rejected").Inc()
			return nil, errNotFound(fmt.Sprintf("файл %s не найден", params.FileID))
		}
		data, name, err := s.store.ReadNormalized(params.FileID)
		if err != nil {
			synthTotal.WithLabelValues("single", "rejected").Inc()
			if errors.Is(err, filestore.ErrNotFound) {
				return nil, errNotFound(fmt.Sprintf("файл %s не найден", params.FileID))
			}
			return nil, errInternal(fmt.Sprintf("ошибка чтения файла: %v", err))
		}
		text = string(data)
		sourceFileID = params.FileID
		originalName = name
	default:
		text = params.Text
		if params.Filename != "" {
			originalName = filestore.Sanitize(params.Filename)
		}
	}

	cleaned, err := validate.Text(text, s.cfg.MaxTextLength)
	if err != nil {
		synthTotal.WithLabelValues("single", "rejected").Inc()
		return nil, errInvalidArgument(err.Error())
	}

	outputID, size, serr := s.synthesizeOne(ctx, cleaned, params, sourceFileID, originalName, false, "")
	if serr != nil {
		synthTotal.WithLabelValues("single", "error").Inc()
		return nil, serr
	}

	synthTotal.WithLabelValues("single", "success").Inc()
	return &SynthResult{OutputID: outputID, Size: size}, nil
}

// SynthesizeBatch последовательно синтезирует список загруженных файлов.
//
// Запись батча создаётся до начала обработки. Файлы обрабатываются в
// порядке списка; первая ошибка прерывает батч, уже синтезированные
// результаты сохраняются и доступны через ListByBatch.
func (s *SynthService) SynthesizeBatch(ctx context.Context, fileIDs []string, params SynthParams) (*BatchResult, *Error) {
	s.applyDefaults(&params)
	if serr := validateParams(params); serr != nil {
		batchesTotal.WithLabelValues("rejected").Inc()
		return nil, serr
	}
	if err := validate.IDs(fileIDs, validate.MinBatchFiles, validate.MaxBatchFiles); err != nil {
		batchesTotal.WithLabelValues("rejected").Inc()
		return nil, errInvalidArgument(err.Error())
	}

	batchID := filestore.AllocateID()
	batch := &model.BatchRecord{
		BatchID:   batchID,
		FileCount: len(fileIDs),
		Voice:     params.Voice,
		Rate:      params.Rate,
		Volume:    params.Volume,
		Pitch:     params.Pitch,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.rec.AddBatch(batch); err != nil {
		batchesTotal.WithLabelValues("error").Inc()
		return nil, errInternal(fmt.Sprintf("ошибка создания батча: %v", err))
	}

	result := &BatchResult{BatchID: batchID}

	for _, fileID := range fileIDs {
		rec := s.rec.GetUpload(fileID)
		if rec == nil || rec.Deleted {
			batchesTotal.WithLabelValues("error").Inc()
			return nil, errNotFound(fmt.Sprintf("файл %s не найден, батч прерван", fileID))
		}

		data, name, err := s.store.ReadNormalized(fileID)
		if err != nil {
			batchesTotal.WithLabelValues("error").Inc()
			if errors.Is(err, filestore.ErrNotFound) {
				return nil, errNotFound(fmt.Sprintf("файл %s не найден, батч прерван", fileID))
			}
			return nil, errInternal(fmt.Sprintf("ошибка чтения файла %s: %v", fileID, err))
		}

		cleaned, err := validate.Text(string(data), s.cfg.MaxTextLength)
		if err != nil {
			batchesTotal.WithLabelValues("error").Inc()
			return nil, errInvalidArgument(fmt.Sprintf("файл %s: %v", fileID, err))
		}

		outputID, _, serr := s.synthesizeOne(ctx, cleaned, params, fileID, name, true, batchID)
		if serr != nil {
			batchesTotal.WithLabelValues("error").Inc()
			return nil, serr
		}

		result.Items = append(result.Items, BatchItem{
			FileID:   fileID,
			OutputID: outputID,
			Filename: name,
		})
	}

	if err := s.rec.CompleteBatch(batchID); err != nil {
		s.logger.Error("Ошибка завершения батча",
			slog.String("batch_id", batchID),
			slog.String("error", err.Error()),
		)
	}

	batchesTotal.WithLabelValues("success").Inc()
	s.logger.Info("Батч завершён",
		slog.String("batch_id", batchID),
		slog.Int("files", len(fileIDs)),
	)

	return result, nil
}

// synthesizeOne выполняет один запрос к движку и сохраняет результат.
// Запись генерации создаётся только после успешного сохранения аудио.
func (s *SynthService) synthesizeOne(ctx context.Context, text string, params SynthParams, fileID, originalName string, isBatch bool, batchID string) (string, int64, *Error) {
	start := time.Now()

	audio, err := s.engine.Synthesize(ctx, ttsengine.SpeechRequest{
		Text:   text,
		Voice:  params.Voice,
		Rate:   params.Rate,
		Volume: params.Volume,
		Pitch:  params.Pitch,
	})
	if err != nil {
		s.logger.Error("Ошибка движка синтеза",
			slog.String("file_id", fileID),
			slog.String("voice", params.Voice),
			slog.String("error", err.Error()),
		)
		return "", 0, errEngine(fmt.Sprintf("синтез не выполнен: %v", err))
	}
	synthDuration.Observe(time.Since(start).Seconds())

	outputID := filestore.AllocateID()
	if _, err := s.store.Save(filestore.AreaOutputs, filestore.OutputName(outputID), audio); err != nil {
		return "", 0, errInternal(fmt.Sprintf("ошибка сохранения аудио: %v", err))
	}

	record := &model.GenerationRecord{
		OutputID:     outputID,
		FileID:       fileID,
		Voice:        params.Voice,
		Rate:         params.Rate,
		Volume:       params.Volume,
		Pitch:        params.Pitch,
		TextLength:   len([]rune(text)),
		OriginalName: originalName,
		IsBatch:      isBatch,
		BatchID:      batchID,
		GeneratedAt:  time.Now().UTC(),
	}
	if err := s.rec.AddGeneration(record); err != nil {
		s.logger.Error("Ошибка записи метаданных генерации",
			slog.String("output_id", outputID),
			slog.String("error", err.Error()),
		)
		// Без записи результат недоступен для скачивания: убираем
		// осиротевший аудиофайл и возвращаем ошибку.
		if derr := s.store.Delete(filestore.AreaOutputs, filestore.OutputName(outputID)); derr != nil {
			s.logger.Error("Ошибка удаления осиротевшего аудиофайла",
				slog.String("output_id", outputID),
				slog.String("error", derr.Error()),
			)
		}
		return "", 0, errInternal(fmt.Sprintf("ошибка записи метаданных генерации: %v", err))
	}

	s.logger.Info("Синтез выполнен",
		slog.String("output_id", outputID),
		slog.String("voice", params.Voice),
		slog.Int("text_length", len([]rune(text))),
		slog.Int("audio_bytes", len(audio)),
		slog.Duration("duration", time.Since(start)),
	)

	return outputID, int64(len(audio)), nil
}

// Output возвращает запись генерации для скачивания.
func (s *SynthService) Output(outputID string) (*model.GenerationRecord, *Error) {
	if err := validate.ID(outputID); err != nil {
		return nil, errInvalidArgument(err.Error())
	}

	rec := s.rec.GetGeneration(outputID)
	if rec == nil || rec.Deleted {
		return nil, errNotFound(fmt.Sprintf("результат %s не найден", outputID))
	}
	if !s.store.Exists(filestore.AreaOutputs, filestore.OutputName(outputID)) {
		return nil, errNotFound(fmt.Sprintf("результат %s не найден", outputID))
	}

	return rec, nil
}

// DeleteOutput удаляет результат синтеза: файл с диска, затем пометка записи.
func (s *SynthService) DeleteOutput(outputID string) *Error {
	if err := validate.ID(outputID); err != nil {
		return errInvalidArgument(err.Error())
	}

	rec := s.rec.GetGeneration(outputID)
	if rec == nil || rec.Deleted {
		return errNotFound(fmt.Sprintf("результат %s не найден", outputID))
	}

	if err := s.store.Delete(filestore.AreaOutputs, filestore.OutputName(outputID)); err != nil {
		return errInternal(fmt.Sprintf("ошибка удаления файла: %v", err))
	}

	if err := s.rec.MarkGenerationDeleted(outputID); err != nil {
		s.logger.Error("Ошибка пометки записи генерации",
			slog.String("output_id", outputID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("Результат синтеза удалён", slog.String("output_id", outputID))
	return nil
}
