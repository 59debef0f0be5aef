// sweeper.go — фоновая очистка устаревших файлов.
//
// Sweeper выполняет три задачи:
//  1. Удаляет с диска файлы старше MaxFileAge (загрузки, результаты, temp)
//  2. Помечает записи вытесненных файлов как deleted
//  3. Физически удаляет записи, пережившие вторую полную выдержку
//
// Запускается как горутина с периодическим тикером (TTS_SWEEP_INTERVAL).
package service

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/govoicestore/internal/storage/filestore"
	"github.com/bigkaa/govoicestore/internal/storage/recstore"
)

// Prometheus метрики Sweeper
var (
	// sweepRunsTotal — количество запусков очистки.
	sweepRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tts_sweep_runs_total",
		Help: "Общее количество запусков фоновой очистки",
	})

	// sweepFilesRemovedTotal — количество удалённых файлов.
	sweepFilesRemovedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tts_sweep_files_removed_total",
		Help: "Общее количество файлов, удалённых очисткой",
	})

	// sweepRecordsPrunedTotal — количество физически удалённых записей.
	sweepRecordsPrunedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tts_sweep_records_pruned_total",
		Help: "Общее количество записей, удалённых очисткой",
	})

	// sweepDurationSeconds — длительность выполнения очистки.
	sweepDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tts_sweep_duration_seconds",
		Help:    "Длительность выполнения фоновой очистки в секундах",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
	})
)

// SweepResult — результат одного запуска очистки.
type SweepResult struct {
	// FilesRemoved — количество удалённых с диска файлов
	FilesRemoved int
	// RecordsPruned — количество физически удалённых записей
	RecordsPruned int
	// Errors — количество ошибок при обработке
	Errors int
	// Duration — длительность выполнения
	Duration time.Duration
}

// Sweeper — сервис фоновой очистки.
type Sweeper struct {
	store    *filestore.Store
	rec      *recstore.Store
	maxAge   time.Duration
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex // защита от параллельного запуска RunOnce
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSweeper создаёт сервис очистки.
func NewSweeper(store *filestore.Store, rec *recstore.Store, maxAge, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		store:    store,
		rec:      rec,
		maxAge:   maxAge,
		interval: interval,
		logger:   logger.With(slog.String("component", "sweeper")),
	}
}

// Start запускает фоновую горутину очистки с периодическим тикером.
// Вызывается один раз при старте приложения.
func (sw *Sweeper) Start(ctx context.Context) {
	swCtx, cancel := context.WithCancel(ctx)
	sw.cancel = cancel
	sw.done = make(chan struct{})

	go sw.run(swCtx)

	sw.logger.Info("Очистка запущена",
		slog.String("interval", sw.interval.String()),
		slog.String("max_age", sw.maxAge.String()),
	)
}

// Stop останавливает фоновый процесс и дожидается завершения горутины.
func (sw *Sweeper) Stop() {
	if sw.cancel != nil {
		sw.cancel()
		<-sw.done
	}
	sw.logger.Info("Очистка остановлена")
}

// run — основной цикл фоновой горутины.
func (sw *Sweeper) run(ctx context.Context) {
	defer close(sw.done)

	// Первый запуск — сразу после старта
	sw.RunOnce()

	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sw.RunOnce()
		}
	}
}

// RunOnce выполняет один цикл очистки.
// Потокобезопасен: mutex защищает от параллельного запуска.
func (sw *Sweeper) RunOnce() *SweepResult {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	start := time.Now()
	result := &SweepResult{}

	sw.logger.Debug("Очистка начата")

	cutoff := time.Now().Add(-sw.maxAge)

	for _, area := range []filestore.Area{filestore.AreaUploads, filestore.AreaOutputs, filestore.AreaTemp} {
		removed, errs := sw.sweepArea(area, cutoff)
		result.FilesRemoved += removed
		result.Errors += errs
	}

	// Записи живут дольше файлов на одну полную выдержку: после
	// вытеснения файла запись ещё видна в списках как deleted.
	result.RecordsPruned = sw.rec.Prune(cutoff.Add(-sw.maxAge))

	result.Duration = time.Since(start)

	sweepRunsTotal.Inc()
	sweepFilesRemovedTotal.Add(float64(result.FilesRemoved))
	sweepRecordsPrunedTotal.Add(float64(result.RecordsPruned))
	sweepDurationSeconds.Observe(result.Duration.Seconds())

	sw.logger.Info("Очистка завершена",
		slog.Int("files_removed", result.FilesRemoved),
		slog.Int("records_pruned", result.RecordsPruned),
		slog.Int("errors", result.Errors),
		slog.Duration("duration", result.Duration),
	)

	return result
}

// sweepArea удаляет из области файлы с mtime старше порога и помечает
// соответствующие записи. Ошибка одного файла не прерывает обход.
func (sw *Sweeper) sweepArea(area filestore.Area, cutoff time.Time) (removed, errs int) {
	entries, err := os.ReadDir(sw.store.Dir(area))
	if err != nil {
		sw.logger.Error("Ошибка сканирования области",
			slog.String("area", string(area)),
			slog.String("error", err.Error()),
		)
		return 0, 1
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			errs++
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		if err := sw.store.Delete(area, entry.Name()); err != nil {
			sw.logger.Error("Ошибка удаления устаревшего файла",
				slog.String("area", string(area)),
				slog.String("name", entry.Name()),
				slog.String("error", err.Error()),
			)
			errs++
			continue
		}

		sw.markRecord(area, entry.Name())
		removed++

		sw.logger.Debug("Устаревший файл удалён",
			slog.String("area", string(area)),
			slog.String("name", entry.Name()),
		)
	}

	return removed, errs
}

// markRecord помечает запись, соответствующую вытесненному файлу.
// Имя файла несёт идентификатор: {id}_{name} для загрузок, {id}.mp3
// для результатов. Отсутствие записи не ошибка — у temp файлов и
// повторно обрабатываемых имён записей нет.
func (sw *Sweeper) markRecord(area filestore.Area, filename string) {
	switch area {
	case filestore.AreaUploads:
		id, _, ok := strings.Cut(filename, "_")
		if !ok {
			return
		}
		if rec := sw.rec.GetUpload(id); rec != nil && !rec.Deleted {
			if err := sw.rec.MarkUploadDeleted(id); err != nil {
				sw.logger.Warn("Ошибка пометки записи загрузки",
					slog.String("file_id", id),
					slog.String("error", err.Error()),
				)
			}
		}
	case filestore.AreaOutputs:
		id := strings.TrimSuffix(filename, filepath.Ext(filename))
		if rec := sw.rec.GetGeneration(id); rec != nil && !rec.Deleted {
			if err := sw.rec.MarkGenerationDeleted(id); err != nil {
				sw.logger.Warn("Ошибка пометки записи генерации",
					slog.String("output_id", id),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}
