// Пакет recstore — хранилище записей govoicestore.
//
// Каждая запись (загрузка, генерация, батч) сериализуется в собственный
// JSON-файл в каталоге записей и одновременно держится в потокобезопасном
// in-memory индексе. Индекс пересобирается из JSON-файлов при старте —
// персистентность обеспечивают файлы, индекс даёт O(1) доступ по
// первичному идентификатору.
//
// Записи создаются один раз и никогда не изменяются, кроме флага Deleted.
// Физическое удаление записей выполняет только Prune (вызывается Sweeper'ом).
package recstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bigkaa/govoicestore/internal/domain/model"
)

// Суффиксы JSON-файлов по видам записей.
const (
	uploadSuffix = ".upload.json"
	genSuffix    = ".gen.json"
	batchSuffix  = ".batch.json"
)

// ErrNotFound — запись с указанным идентификатором отсутствует.
var ErrNotFound = errors.New("запись не найдена")

// ErrDuplicate — запись с таким идентификатором уже существует.
var ErrDuplicate = errors.New("запись уже существует")

// Store — потокобезопасное хранилище записей.
type Store struct {
	mu      sync.RWMutex
	dir     string
	uploads map[string]*model.UploadRecord
	gens    map[string]*model.GenerationRecord
	batches map[string]*model.BatchRecord
	logger  *slog.Logger
}

// New создаёт Store и загружает существующие записи из каталога.
// Невалидные JSON-файлы пропускаются с предупреждением в лог.
func New(dir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать каталог записей %s: %w", dir, err)
	}

	s := &Store{
		dir:     dir,
		uploads: make(map[string]*model.UploadRecord),
		gens:    make(map[string]*model.GenerationRecord),
		batches: make(map[string]*model.BatchRecord),
		logger:  logger.With(slog.String("component", "recstore")),
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	s.logger.Info("Хранилище записей загружено",
		slog.Int("uploads", len(s.uploads)),
		slog.Int("generations", len(s.gens)),
		slog.Int("batches", len(s.batches)),
	)

	return s, nil
}

// load сканирует каталог записей и строит in-memory индекс.
func (s *Store) load() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("ошибка сканирования каталога записей %s: %w", s.dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		path := filepath.Join(s.dir, name)

		switch {
		case strings.HasSuffix(name, uploadSuffix):
			var rec model.UploadRecord
			if err := readJSON(path, &rec); err != nil {
				s.logger.Warn("Пропущена невалидная запись загрузки", slog.String("path", path), slog.String("error", err.Error()))
				continue
			}
			s.uploads[rec.FileID] = &rec
		case strings.HasSuffix(name, genSuffix):
			var rec model.GenerationRecord
			if err := readJSON(path, &rec); err != nil {
				s.logger.Warn("Пропущена невалидная запись генерации", slog.String("path", path), slog.String("error", err.Error()))
				continue
			}
			s.gens[rec.OutputID] = &rec
		case strings.HasSuffix(name, batchSuffix):
			var rec model.BatchRecord
			if err := readJSON(path, &rec); err != nil {
				s.logger.Warn("Пропущена невалидная запись батча", slog.String("path", path), slog.String("error", err.Error()))
				continue
			}
			s.batches[rec.BatchID] = &rec
		}
	}

	return nil
}

// --- Загрузки ---

// AddUpload сохраняет новую запись загрузки (insert-only).
func (s *Store) AddUpload(rec *model.UploadRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.uploads[rec.FileID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, rec.FileID)
	}

	if err := writeJSON(s.uploadPath(rec.FileID), rec); err != nil {
		return err
	}

	copied := *rec
	s.uploads[rec.FileID] = &copied
	return nil
}

// GetUpload возвращает копию записи загрузки или nil.
func (s *Store) GetUpload(fileID string) *model.UploadRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.uploads[fileID]
	if !ok {
		return nil
	}
	copied := *rec
	return &copied
}

// MarkUploadDeleted выставляет флаг Deleted записи загрузки.
// Идемпотентна: повторная пометка уже удалённой записи не ошибка.
func (s *Store) MarkUploadDeleted(fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.uploads[fileID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, fileID)
	}
	if rec.Deleted {
		return nil
	}

	rec.Deleted = true
	if err := writeJSON(s.uploadPath(fileID), rec); err != nil {
		return err
	}
	return nil
}

// ListUploads возвращает записи загрузок (новые первые).
// При includeDeleted=false мягко удалённые записи исключаются.
func (s *Store) ListUploads(includeDeleted bool) []*model.UploadRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*model.UploadRecord, 0, len(s.uploads))
	for _, rec := range s.uploads {
		if !includeDeleted && rec.Deleted {
			continue
		}
		copied := *rec
		result = append(result, &copied)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].UploadedAt.After(result[j].UploadedAt)
	})
	return result
}

// --- Генерации ---

// AddGeneration сохраняет новую запись генерации (insert-only).
func (s *Store) AddGeneration(rec *model.GenerationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.gens[rec.OutputID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, rec.OutputID)
	}

	if err := writeJSON(s.genPath(rec.OutputID), rec); err != nil {
		return err
	}

	copied := *rec
	s.gens[rec.OutputID] = &copied
	return nil
}

// GetGeneration возвращает копию записи генерации или nil.
func (s *Store) GetGeneration(outputID string) *model.GenerationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.gens[outputID]
	if !ok {
		return nil
	}
	copied := *rec
	return &copied
}

// MarkGenerationDeleted выставляет флаг Deleted записи генерации.
// Идемпотентна, как и MarkUploadDeleted.
func (s *Store) MarkGenerationDeleted(outputID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.gens[outputID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, outputID)
	}
	if rec.Deleted {
		return nil
	}

	rec.Deleted = true
	if err := writeJSON(s.genPath(outputID), rec); err != nil {
		return err
	}
	return nil
}

// ListByBatch возвращает записи генераций, входящие в батч,
// в порядке создания (по GeneratedAt).
func (s *Store) ListByBatch(batchID string) []*model.GenerationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*model.GenerationRecord
	for _, rec := range s.gens {
		if rec.BatchID != batchID {
			continue
		}
		copied := *rec
		result = append(result, &copied)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].GeneratedAt.Before(result[j].GeneratedAt)
	})
	return result
}

// --- Батчи ---

// AddBatch сохраняет новую запись батча (insert-only).
func (s *Store) AddBatch(rec *model.BatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.batches[rec.BatchID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, rec.BatchID)
	}

	if err := writeJSON(s.batchPath(rec.BatchID), rec); err != nil {
		return err
	}

	copied := *rec
	s.batches[rec.BatchID] = &copied
	return nil
}

// GetBatch возвращает копию записи батча или nil.
func (s *Store) GetBatch(batchID string) *model.BatchRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.batches[batchID]
	if !ok {
		return nil
	}
	copied := *rec
	return &copied
}

// CompleteBatch помечает батч завершённым. Единственная мутация батча.
func (s *Store) CompleteBatch(batchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.batches[batchID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, batchID)
	}

	rec.Completed = true
	if err := writeJSON(s.batchPath(batchID), rec); err != nil {
		return err
	}
	return nil
}

// --- Очистка ---

// Prune физически удаляет записи старше порога.
// Удаляются только записи, файлы которых уже не нужны: загрузки и
// генерации — независимо от флага (файлы к этому возрасту вытеснены
// Sweeper'ом), батчи — по возрасту. Возвращает количество удалённых записей.
func (s *Store) Prune(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	pruned := 0

	for id, rec := range s.uploads {
		if !rec.OlderThan(cutoff) {
			continue
		}
		if err := os.Remove(s.uploadPath(id)); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("Ошибка удаления записи загрузки", slog.String("file_id", id), slog.String("error", err.Error()))
			continue
		}
		delete(s.uploads, id)
		pruned++
	}

	for id, rec := range s.gens {
		if !rec.OlderThan(cutoff) {
			continue
		}
		if err := os.Remove(s.genPath(id)); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("Ошибка удаления записи генерации", slog.String("output_id", id), slog.String("error", err.Error()))
			continue
		}
		delete(s.gens, id)
		pruned++
	}

	for id, rec := range s.batches {
		if !rec.OlderThan(cutoff) {
			continue
		}
		if err := os.Remove(s.batchPath(id)); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("Ошибка удаления записи батча", slog.String("batch_id", id), slog.String("error", err.Error()))
			continue
		}
		delete(s.batches, id)
		pruned++
	}

	return pruned
}

// --- Вспомогательные функции ---

func (s *Store) uploadPath(id string) string {
	return filepath.Join(s.dir, id+uploadSuffix)
}

func (s *Store) genPath(id string) string {
	return filepath.Join(s.dir, id+genSuffix)
}

func (s *Store) batchPath(id string) string {
	return filepath.Join(s.dir, id+batchSuffix)
}

// writeJSON атомарно записывает запись на диск: temp → fsync → rename.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("ошибка сериализации записи: %w", err)
	}

	tmpPath := path + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("ошибка создания временного файла: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка записи: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка fsync: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка атомарного переименования: %w", err)
	}

	return nil
}

// readJSON читает и десериализует запись с диска.
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("ошибка чтения %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("ошибка десериализации %s: %w", path, err)
	}
	return nil
}
