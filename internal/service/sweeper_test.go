package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bigkaa/govoicestore/internal/storage/filestore"
)

// ageFile сдвигает mtime файла в прошлое.
func ageFile(t *testing.T, path string, age time.Duration) {
	t.Helper()
	old := time.Now().Add(-age)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("ошибка изменения mtime %s: %v", path, err)
	}
}

func TestSweeper_RunOnce(t *testing.T) {
	env := newTestEnv(t)
	engine := &fakeEngine{audio: []byte("MP3DATA")}
	synth := NewSynthService(env.cfg, env.store, env.rec, engine, env.logger)

	oldFileID := env.uploadFile(t, "old.txt", "old upload content")
	freshFileID := env.uploadFile(t, "fresh.txt", "fresh upload content")

	res, serr := synth.Synthesize(context.Background(), SynthParams{Text: "old audio"})
	if serr != nil {
		t.Fatalf("Synthesize() вернул ошибку: %v", serr)
	}
	oldOutputID := res.OutputID

	// Состариваем файлы старой загрузки и старого результата.
	uploads, _ := filepath.Glob(filepath.Join(env.store.Dir(filestore.AreaUploads), oldFileID+"*"))
	for _, p := range uploads {
		ageFile(t, p, 8*24*time.Hour)
	}
	ageFile(t, env.store.OutputPath(oldOutputID), 8*24*time.Hour)

	sw := NewSweeper(env.store, env.rec, 7*24*time.Hour, time.Hour, env.logger)
	result := sw.RunOnce()

	if result.FilesRemoved != 3 {
		t.Errorf("удалено %d файлов, ожидалось 3", result.FilesRemoved)
	}
	if result.Errors != 0 {
		t.Errorf("очистка завершилась с %d ошибками", result.Errors)
	}

	// Старые файлы удалены, записи помечены.
	if env.store.Exists(filestore.AreaUploads, filestore.UploadName(oldFileID, "old.txt")) {
		t.Error("устаревшая загрузка не удалена")
	}
	if env.store.Exists(filestore.AreaOutputs, filestore.OutputName(oldOutputID)) {
		t.Error("устаревший результат не удалён")
	}
	if !env.rec.GetUpload(oldFileID).Deleted {
		t.Error("запись устаревшей загрузки не помечена")
	}
	if !env.rec.GetGeneration(oldOutputID).Deleted {
		t.Error("запись устаревшей генерации не помечена")
	}

	// Свежие файлы не тронуты.
	if env.rec.GetUpload(freshFileID).Deleted {
		t.Error("свежая загрузка помечена по ошибке")
	}
	if !env.store.Exists(filestore.AreaUploads, filestore.UploadName(freshFileID, "fresh.txt")) {
		t.Error("свежая загрузка удалена по ошибке")
	}
}

func TestSweeper_PrunesAgedRecords(t *testing.T) {
	env := newTestEnv(t)

	fileID := env.uploadFile(t, "ancient.txt", "ancient content")

	// Файлы и запись старше двух полных выдержек: запись должна быть
	// удалена физически.
	uploads, _ := filepath.Glob(filepath.Join(env.store.Dir(filestore.AreaUploads), fileID+"*"))
	for _, p := range uploads {
		ageFile(t, p, 30*24*time.Hour)
	}
	rec := env.rec.GetUpload(fileID)
	rec.UploadedAt = time.Now().Add(-30 * 24 * time.Hour)
	// Перезаписываем запись с состаренной датой через прямое удаление
	// и повторное добавление.
	env.rec.Prune(time.Now())
	if err := env.rec.AddUpload(rec); err != nil {
		t.Fatalf("AddUpload() вернул ошибку: %v", err)
	}

	sw := NewSweeper(env.store, env.rec, 7*24*time.Hour, time.Hour, env.logger)
	result := sw.RunOnce()

	if result.RecordsPruned == 0 {
		t.Error("устаревшие записи не удалены")
	}
	if env.rec.GetUpload(fileID) != nil {
		t.Error("запись старше двух выдержек осталась в хранилище")
	}
}

func TestSweeper_StartStop(t *testing.T) {
	env := newTestEnv(t)

	sw := NewSweeper(env.store, env.rec, 7*24*time.Hour, time.Hour, env.logger)
	sw.Start(context.Background())

	// Stop обязан дождаться завершения фоновой горутины.
	done := make(chan struct{})
	go func() {
		sw.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop() не завершился за отведённое время")
	}
}
