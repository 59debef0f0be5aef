package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/bigkaa/govoicestore/internal/config"
	"github.com/bigkaa/govoicestore/internal/storage/filestore"
	"github.com/bigkaa/govoicestore/internal/storage/recstore"
	"github.com/bigkaa/govoicestore/internal/ttsengine"
)

// fakeEngine — заглушка движка синтеза для тестов.
type fakeEngine struct {
	audio     []byte
	err       error
	failAfter int // после скольких успешных вызовов начинать отказывать (0 = никогда)
	calls     int
	voices    []ttsengine.VoiceInfo
	voicesErr error
}

func (f *fakeEngine) Synthesize(_ context.Context, _ ttsengine.SpeechRequest) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.failAfter > 0 && f.calls > f.failAfter {
		return nil, errors.New("engine down")
	}
	return f.audio, nil
}

func (f *fakeEngine) Voices(_ context.Context) ([]ttsengine.VoiceInfo, error) {
	if f.voicesErr != nil {
		return nil, f.voicesErr
	}
	return f.voices, nil
}

func (f *fakeEngine) Health(_ context.Context) error { return nil }

type testEnv struct {
	cfg    *config.Config
	store  *filestore.Store
	rec    *recstore.Store
	recDir string
	logger *slog.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	base := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := filestore.New(
		filepath.Join(base, "uploads"),
		filepath.Join(base, "outputs"),
		filepath.Join(base, "temp"),
	)
	if err != nil {
		t.Fatalf("filestore.New() вернул ошибку: %v", err)
	}

	recDir := filepath.Join(base, "records")
	rec, err := recstore.New(recDir, logger)
	if err != nil {
		t.Fatalf("recstore.New() вернул ошибку: %v", err)
	}

	cfg := &config.Config{
		MaxFileSize:    10 << 20,
		MaxTextLength:  10000,
		MaxFileAge:     7 * 24 * time.Hour,
		SweepInterval:  time.Hour,
		DefaultVoice:   "en-US-AndrewNeural",
		VoicesCacheTTL: time.Hour,
	}

	return &testEnv{cfg: cfg, store: store, rec: rec, recDir: recDir, logger: logger}
}

// uploadFile — вспомогательная загрузка файла в тестах.
func (env *testEnv) uploadFile(t *testing.T, name, content string) string {
	t.Helper()
	svc := NewUploadService(env.cfg, env.store, env.rec, env.logger)
	res, serr := svc.Upload(UploadParams{
		Data:        []byte(content),
		Filename:    name,
		ContentType: "text/plain",
	})
	if serr != nil {
		t.Fatalf("Upload(%s) вернул ошибку: %v", name, serr)
	}
	return res.FileID
}
