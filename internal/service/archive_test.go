package service

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"
)

func TestArchiveService_WriteZip(t *testing.T) {
	env := newTestEnv(t)
	engine := &fakeEngine{audio: []byte("MP3DATA")}
	synth := NewSynthService(env.cfg, env.store, env.rec, engine, env.logger)
	svc := NewArchiveService(env.store, env.rec, env.logger)

	var ids []string
	for i := 0; i < 3; i++ {
		res, serr := synth.Synthesize(context.Background(), SynthParams{Text: "hello"})
		if serr != nil {
			t.Fatalf("Synthesize() вернул ошибку: %v", serr)
		}
		ids = append(ids, res.OutputID)
	}

	available, serr := svc.ResolveOutputs(ids)
	if serr != nil {
		t.Fatalf("ResolveOutputs() вернул ошибку: %v", serr)
	}

	var buf bytes.Buffer
	if serr := svc.WriteZip(&buf, available); serr != nil {
		t.Fatalf("WriteZip() вернул ошибку: %v", serr)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("результат не является валидным zip: %v", err)
	}
	if len(zr.File) != 3 {
		t.Fatalf("в архиве %d файлов, ожидалось 3", len(zr.File))
	}
	for _, f := range zr.File {
		if !strings.HasSuffix(f.Name, ".mp3") {
			t.Errorf("неверное имя файла в архиве: %q", f.Name)
		}
	}
}

func TestArchiveService_ResolveSkipsMissing(t *testing.T) {
	env := newTestEnv(t)
	engine := &fakeEngine{audio: []byte("MP3DATA")}
	synth := NewSynthService(env.cfg, env.store, env.rec, engine, env.logger)
	svc := NewArchiveService(env.store, env.rec, env.logger)

	res, serr := synth.Synthesize(context.Background(), SynthParams{Text: "hello"})
	if serr != nil {
		t.Fatalf("Synthesize() вернул ошибку: %v", serr)
	}

	ids := []string{res.OutputID, "ffffffff-0000-0000-0000-000000000000"}

	available, serr := svc.ResolveOutputs(ids)
	if serr != nil {
		t.Fatalf("ResolveOutputs() вернул ошибку: %v", serr)
	}
	if len(available) != 1 || available[0] != res.OutputID {
		t.Fatalf("доступные результаты = %v, ожидался только %s", available, res.OutputID)
	}

	var buf bytes.Buffer
	if serr := svc.WriteZip(&buf, available); serr != nil {
		t.Fatalf("WriteZip() вернул ошибку: %v", serr)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("результат не является валидным zip: %v", err)
	}
	if len(zr.File) != 1 {
		t.Errorf("в архиве %d файлов, ожидался 1 (отсутствующий пропущен)", len(zr.File))
	}
}

func TestArchiveService_ResolveAllMissing(t *testing.T) {
	env := newTestEnv(t)
	svc := NewArchiveService(env.store, env.rec, env.logger)

	_, serr := svc.ResolveOutputs([]string{"ffffffff-0000-0000-0000-000000000000"})
	if serr == nil || serr.StatusCode != http.StatusNotFound {
		t.Errorf("ожидался 404 для архива без файлов, получено: %v", serr)
	}
}

func TestArchiveService_ResolveValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := NewArchiveService(env.store, env.rec, env.logger)

	if _, serr := svc.ResolveOutputs(nil); serr == nil || serr.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("ожидался 422 для пустого списка, получено: %v", serr)
	}
}

func TestZipName(t *testing.T) {
	name := ZipName()
	if !strings.HasPrefix(name, "tts_batch_") || !strings.HasSuffix(name, ".zip") {
		t.Errorf("неверный формат имени архива: %q", name)
	}
}
