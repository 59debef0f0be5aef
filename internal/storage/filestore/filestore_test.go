package filestore

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	base := t.TempDir()

	s, err := New(
		filepath.Join(base, "uploads"),
		filepath.Join(base, "outputs"),
		filepath.Join(base, "temp"),
	)
	if err != nil {
		t.Fatalf("New() вернул ошибку: %v", err)
	}
	return s
}

func TestStore_SaveAndOpen(t *testing.T) {
	s := newTestStore(t)

	data := []byte("file content")
	path, err := s.Save(AreaUploads, "id1_doc.txt", data)
	if err != nil {
		t.Fatalf("Save() вернул ошибку: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("файл не создан: %v", err)
	}

	// Временных файлов после записи оставаться не должно.
	tmps, _ := filepath.Glob(filepath.Join(s.Dir(AreaUploads), "*.tmp"))
	if len(tmps) != 0 {
		t.Errorf("остались временные файлы: %v", tmps)
	}

	f, err := s.Open(AreaUploads, "id1_doc.txt")
	if err != nil {
		t.Fatalf("Open() вернул ошибку: %v", err)
	}
	defer f.Close()

	got, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ошибка чтения файла: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("прочитано %q, ожидалось %q", got, data)
	}
}

func TestStore_OpenMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Open(AreaOutputs, "no-such-file.mp3")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("ожидалась ErrNotFound, получено: %v", err)
	}
}

func TestStore_Delete(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Save(AreaOutputs, "out1.mp3", []byte("audio")); err != nil {
		t.Fatalf("Save() вернул ошибку: %v", err)
	}

	if err := s.Delete(AreaOutputs, "out1.mp3"); err != nil {
		t.Fatalf("Delete() вернул ошибку: %v", err)
	}
	if s.Exists(AreaOutputs, "out1.mp3") {
		t.Error("файл существует после Delete()")
	}

	// Повторное удаление не ошибка.
	if err := s.Delete(AreaOutputs, "out1.mp3"); err != nil {
		t.Errorf("повторный Delete() вернул ошибку: %v", err)
	}
}

func TestStore_DeleteByPrefix(t *testing.T) {
	s := newTestStore(t)

	id := "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"
	for _, name := range []string{
		UploadName(id, "doc.txt"),
		NormalizedName(id, "doc.txt"),
		"other-id_doc.txt",
	} {
		if _, err := s.Save(AreaUploads, name, []byte("x")); err != nil {
			t.Fatalf("Save(%s) вернул ошибку: %v", name, err)
		}
	}

	removed, err := s.DeleteByPrefix(AreaUploads, id)
	if err != nil {
		t.Fatalf("DeleteByPrefix() вернул ошибку: %v", err)
	}
	if removed != 2 {
		t.Errorf("удалено %d файлов, ожидалось 2", removed)
	}
	if !s.Exists(AreaUploads, "other-id_doc.txt") {
		t.Error("удалён файл с чужим префиксом")
	}
}

func TestStore_ReadNormalized(t *testing.T) {
	s := newTestStore(t)

	id := "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"
	content := []byte("нормализованный текст")
	if _, err := s.Save(AreaUploads, NormalizedName(id, "report.txt"), content); err != nil {
		t.Fatalf("Save() вернул ошибку: %v", err)
	}

	data, name, err := s.ReadNormalized(id)
	if err != nil {
		t.Fatalf("ReadNormalized() вернул ошибку: %v", err)
	}
	if string(data) != string(content) {
		t.Errorf("прочитано %q, ожидалось %q", data, content)
	}
	if name != "report.txt" {
		t.Errorf("оригинальное имя = %q, ожидалось report.txt", name)
	}

	_, _, err = s.ReadNormalized("ffffffff-0000-0000-0000-000000000000")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("ожидалась ErrNotFound, получено: %v", err)
	}
}

func TestAllocateID(t *testing.T) {
	a, b := AllocateID(), AllocateID()
	if a == b {
		t.Error("AllocateID() вернул одинаковые идентификаторы")
	}
	if len(a) != 36 {
		t.Errorf("длина идентификатора %d, ожидалось 36", len(a))
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"doc.txt", "doc.txt"},
		{"my file (1).txt", "my_file__1_.txt"},
		{"путь.txt", "путь.txt"},
		{"доклад (1).md", "доклад__1_.md"},
		{"", "uploaded_file.txt"},
		{"___.---", "uploaded_file.txt"},
		{"../../etc/passwd", ".._.._etc_passwd"},
	}

	for _, tt := range tests {
		if got := Sanitize(tt.in); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, ожидалось %q", tt.in, got, tt.want)
		}
	}

	long := strings.Repeat("a", 300) + ".txt"
	got := Sanitize(long)
	if len(got) > 255 {
		t.Errorf("длина после усечения %d, ожидалось не более 255", len(got))
	}
	if !strings.HasSuffix(got, ".txt") {
		t.Errorf("усечённое имя потеряло расширение: %q", got)
	}
}
