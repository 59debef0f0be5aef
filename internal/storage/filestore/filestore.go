// Пакет filestore — операции с физическими файлами трёх областей
// хранилища: загрузки, результаты синтеза и временные файлы.
// Имена файлов привязаны к сгенерированным идентификаторам:
//
//	загрузка:        {file_id}_{name}
//	UTF-8 копия:     {file_id}_utf8_{name}
//	результат:       {output_id}.mp3
//
// Все операции записи выполняются атомарно: temp → fsync → rename.
package filestore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Area — область хранилища.
type Area string

const (
	// AreaUploads — исходные и нормализованные загрузки
	AreaUploads Area = "uploads"
	// AreaOutputs — синтезированные аудиофайлы
	AreaOutputs Area = "outputs"
	// AreaTemp — временные файлы
	AreaTemp Area = "temp"
)

// normalizedMark — суффикс идентификатора в имени UTF-8 копии.
const normalizedMark = "_utf8_"

// outputExt — расширение файлов результатов синтеза.
const outputExt = ".mp3"

// ErrNotFound — файл с указанным идентификатором отсутствует в области.
var ErrNotFound = errors.New("файл не найден")

// Store — управление физическими файлами на диске.
type Store struct {
	dirs map[Area]string
}

// New создаёт Store и гарантирует существование всех трёх каталогов.
func New(uploadDir, outputDir, tempDir string) (*Store, error) {
	dirs := map[Area]string{
		AreaUploads: uploadDir,
		AreaOutputs: outputDir,
		AreaTemp:    tempDir,
	}

	for area, dir := range dirs {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("не удалось создать каталог области %s (%s): %w", area, dir, err)
		}
	}

	return &Store{dirs: dirs}, nil
}

// AllocateID возвращает новый универсально-уникальный идентификатор.
// 128 бит случайности: идентификатор одновременно служит bearer-токеном
// для скачивания, поэтому не должен быть предсказуемым.
func AllocateID() string {
	return uuid.New().String()
}

// Dir возвращает путь каталога области.
func (s *Store) Dir(area Area) string {
	return s.dirs[area]
}

// UploadName возвращает имя исходного файла загрузки на диске.
func UploadName(fileID, originalName string) string {
	return fileID + "_" + originalName
}

// NormalizedName возвращает имя UTF-8 копии загрузки на диске.
func NormalizedName(fileID, originalName string) string {
	return fileID + normalizedMark + originalName
}

// OutputName возвращает имя файла результата синтеза на диске.
func OutputName(outputID string) string {
	return outputID + outputExt
}

// Save атомарно записывает данные в файл области.
// Паттерн: temp файл → запись → fsync → atomic rename.
// При ошибке temp файл удаляется.
func (s *Store) Save(area Area, name string, data []byte) (string, error) {
	fullPath := filepath.Join(s.dirs[area], name)
	tmpPath := fullPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("ошибка создания временного файла: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("ошибка записи данных: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("ошибка fsync: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("ошибка атомарного переименования: %w", err)
	}

	return fullPath, nil
}

// Open открывает файл области для чтения. Вызывающий код обязан
// закрыть *os.File. Отсутствующий файл → ErrNotFound: гонка со
// Sweeper'ом должна превращаться в NotFound, а не в панику.
func (s *Store) Open(area Area, name string) (*os.File, error) {
	fullPath := filepath.Join(s.dirs[area], name)

	f, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("ошибка открытия файла %s: %w", name, err)
	}

	return f, nil
}

// Exists проверяет существование файла области на диске.
func (s *Store) Exists(area Area, name string) bool {
	_, err := os.Stat(filepath.Join(s.dirs[area], name))
	return err == nil
}

// Delete удаляет файл области. Возвращает nil если файл уже не существует.
func (s *Store) Delete(area Area, name string) error {
	err := os.Remove(filepath.Join(s.dirs[area], name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ошибка удаления файла %s: %w", name, err)
	}
	return nil
}

// DeleteByPrefix удаляет все файлы области, чьё имя начинается с
// {id}_ или равно {id}{ext}. Возвращает количество удалённых файлов.
func (s *Store) DeleteByPrefix(area Area, id string) (int, error) {
	matches, err := filepath.Glob(filepath.Join(s.dirs[area], id+"*"))
	if err != nil {
		return 0, fmt.Errorf("ошибка поиска файлов по префиксу %s: %w", id, err)
	}

	removed := 0
	for _, path := range matches {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("ошибка удаления файла %s: %w", path, err)
		}
		removed++
	}

	return removed, nil
}

// ResolveNormalized находит UTF-8 копию загрузки по идентификатору.
// Возвращает путь на диске и имя файла или ErrNotFound.
func (s *Store) ResolveNormalized(fileID string) (string, error) {
	pattern := filepath.Join(s.dirs[AreaUploads], fileID+normalizedMark+"*")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", fmt.Errorf("ошибка поиска нормализованного файла %s: %w", fileID, err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNotFound, fileID)
	}
	return matches[0], nil
}

// ReadNormalized читает содержимое UTF-8 копии загрузки.
// Возвращает текст и оригинальное имя файла (без префикса идентификатора).
func (s *Store) ReadNormalized(fileID string) ([]byte, string, error) {
	path, err := s.ResolveNormalized(fileID)
	if err != nil {
		return nil, "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("%w: %s", ErrNotFound, fileID)
		}
		return nil, "", fmt.Errorf("ошибка чтения файла %s: %w", path, err)
	}

	originalName := strings.TrimPrefix(filepath.Base(path), fileID+normalizedMark)
	return data, originalName, nil
}

// OutputPath возвращает полный путь файла результата синтеза.
func (s *Store) OutputPath(outputID string) string {
	return filepath.Join(s.dirs[AreaOutputs], OutputName(outputID))
}

// Sanitize приводит пользовательское имя файла к безопасному виду:
// разрешены буквы и цифры (включая не-ASCII), дефис, подчёркивание и
// точка, остальные символы заменяются на подчёркивание. Слишком
// длинные имена усекаются. Имя без единой буквы или цифры →
// "uploaded_file.txt".
func Sanitize(name string) string {
	var b strings.Builder
	hasWord := false
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			hasWord = true
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	if !hasWord {
		return "uploaded_file.txt"
	}
	result := b.String()
	if len(result) > 255 {
		// Срез не должен разрезать многобайтовую руну.
		cut := 251
		for cut > 0 && !utf8.RuneStart(result[cut]) {
			cut--
		}
		result = result[:cut] + ".txt"
	}
	return result
}
