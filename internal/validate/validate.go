// Пакет validate — проверка пользовательского ввода.
//
// Все проверки возвращают ошибку с сообщением, пригодным для отдачи
// клиенту. Решение о HTTP-статусе принимает сервисный слой.
package validate

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Ограничения на параметры операций.
const (
	MinBatchFiles = 1
	MaxBatchFiles = 50
	MinZipFiles   = 1
	MaxZipFiles   = 100
)

var (
	// rateVolumeRe — формат просодии rate/volume: знак и проценты ("+10%", "-25%").
	rateVolumeRe = regexp.MustCompile(`^[+-]\d+%$`)
	// pitchRe — формат высоты тона: знак и герцы ("+5Hz", "-20Hz").
	pitchRe = regexp.MustCompile(`^[+-]\d+Hz$`)
	// voiceRe — имя голоса движка синтеза.
	voiceRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	// idRe — формат идентификатора (UUID в шестнадцатеричной записи с дефисами).
	idRe = regexp.MustCompile(`^[a-f0-9-]{36}$`)
	// strippedChars — символы, вырезаемые из текста перед синтезом.
	strippedChars = regexp.MustCompile(`[<>"'&]`)
)

// allowedTypes — MIME-типы, принимаемые при загрузке.
// application/octet-stream сюда не входит: браузеры ставят его для
// любого неизвестного содержимого, такие загрузки проходят только
// по расширению.
var allowedTypes = map[string]bool{
	"text/plain":      true,
	"text/markdown":   true,
	"text/x-markdown": true,
}

// allowedExts — расширения файлов, принимаемые при загрузке.
var allowedExts = map[string]bool{
	".txt":      true,
	".md":       true,
	".text":     true,
	".markdown": true,
}

// Text проверяет длину текста и возвращает его очищенную форму:
// срезаются потенциально опасные для SSML символы и крайние пробелы.
func Text(text string, maxLen int) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", errors.New("текст не задан")
	}
	if n := utf8.RuneCountInString(text); n > maxLen {
		return "", fmt.Errorf("текст слишком длинный: %d символов при максимуме %d", n, maxLen)
	}

	cleaned := strings.TrimSpace(strippedChars.ReplaceAllString(text, ""))
	if cleaned == "" {
		return "", errors.New("после очистки текст пуст")
	}
	return cleaned, nil
}

// Prosody проверяет параметры просодии синтеза.
func Prosody(rate, volume, pitch string) error {
	if !rateVolumeRe.MatchString(rate) {
		return fmt.Errorf("неверный формат rate %q: ожидается знак и проценты, например +10%%", rate)
	}
	if !rateVolumeRe.MatchString(volume) {
		return fmt.Errorf("неверный формат volume %q: ожидается знак и проценты, например -20%%", volume)
	}
	if !pitchRe.MatchString(pitch) {
		return fmt.Errorf("неверный формат pitch %q: ожидается знак и герцы, например +5Hz", pitch)
	}
	return nil
}

// Voice проверяет имя голоса.
func Voice(voice string) error {
	if !voiceRe.MatchString(voice) {
		return fmt.Errorf("неверное имя голоса %q", voice)
	}
	return nil
}

// ID проверяет формат идентификатора файла или результата.
func ID(id string) error {
	if !idRe.MatchString(id) {
		return fmt.Errorf("неверный формат идентификатора %q", id)
	}
	return nil
}

// IDs проверяет список идентификаторов: количество в пределах [min, max],
// каждый идентификатор валиден. Первая невалидная запись называется в ошибке.
func IDs(ids []string, min, max int) error {
	if len(ids) < min {
		return fmt.Errorf("список идентификаторов пуст: требуется минимум %d", min)
	}
	if len(ids) > max {
		return fmt.Errorf("слишком много идентификаторов: %d при максимуме %d", len(ids), max)
	}
	for _, id := range ids {
		if !idRe.MatchString(id) {
			return fmt.Errorf("неверный формат идентификатора %q", id)
		}
	}
	return nil
}

// UploadType проверяет допустимость загружаемого файла по MIME-типу
// или расширению. Достаточно совпадения любого из двух признаков:
// браузеры нередко отправляют text/markdown как application/octet-stream.
func UploadType(filename, contentType string) error {
	base := contentType
	if i := strings.Index(base, ";"); i >= 0 {
		base = base[:i]
	}
	base = strings.ToLower(strings.TrimSpace(base))

	ext := strings.ToLower(filepath.Ext(filename))

	if allowedExts[ext] {
		return nil
	}
	if allowedTypes[base] {
		return nil
	}
	return fmt.Errorf("недопустимый тип файла: %q (%s); принимаются только текстовые файлы .txt и .md", filename, contentType)
}

// UploadSize проверяет размер загружаемого файла.
func UploadSize(size, max int64) error {
	if size <= 0 {
		return errors.New("файл пуст")
	}
	if size > max {
		return fmt.Errorf("файл слишком большой: %d байт при максимуме %d", size, max)
	}
	return nil
}
