// Пакет charset — определение кодировки текста и нормализация в UTF-8.
//
// Каждый загружаемый файл проходит через Normalize: детектор определяет
// исходную кодировку, содержимое перекодируется в UTF-8. Файлы, кодировку
// которых определить или декодировать не удалось, отклоняются —
// дальнейший конвейер работает только с валидным UTF-8.
package charset

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/ianaindex"
)

// ErrUndetectable — кодировку содержимого определить не удалось.
var ErrUndetectable = errors.New("не удалось определить кодировку файла")

// ErrDecodeFailed — содержимое не декодируется из определённой кодировки.
var ErrDecodeFailed = errors.New("не удалось декодировать файл в UTF-8")

// Result — итог нормализации.
type Result struct {
	// Encoding — каноническое имя исходной кодировки в нижнем регистре
	// (например "utf-8", "iso-8859-1", "windows-1251").
	Encoding string
	// Confidence — уверенность детектора, от 0 до 1.
	Confidence float64
}

// Normalize определяет кодировку raw и возвращает содержимое в UTF-8.
// Для содержимого, уже являющегося UTF-8, байты возвращаются как есть.
func Normalize(raw []byte) ([]byte, Result, error) {
	if len(raw) == 0 {
		return raw, Result{Encoding: "utf-8", Confidence: 1.0}, nil
	}

	best, err := chardet.NewTextDetector().DetectBest(raw)
	if err != nil {
		return nil, Result{}, fmt.Errorf("%w: %v", ErrUndetectable, err)
	}

	res := Result{
		Encoding:   strings.ToLower(best.Charset),
		Confidence: float64(best.Confidence) / 100.0,
	}

	if isUTF8Label(best.Charset) {
		if !utf8.Valid(raw) {
			return nil, res, fmt.Errorf("%w: содержимое не является валидным UTF-8", ErrDecodeFailed)
		}
		return raw, res, nil
	}

	enc, err := ianaindex.IANA.Encoding(best.Charset)
	if err != nil || enc == nil {
		return nil, res, fmt.Errorf("%w: неизвестная кодировка %q", ErrUndetectable, best.Charset)
	}

	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return nil, res, fmt.Errorf("%w: кодировка %q: %v", ErrDecodeFailed, best.Charset, err)
	}
	if !utf8.Valid(decoded) {
		return nil, res, fmt.Errorf("%w: результат декодирования из %q не является валидным UTF-8", ErrDecodeFailed, best.Charset)
	}

	return decoded, res, nil
}

// isUTF8Label распознаёт метки UTF-8, возвращаемые детектором.
func isUTF8Label(label string) bool {
	switch strings.ToLower(label) {
	case "utf-8", "utf8", "ascii", "us-ascii":
		return true
	}
	return false
}
