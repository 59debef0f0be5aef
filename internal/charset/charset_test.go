package charset

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNormalize_UTF8Passthrough(t *testing.T) {
	raw := []byte("Hello, мир! こんにちは. UTF-8 content with enough length for detection.")

	got, res, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize() вернул ошибку: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Error("UTF-8 содержимое должно возвращаться без изменений")
	}
	if res.Encoding != "utf-8" {
		t.Errorf("Encoding = %q, ожидалось utf-8", res.Encoding)
	}
	if res.Confidence <= 0 || res.Confidence > 1 {
		t.Errorf("Confidence = %v, ожидалось значение в (0, 1]", res.Confidence)
	}
}

func TestNormalize_Latin1(t *testing.T) {
	// "café résumé naïve" в ISO-8859-1: é=0xE9, ï=0xEF.
	// Достаточно длинный латинский текст, чтобы детектор выбрал ISO-8859-1.
	text := "This is a plain document about caf\xe9 culture and r\xe9sum\xe9 writing. " +
		"The na\xefve approach rarely works for d\xe9tente in everyday business."
	raw := []byte(text)
	if utf8.Valid(raw) {
		t.Fatal("тестовые данные не должны быть валидным UTF-8")
	}

	got, res, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize() вернул ошибку: %v", err)
	}
	if !utf8.Valid(got) {
		t.Error("результат нормализации должен быть валидным UTF-8")
	}
	if !strings.Contains(string(got), "café") {
		t.Errorf("потеряны декодированные символы, получено: %q", string(got))
	}
	if res.Encoding == "utf-8" {
		t.Errorf("кодировка определена как utf-8 для не-UTF-8 содержимого")
	}
}

func TestNormalize_Empty(t *testing.T) {
	got, res, err := Normalize(nil)
	if err != nil {
		t.Fatalf("Normalize(nil) вернул ошибку: %v", err)
	}
	if len(got) != 0 {
		t.Error("пустой вход должен давать пустой выход")
	}
	if res.Encoding != "utf-8" {
		t.Errorf("Encoding = %q, ожидалось utf-8", res.Encoding)
	}
}

func TestNormalize_ASCII(t *testing.T) {
	raw := []byte("plain ascii text, nothing fancy here at all, just simple words")

	got, res, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize() вернул ошибку: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Error("ASCII содержимое должно возвращаться без изменений")
	}
	if res.Confidence <= 0 {
		t.Errorf("Confidence = %v, ожидалось положительное значение", res.Confidence)
	}
}
