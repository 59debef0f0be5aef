// Пакет model — доменные модели govoicestore.
// Три вида записей: загрузка, генерация, батч. Каждая запись
// сериализуется в собственный JSON-файл в каталоге записей
// и является единственным источником истины для метаданных.
package model

import (
	"time"
)

// UploadRecord — метаданные загруженного документа.
// Инвариант: пока Deleted=false, в хранилище существуют оба файла —
// исходный (StoredName) и нормализованный UTF-8 (NormalizedName),
// связанные общим префиксом FileID.
type UploadRecord struct {
	// FileID — уникальный идентификатор загрузки (UUID v4)
	FileID string `json:"file_id"`

	// OriginalName — имя файла, переданное клиентом (после санитизации)
	OriginalName string `json:"original_name"`

	// StoredName — имя исходного файла на диске: {file_id}_{name}
	StoredName string `json:"stored_name"`

	// NormalizedName — имя UTF-8 копии на диске: {file_id}_utf8_{name}
	NormalizedName string `json:"normalized_name"`

	// Size — размер исходного файла в байтах
	Size int64 `json:"size"`

	// Encoding — определённая кодировка исходного файла
	Encoding string `json:"encoding"`

	// EncodingConfidence — уверенность детектора кодировки (0.0–1.0)
	EncodingConfidence float64 `json:"encoding_confidence"`

	// UploadedAt — дата и время загрузки (UTC), устанавливается один раз
	UploadedAt time.Time `json:"uploaded_at"`

	// Deleted — флаг мягкого удаления
	Deleted bool `json:"deleted"`
}

// GenerationRecord — метаданные одного синтезированного аудиофайла.
// Инвариант: пока Deleted=false, OutputID соответствует ровно одному
// файлу {output_id}.mp3 в каталоге результатов.
type GenerationRecord struct {
	// OutputID — уникальный идентификатор результата (UUID v4)
	OutputID string `json:"output_id"`

	// FileID — идентификатор исходной загрузки.
	// Пустая строка для синтеза напрямую из текста.
	FileID string `json:"file_id,omitempty"`

	// Voice — имя голоса синтеза
	Voice string `json:"voice"`

	// Rate, Volume, Pitch — параметры просодии в исходном строковом виде
	Rate   string `json:"rate"`
	Volume string `json:"volume"`
	Pitch  string `json:"pitch"`

	// TextLength — длина синтезированного текста в символах
	TextLength int `json:"text_length"`

	// OriginalName — имя для Content-Disposition при скачивании
	OriginalName string `json:"original_name"`

	// IsBatch — результат получен в составе батча
	IsBatch bool `json:"is_batch"`

	// BatchID — идентификатор батча (пустая строка для одиночных запросов)
	BatchID string `json:"batch_id,omitempty"`

	// GeneratedAt — дата и время генерации (UTC)
	GeneratedAt time.Time `json:"generated_at"`

	// Deleted — флаг мягкого удаления
	Deleted bool `json:"deleted"`
}

// BatchRecord — метаданные одной батч-обработки.
// Completed становится true только после того, как каждый файл батча
// получил свою GenerationRecord.
type BatchRecord struct {
	// BatchID — уникальный идентификатор батча (UUID v4)
	BatchID string `json:"batch_id"`

	// FileCount — количество файлов в батче
	FileCount int `json:"file_count"`

	// Voice, Rate, Volume, Pitch — общие параметры синтеза для всех файлов
	Voice  string `json:"voice"`
	Rate   string `json:"rate"`
	Volume string `json:"volume"`
	Pitch  string `json:"pitch"`

	// Completed — батч завершён полностью
	Completed bool `json:"completed"`

	// CreatedAt — дата и время создания батча (UTC)
	CreatedAt time.Time `json:"created_at"`
}

// OlderThan проверяет, старше ли загрузка указанного порога.
func (u *UploadRecord) OlderThan(cutoff time.Time) bool {
	return u.UploadedAt.Before(cutoff)
}

// OlderThan проверяет, старше ли генерация указанного порога.
func (g *GenerationRecord) OlderThan(cutoff time.Time) bool {
	return g.GeneratedAt.Before(cutoff)
}

// OlderThan проверяет, старше ли батч указанного порога.
func (b *BatchRecord) OlderThan(cutoff time.Time) bool {
	return b.CreatedAt.Before(cutoff)
}
