// Пакет ttsengine — клиент внешнего движка синтеза речи.
//
// Сервис не синтезирует речь сам: всю работу выполняет отдельный
// HTTP-движок. Пакет задаёт интерфейс Engine и его HTTP-реализацию.
// Сервисный слой зависит только от интерфейса — в тестах движок
// подменяется заглушкой.
package ttsengine

import "context"

// SpeechRequest — параметры одного запроса синтеза.
type SpeechRequest struct {
	// Text — текст для озвучивания. Уже очищен и проверен на длину.
	Text string
	// Voice — имя голоса движка (например "en-US-AndrewNeural").
	Voice string
	// Rate — скорость речи: знак и проценты ("+10%").
	Rate string
	// Volume — громкость: знак и проценты ("-20%").
	Volume string
	// Pitch — высота тона: знак и герцы ("+5Hz").
	Pitch string
}

// VoiceInfo — описание голоса, доступного движку.
type VoiceInfo struct {
	Name   string `json:"name"`
	Gender string `json:"gender"`
	Locale string `json:"locale"`
}

// Engine — контракт движка синтеза речи.
type Engine interface {
	// Synthesize выполняет синтез и возвращает аудиоданные в формате MP3.
	Synthesize(ctx context.Context, req SpeechRequest) ([]byte, error)
	// Voices возвращает список голосов, поддерживаемых движком.
	Voices(ctx context.Context) ([]VoiceInfo, error)
	// Health проверяет доступность движка.
	Health(ctx context.Context) error
}
