package config

import (
	"log/slog"
	"testing"
	"time"
)

// setRequired задаёт минимальный набор обязательных переменных.
func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("TTS_ENGINE_URL", "http://tts-engine:5500")
	t.Setenv("TTS_AUTH_PASSWORD", "admin123")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	if cfg.Port != 8000 {
		t.Errorf("Port = %d, ожидалось 8000", cfg.Port)
	}
	if cfg.MaxFileSize != 10<<20 {
		t.Errorf("MaxFileSize = %d, ожидалось %d", cfg.MaxFileSize, 10<<20)
	}
	if cfg.MaxTextLength != 10000 {
		t.Errorf("MaxTextLength = %d, ожидалось 10000", cfg.MaxTextLength)
	}
	if cfg.MaxFileAge != 168*time.Hour {
		t.Errorf("MaxFileAge = %v, ожидалось 168h", cfg.MaxFileAge)
	}
	if cfg.SweepInterval != 24*time.Hour {
		t.Errorf("SweepInterval = %v, ожидалось 24h", cfg.SweepInterval)
	}
	if cfg.DefaultVoice != "en-US-AndrewNeural" {
		t.Errorf("DefaultVoice = %q", cfg.DefaultVoice)
	}
	if cfg.UploadRatePerMin != 10 || cfg.TTSRatePerMin != 30 || cfg.BatchRatePerMin != 5 {
		t.Errorf("лимиты запросов = %d/%d/%d, ожидалось 10/30/5",
			cfg.UploadRatePerMin, cfg.TTSRatePerMin, cfg.BatchRatePerMin)
	}
	if cfg.AuthUsername != "admin" {
		t.Errorf("AuthUsername = %q, ожидалось admin", cfg.AuthUsername)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, ожидалось json", cfg.LogFormat)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("TTS_PORT", "9090")
	t.Setenv("TTS_MAX_FILE_SIZE", "1048576")
	t.Setenv("TTS_MAX_FILE_AGE", "48h")
	t.Setenv("TTS_LOG_LEVEL", "debug")
	t.Setenv("TTS_LOG_FORMAT", "text")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, ожидалось 9090", cfg.Port)
	}
	if cfg.MaxFileSize != 1048576 {
		t.Errorf("MaxFileSize = %d", cfg.MaxFileSize)
	}
	if cfg.MaxFileAge != 48*time.Hour {
		t.Errorf("MaxFileAge = %v", cfg.MaxFileAge)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, ожидалось debug", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat = %q", cfg.LogFormat)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("TTS_AUTH_PASSWORD", "admin123")
	// TTS_ENGINE_URL не задан.
	if _, err := Load(); err == nil {
		t.Error("Load() не вернул ошибку при отсутствии TTS_ENGINE_URL")
	}

	t.Setenv("TTS_ENGINE_URL", "http://tts-engine:5500")
	t.Setenv("TTS_AUTH_PASSWORD", "")
	if _, err := Load(); err == nil {
		t.Error("Load() не вернул ошибку при пустом TTS_AUTH_PASSWORD")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"порт вне диапазона", "TTS_PORT", "70000"},
		{"нечисловой порт", "TTS_PORT", "abc"},
		{"отрицательный размер", "TTS_MAX_FILE_SIZE", "-1"},
		{"невалидная длительность", "TTS_MAX_FILE_AGE", "a week"},
		{"неизвестный уровень логов", "TTS_LOG_LEVEL", "loud"},
		{"неизвестный формат логов", "TTS_LOG_FORMAT", "xml"},
		{"нулевой лимит запросов", "TTS_UPLOAD_RATE_PER_MIN", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load() не вернул ошибку для %s=%s", tt.key, tt.value)
			}
		})
	}
}
