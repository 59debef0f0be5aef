// Пакет config — загрузка и валидация конфигурации govoicestore
// из переменных окружения. Конфигурация собирается один раз при старте
// и передаётся компонентам по ссылке — глобального состояния нет.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации сервиса.
type Config struct {
	// Порт HTTP-сервера
	Port int

	// Каталог исходных и нормализованных загрузок
	UploadDir string
	// Каталог синтезированных аудиофайлов
	OutputDir string
	// Каталог временных файлов
	TempDir string
	// Каталог JSON-записей (uploads/generations/batches)
	RecordsDir string

	// Учётные данные basic auth (общая пара для всех защищённых маршрутов)
	AuthUsername string
	AuthPassword string

	// Максимальный размер загружаемого файла в байтах
	MaxFileSize int64
	// Максимальная длина текста синтеза в символах
	MaxTextLength int
	// Максимальный возраст файлов до вытеснения Sweeper'ом
	MaxFileAge time.Duration
	// Интервал запуска Sweeper
	SweepInterval time.Duration

	// Базовый URL внешнего движка синтеза (обязательный)
	EngineURL string
	// Таймаут запросов к движку
	EngineTimeout time.Duration
	// Голос по умолчанию
	DefaultVoice string
	// TTL кэша списка голосов
	VoicesCacheTTL time.Duration

	// Лимиты запросов в минуту на клиентский адрес, по маршрутам
	UploadRatePerMin int
	TTSRatePerMin    int
	BatchRatePerMin  int

	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// Таймауты HTTP-сервера
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	// Таймаут graceful shutdown
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}

	// TTS_PORT — порт HTTP-сервера (по умолчанию 8000)
	port, err := getEnvInt("TTS_PORT", 8000)
	if err != nil {
		return nil, fmt.Errorf("TTS_PORT: %w", err)
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("TTS_PORT: значение %d вне допустимого диапазона 1-65535", port)
	}
	cfg.Port = port

	// Каталоги хранилища
	cfg.UploadDir = getEnvDefault("TTS_UPLOAD_DIR", "uploads")
	cfg.OutputDir = getEnvDefault("TTS_OUTPUT_DIR", "outputs")
	cfg.TempDir = getEnvDefault("TTS_TEMP_DIR", "temp")
	cfg.RecordsDir = getEnvDefault("TTS_RECORDS_DIR", "records")

	// Учётные данные basic auth
	cfg.AuthUsername = getEnvDefault("TTS_AUTH_USERNAME", "admin")
	cfg.AuthPassword, err = getEnvRequired("TTS_AUTH_PASSWORD")
	if err != nil {
		return nil, err
	}

	// TTS_MAX_FILE_SIZE — максимальный размер загрузки (по умолчанию 10 MiB)
	cfg.MaxFileSize, err = getEnvInt64("TTS_MAX_FILE_SIZE", 10<<20)
	if err != nil {
		return nil, fmt.Errorf("TTS_MAX_FILE_SIZE: %w", err)
	}
	if cfg.MaxFileSize <= 0 {
		return nil, fmt.Errorf("TTS_MAX_FILE_SIZE: значение должно быть положительным")
	}

	// TTS_MAX_TEXT_LENGTH — максимальная длина текста (по умолчанию 10000)
	cfg.MaxTextLength, err = getEnvInt("TTS_MAX_TEXT_LENGTH", 10000)
	if err != nil {
		return nil, fmt.Errorf("TTS_MAX_TEXT_LENGTH: %w", err)
	}
	if cfg.MaxTextLength <= 0 {
		return nil, fmt.Errorf("TTS_MAX_TEXT_LENGTH: значение должно быть положительным")
	}

	// TTS_MAX_FILE_AGE — срок хранения файлов (по умолчанию 7 суток)
	cfg.MaxFileAge, err = getEnvDuration("TTS_MAX_FILE_AGE", 168*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("TTS_MAX_FILE_AGE: %w", err)
	}

	// TTS_SWEEP_INTERVAL — интервал очистки (по умолчанию 24h)
	cfg.SweepInterval, err = getEnvDuration("TTS_SWEEP_INTERVAL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("TTS_SWEEP_INTERVAL: %w", err)
	}

	// TTS_ENGINE_URL — обязательный
	cfg.EngineURL, err = getEnvRequired("TTS_ENGINE_URL")
	if err != nil {
		return nil, err
	}

	// TTS_ENGINE_TIMEOUT — таймаут движка (по умолчанию 60s)
	cfg.EngineTimeout, err = getEnvDuration("TTS_ENGINE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("TTS_ENGINE_TIMEOUT: %w", err)
	}

	// TTS_DEFAULT_VOICE — голос по умолчанию
	cfg.DefaultVoice = getEnvDefault("TTS_DEFAULT_VOICE", "en-US-AndrewNeural")

	// TTS_VOICES_CACHE_TTL — TTL кэша голосов (по умолчанию 1h)
	cfg.VoicesCacheTTL, err = getEnvDuration("TTS_VOICES_CACHE_TTL", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("TTS_VOICES_CACHE_TTL: %w", err)
	}

	// Лимиты запросов по маршрутам
	cfg.UploadRatePerMin, err = getEnvInt("TTS_UPLOAD_RATE_PER_MIN", 10)
	if err != nil {
		return nil, fmt.Errorf("TTS_UPLOAD_RATE_PER_MIN: %w", err)
	}
	cfg.TTSRatePerMin, err = getEnvInt("TTS_TTS_RATE_PER_MIN", 30)
	if err != nil {
		return nil, fmt.Errorf("TTS_TTS_RATE_PER_MIN: %w", err)
	}
	cfg.BatchRatePerMin, err = getEnvInt("TTS_BATCH_RATE_PER_MIN", 5)
	if err != nil {
		return nil, fmt.Errorf("TTS_BATCH_RATE_PER_MIN: %w", err)
	}
	for name, v := range map[string]int{
		"TTS_UPLOAD_RATE_PER_MIN": cfg.UploadRatePerMin,
		"TTS_TTS_RATE_PER_MIN":    cfg.TTSRatePerMin,
		"TTS_BATCH_RATE_PER_MIN":  cfg.BatchRatePerMin,
	} {
		if v <= 0 {
			return nil, fmt.Errorf("%s: значение должно быть положительным", name)
		}
	}

	// TTS_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("TTS_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("TTS_LOG_LEVEL: %w", err)
	}

	// TTS_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("TTS_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("TTS_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// Таймауты HTTP-сервера
	cfg.HTTPReadTimeout, err = getEnvDuration("TTS_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("TTS_HTTP_READ_TIMEOUT: %w", err)
	}
	cfg.HTTPWriteTimeout, err = getEnvDuration("TTS_HTTP_WRITE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("TTS_HTTP_WRITE_TIMEOUT: %w", err)
	}
	cfg.HTTPIdleTimeout, err = getEnvDuration("TTS_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("TTS_HTTP_IDLE_TIMEOUT: %w", err)
	}

	// TTS_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("TTS_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("TTS_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvInt64 возвращает int64 значение переменной окружения или значение по умолчанию.
func getEnvInt64(key string, defaultVal int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 24h)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
