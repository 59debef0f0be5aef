// voices.go — список голосов движка с кэшированием.
//
// Список голосов меняется редко, а запрос к движку не бесплатен.
// Ответ движка кэшируется с TTL; по истечении TTL запись вытесняется
// и следующий запрос обновляет кэш.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/govoicestore/internal/ttsengine"
)

// voicesCacheKey — единственный ключ кэша голосов.
const voicesCacheKey = "voices"

// Метрики кэша голосов
var (
	voicesCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tts_voices_cache_hits_total",
		Help: "Количество попаданий в кэш списка голосов",
	})
	voicesCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tts_voices_cache_misses_total",
		Help: "Количество промахов кэша списка голосов",
	})
)

// VoicesService — сервис списка голосов.
type VoicesService struct {
	engine ttsengine.Engine
	cache  *expirable.LRU[string, []ttsengine.VoiceInfo]
	logger *slog.Logger
}

// NewVoicesService создаёт сервис с кэшем на указанный TTL.
func NewVoicesService(engine ttsengine.Engine, ttl time.Duration, logger *slog.Logger) *VoicesService {
	return &VoicesService{
		engine: engine,
		cache:  expirable.NewLRU[string, []ttsengine.VoiceInfo](1, nil, ttl),
		logger: logger.With(slog.String("component", "voices_service")),
	}
}

// List возвращает голоса движка, используя кэш.
func (s *VoicesService) List(ctx context.Context) ([]ttsengine.VoiceInfo, *Error) {
	if voices, ok := s.cache.Get(voicesCacheKey); ok {
		voicesCacheHits.Inc()
		return voices, nil
	}
	voicesCacheMisses.Inc()

	voices, err := s.engine.Voices(ctx)
	if err != nil {
		s.logger.Error("Ошибка запроса голосов у движка", slog.String("error", err.Error()))
		return nil, errEngine(fmt.Sprintf("не удалось получить список голосов: %v", err))
	}

	s.cache.Add(voicesCacheKey, voices)
	s.logger.Debug("Кэш голосов обновлён", slog.Int("voices", len(voices)))
	return voices, nil
}
