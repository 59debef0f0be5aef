// ratelimit.go — ограничение частоты запросов по IP клиента.
//
// Для каждой защищаемой операции создаётся собственный RateLimiter со
// своим лимитом (запросов в минуту). Лимитеры клиентов хранятся в
// LRU-кэше с TTL: неактивные клиенты вытесняются автоматически, таблица
// не растёт бесконечно.
package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"

	apierrors "github.com/bigkaa/govoicestore/internal/api/errors"
)

// Параметры таблицы лимитеров.
const (
	limiterTableSize = 4096
	limiterTTL       = 10 * time.Minute
)

// rateLimitedTotal — количество запросов, отклонённых по лимиту.
var rateLimitedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tts_rate_limited_total",
		Help: "Количество запросов, отклонённых ограничителем частоты",
	},
	[]string{"operation"},
)

// RateLimiter — ограничитель частоты для одной операции.
type RateLimiter struct {
	operation string
	limit     rate.Limit
	burst     int

	// mu защищает связку Get-создание-Add: без неё два первых
	// одновременных запроса с одного IP получили бы по своему
	// лимитеру и удвоенный burst.
	mu      sync.Mutex
	clients *expirable.LRU[string, *rate.Limiter]
}

// NewRateLimiter создаёт ограничитель: perMinute запросов в минуту с
// каждого IP. Burst равен perMinute — клиент может выбрать весь минутный
// лимит одним всплеском, но не больше.
func NewRateLimiter(operation string, perMinute int) *RateLimiter {
	return &RateLimiter{
		operation: operation,
		limit:     rate.Limit(float64(perMinute) / 60.0),
		burst:     perMinute,
		clients:   expirable.NewLRU[string, *rate.Limiter](limiterTableSize, nil, limiterTTL),
	}
}

// Middleware возвращает HTTP middleware, применяющий ограничение.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientIP(r)) {
			rateLimitedTotal.WithLabelValues(rl.operation).Inc()
			apierrors.RateLimited(w, "превышен лимит запросов, попробуйте позже")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// allow проверяет лимит для клиента, создавая лимитер при первом обращении.
func (rl *RateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	limiter, ok := rl.clients.Get(ip)
	if !ok {
		limiter = rate.NewLimiter(rl.limit, rl.burst)
		rl.clients.Add(ip, limiter)
	}
	rl.mu.Unlock()

	return limiter.Allow()
}

// clientIP извлекает IP клиента из RemoteAddr, отбрасывая порт.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
