// recover.go — перехват паник в обработчиках.
// Паника логируется со стеком, клиент получает стандартный конверт 500.
package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	apierrors "github.com/bigkaa/govoicestore/internal/api/errors"
)

// Recoverer возвращает middleware, перехватывающий панику обработчика.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("Паника при обработке запроса",
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
						slog.Any("panic", rec),
						slog.String("stack", string(debug.Stack())),
					)
					apierrors.InternalError(w, "внутренняя ошибка сервера")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
