// auth.go — middleware HTTP Basic аутентификации.
// Учётные данные сравниваются за постоянное время, чтобы исключить
// утечку по таймингу. Неавторизованный запрос получает challenge
// WWW-Authenticate и стандартный конверт ошибки.
package middleware

import (
	"crypto/subtle"
	"net/http"

	apierrors "github.com/bigkaa/govoicestore/internal/api/errors"
)

// BasicAuth возвращает middleware, требующий HTTP Basic аутентификацию
// с указанными учётными данными.
func BasicAuth(username, password string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()

			// Оба сравнения выполняются всегда, независимо от результата
			// первого — время ответа не зависит от того, что именно не совпало.
			userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
			passMatch := subtle.ConstantTimeCompare([]byte(pass), []byte(password)) == 1

			if !ok || !userMatch || !passMatch {
				w.Header().Set("WWW-Authenticate", `Basic realm="govoicestore"`)
				apierrors.Unauthorized(w, "требуется аутентификация")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
