package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestBasicAuth(t *testing.T) {
	h := BasicAuth("admin", "secret")(okHandler())

	tests := []struct {
		name       string
		user       string
		pass       string
		noAuth     bool
		wantStatus int
	}{
		{"валидные учётные данные", "admin", "secret", false, http.StatusOK},
		{"неверный пароль", "admin", "wrong", false, http.StatusUnauthorized},
		{"неверный пользователь", "root", "secret", false, http.StatusUnauthorized},
		{"без заголовка", "", "", true, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/uploads", nil)
			if !tt.noAuth {
				req.SetBasicAuth(tt.user, tt.pass)
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("статус = %d, ожидалось %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusUnauthorized {
				if rec.Header().Get("WWW-Authenticate") == "" {
					t.Error("отсутствует заголовок WWW-Authenticate")
				}
				var body map[string]any
				if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
					t.Fatalf("тело ответа не является JSON: %v", err)
				}
				if _, ok := body["error"]; !ok {
					t.Error("тело ответа не содержит конверт ошибки")
				}
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter("test", 3)
	h := rl.Middleware(okHandler())

	doRequest := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/tts", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	// Первые три запроса проходят, четвёртый отклоняется.
	for i := 0; i < 3; i++ {
		if code := doRequest("10.0.0.1:1234"); code != http.StatusOK {
			t.Fatalf("запрос %d: статус = %d, ожидалось 200", i+1, code)
		}
	}
	if code := doRequest("10.0.0.1:1234"); code != http.StatusTooManyRequests {
		t.Errorf("превышение лимита: статус = %d, ожидалось 429", code)
	}

	// Лимит считается отдельно по каждому IP.
	if code := doRequest("10.0.0.2:1234"); code != http.StatusOK {
		t.Errorf("другой клиент: статус = %d, ожидалось 200", code)
	}
}

func TestRateLimiterConcurrentFirstRequests(t *testing.T) {
	rl := NewRateLimiter("test", 1)

	// Одновременные первые запросы с одного IP делят один лимитер:
	// при burst = 1 проходит ровно один.
	const workers = 16
	var wg sync.WaitGroup
	var admitted atomic.Int32
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.allow("10.0.0.1") {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := admitted.Load(); got != 1 {
		t.Errorf("допущено %d запросов, ожидался 1", got)
	}
}

func TestRecoverer(t *testing.T) {
	logger := testLogger()
	h := Recoverer(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("статус = %d, ожидалось 500", rec.Code)
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/voices", "/voices"},
		{"/upload", "/upload"},
		{"/download/aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee.mp3", "/download/{id}"},
		{"/file/aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee", "/file/{id}"},
		{"/output/aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee", "/output/{id}"},
		{"/file-content/aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee", "/file-content/{id}"},
		{"/unknown", "/unknown"},
	}

	for _, tt := range tests {
		if got := normalizePath(tt.path); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, ожидалось %q", tt.path, got, tt.want)
		}
	}
}
