package ttsengine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Маршруты API движка синтеза.
const (
	pathSynthesize = "/synthesize"
	pathVoices     = "/voices"
	pathHealth     = "/health"
)

// ErrEmptyAudio — движок вернул успешный ответ без аудиоданных.
var ErrEmptyAudio = errors.New("движок вернул пустые аудиоданные")

// Client — HTTP-клиент движка синтеза. Реализует Engine.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент движка. baseURL включает протокол и порт
// (например "http://tts-engine:5500"), timeout покрывает весь запрос
// синтеза, включая генерацию аудио на стороне движка.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// synthesizePayload — JSON-тело запроса синтеза.
type synthesizePayload struct {
	Text   string `json:"text"`
	Voice  string `json:"voice"`
	Rate   string `json:"rate"`
	Volume string `json:"volume"`
	Pitch  string `json:"pitch"`
}

// engineError — структурированная ошибка движка.
type engineError struct {
	Detail string `json:"detail"`
}

// Synthesize отправляет запрос синтеза и возвращает MP3-аудио.
func (c *Client) Synthesize(ctx context.Context, req SpeechRequest) ([]byte, error) {
	body, err := json.Marshal(synthesizePayload{
		Text:   req.Text,
		Voice:  req.Voice,
		Rate:   req.Rate,
		Volume: req.Volume,
		Pitch:  req.Pitch,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации запроса синтеза: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+pathSynthesize, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса синтеза: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "audio/mpeg")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("движок синтеза %s недоступен: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения аудиоданных: %w", err)
	}
	if len(audio) == 0 {
		return nil, ErrEmptyAudio
	}

	return audio, nil
}

// Voices запрашивает у движка список доступных голосов.
func (c *Client) Voices(ctx context.Context) ([]VoiceInfo, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+pathVoices, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса списка голосов: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("движок синтеза %s недоступен: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var voices []VoiceInfo
	if err := json.NewDecoder(resp.Body).Decode(&voices); err != nil {
		return nil, fmt.Errorf("ошибка десериализации списка голосов: %w", err)
	}

	return voices, nil
}

// Health выполняет лёгкую проверку доступности движка.
func (c *Client) Health(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+pathHealth, http.NoBody)
	if err != nil {
		return fmt.Errorf("ошибка создания запроса проверки движка: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("движок синтеза %s недоступен: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("движок синтеза вернул статус %s", resp.Status)
	}

	return nil
}

// parseError извлекает диагностику из неуспешного ответа движка.
// Если тело не является структурированной ошибкой, возвращается как есть.
func (c *Client) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var engErr engineError
	if err := json.Unmarshal(body, &engErr); err == nil && engErr.Detail != "" {
		return fmt.Errorf("движок синтеза вернул ошибку (%s): %s", resp.Status, engErr.Detail)
	}

	return fmt.Errorf("движок синтеза вернул статус %s: %s", resp.Status, string(body))
}
