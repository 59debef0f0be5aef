package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/bigkaa/govoicestore/internal/ttsengine"
)

func TestVoicesService_List(t *testing.T) {
	env := newTestEnv(t)
	engine := &fakeEngine{voices: []ttsengine.VoiceInfo{
		{Name: "en-US-AndrewNeural", Gender: "Male", Locale: "en-US"},
	}}
	svc := NewVoicesService(engine, time.Hour, env.logger)

	voices, serr := svc.List(context.Background())
	if serr != nil {
		t.Fatalf("List() вернул ошибку: %v", serr)
	}
	if len(voices) != 1 || voices[0].Name != "en-US-AndrewNeural" {
		t.Errorf("получен неверный список голосов: %+v", voices)
	}

	// Второй вызов обслуживается из кэша даже при отказе движка.
	engine.voicesErr = errors.New("engine down")
	voices, serr = svc.List(context.Background())
	if serr != nil {
		t.Fatalf("повторный List() вернул ошибку: %v", serr)
	}
	if len(voices) != 1 {
		t.Errorf("кэш не использован: %+v", voices)
	}
}

func TestVoicesService_EngineFailure(t *testing.T) {
	env := newTestEnv(t)
	engine := &fakeEngine{voicesErr: errors.New("engine down")}
	svc := NewVoicesService(engine, time.Hour, env.logger)

	_, serr := svc.List(context.Background())
	if serr == nil {
		t.Fatal("List() не вернул ошибку при отказе движка")
	}
	if serr.StatusCode != http.StatusBadGateway {
		t.Errorf("StatusCode = %d, ожидалось 502", serr.StatusCode)
	}
}
