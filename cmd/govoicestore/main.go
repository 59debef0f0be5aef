// govoicestore — HTTP-сервис синтеза речи.
//
// Принимает текстовые файлы, нормализует их кодировку в UTF-8,
// синтезирует речь через внешний движок и отдаёт MP3-результаты.
// Устаревшие файлы вытесняются фоновой очисткой.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/bigkaa/govoicestore/internal/api/handlers"
	"github.com/bigkaa/govoicestore/internal/api/middleware"
	"github.com/bigkaa/govoicestore/internal/config"
	"github.com/bigkaa/govoicestore/internal/server"
	"github.com/bigkaa/govoicestore/internal/service"
	"github.com/bigkaa/govoicestore/internal/storage/filestore"
	"github.com/bigkaa/govoicestore/internal/storage/recstore"
	"github.com/bigkaa/govoicestore/internal/ttsengine"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := config.SetupLogger(cfg)
	logger.Info("Запуск govoicestore",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("engine_url", cfg.EngineURL),
	)

	// Хранилища
	store, err := filestore.New(cfg.UploadDir, cfg.OutputDir, cfg.TempDir)
	if err != nil {
		logger.Error("Ошибка инициализации файлового хранилища", slog.String("error", err.Error()))
		os.Exit(1)
	}

	rec, err := recstore.New(cfg.RecordsDir, logger)
	if err != nil {
		logger.Error("Ошибка инициализации хранилища записей", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Движок синтеза
	engine := ttsengine.NewClient(cfg.EngineURL, cfg.EngineTimeout)

	// Сервисный слой
	uploadSvc := service.NewUploadService(cfg, store, rec, logger)
	synthSvc := service.NewSynthService(cfg, store, rec, engine, logger)
	archiveSvc := service.NewArchiveService(store, rec, logger)
	voicesSvc := service.NewVoicesService(engine, cfg.VoicesCacheTTL, logger)

	// Фоновая очистка
	sweeper := service.NewSweeper(store, rec, cfg.MaxFileAge, cfg.SweepInterval, logger)
	sweeper.Start(context.Background())
	defer sweeper.Stop()

	// HTTP-обработчики и маршруты
	h := handlers.NewHandler(
		handlers.NewInfoHandler(cfg, voicesSvc, engine, []string{cfg.UploadDir, cfg.OutputDir, cfg.TempDir}),
		handlers.NewUploadsHandler(cfg, uploadSvc),
		handlers.NewSynthHandler(synthSvc),
		handlers.NewOutputsHandler(store, synthSvc, archiveSvc),
	)

	routes := h.Routes(
		middleware.BasicAuth(cfg.AuthUsername, cfg.AuthPassword),
		middleware.NewRateLimiter("upload", cfg.UploadRatePerMin).Middleware,
		middleware.NewRateLimiter("tts", cfg.TTSRatePerMin).Middleware,
		middleware.NewRateLimiter("batch", cfg.BatchRatePerMin).Middleware,
	)

	srv := server.New(cfg, logger, routes,
		middleware.Recoverer(logger),
		middleware.MetricsMiddleware(),
		middleware.RequestLogger(logger),
	)

	if err := srv.Run(); err != nil {
		logger.Error("Сервер завершился с ошибкой", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
