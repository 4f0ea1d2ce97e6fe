package main

import (
	"context"
	"log"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/phongkham/phongkham-backend/config"
	"github.com/phongkham/phongkham-backend/internal/ai"
	"github.com/phongkham/phongkham-backend/internal/routes"
	"github.com/phongkham/phongkham-backend/internal/session"
	"github.com/phongkham/phongkham-backend/internal/settings"
	"github.com/phongkham/phongkham-backend/pkg/logger"
	"github.com/phongkham/phongkham-backend/pkg/storage/redisstore"
)

func main() {
	cfg := config.LoadConfig()

	zapLogger, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("không khởi tạo được logger: %v", err)
	}
	defer zapLogger.Sync()

	ctx := context.Background()
	store, err := redisstore.Connect(ctx, cfg)
	if err != nil {
		zapLogger.Fatal("không thể kết nối Redis", zap.Error(err))
	}

	aiClient := ai.NewClient(cfg.AIBaseURL, cfg.AIAPIKey, zapLogger)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	watcher := session.NewWatcher(settings.NewService(store), zapLogger)
	e.Use(watcher.Middleware())
	go watcher.Run(ctx)

	routes.Init(e, store, zapLogger, aiClient)

	zapLogger.Info("server đang chạy", zap.String("port", cfg.Port))
	if err := e.Start(":" + cfg.Port); err != nil {
		zapLogger.Fatal("server dừng", zap.Error(err))
	}
}
