package main

import (
	"campuslink/app"
	"campuslink/config"
	"campuslink/logger"
	"campuslink/routes"

	"go.uber.org/zap"
)

func main() {
	config.LoadEnv()
	cfg := config.Load()

	if err := logger.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
		panic(err)
	}
	defer logger.Sync()
	for _, w := range cfg.Warnings {
		logger.Warn("config", zap.String("detail", w))
	}

	application := app.MustNew(cfg)
	defer application.Close()

	r := application.Router
	routes.RegisterRoutes(r, application)

	logger.Info("listening", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
