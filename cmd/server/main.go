package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"

	"ourcity/internal/config"
	"ourcity/internal/db"
	"ourcity/internal/logger"
	"ourcity/internal/router"
	"ourcity/internal/services"
	"ourcity/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger.Init(cfg.Env, cfg.LogLevel, cfg.LogFormat)
	if cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := openStore(cfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("open store")
	}
	cache := utils.GetCache()
	if err := services.Bootstrap(context.Background(), store, cfg, cache); err != nil {
		logger.Log.WithError(err).Fatal("bootstrap")
	}

	r := router.New(cfg, store, cache)

	logger.Log.WithField("port", cfg.Port).Info("OurCity API starting")
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Log.WithError(err).Fatal("server stopped")
	}
}

// openStore connects and migrates postgres, or starts an empty in-memory
// store for local runs.
func openStore(cfg *config.Config) (services.Store, error) {
	if cfg.Store == config.StoreMemory {
		logger.Log.Warn("using the in-memory store, data is lost on restart")
		return db.NewMemory(), nil
	}
	gdb, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(gdb); err != nil {
		return nil, err
	}
	return db.NewRepository(gdb), nil
}
