package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lumen-chat/backend/internal/models"
	"lumen-chat/backend/pkg/config"
	"lumen-chat/backend/pkg/di"
	"lumen-chat/backend/pkg/logger"
	"lumen-chat/backend/pkg/router"

	"gorm.io/gorm"
)

func main() {
	cfg := config.Get()

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		JSON:   cfg.Logging.Format == "json",
		Output: os.Stdout,
	})
	logger.SetGlobal(log)

	db, err := config.NewDB()
	if err != nil {
		log.Error("failed to open database", "error", err, "path", cfg.Database.Path)
		os.Exit(1)
	}

	if err := migrate(db); err != nil {
		log.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	container := di.New(db, cfg, log)
	r := router.New(container)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r.Engine,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: 0, // streaming responses and long generations
	}

	go func() {
		log.Info("server starting", "port", cfg.Server.Port, "env", cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	log.Info("server stopped")
}

// migrate applies the additive schema: AutoMigrate creates tables and any
// missing columns, and the hot-path index is created explicitly.
func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Thread{}, &models.Message{}); err != nil {
		return err
	}
	return db.Exec(
		"CREATE INDEX IF NOT EXISTS idx_messages_thread_created ON messages(thread_id, created_at)",
	).Error
}
