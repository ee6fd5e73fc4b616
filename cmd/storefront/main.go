package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/phenrril/storefront/internal/app"
	"github.com/phenrril/storefront/internal/config"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.IsDevelopment() {
		zlog.Logger = zlog.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	gormLog := logger.Default.LogMode(logger.Warn)
	if !cfg.IsDevelopment() {
		gormLog = logger.Default.LogMode(logger.Error)
	}
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{TranslateError: true, Logger: gormLog})
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to connect to database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApp(ctx, db, cfg)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to create app")
	}
	if err := application.Migrate(); err != nil {
		zlog.Fatal().Err(err).Msg("failed to migrate database")
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           application.HTTPHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		zlog.Info().Str("addr", server.Addr).Str("env", cfg.Environment).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	zlog.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Err(err).Msg("http shutdown")
	}
	if err := application.Close(shutdownCtx); err != nil {
		zlog.Warn().Err(err).Msg("notifications still in flight at exit")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
