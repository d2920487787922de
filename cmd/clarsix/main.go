package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/iurnickita/clarsix/internal/auth"
	"github.com/iurnickita/clarsix/internal/config"
	"github.com/iurnickita/clarsix/internal/events"
	"github.com/iurnickita/clarsix/internal/handler"
	"github.com/iurnickita/clarsix/internal/logger"
	"github.com/iurnickita/clarsix/internal/service"
	"github.com/iurnickita/clarsix/internal/store"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}

	zaplog, err := logger.NewZapLog(cfg.Logger)
	if err != nil {
		return err
	}
	defer zaplog.Sync()

	store, err := store.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	publisher := events.NewPublisher(cfg.Events)
	defer publisher.Close()

	service, err := service.NewService(cfg.Service, store, publisher, zaplog)
	if err != nil {
		return err
	}
	auth := auth.NewAuth(cfg.Auth, service, zaplog)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zaplog.Info("starting", zap.String("api", cfg.Service.APIAddr))
	err = handler.Serve(ctx, cfg.Handler, auth, service, zaplog)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
