package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"example.com/dutyroster/internal/app"
	"example.com/dutyroster/internal/config"
	"example.com/dutyroster/internal/notify"
	"example.com/dutyroster/internal/server"
	"example.com/dutyroster/internal/telegram"
)

func main() {
	cfg := config.Load()

	log, err := buildLogger(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	a, err := app.New(cfg, log)
	if err != nil {
		log.Fatal("bootstrap", zap.Error(err))
	}

	srv := server.New(cfg.HTTPAddr, a.Router, log)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	botCtx, stopBot := context.WithCancel(context.Background())
	defer stopBot()
	if cfg.TelegramToken != "" {
		bot := telegram.NewBot(
			cfg.TelegramToken,
			a.Assignments,
			a.Resolver,
			a.Completions,
			a.Schedules,
			a.Store,
			telegram.NewSessionStore(),
			log,
			cfg.PollTimeout,
		)
		go func() {
			if err := bot.Run(botCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("bot stopped", zap.Error(err))
			}
		}()

		if cfg.NotifyEnabled {
			notifier := notify.New(
				a.Resolver,
				a.Completions,
				a.Assignments,
				a.Store,
				a.Store,
				telegram.NewClient(cfg.TelegramToken),
				log,
			)
			if err := notifier.Start(cfg.NotifyCron); err != nil {
				log.Fatal("start notifier", zap.Error(err))
			}
			defer notifier.Stop()
		}
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)
	select {
	case sig := <-stop:
		log.Info("signal received, shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server", zap.Error(err))
		}
		return
	}
	stopBot()
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server", zap.Error(err))
	}
}

func buildLogger(env string) (*zap.Logger, error) {
	if env == "prod" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
