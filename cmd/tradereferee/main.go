package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/omarshaarawi/tradereferee/internal/api/fantasy"
	"github.com/omarshaarawi/tradereferee/internal/api/referee"
	"github.com/omarshaarawi/tradereferee/internal/api/sleeper"
	"github.com/omarshaarawi/tradereferee/internal/bot"
	"github.com/omarshaarawi/tradereferee/internal/config"
	"github.com/omarshaarawi/tradereferee/internal/repository/memory"
	"github.com/omarshaarawi/tradereferee/internal/repository/sqlite"
	"github.com/omarshaarawi/tradereferee/internal/scheduler"
	"github.com/omarshaarawi/tradereferee/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Error running application", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		slog.Error("Error loading .env file", "error", err)
	}

	cfg, err := config.New()
	if err != nil {
		return err
	}

	tokens, err := sqlite.NewTokenStore(cfg.Storage.TokenDBPath)
	if err != nil {
		return err
	}
	defer tokens.Close()

	repo := memory.NewRepository()

	refereeClient := referee.NewClient(cfg.RefereeAPI)
	sleeperAPI := sleeper.NewAPI(sleeper.NewClient(cfg.SleeperAPI), repo)
	fantasyAPI := fantasy.NewAPI(refereeClient, sleeperAPI)

	tradeService := service.NewTradeService(fantasyAPI, repo, tokens, cfg.Billing.PaymentLink)

	telegramBot, err := bot.NewTelegramBot(cfg.TelegramBot.Token, tradeService)
	if err != nil {
		return err
	}

	sched, err := scheduler.NewScheduler(cfg.Scheduler, cfg.Sessions.IdleTTL, tradeService, telegramBot.SendMessage)
	if err != nil {
		return err
	}

	if err := sched.Start(); err != nil {
		return err
	}
	defer func() {
		err := sched.Stop()
		if err != nil {
			slog.Error("Error stopping scheduler", "error", err)
		}
	}()

	http.HandleFunc("/", healthCheckHandler)

	go func() {
		if err := http.ListenAndServe(cfg.Server.HealthAddr, nil); err != nil {
			slog.Error("Error starting HTTP server", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := telegramBot.Start(ctx); err != nil {
			slog.Error("Error running telegram bot", "error", err)
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down gracefully...")

	return nil
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
