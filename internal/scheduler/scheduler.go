package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/omarshaarawi/tradereferee/internal/config"
	"github.com/omarshaarawi/tradereferee/internal/service"
)

const injuryWatchTimeout = 2 * time.Minute

type tradeService interface {
	InjuryReports(ctx context.Context) []service.InjuryReport
	SweepSessions(ttl time.Duration) int
}

type Scheduler struct {
	s            gocron.Scheduler
	cfg          config.Scheduler
	idleTTL      time.Duration
	tradeService tradeService
	sendMessage  func(int64, string) error
}

func NewScheduler(cfg config.Scheduler, idleTTL time.Duration, tradeService tradeService, sendMessage func(int64, string) error) (*Scheduler, error) {
	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		slog.Error("Failed to load location", "timezone", cfg.Timezone, "error", err)
		location = time.UTC
	}

	s, err := gocron.NewScheduler(
		gocron.WithLocation(location),
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Scheduler{
		s:            s,
		cfg:          cfg,
		idleTTL:      idleTTL,
		tradeService: tradeService,
		sendMessage:  sendMessage,
	}, nil
}

func (s *Scheduler) Start() error {
	var err error

	// Injury watch - daily, pro sessions with a trade in progress
	_, err = s.s.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(s.cfg.InjuryWatchHour, 0, 0))),
		gocron.NewTask(s.sendInjuryReports),
	)
	if err != nil {
		return fmt.Errorf("failed to create injury watch job: %w", err)
	}

	// Session sweep - hourly
	_, err = s.s.NewJob(
		gocron.DurationJob(time.Hour),
		gocron.NewTask(s.sweepSessions),
	)
	if err != nil {
		return fmt.Errorf("failed to create session sweep job: %w", err)
	}

	s.s.Start()
	return nil
}

func (s *Scheduler) Stop() error {
	return s.s.Shutdown()
}

func (s *Scheduler) sendInjuryReports() {
	ctx, cancel := context.WithTimeout(context.Background(), injuryWatchTimeout)
	defer cancel()

	reports := s.tradeService.InjuryReports(ctx)
	for _, report := range reports {
		if err := s.sendMessage(report.ChatID, report.Text); err != nil {
			slog.Error("Failed to send injury report", "chat_id", report.ChatID, "error", err)
		}
	}
	slog.Info("Injury watch finished", "reports", len(reports))
}

func (s *Scheduler) sweepSessions() {
	if n := s.tradeService.SweepSessions(s.idleTTL); n > 0 {
		slog.Info("Evicted idle sessions", "count", n)
	}
}
