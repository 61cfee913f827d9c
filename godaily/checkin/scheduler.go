package checkin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ellavondegurechaff/godaily/godaily/config"
	"github.com/ellavondegurechaff/godaily/godaily/database/models"
	"github.com/ellavondegurechaff/godaily/godaily/database/repositories"
	"github.com/go-co-op/gocron/v2"
	"golang.org/x/sync/errgroup"
)

// ScheduleConfig fixes the daily fire time. The timezone is explicit, never
// the host's local zone, because the upstream daily reset is calendar-bound.
type ScheduleConfig struct {
	Hour     int
	Minute   int
	Timezone string
	Leader   bool
}

// Scheduler drives the once-daily claim run: streams eligible accounts,
// executes them in fixed-size concurrent batches, and paces batches with a
// fixed delay.
type Scheduler struct {
	orch       *Orchestrator
	repo       repositories.UserRepository
	reporter   *Reporter
	cfg        ScheduleConfig
	batchSize  int
	batchDelay time.Duration
	delay      func(ctx context.Context, d time.Duration)
	cron       gocron.Scheduler
}

type SchedulerOption func(*Scheduler)

// WithBatchTuning overrides the batch size and inter-batch delay. The
// defaults match known-acceptable upstream load; change with care.
func WithBatchTuning(batchSize int, batchDelay time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		s.batchSize = batchSize
		s.batchDelay = batchDelay
	}
}

// WithDelayFunc substitutes the inter-batch pause, used by pacing tests.
func WithDelayFunc(delay func(ctx context.Context, d time.Duration)) SchedulerOption {
	return func(s *Scheduler) { s.delay = delay }
}

func NewScheduler(orch *Orchestrator, repo repositories.UserRepository, reporter *Reporter, cfg ScheduleConfig, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		orch:       orch,
		repo:       repo,
		reporter:   reporter,
		cfg:        cfg,
		batchSize:  config.ClaimBatchSize,
		batchDelay: config.ClaimBatchDelay,
		delay:      sleepCtx,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// Start registers the daily job and begins waiting for the trigger. Non-
// leader instances still observe the trigger but no-op, so a sharded
// deployment claims each user exactly once.
func (s *Scheduler) Start() error {
	loc, err := time.LoadLocation(s.cfg.Timezone)
	if err != nil {
		return fmt.Errorf("invalid scheduler timezone %q: %w", s.cfg.Timezone, err)
	}

	cron, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = cron.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(
			gocron.NewAtTime(uint(s.cfg.Hour), uint(s.cfg.Minute), 0),
		)),
		gocron.NewTask(func() {
			if !s.cfg.Leader {
				slog.Debug("Skipping scheduled claims on non-leader instance",
					slog.String("type", "claim"))
				return
			}

			ctx := context.Background()
			if err := s.RunDailyClaims(ctx); err != nil {
				slog.Error("Scheduled claim run failed",
					slog.String("type", "claim"),
					slog.Any("error", err))
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to register daily job: %w", err)
	}

	cron.Start()
	s.cron = cron

	slog.Info("Daily claim scheduler started",
		slog.String("type", "claim"),
		slog.String("fire_time", fmt.Sprintf("%02d:%02d", s.cfg.Hour, s.cfg.Minute)),
		slog.String("timezone", s.cfg.Timezone),
		slog.Bool("leader", s.cfg.Leader))
	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		_ = s.cron.Shutdown()
	}
}

// RunDailyClaims executes one full claim run. Accounts stream from the
// repository cursor so memory stays flat regardless of registration count.
// Partial completion is expected: individual account failures never fail the
// run, and nothing is retried until the next day's fire.
func (s *Scheduler) RunDailyClaims(ctx context.Context) error {
	start := time.Now()
	slog.Info("Starting daily claim run", slog.String("type", "claim"))

	cursor, err := s.repo.FindAccountsWithCredentials(ctx)
	if err != nil {
		return fmt.Errorf("failed to enumerate accounts: %w", err)
	}
	defer cursor.Close(ctx)

	batch := make([]*models.User, 0, s.batchSize)
	batchNum := 0
	processed := 0

	runBatch := func() {
		if len(batch) == 0 {
			return
		}
		// pacing only: batch N+1 never starts before batch N settles, and
		// never immediately after
		if batchNum > 0 {
			s.delay(ctx, s.batchDelay)
		}
		batchNum++

		g := new(errgroup.Group)
		for _, user := range batch {
			user := user
			g.Go(func() error {
				s.processAccount(ctx, user)
				return nil
			})
		}
		_ = g.Wait()

		processed += len(batch)
		batch = batch[:0]
	}

	for cursor.Next(ctx) {
		user := new(models.User)
		if err := cursor.Decode(user); err != nil {
			slog.Error("Failed to decode user record",
				slog.String("type", "db"),
				slog.Any("error", err))
			continue
		}

		batch = append(batch, user)
		if len(batch) >= s.batchSize {
			runBatch()
		}
	}
	runBatch()

	if err := cursor.Err(); err != nil {
		slog.Error("Account cursor ended with error",
			slog.String("type", "db"),
			slog.Any("error", err))
	}

	slog.Info("Daily claim run completed",
		slog.String("type", "claim"),
		slog.Int("accounts", processed),
		slog.Int("batches", batchNum),
		slog.Duration("took", time.Since(start)))
	return nil
}

// processAccount is the per-account error boundary: everything inside ends
// as a stored result string and an optional DM, never as a propagated error.
func (s *Scheduler) processAccount(ctx context.Context, user *models.User) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Panic during account claim",
				slog.String("type", "claim"),
				slog.String("discord_id", user.DiscordID),
				slog.Any("panic", r))
		}
	}()

	result := s.orch.ClaimForAccount(ctx, user)

	if user.Settings.NotifyOnClaim && result.HasAny() {
		s.reporter.Deliver(ctx, user.DiscordID, result)
	}
}
