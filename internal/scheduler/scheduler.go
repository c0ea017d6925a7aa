package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/atmx/stock-game/internal/game"
	"github.com/atmx/stock-game/internal/model"
	"github.com/atmx/stock-game/internal/trade"
)

type taskFn func(ctx context.Context) error

type Scheduler struct {
	scheduler gocron.Scheduler
}

func New() *Scheduler {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		panic(err.Error())
	}
	return &Scheduler{scheduler: scheduler}
}

func (s *Scheduler) Start() {
	s.scheduler.Start()
}

func (s *Scheduler) Stop() {
	_ = s.scheduler.Shutdown()
}

func (s *Scheduler) NewIntervalJob(name string, fn taskFn, interval time.Duration, startImmediately bool) {
	opts := []gocron.JobOption{
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}
	if startImmediately {
		opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}

	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(taskWithRecover(fn, name)),
		opts...,
	)
	if err != nil {
		slog.Error("Scheduler creating job error", slog.String("jobName", name))
		panic(err.Error())
	}
}

func taskWithRecover(fn taskFn, jobName string) func(ctx context.Context) {
	return func(ctx context.Context) {
		defer func() {
			if r := recover(); r != nil {
				slog.Error(
					"Panic recovered in scheduler job",
					slog.String("jobName", jobName),
					slog.Any("panic", r),
					slog.String("stacktrace", string(debug.Stack())),
				)
			}
		}()

		slog.Debug("job start", slog.String("jobName", jobName))

		if err := fn(ctx); err != nil {
			slog.Error("job failed", slog.String("jobName", jobName), slog.Any("error", err))
		} else {
			slog.Debug("job completed", slog.String("jobName", jobName))
		}
	}
}

// Advancer is the part of the game service the day job drives.
type Advancer interface {
	Advance(ctx context.Context, trigger string) (model.GameState, error)
}

// AdvanceDay returns the timed-mode job: it moves the saved game to the next
// day. Having no game, or a game already on its final day, is not a failure.
func AdvanceDay(svc Advancer) taskFn {
	return func(ctx context.Context) error {
		_, err := svc.Advance(ctx, trade.TriggerScheduled)
		if errors.Is(err, trade.ErrNoGame) || errors.Is(err, game.ErrFinalDay) {
			return nil
		}
		return err
	}
}
