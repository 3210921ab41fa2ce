package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/i474232898/weather-lookup/internal/weather"
)

// runTimeout bounds one lookup of one watched city.
const runTimeout = 30 * time.Second

// NameRunner is the part of the orchestrator the scheduler drives.
type NameRunner interface {
	RunByName(ctx context.Context, city string) (weather.Report, error)
}

// Scheduler periodically looks up the weather for a fixed list of cities
// and logs a one-line summary per city.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    NameRunner
	cities    []string
	interval  time.Duration
	logger    *zap.Logger
}

// New creates a new Scheduler. The runner should not record searches.
func New(cities []string, interval time.Duration, runner NameRunner, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		runner:    runner,
		cities:    cities,
		interval:  interval,
		logger:    logger.Named("scheduler"),
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.cities) == 0 {
		s.logger.Info("no watch cities configured; nothing to schedule")
		return nil
	}

	interval := s.interval
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	_, err := s.scheduler.Every(interval).Do(s.RunOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce looks up every watched city concurrently and waits for all of them.
func (s *Scheduler) RunOnce() {
	s.logger.Debug("running watch job", zap.Int("cities", len(s.cities)))

	var wg sync.WaitGroup
	for _, city := range s.cities {
		city := city
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
			defer cancel()

			report, err := s.runner.RunByName(ctx, city)
			if err != nil {
				s.logger.Warn("watch lookup failed", zap.String("city", city), zap.Error(err))
				return
			}
			cur := report.Current
			s.logger.Info("watch",
				zap.String("city", cur.Place.Name),
				zap.String("country", cur.Place.CountryCode),
				zap.Float64("temperature_c", cur.TemperatureC),
				zap.String("conditions", cur.Classification.Description),
				zap.Int("daily", len(report.Daily)),
				zap.Int("hourly", len(report.Hourly)),
			)
		}()
	}
	wg.Wait()
	s.logger.Debug("completed watch job")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
