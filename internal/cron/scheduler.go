package cronjob

import (
	"context"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/GoSim-25-26J-441/entity-service/internal/logging"
)

// EveryMinute is the default sweep schedule (seconds field enabled).
const EveryMinute = "0 * * * * *"

// Sweeper drops expired state and reports how many entries it removed.
type Sweeper interface {
	Sweep() int
}

// Scheduler periodically sweeps limiter state so idle clients do not
// accumulate in memory.
type Scheduler struct {
	spec   string
	logger *slog.Logger
	cron   *cron.Cron

	mu       sync.Mutex
	sweepers map[string]Sweeper
}

func NewScheduler(spec string, logger *slog.Logger) *Scheduler {
	if spec == "" {
		spec = EveryMinute
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Scheduler{
		spec:     spec,
		logger:   logger,
		cron:     cron.New(cron.WithSeconds()),
		sweepers: make(map[string]Sweeper),
	}
}

// Register adds a named sweeper. Registering the same name twice replaces it.
func (s *Scheduler) Register(name string, sw Sweeper) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepers[name] = sw
}

// Start initializes the sweep task.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.RunOnce() }); err != nil {
		s.logger.Error("Failed to create cron job", "spec", s.spec, "error", err)
		return err
	}
	s.cron.Start()
	s.logger.Info("Cron scheduler started", "spec", s.spec)
	return nil
}

// Stop halts scheduling; the returned context is done once a running sweep ends.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// RunOnce sweeps every registered sweeper and returns the total removed.
func (s *Scheduler) RunOnce() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for name, sw := range s.sweepers {
		n := sw.Sweep()
		if n > 0 {
			s.logger.Debug("Swept limiter state", "limiter", name, "removed", n)
		}
		total += n
	}
	return total
}
