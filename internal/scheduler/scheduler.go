package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"cyclecount/internal/assignments/repository"
	"cyclecount/pkg/config"
	"cyclecount/pkg/logger"
)

const sweepTimeout = 30 * time.Second

// Scheduler runs the lock sweep. The Mongo TTL monitor eventually
// removes expired lock documents on its own, but it only wakes about
// once a minute and does nothing for the assignments left in_progress
// behind a dead lock, so the sweep handles both.
type Scheduler struct {
	cron           *cron.Cron
	assignmentRepo repository.AssignmentRepository
	lockRepo       repository.AssignmentLockRepository
	cfg            *config.Config
	log            *logger.Logger
}

func NewScheduler(
	cfg *config.Config,
	assignmentRepo repository.AssignmentRepository,
	lockRepo repository.AssignmentLockRepository,
	log *logger.Logger,
) *Scheduler {
	return &Scheduler{
		cron:           cron.New(),
		assignmentRepo: assignmentRepo,
		lockRepo:       lockRepo,
		cfg:            cfg,
		log:            log,
	}
}

func (s *Scheduler) Start() {
	s.log.Info("Starting lock sweep scheduler", "schedule", s.cfg.LockSweepSchedule)

	if _, err := s.cron.AddFunc(s.cfg.LockSweepSchedule, s.sweep); err != nil {
		s.log.Fatal("Failed to schedule lock sweep", "schedule", s.cfg.LockSweepSchedule, "error", err)
	}

	s.cron.Start()
}

func (s *Scheduler) Stop() {
	s.log.Info("Stopping lock sweep scheduler")
	s.cron.Stop()
}

func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	now := time.Now().UTC()

	removed, err := s.lockRepo.DeleteExpired(ctx, now)
	if err != nil {
		s.log.Error("Lock sweep failed", "error", err)
		return
	}

	reverted, err := s.assignmentRepo.RevertExpiredInProgress(ctx, now)
	if err != nil {
		s.log.Error("Failed to revert stalled assignments", "error", err)
		return
	}

	if removed > 0 || reverted > 0 {
		s.log.Info("Lock sweep completed",
			"locks_removed", removed,
			"assignments_reverted", reverted,
		)
	}
}
