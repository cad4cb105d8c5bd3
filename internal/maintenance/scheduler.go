// Package maintenance runs periodic store upkeep on a cron schedule.
package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/schoolhouse-dev/schoolhouse/internal/store"
)

const (
	// Nightly planner-stats refresh, weekly file compaction.
	DefaultOptimizeSpec = "0 3 * * *"
	DefaultVacuumSpec   = "30 3 * * 0"

	jobTimeout = 10 * time.Minute
)

// Scheduler runs Optimize and Vacuum against the store on cron schedules.
type Scheduler struct {
	store *store.Store
	cron  *cron.Cron
}

// New creates a scheduler with the given cron specs; empty specs fall back
// to the defaults.
func New(s *store.Store, optimizeSpec, vacuumSpec string) (*Scheduler, error) {
	if optimizeSpec == "" {
		optimizeSpec = DefaultOptimizeSpec
	}
	if vacuumSpec == "" {
		vacuumSpec = DefaultVacuumSpec
	}

	sched := &Scheduler{store: s, cron: cron.New()}

	if _, err := sched.cron.AddFunc(optimizeSpec, sched.runOptimize); err != nil {
		return nil, err
	}
	if _, err := sched.cron.AddFunc(vacuumSpec, sched.runVacuum); err != nil {
		return nil, err
	}
	return sched, nil
}

// Start begins running scheduled jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Debug().Msg("Maintenance scheduler started")
}

// Stop halts scheduling and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Debug().Msg("Maintenance scheduler stopped")
}

func (s *Scheduler) runOptimize() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	if err := s.store.Optimize(ctx); err != nil {
		log.Warn().Err(err).Msg("Scheduled optimize failed")
		return
	}
	log.Debug().Msg("Scheduled optimize complete")
}

func (s *Scheduler) runVacuum() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	if err := s.store.Vacuum(ctx); err != nil {
		log.Warn().Err(err).Msg("Scheduled vacuum failed")
		return
	}
	log.Debug().Msg("Scheduled vacuum complete")
}
