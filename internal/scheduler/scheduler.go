package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the periodic idle-session retention sweep.
type Scheduler struct {
	cron      *cron.Cron
	ctx       context.Context
	cancel    context.CancelFunc
	sweepFunc func(ctx context.Context) (int, error)
}

func New(sweepFunc func(ctx context.Context) (int, error)) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:      cron.New(cron.WithLocation(time.UTC)),
		ctx:       ctx,
		cancel:    cancel,
		sweepFunc: sweepFunc,
	}
}

// Start registers the sweep at the given cron spec and starts the
// scheduler.
func (s *Scheduler) Start(spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		n, err := s.sweepFunc(s.ctx)
		if err != nil {
			log.Printf("session retention sweep failed: %v", err)
			return
		}
		if n > 0 {
			log.Printf("session retention sweep removed %d idle sessions", n)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("scheduler started, retention sweep at %q UTC", spec)
	return nil
}

// Stop drains running jobs before returning.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	log.Println("scheduler stopped")
}
