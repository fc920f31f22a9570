package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// Job is a named task run at a fixed interval.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler manages the periodic background jobs of the service
type Scheduler struct {
	scheduler *gocron.Scheduler
	ctx       context.Context
}

// New creates a scheduler whose jobs receive ctx.
func New(ctx context.Context) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	// A slow run (e.g. a sync waiting on the uploader) must not overlap the next one.
	s.SingletonModeAll()
	return &Scheduler{scheduler: s, ctx: ctx}
}

// Add registers job. Jobs with a non-positive interval are skipped.
func (s *Scheduler) Add(job Job) error {
	if job.Interval <= 0 {
		log.Printf("scheduler: job %s disabled", job.Name)
		return nil
	}
	_, err := s.scheduler.Every(job.Interval).Tag(job.Name).Do(func() {
		if err := job.Run(s.ctx); err != nil {
			log.Printf("scheduler: job %s: %v", job.Name, err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", job.Name, err)
	}
	return nil
}

// Jobs lists the registered job names.
func (s *Scheduler) Jobs() []string {
	names := make([]string, 0, len(s.scheduler.Jobs()))
	for _, job := range s.scheduler.Jobs() {
		names = append(names, job.Tags()...)
	}
	return names
}

// Start begins running all scheduled tasks in a non-blocking manner.
func (s *Scheduler) Start() {
	s.scheduler.StartAsync()
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}
