package metrics

import (
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler drives the periodic human-readable drop-count report on a
// fixed interval using a cron-style scheduler rather than an ad hoc
// timer loop.
type Scheduler struct {
	sched gocron.Scheduler
}

func NewScheduler() (*Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &Scheduler{sched: sched}, nil
}

// ReportEvery registers fn to run on a fixed-interval duration,
// returning the snapshot formatting to the caller (typically a
// charmbracelet/log call).
func (s *Scheduler) ReportEvery(interval time.Duration, fn func()) error {
	_, err := s.sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(fn),
	)
	return err
}

func (s *Scheduler) Start() {
	s.sched.Start()
}

func (s *Scheduler) Stop() error {
	return s.sched.Shutdown()
}
