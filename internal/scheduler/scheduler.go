package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	logx "restreamctl/pkg/logx"
)

type job struct {
	name  string
	sched cron.Schedule
	next  time.Time
	run   func(ctx context.Context) error

	lastRun time.Time
	lastErr string
}

// JobStatus is a point-in-time view of one registered job.
type JobStatus struct {
	Name    string
	Next    time.Time
	LastRun time.Time
	LastErr string
}

// Scheduler evaluates registered jobs when asked. Job errors are logged and
// swallowed; a failing job stays scheduled.
type Scheduler struct {
	log    logx.Logger
	loc    *time.Location
	parser cron.Parser
	jobs   []*job

	// nowFn is swapped out in tests.
	nowFn func() time.Time
}

func New(loc *time.Location, log logx.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Scheduler{
		log:    log,
		loc:    loc,
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
		nowFn:  time.Now,
	}
}

// Location returns the location daily times are evaluated in.
func (s *Scheduler) Location() *time.Location { return s.loc }

// AddDaily registers a job firing once per day at the given "HH:MM".
func (s *Scheduler) AddDaily(name, clock string, run func(ctx context.Context) error) error {
	spec, err := dailySpec(clock)
	if err != nil {
		return fmt.Errorf("job %s: %w", name, err)
	}
	sched, err := s.parser.Parse(spec)
	if err != nil {
		return fmt.Errorf("job %s: %w", name, err)
	}
	s.add(name, sched, run)
	return nil
}

// AddEvery registers a fixed-interval job. Intervals below a second are
// rounded up by cron.Every.
func (s *Scheduler) AddEvery(name string, every time.Duration, run func(ctx context.Context) error) error {
	if every <= 0 {
		return fmt.Errorf("job %s: interval must be > 0", name)
	}
	s.add(name, cron.Every(every), run)
	return nil
}

func (s *Scheduler) add(name string, sched cron.Schedule, run func(ctx context.Context) error) {
	now := s.nowFn().In(s.loc)
	j := &job{name: name, sched: sched, next: sched.Next(now), run: run}
	s.jobs = append(s.jobs, j)
	s.log.Info("job scheduled", logx.String("job", name), logx.Time("next", j.next))
}

// Len returns the number of registered jobs.
func (s *Scheduler) Len() int { return len(s.jobs) }

// RunPending runs every job whose fire time has passed, once, and returns the
// number of jobs run. A late tick fires an overdue job a single time; missed
// intermediate occurrences are not replayed.
func (s *Scheduler) RunPending(ctx context.Context, now time.Time) int {
	now = now.In(s.loc)
	ran := 0
	for _, j := range s.jobs {
		if now.Before(j.next) {
			continue
		}
		ran++
		j.lastRun = now
		j.lastErr = ""
		if err := j.run(ctx); err != nil {
			j.lastErr = err.Error()
			s.log.Error("job failed", logx.String("job", j.name), logx.Err(err))
		}
		j.next = j.sched.Next(now)
		s.log.Debug("job ran", logx.String("job", j.name), logx.Time("next", j.next))
	}
	return ran
}

// Snapshot reports all registered jobs in registration order.
func (s *Scheduler) Snapshot() []JobStatus {
	out := make([]JobStatus, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, JobStatus{
			Name:    j.name,
			Next:    j.next,
			LastRun: j.lastRun,
			LastErr: j.lastErr,
		})
	}
	return out
}
