// Package scheduler runs the periodic maintenance jobs of the middleware:
// purging idle and over-age sessions from the database-backed store.
package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/open-xchange/appsuite-middleware-sub008/internal/config"
	"github.com/open-xchange/appsuite-middleware-sub008/internal/repository"
)

// Service owns the cron engine and the registered maintenance jobs.
type Service struct {
	opts     options
	cron     *cron.Cron
	sessions repository.SessionRepository
	conf     func() *config.Config
}

// New builds a scheduler over the session repository. The configuration
// snapshot is fetched on every run so timeout changes apply without restart.
func New(sessions repository.SessionRepository, conf func() *config.Config, opts ...Option) *Service {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	c := o.Cron
	if c == nil {
		c = cron.New(cron.WithLocation(o.Location))
	}
	return &Service{opts: o, cron: c, sessions: sessions, conf: conf}
}

// Start registers the jobs and launches the cron engine.
func (s *Service) Start() error {
	if _, err := s.cron.AddFunc(s.opts.Schedule, s.runSessionCleanup); err != nil {
		return fmt.Errorf("scheduler: registering session cleanup: %w", err)
	}
	s.cron.Start()
	s.opts.Logger.Printf("scheduler: started, session cleanup %s", s.opts.Schedule)
	return nil
}

// Stop halts the cron engine and waits for a running job to finish.
func (s *Service) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Service) runSessionCleanup() {
	cfg := s.conf()
	m := globalSchedulerMetrics()
	m.runs.Inc()
	timer := time.Now()

	removed := 0
	if cfg.Session.MaxAge > 0 {
		maxAge := time.Duration(cfg.Session.MaxAge) * time.Second
		n, err := s.sessions.DeleteByMaxAge(maxAge)
		if err != nil {
			s.opts.Logger.Printf("scheduler: removing over-age sessions: %v", err)
		} else {
			removed += n
		}
	}
	if cfg.Session.IdleTimeout > 0 {
		idle := time.Duration(cfg.Session.IdleTimeout) * time.Second
		n, err := s.sessions.DeleteExpired(idle)
		if err != nil {
			s.opts.Logger.Printf("scheduler: removing idle sessions: %v", err)
		} else {
			removed += n
		}
	}

	m.removed.Add(float64(removed))
	m.durations.Observe(time.Since(timer).Seconds())
	if removed > 0 {
		s.opts.Logger.Printf("scheduler: session cleanup removed %d sessions", removed)
	}
}
