package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// PurgeSchedule runs at the top of every hour.
const PurgeSchedule = "0 0 * * * *"

const purgeTimeout = time.Minute

// SessionPurger is implemented by *service.AuthService.
type SessionPurger interface {
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

type Scheduler struct {
	cron     *cron.Cron
	sessions SessionPurger
	log      zerolog.Logger
}

func NewScheduler(sessions SessionPurger, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		sessions: sessions,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(PurgeSchedule, s.purgeSessions); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the schedule and waits, up to ctx, for a running purge.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) purgeSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
	defer cancel()

	n, err := s.sessions.PurgeExpiredSessions(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("purge expired sessions failed")
		return
	}
	s.log.Info().Int64("removed", n).Msg("expired sessions purged")
}
