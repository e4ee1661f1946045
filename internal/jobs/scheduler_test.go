package jobs

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePurger struct {
	purgeFn func(ctx context.Context) (int64, error)
}

func (f fakePurger) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return f.purgeFn(ctx)
}

func TestPurgeSchedule_IsHourly(t *testing.T) {
	sched, err := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow).Parse(PurgeSchedule)
	require.NoError(t, err)

	from := time.Date(2024, 6, 10, 12, 30, 15, 0, time.UTC)
	next := sched.Next(from)
	assert.Equal(t, time.Date(2024, 6, 10, 13, 0, 0, 0, time.UTC), next)
	assert.Equal(t, time.Hour, sched.Next(next).Sub(next))
}

func TestPurgeSessions_LogsOutcome(t *testing.T) {
	tests := []struct {
		name    string
		purgeFn func(ctx context.Context) (int64, error)
		want    string
	}{
		{
			name:    "removed",
			purgeFn: func(context.Context) (int64, error) { return 4, nil },
			want:    `"removed":4`,
		},
		{
			name:    "failure",
			purgeFn: func(context.Context) (int64, error) { return 0, errors.New("db down") },
			want:    `"error":"db down"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			s := NewScheduler(fakePurger{purgeFn: func(ctx context.Context) (int64, error) {
				_, hasDeadline := ctx.Deadline()
				assert.True(t, hasDeadline)
				return tt.purgeFn(ctx)
			}}, zerolog.New(&buf))

			s.purgeSessions()
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler(fakePurger{purgeFn: func(context.Context) (int64, error) { return 0, nil }}, zerolog.Nop())
	require.NoError(t, s.Start())

	entries := s.cron.Entries()
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Next.IsZero())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}
