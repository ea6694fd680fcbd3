package scheduler_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/snowline-etl-service/internal/domain"
	"github.com/couchcryptid/snowline-etl-service/internal/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrchestrator struct {
	name string
	ran  chan struct{}
}

func (f *fakeOrchestrator) Name() string { return f.name }

func (f *fakeOrchestrator) Run(context.Context) domain.RunMetrics {
	f.ran <- struct{}{}
	return domain.RunMetrics{Pipeline: f.name, Status: domain.RunCompleted}
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestScheduler_RunNow(t *testing.T) {
	forecast := &fakeOrchestrator{name: "forecast-refresh", ran: make(chan struct{}, 1)}
	conditions := &fakeOrchestrator{name: "conditions-refresh", ran: make(chan struct{}, 1)}

	s, err := scheduler.New([]scheduler.Job{
		{Spec: "0 */3 * * *", Orchestrator: forecast},
		{Spec: "0 * * * *", Orchestrator: conditions},
	}, discard())
	require.NoError(t, err)
	s.Start()
	t.Cleanup(s.Stop)

	require.NoError(t, s.RunNow("conditions-refresh"))

	select {
	case <-conditions.ran:
	case <-time.After(5 * time.Second):
		t.Fatal("conditions-refresh did not run")
	}
	assert.Empty(t, forecast.ran)
}

func TestScheduler_InvalidSpec(t *testing.T) {
	o := &fakeOrchestrator{name: "snotel-daily", ran: make(chan struct{}, 1)}
	_, err := scheduler.New([]scheduler.Job{{Spec: "every morning", Orchestrator: o}}, discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "snotel-daily")
}

func TestScheduler_UnknownTag(t *testing.T) {
	o := &fakeOrchestrator{name: "snotel-daily", ran: make(chan struct{}, 1)}
	s, err := scheduler.New([]scheduler.Job{{Spec: "30 6 * * *", Orchestrator: o}}, discard())
	require.NoError(t, err)
	t.Cleanup(s.Stop)

	err = s.RunNow("forecast-refresh")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
