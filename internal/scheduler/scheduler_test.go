package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"taskhub/internal/pkg/config"
	"taskhub/internal/service"
)

type fakeReconciler struct {
	runs atomic.Int32
	err  error
}

func (f *fakeReconciler) Run(ctx context.Context) (*service.ReconcileReport, error) {
	f.runs.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("missing deadline")
	}
	return &service.ReconcileReport{}, f.err
}

func TestStart_Disabled(t *testing.T) {
	rec := &fakeReconciler{}
	s := NewScheduler(rec, zap.NewNop())

	require.NoError(t, s.Start(&config.SchedulerConfig{Enabled: false}))
	assert.Empty(t, s.Entries())
	s.Stop()
}

func TestStart_RegistersReconcileJob(t *testing.T) {
	rec := &fakeReconciler{}
	s := NewScheduler(rec, zap.NewNop())

	require.NoError(t, s.Start(&config.SchedulerConfig{Enabled: true, ReconcileCron: "*/30 * * * * *"}))
	defer s.Stop()

	_, ok := s.Entries()[jobReconcile]
	assert.True(t, ok)
}

func TestStart_DefaultCron(t *testing.T) {
	s := NewScheduler(&fakeReconciler{}, zap.NewNop())

	require.NoError(t, s.Start(&config.SchedulerConfig{Enabled: true}))
	defer s.Stop()

	assert.Len(t, s.Entries(), 1)
}

func TestStart_InvalidCron(t *testing.T) {
	s := NewScheduler(&fakeReconciler{}, zap.NewNop())
	assert.Error(t, s.Start(&config.SchedulerConfig{Enabled: true, ReconcileCron: "not a cron"}))
}

func TestTriggerReconcile(t *testing.T) {
	rec := &fakeReconciler{}
	s := NewScheduler(rec, zap.NewNop())

	require.NoError(t, s.TriggerReconcile())
	assert.Equal(t, int32(1), rec.runs.Load())

	rec.err = errors.New("db down")
	assert.EqualError(t, s.TriggerReconcile(), "db down")
}
