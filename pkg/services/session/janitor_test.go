package session

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/de-tools/wasteops/pkg/services/navctx"
	"github.com/de-tools/wasteops/pkg/services/reports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPruner struct {
	mock.Mock
}

func (m *MockPruner) Prune(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClockedManager(t *testing.T, backend Backend, clock *fakeClock) *Manager {
	t.Helper()
	registry, err := reports.NewDefaultRegistry()
	require.NoError(t, err)
	m, err := NewManager(backend, registry, new(MockFetcher), origin, WithClock(clock.Now))
	require.NoError(t, err)
	return m
}

func TestJanitor_Sweep(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	backend := NewMemoryBackend()
	m := newClockedManager(t, backend, clock)

	idle, _, err := m.Open(ctx, "", url.Values{"city": {"Pune"}})
	require.NoError(t, err)
	view := idle.View(reports.Catalog()[0])

	clock.Advance(20 * time.Minute)
	active, _, err := m.Open(ctx, "", nil)
	require.NoError(t, err)

	clock.Advance(15 * time.Minute)

	pruner := new(MockPruner)
	pruner.On("Prune", mock.Anything, clock.Now().Add(-24*time.Hour)).Return(int64(3), nil).Once()

	j := NewJanitor(m, pruner, JanitorConfig{IdleTTL: 30 * time.Minute, Retention: 24 * time.Hour})
	p := j.Sweep(ctx)

	assert.Equal(t, 1, p.Evicted)
	assert.Equal(t, int64(3), p.Pruned)
	assert.Equal(t, 1, p.Live)
	pruner.AssertExpectations(t)

	_, err = view.Load(ctx, reports.Params{})
	assert.ErrorIs(t, err, reports.ErrClosed)

	t.Run("evicted session is restored from storage", func(t *testing.T) {
		restored, fresh, err := m.Open(ctx, idle.ID, nil)
		require.NoError(t, err)
		assert.True(t, fresh)
		assert.Equal(t, "Pune", restored.Context.Snapshot().CityName())
	})

	t.Run("active session survives", func(t *testing.T) {
		again, fresh, err := m.Open(ctx, active.ID, nil)
		require.NoError(t, err)
		assert.False(t, fresh)
		assert.Same(t, active, again)
	})
}

func TestJanitor_SweepPruneError(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	m := newClockedManager(t, NewMemoryBackend(), clock)

	pruner := new(MockPruner)
	pruner.On("Prune", mock.Anything, mock.Anything).Return(int64(0), errors.New("disk I/O error"))

	j := NewJanitor(m, pruner, JanitorConfig{Retention: time.Hour})
	p := j.Sweep(context.Background())

	assert.Zero(t, p.Pruned)
	assert.Zero(t, p.Evicted)
}

func TestJanitor_ZeroRetentionKeepsStorage(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	m := newClockedManager(t, NewMemoryBackend(), clock)
	pruner := new(MockPruner)

	j := NewJanitor(m, pruner, JanitorConfig{IdleTTL: time.Minute})
	j.Sweep(context.Background())

	pruner.AssertNotCalled(t, "Prune", mock.Anything, mock.Anything)
}

func TestJanitor_Run(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	backend := NewMemoryBackend()
	m := newClockedManager(t, backend, clock)

	_, _, err := m.Open(context.Background(), "", nil)
	require.NoError(t, err)
	clock.Advance(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	j := NewJanitor(m, nil, JanitorConfig{SweepInterval: 5 * time.Millisecond, IdleTTL: time.Minute})
	go j.Run(ctx)

	select {
	case p := <-j.Progress():
		assert.Equal(t, 1, p.Evicted)
		assert.Zero(t, p.Live)
	case <-time.After(time.Second):
		t.Fatal("no sweep reported")
	}

	cancel()
	select {
	case <-j.Done():
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
	assert.Zero(t, m.Live())
}

func TestManager_EvictIdleKeepsPersistedContext(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	backend := NewMemoryBackend()
	m := newClockedManager(t, backend, clock)
	ctx := context.Background()

	s, _, err := m.Open(ctx, "", url.Values{"date": {"2024-02-28"}})
	require.NoError(t, err)

	clock.Advance(time.Minute)
	assert.Equal(t, []string{s.ID}, m.EvictIdle(clock.Now()))
	assert.Empty(t, m.EvictIdle(clock.Now()))

	storage, err := backend.Storage(s.ID)
	require.NoError(t, err)
	stored, err := storage.Get(ctx, navctx.KeyDate)
	require.NoError(t, err)
	assert.Equal(t, `"2024-02-28"`, stored)
}
