package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/ddpbfs.net/internal/adapter/logging"
	"gitlab.com/ddpbfs.net/internal/domain"
)

type fakeMirror struct {
	mu      sync.Mutex
	records map[string]domain.ClientRecord
	ttls    map[string]time.Duration
	failing bool
}

func newFakeMirror() *fakeMirror {
	return &fakeMirror{
		records: make(map[string]domain.ClientRecord),
		ttls:    make(map[string]time.Duration),
	}
}

func (f *fakeMirror) SaveClient(_ context.Context, c domain.ClientRecord, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("mirror down")
	}
	f.records[c.ID] = c
	f.ttls[c.ID] = ttl
	return nil
}

func (f *fakeMirror) RemoveClient(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, id)
	return nil
}

func (f *fakeMirror) GetAllClients(context.Context) ([]domain.ClientRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.ClientRecord, 0, len(f.records))
	for _, r := range f.records {
		out = append(out, r)
	}
	return out, nil
}

func newRegistry() *ClientRegistry {
	return NewClientRegistry(domain.InactivityThreshold, logging.NewNopLogger())
}

func TestUpsertCreatesAndRefreshes(t *testing.T) {
	r := newRegistry()
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	assert.Nil(t, r.Lookup("c1"))

	r.Upsert("c1", t0)
	c := r.Lookup("c1")
	require.NotNil(t, c)
	assert.Equal(t, t0, c.LastActivity)

	r.Upsert("c1", t0.Add(30*time.Second))
	assert.Equal(t, t0.Add(30*time.Second), r.Lookup("c1").LastActivity)
	assert.Equal(t, 1, r.Len())
}

func TestTouchOnlyRefreshesKnownClients(t *testing.T) {
	r := newRegistry()
	t0 := time.Now()

	assert.False(t, r.Touch("c1", t0))
	assert.Equal(t, 0, r.Len())

	r.Upsert("c1", t0)
	assert.True(t, r.Touch("c1", t0.Add(time.Minute)))
	assert.Equal(t, t0.Add(time.Minute), r.Lookup("c1").LastActivity)
}

func TestLookupReturnsCopy(t *testing.T) {
	r := newRegistry()
	t0 := time.Now()
	r.Upsert("c1", t0)

	c := r.Lookup("c1")
	c.LastActivity = t0.Add(-time.Hour)

	assert.Equal(t, t0, r.Lookup("c1").LastActivity)
}

func TestAssignSupersedesPreviousUnit(t *testing.T) {
	r := newRegistry()
	r.Upsert("c1", time.Now())

	first := domain.NewWorkUnit([]domain.Candidate{"a", "b"}, "blob")
	second := domain.NewWorkUnit([]domain.Candidate{"c", "d"}, "blob")
	require.NoError(t, r.Assign("c1", first))
	require.NoError(t, r.Assign("c1", second))

	evicted := r.Evict("c1")
	require.NotNil(t, evicted)
	assert.Equal(t, []domain.Candidate{"c", "d"}, evicted.Candidates())
}

func TestAssignUnknownClient(t *testing.T) {
	r := newRegistry()
	err := r.Assign("ghost", domain.NewWorkUnit([]domain.Candidate{"a"}, ""))
	assert.ErrorIs(t, err, ErrClientNotFound)
}

func TestReleaseDropsClientWithoutReturningWork(t *testing.T) {
	r := newRegistry()
	r.Upsert("c1", time.Now())
	require.NoError(t, r.Assign("c1", domain.NewWorkUnit([]domain.Candidate{"a"}, "")))

	r.Release("c1")

	assert.Nil(t, r.Lookup("c1"))
	assert.Nil(t, r.Evict("c1"))
	assert.Equal(t, 0, r.Len())
}

func TestEvictUnknownReturnsNil(t *testing.T) {
	assert.Nil(t, newRegistry().Evict("nobody"))
}

func TestReclaimRequeuesBeforeRemoval(t *testing.T) {
	r := newRegistry()
	t0 := time.Now()
	r.Upsert("c1", t0)
	require.NoError(t, r.Assign("c1", domain.NewWorkUnit([]domain.Candidate{"a", "b"}, "")))

	var seen []domain.Candidate
	ok := r.Reclaim("c1", t0.Add(domain.InactivityThreshold), func(u *domain.WorkUnit) {
		// still registered while requeueing
		assert.NotNil(t, r.clients["c1"])
		seen = u.Candidates()
	})

	assert.True(t, ok)
	assert.Equal(t, []domain.Candidate{"a", "b"}, seen)
	assert.Equal(t, 0, r.Len())
}

func TestReclaimSkipsRefreshedClient(t *testing.T) {
	r := newRegistry()
	t0 := time.Now()
	r.Upsert("c1", t0)

	called := false
	ok := r.Reclaim("c1", t0.Add(time.Second), func(*domain.WorkUnit) { called = true })

	assert.False(t, ok)
	assert.False(t, called)
	assert.False(t, r.Reclaim("ghost", t0, func(*domain.WorkUnit) { called = true }))
	assert.Equal(t, 1, r.Len())
}

func TestActivityBoundary(t *testing.T) {
	r := newRegistry()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r.Upsert("c1", t0)

	tests := []struct {
		name    string
		elapsed time.Duration
		active  bool
	}{
		{name: "just seen", elapsed: 0, active: true},
		{name: "one missed heartbeat", elapsed: 119 * time.Second, active: true},
		{name: "at threshold", elapsed: 120 * time.Second, active: false},
		{name: "past threshold", elapsed: 10 * time.Minute, active: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := t0.Add(tt.elapsed)
			snap := r.Snapshot(now)
			require.Len(t, snap, 1)
			assert.Equal(t, tt.active, snap[0].IsActive)
			assert.Equal(t, tt.active, len(r.Active(now)) == 1)
			assert.Equal(t, !tt.active, len(r.Expired(now)) == 1)
		})
	}
}

func TestMirrorReceivesChanges(t *testing.T) {
	mirror := newFakeMirror()
	r := NewClientRegistry(time.Minute, logging.NewNopLogger(), WithMirror(mirror))

	r.Upsert("c1", time.Now())
	require.NoError(t, r.Assign("c1", domain.NewWorkUnit([]domain.Candidate{"a", "b", "c"}, "")))

	records, err := mirror.GetAllClients(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 3, records[0].AssignedCount)
	assert.Equal(t, time.Minute, mirror.ttls["c1"])

	r.Evict("c1")
	records, _ = mirror.GetAllClients(context.Background())
	assert.Empty(t, records)
}

func TestMirrorFailureDoesNotAffectRegistry(t *testing.T) {
	mirror := newFakeMirror()
	mirror.failing = true
	r := NewClientRegistry(time.Minute, logging.NewNopLogger(), WithMirror(mirror))

	r.Upsert("c1", time.Now())
	assert.NotNil(t, r.Lookup("c1"))
}

func TestLateMirrorSaveAfterRelease(t *testing.T) {
	mirror := newFakeMirror()
	r := NewClientRegistry(time.Minute, logging.NewNopLogger(), WithMirror(mirror))

	r.Upsert("c1", time.Now())
	r.Release("c1")
	// a Touch that lost the race with Release lands its mirror write afterwards
	r.save("c1")

	records, err := mirror.GetAllClients(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestLateMirrorRemoveAfterReRegistration(t *testing.T) {
	mirror := newFakeMirror()
	r := NewClientRegistry(time.Minute, logging.NewNopLogger(), WithMirror(mirror))

	r.Upsert("c1", time.Now())
	// the remove from an earlier Release arrives after c1 came back
	r.remove("c1")

	records, err := mirror.GetAllClients(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "c1", records[0].ID)
}

func TestConcurrentMirrorWritesMatchRegistry(t *testing.T) {
	mirror := newFakeMirror()
	r := NewClientRegistry(time.Minute, logging.NewNopLogger(), WithMirror(mirror))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		r.Upsert("c1", time.Now())
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.Touch("c1", time.Now())
		}()
		go func() {
			defer wg.Done()
			r.Release("c1")
		}()
		wg.Wait()

		records, err := mirror.GetAllClients(context.Background())
		require.NoError(t, err)
		assert.Empty(t, records, "iteration %d", i)
	}
}

func TestThreshold(t *testing.T) {
	assert.Equal(t, 90*time.Second, NewClientRegistry(90*time.Second, logging.NewNopLogger()).Threshold())
}

func TestConcurrentAccess(t *testing.T) {
	r := newRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("c%d", i%5)
			r.Upsert(id, time.Now())
			_ = r.Assign(id, domain.NewWorkUnit([]domain.Candidate{"a"}, ""))
			_ = r.Snapshot(time.Now())
			if i%7 == 0 {
				r.Evict(id)
			}
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, r.Len(), 5)
}
