package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goalcal/goalcal/internal/types"
)

type testClock struct {
	t time.Time
}

func (c *testClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestStore(t *testing.T) (*PlanStore, *MemoryKV) {
	t.Helper()
	kv := NewMemoryKV()
	clock := &testClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	return NewPlanStore(kv, &Options{Now: clock.Now}), kv
}

func samplePlan(id string, created time.Time) *types.GoalPlan {
	return &types.GoalPlan{
		GoalID:    id,
		GoalTitle: "Plan " + id,
		StartDate: "2024-01-01",
		Phases: []types.Phase{{
			PhaseID:   "phase_1",
			PhaseName: "Basics",
			Tasks: []types.Task{{
				TaskID: "task_1",
				Title:  "Start",
				DailySchedule: []types.DailySchedule{
					{Date: "2024-01-01", TimeSlot: "09:00-10:30", Content: "Read", Type: types.TypeStudy, Duration: 90},
				},
			}},
		}},
		CreatedAt: created,
	}
}

func TestPlanStore_SaveListRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	plan := samplePlan("a", base)
	store.Save(ctx, plan)

	plans := store.List(ctx)
	require.Len(t, plans, 1)
	assert.Equal(t, "a", plans[0].GoalID)
	assert.Equal(t, plan.Phases, plans[0].Phases)
	assert.False(t, plans[0].UpdatedAt.IsZero())
	assert.True(t, plan.UpdatedAt.Equal(plans[0].UpdatedAt))
	assert.NotNil(t, plans[0].Milestones)
}

func TestPlanStore_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	store.Save(ctx, samplePlan("old", base))
	store.Save(ctx, samplePlan("newest", base.Add(2*time.Hour)))
	store.Save(ctx, samplePlan("middle", base.Add(time.Hour)))

	var ids []string
	for _, p := range store.List(ctx) {
		ids = append(ids, p.GoalID)
	}
	assert.Equal(t, []string{"newest", "middle", "old"}, ids)
}

func TestPlanStore_EvictsOldestBeyondCapacity(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 21; i++ {
		store.Save(ctx, samplePlan(fmt.Sprintf("p%02d", i), base.Add(time.Duration(i)*time.Minute)))
	}

	plans := store.List(ctx)
	require.Len(t, plans, DefaultCapacity)
	_, ok := store.Get(ctx, "p00")
	assert.False(t, ok, "first saved plan should be evicted")
	_, ok = store.Get(ctx, "p20")
	assert.True(t, ok)
}

func TestPlanStore_UpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	store.Save(ctx, samplePlan("a", base))
	store.Save(ctx, samplePlan("b", base.Add(time.Minute)))

	edited := samplePlan("a", base)
	edited.GoalTitle = "Renamed"
	store.Save(ctx, edited)
	store.Save(ctx, edited)

	plans := store.List(ctx)
	require.Len(t, plans, 2)
	got, ok := store.Get(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, "Renamed", got.GoalTitle)
}

func TestPlanStore_UpdateKeepsPositionForEviction(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	store := NewPlanStore(kv, &Options{Capacity: 2})
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	store.Save(ctx, samplePlan("a", base))
	store.Save(ctx, samplePlan("b", base.Add(time.Minute)))
	// Re-saving "a" replaces it in place, so it is still the oldest
	store.Save(ctx, samplePlan("a", base))
	store.Save(ctx, samplePlan("c", base.Add(2*time.Minute)))

	_, ok := store.Get(ctx, "a")
	assert.False(t, ok)
	assert.Len(t, store.List(ctx), 2)
}

func TestPlanStore_DeleteAndClear(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	store.Save(ctx, samplePlan("a", base))
	store.Save(ctx, samplePlan("b", base))

	assert.True(t, store.Delete(ctx, "a"))
	assert.False(t, store.Delete(ctx, "a"))
	assert.Len(t, store.List(ctx), 1)

	store.Clear(ctx)
	assert.Empty(t, store.List(ctx))
}

func TestPlanStore_Update(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.Save(ctx, samplePlan("a", base))

	updated, err := store.Update(ctx, "a", func(p *types.GoalPlan) error {
		return p.SetCompleted(types.ScheduleRef{}, true)
	})
	require.NoError(t, err)
	assert.True(t, updated.Phases[0].Tasks[0].DailySchedule[0].Completed)

	got, _ := store.Get(ctx, "a")
	assert.True(t, got.Phases[0].Tasks[0].DailySchedule[0].Completed)

	_, err = store.Update(ctx, "missing", func(*types.GoalPlan) error { return nil })
	assert.ErrorIs(t, err, ErrPlanNotFound)

	boom := errors.New("rejected")
	_, err = store.Update(ctx, "a", func(p *types.GoalPlan) error {
		p.GoalTitle = "should not persist"
		return boom
	})
	assert.ErrorIs(t, err, boom)
	got, _ = store.Get(ctx, "a")
	assert.Equal(t, "Plan a", got.GoalTitle)
}

func TestPlanStore_TolerantRead(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		blob    string
		wantIDs []string
	}{
		{"not json", `{{{`, nil},
		{"object instead of array", `{"goalId": "a"}`, nil},
		{"bad record skipped", `[{"goalId": "a", "goalTitle": "ok"}, {"goalId": 5}, null, {"goalId": "b"}]`, []string{"a", "b"}},
		{"missing fields default", `[{"goalId": "a"}]`, []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, kv := newTestStore(t)
			require.NoError(t, kv.Put(ctx, HistoryKey, []byte(tt.blob)))

			plans := store.List(ctx)
			var ids []string
			for _, p := range plans {
				ids = append(ids, p.GoalID)
				assert.NotNil(t, p.Phases)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

type brokenKV struct{}

var errDisk = errors.New("disk on fire")

func (brokenKV) Get(context.Context, string) ([]byte, bool, error) { return nil, false, errDisk }
func (brokenKV) Put(context.Context, string, []byte) error { return errDisk }
func (brokenKV) Delete(context.Context, string) error { return errDisk }
func (brokenKV) Close() error { return nil }

func TestPlanStore_BackendFailuresDegrade(t *testing.T) {
	ctx := context.Background()
	store := NewPlanStore(&brokenKV{}, nil)

	store.Save(ctx, samplePlan("a", time.Now()))
	assert.Empty(t, store.List(ctx))
	assert.False(t, store.Delete(ctx, "a"))
	store.Clear(ctx)

	_, err := store.Update(ctx, "a", func(*types.GoalPlan) error { return nil })
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, errDisk)
}

// lockedKV fails the next failGets reads, as SQLite does while another
// process holds the write lock.
type lockedKV struct {
	*MemoryKV
	failGets int
}

var errLocked = errors.New("database is locked")

func (k *lockedKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if k.failGets > 0 {
		k.failGets--
		return nil, false, errLocked
	}
	return k.MemoryKV.Get(ctx, key)
}

func TestPlanStore_UnreadableHistoryIsNotOverwritten(t *testing.T) {
	ctx := context.Background()
	kv := &lockedKV{MemoryKV: NewMemoryKV()}
	store := NewPlanStore(kv, nil)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		store.Save(ctx, samplePlan(fmt.Sprintf("p%d", i), base.Add(time.Duration(i)*time.Hour)))
	}
	require.Len(t, store.List(ctx), 5)

	kv.failGets = 1
	store.Save(ctx, samplePlan("late", base.Add(24*time.Hour)))
	assert.Len(t, store.List(ctx), 5, "history must survive a failed read")
	_, ok := store.Get(ctx, "late")
	assert.False(t, ok)

	kv.failGets = 1
	assert.False(t, store.Delete(ctx, "p0"))
	assert.Len(t, store.List(ctx), 5)

	kv.failGets = 1
	_, err := store.Update(ctx, "p1", func(p *types.GoalPlan) error {
		p.SetProgress(50)
		return nil
	})
	assert.ErrorIs(t, err, ErrUnavailable)

	store.Save(ctx, samplePlan("late", base.Add(24*time.Hour)))
	assert.Len(t, store.List(ctx), 6)
}

func TestOpen_SQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "goalcal.db")

	store, err := Open(ctx, &Config{Backend: BackendSQLite, Path: path, Capacity: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, store.Capacity())
	store.Save(ctx, samplePlan("a", time.Now()))
	require.NoError(t, store.Close())

	reopened, err := Open(ctx, &Config{Path: path})
	require.NoError(t, err)
	defer reopened.Close()

	got, ok := reopened.Get(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, "Plan a", got.GoalTitle)
}

func TestOpen_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := Open(ctx, nil)
	assert.Error(t, err)

	_, err = Open(ctx, &Config{Backend: "etcd"})
	assert.Error(t, err)

	_, err = Open(ctx, &Config{Backend: BackendSQLite})
	assert.Error(t, err)

	store, err := Open(ctx, &Config{Backend: BackendMemory})
	require.NoError(t, err)
	assert.Equal(t, DefaultCapacity, store.Capacity())
}
