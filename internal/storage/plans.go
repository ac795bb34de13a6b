package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/goalcal/goalcal/internal/types"
)

const (
	// HistoryKey is where the plan collection lives in the KV
	HistoryKey = "goal_calendar_history"

	// DefaultCapacity is the number of plans kept before the oldest is evicted
	DefaultCapacity = 20
)

var (
	// ErrPlanNotFound is returned by Update for an unknown goal id
	ErrPlanNotFound = errors.New("plan not found")

	// ErrUnavailable wraps backend read failures
	ErrUnavailable = errors.New("plan storage unavailable")
)

// Options configures a PlanStore
type Options struct {
	Capacity int              // default: DefaultCapacity
	Now      func() time.Time // default: time.Now
}

// PlanStore is the bounded, most-recent-first plan history.
//
// The collection is a single JSON array under HistoryKey. Reads tolerate
// corruption record by record. Storage failures on Save, List, Delete and
// Clear are logged and degrade to an empty read or a skipped write, so the
// planning flow never stops on a storage problem. A write always starts from
// a successful read: when the backend cannot be read, nothing is written, so
// a transient failure never replaces the stored history. Within one process
// all operations are serialized; across processes the last write wins.
type PlanStore struct {
	mu       sync.Mutex
	kv       KV
	capacity int
	now      func() time.Time
}

// NewPlanStore wraps kv
func NewPlanStore(kv KV, opts *Options) *PlanStore {
	s := &PlanStore{kv: kv, capacity: DefaultCapacity, now: time.Now}
	if opts != nil {
		if opts.Capacity > 0 {
			s.capacity = opts.Capacity
		}
		if opts.Now != nil {
			s.now = opts.Now
		}
	}
	return s
}

// Capacity returns the maximum number of plans kept
func (s *PlanStore) Capacity() int {
	return s.capacity
}

// Save inserts plan at the front of the history, or replaces the stored plan
// with the same goal id in place. The oldest plans beyond capacity are
// evicted. plan.UpdatedAt is set to the store clock.
func (s *PlanStore) Save(ctx context.Context, plan *types.GoalPlan) {
	if plan == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	plan.UpdatedAt = now
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = now
	}
	plan.Normalize()

	plans, err := s.load(ctx)
	if err != nil {
		slog.Error("plan not saved, history unreadable", "goalId", plan.GoalID, "error", err)
		return
	}
	plans = upsert(plans, plan.Clone())
	if len(plans) > s.capacity {
		for _, evicted := range plans[s.capacity:] {
			slog.Info("evicting oldest plan", "goalId", evicted.GoalID, "capacity", s.capacity)
		}
		plans = plans[:s.capacity]
	}

	if err := s.write(ctx, plans); err != nil {
		slog.Error("failed to save plan", "goalId", plan.GoalID, "error", err)
	}
}

// List returns every stored plan, newest createdAt first.
func (s *PlanStore) List(ctx context.Context) []*types.GoalPlan {
	s.mu.Lock()
	defer s.mu.Unlock()

	plans := s.loadOrEmpty(ctx)
	sort.SliceStable(plans, func(i, j int) bool {
		return plans[i].CreatedAt.After(plans[j].CreatedAt)
	})
	return plans
}

// Get returns the plan with goalID.
func (s *PlanStore) Get(ctx context.Context, goalID string) (*types.GoalPlan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.loadOrEmpty(ctx) {
		if p.GoalID == goalID {
			return p, true
		}
	}
	return nil, false
}

// Delete removes the plan with goalID and reports whether it was present.
func (s *PlanStore) Delete(ctx context.Context, goalID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	plans, err := s.load(ctx)
	if err != nil {
		slog.Error("plan not deleted, history unreadable", "goalId", goalID, "error", err)
		return false
	}
	kept := plans[:0]
	found := false
	for _, p := range plans {
		if p.GoalID == goalID {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return false
	}

	if err := s.write(ctx, kept); err != nil {
		slog.Error("failed to delete plan", "goalId", goalID, "error", err)
		return false
	}
	return true
}

// Clear removes every plan.
func (s *PlanStore) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Delete(ctx, HistoryKey); err != nil {
		slog.Error("failed to clear plan history", "error", err)
	}
}

// Update applies fn to the stored plan with goalID and saves the result in
// place. fn sees a copy; if it returns an error nothing is written. Unlike
// the other operations, a failed read or write is returned.
func (s *PlanStore) Update(ctx context.Context, goalID string, fn func(*types.GoalPlan) error) (*types.GoalPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plans, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexOf(plans, goalID)
	if idx < 0 {
		return nil, ErrPlanNotFound
	}

	updated := plans[idx].Clone()
	if err := fn(updated); err != nil {
		return nil, err
	}
	// The mutator may not re-key the plan
	updated.GoalID = goalID
	updated.UpdatedAt = s.now()
	updated.Normalize()
	plans[idx] = updated

	if err := s.write(ctx, plans); err != nil {
		return nil, err
	}
	return updated.Clone(), nil
}

// Close releases the backend
func (s *PlanStore) Close() error {
	return s.kv.Close()
}

// loadOrEmpty is load for the read-only operations: a backend failure reads
// as an empty history.
func (s *PlanStore) loadOrEmpty(ctx context.Context) []*types.GoalPlan {
	plans, err := s.load(ctx)
	if err != nil {
		slog.Error("failed to read plan history", "error", err)
		return []*types.GoalPlan{}
	}
	return plans
}

// load reads the collection in stored order, skipping records that do not
// decode. An absent or non-array blob is an empty history; only a backend
// failure is an error.
func (s *PlanStore) load(ctx context.Context) ([]*types.GoalPlan, error) {
	blob, ok, err := s.kv.Get(ctx, HistoryKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !ok || len(blob) == 0 {
		return []*types.GoalPlan{}, nil
	}

	var records []json.RawMessage
	if err := json.Unmarshal(blob, &records); err != nil {
		slog.Warn("plan history is not a JSON array, treating as empty", "error", err)
		return []*types.GoalPlan{}, nil
	}

	plans := make([]*types.GoalPlan, 0, len(records))
	for i, raw := range records {
		if string(raw) == "null" {
			slog.Warn("skipping null plan record", "index", i)
			continue
		}
		var plan types.GoalPlan
		if err := json.Unmarshal(raw, &plan); err != nil {
			slog.Warn("skipping unreadable plan record", "index", i, "error", err)
			continue
		}
		plan.Normalize()
		plans = append(plans, &plan)
	}
	return plans, nil
}

func (s *PlanStore) write(ctx context.Context, plans []*types.GoalPlan) error {
	if plans == nil {
		plans = []*types.GoalPlan{}
	}
	blob, err := json.Marshal(plans)
	if err != nil {
		return err
	}
	return s.kv.Put(ctx, HistoryKey, blob)
}

func indexOf(plans []*types.GoalPlan, goalID string) int {
	for i, p := range plans {
		if p.GoalID == goalID {
			return i
		}
	}
	return -1
}

func upsert(plans []*types.GoalPlan, plan *types.GoalPlan) []*types.GoalPlan {
	if idx := indexOf(plans, plan.GoalID); idx >= 0 {
		plans[idx] = plan
		return plans
	}
	return append([]*types.GoalPlan{plan}, plans...)
}
