package bar

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"barkeep/internal/cache"
	applog "barkeep/internal/log"
	"barkeep/internal/usage"
	"barkeep/models"
)

// View holds the state of one open ingredient list. Usage results arriving
// after Close are discarded rather than applied.
type View struct {
	svc  *Service
	key  cache.ListKey
	live atomic.Bool

	mu          sync.Mutex
	ingredients []models.Ingredient
	usage       usage.Map
	degraded    bool
	request     string
}

// ViewState is a copy of what a view currently shows.
type ViewState struct {
	Key           cache.ListKey       `json:"list"`
	Ingredients   []models.Ingredient `json:"ingredients"`
	Usage         usage.Map           `json:"usage"`
	UsageDegraded bool                `json:"usage_degraded"`
}

// OpenView starts a view over one of the cached lists.
func (s *Service) OpenView(key cache.ListKey) *View {
	v := &View{svc: s, key: key, usage: usage.Map{}}
	v.live.Store(true)
	return v
}

// Load fills the view with its ingredient list.
func (v *View) Load(ctx context.Context) error {
	ingredients, err := v.svc.Ingredients(ctx, v.key)
	if err != nil {
		return err
	}
	if !v.live.Load() {
		return nil
	}
	v.mu.Lock()
	v.ingredients = ingredients
	v.mu.Unlock()
	return nil
}

// RefreshUsage loads the usage inputs and dispatches the computation. The
// returned channel is closed once the outcome has been applied or dropped.
// Only the most recent request of a view is applied.
func (v *View) RefreshUsage(ctx context.Context) (<-chan struct{}, error) {
	cocktails, bar, err := v.svc.usageInputs(ctx, scoped(v.key))
	if err != nil {
		return nil, err
	}

	future := v.svc.scheduler.Submit(cocktails, bar)
	v.mu.Lock()
	v.request = future.ID()
	v.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-future.Done()
		v.apply(ctx, future)
	}()
	return done, nil
}

func (v *View) apply(ctx context.Context, future *usage.Future) {
	if !v.live.Load() {
		applog.Debug(ctx, "dropping usage for closed view", "list", v.key, "request", future.ID())
		return
	}

	result, err := future.Result()

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.request != future.ID() {
		return
	}
	if err != nil {
		if errors.Is(err, usage.ErrWorkerDispatch) {
			applog.Warn(ctx, "usage unavailable, showing zero counts", "list", v.key, "error", err)
		}
		v.usage = usage.Map{}
		v.degraded = true
		return
	}
	v.usage = result
	v.degraded = false
}

// Snapshot copies the current state of the view.
func (v *View) Snapshot() ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()

	ingredients := make([]models.Ingredient, len(v.ingredients))
	copy(ingredients, v.ingredients)
	counts := make(usage.Map, len(v.usage))
	for id, u := range v.usage {
		counts[id] = u
	}
	return ViewState{Key: v.key, Ingredients: ingredients, Usage: counts, UsageDegraded: v.degraded}
}

// Close tears the view down. Pending usage results are discarded.
func (v *View) Close() {
	v.live.Store(false)
}

// Live reports whether the view is still open.
func (v *View) Live() bool {
	return v.live.Load()
}
