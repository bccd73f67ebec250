// Package sync owns the in-memory financial profile and keeps it
// reconciled with the remote store and the identity-scoped local cache.
// The engine is local-first: every mutation lands in memory and in the
// cache immediately, while remote convergence happens on a debounce
// timer and is allowed to fail silently.
package sync

import (
	"context"
	"math"
	stdsync "sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"finresolve/internal/cache"
	"finresolve/internal/logger"
	"finresolve/internal/models"
	"finresolve/internal/store"
)

// State is the engine's lifecycle state.
type State string

const (
	StateAuthPending State = "auth_pending"
	StateLoading     State = "loading"
	StateReady       State = "ready"
)

// Status reports how the last remote interaction went. The engine never
// raises persistence failures to callers; this is the read model that
// makes the silent-failure policy observable.
type Status string

const (
	// StatusOk means the last remote load or persist succeeded.
	StatusOk Status = "ok"
	// StatusDegraded means the engine fell back to cached or default
	// state because the remote store was unavailable or had no row.
	StatusDegraded Status = "degraded"
	// StatusFailed means the last remote persist failed; local state is
	// still authoritative and the next debounce cycle will retry.
	StatusFailed Status = "failed"
)

// AuthProvider supplies the current user identity.
type AuthProvider interface {
	// CurrentUserID returns the authenticated user id, or ok=false for
	// anonymous sessions.
	CurrentUserID() (id string, ok bool)
	// IsLoading reports whether the identity is still being resolved.
	IsLoading() bool
}

// StaticAuth is an AuthProvider for a fixed, already-resolved identity.
// The empty string is an anonymous session.
type StaticAuth string

func (s StaticAuth) CurrentUserID() (string, bool) { return string(s), s != "" }
func (StaticAuth) IsLoading() bool                 { return false }

// DefaultDebounce is the inactivity window between the last mutation and
// the remote persist it triggers.
const DefaultDebounce = time.Second

// Engine maintains a single authoritative in-memory profile per identity.
// Consumers read snapshots and route every mutation through the named
// operations; no operation returns an error for a remote failure.
type Engine struct {
	auth  AuthProvider
	store store.ProfileStore
	cache cache.Cache

	mu       stdsync.Mutex
	loadOnce stdsync.Once
	profile  models.Profile
	state    State
	status   Status
	inflight int

	saver *coalescer
}

// Option configures an Engine.
type Option func(*Engine)

// WithDebounce overrides the debounce window. Tests use short windows.
func WithDebounce(window time.Duration) Option {
	return func(e *Engine) {
		e.saver.window = window
	}
}

// NewEngine creates an engine for the given identity, store and cache.
// Call Start to run the load protocol before reading the profile.
func NewEngine(auth AuthProvider, st store.ProfileStore, ca cache.Cache, opts ...Option) *Engine {
	e := &Engine{
		auth:    auth,
		store:   st,
		cache:   ca,
		profile: models.NewEmptyProfile(),
		state:   StateAuthPending,
		status:  StatusOk,
	}
	e.saver = newCoalescer(DefaultDebounce, func(snapshot models.Profile) {
		if err := e.persist(context.Background(), snapshot); err != nil {
			logger.Get().Warnw("debounced profile persist failed", "profile_id", snapshot.ID, "error", err)
		}
	})
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start runs the load protocol. While the identity is still resolving the
// engine stays in StateAuthPending and Start returns without loading;
// call it again once auth settles. The transition to StateReady is
// unconditional: a failed load degrades to cached or empty state, it
// never blocks the caller.
func (e *Engine) Start(ctx context.Context) {
	if e.auth.IsLoading() {
		return
	}

	e.loadOnce.Do(func() {
		e.mu.Lock()
		e.state = StateLoading
		e.mu.Unlock()

		profile, status := e.load(ctx)

		e.mu.Lock()
		e.profile = profile
		e.status = status
		e.state = StateReady
		e.mu.Unlock()
	})
}

// load resolves the profile to adopt: remote first, then the
// identity-scoped cache, then an empty default.
func (e *Engine) load(ctx context.Context) (models.Profile, Status) {
	userID, authenticated := e.auth.CurrentUserID()
	key := cache.Key(userID)

	if !authenticated {
		if cached, hit := e.cache.Get(key); hit {
			return cached, StatusOk
		}
		return e.currentProfile(), StatusOk
	}

	remote, err := e.store.FindProfileByUserID(ctx, userID)
	if err != nil {
		logger.Get().Warnw("profile load failed, falling back to cache", "user_id", userID, "error", err)
		if cached, hit := e.cache.Get(key); hit {
			return cached, StatusDegraded
		}
		return e.currentProfile(), StatusDegraded
	}

	if remote == nil {
		// No remote row yet: a cached profile becomes the seed for the
		// first remote write.
		if cached, hit := e.cache.Get(key); hit {
			return cached, StatusOk
		}
		return e.currentProfile(), StatusOk
	}

	assembled, err := e.fetchCollections(ctx, *remote)
	if err != nil {
		logger.Get().Warnw("profile collections load failed, falling back to cache", "user_id", userID, "error", err)
		if cached, hit := e.cache.Get(key); hit {
			return cached, StatusDegraded
		}
		return e.currentProfile(), StatusDegraded
	}

	// Warm the cache with the assembled remote state.
	if err := e.cache.Set(key, assembled); err != nil {
		logger.Get().Warnw("profile cache warm failed", "user_id", userID, "error", err)
	}
	return assembled, StatusOk
}

// fetchCollections loads the three dependent collections concurrently and
// assembles the full aggregate.
func (e *Engine) fetchCollections(ctx context.Context, profile models.Profile) (models.Profile, error) {
	var (
		entries   []models.SpendingEntry
		summaries []models.SpendingSummary
		goals     []models.SavingsGoal
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entries, err = e.store.ListSpendingEntries(gctx, profile.ID)
		return err
	})
	g.Go(func() error {
		var err error
		summaries, err = e.store.ListSpendingSummaries(gctx, profile.ID)
		return err
	})
	g.Go(func() error {
		var err error
		goals, err = e.store.ListGoals(gctx, profile.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.Profile{}, err
	}

	if entries == nil {
		entries = []models.SpendingEntry{}
	}
	if summaries == nil {
		summaries = []models.SpendingSummary{}
	}
	if goals == nil {
		goals = []models.SavingsGoal{}
	}
	profile.MonthlySpending = entries
	profile.SpendingSummary = summaries
	profile.Goals = goals
	return profile, nil
}

func (e *Engine) currentProfile() models.Profile {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.profile.Clone()
}

// Profile returns a snapshot of the current profile.
func (e *Engine) Profile() models.Profile {
	return e.currentProfile()
}

// State returns the engine lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// IsLoading reports whether the load protocol has not finished yet.
func (e *Engine) IsLoading() bool {
	return e.State() != StateReady
}

// IsSyncing reports whether a remote persist is in flight.
func (e *Engine) IsSyncing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inflight > 0
}

// SyncStatus returns the outcome of the last remote interaction.
func (e *Engine) SyncStatus() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// mutate applies fn to the profile under the lock, stamps LastUpdated,
// mirrors the new state into the local cache, and arms the debounced
// remote persist. It returns the snapshot that was cached.
func (e *Engine) mutate(fn func(p *models.Profile)) models.Profile {
	e.mu.Lock()
	fn(&e.profile)
	e.profile.LastUpdated = time.Now()
	snapshot := e.profile.Clone()
	e.mu.Unlock()

	e.writeCache(snapshot)
	e.saver.Arm(snapshot)
	return snapshot
}

func (e *Engine) writeCache(snapshot models.Profile) {
	userID, _ := e.auth.CurrentUserID()
	if err := e.cache.Set(cache.Key(userID), snapshot); err != nil {
		logger.Get().Warnw("profile cache write failed", "profile_id", snapshot.ID, "error", err)
	}
}

// UpdateIncome replaces the income record wholesale.
func (e *Engine) UpdateIncome(income models.IncomeData) {
	e.mutate(func(p *models.Profile) {
		p.Income = &income
	})
}

// AddSpending appends one entry to the monthly spending collection.
// Entries are append-only remotely: the row is written immediately in
// the background rather than reconciled on the debounce path.
func (e *Engine) AddSpending(entry models.SpendingEntry) {
	snapshot := e.mutate(func(p *models.Profile) {
		p.MonthlySpending = append(p.MonthlySpending, entry)
	})
	e.appendEntriesRemote(snapshot, []models.SpendingEntry{entry})
}

// MergeUploadedData appends a batch of entries, typically after a
// statement import.
func (e *Engine) MergeUploadedData(entries []models.SpendingEntry) {
	if len(entries) == 0 {
		return
	}
	snapshot := e.mutate(func(p *models.Profile) {
		p.MonthlySpending = append(p.MonthlySpending, entries...)
	})
	e.appendEntriesRemote(snapshot, entries)
}

// appendEntriesRemote writes entry rows in the background. Entries carry
// a foreign key to the profiles row, so the parent row is ensured first;
// the insert then uses whichever row id that resolution settled on.
func (e *Engine) appendEntriesRemote(snapshot models.Profile, entries []models.SpendingEntry) {
	if _, authenticated := e.auth.CurrentUserID(); !authenticated {
		return
	}
	go func() {
		ctx := context.Background()
		profileID, err := e.ensureRemoteRow(ctx, snapshot)
		if err != nil {
			logger.Get().Warnw("spending entry append failed, no remote profile row", "profile_id", snapshot.ID, "count", len(entries), "error", err)
			return
		}
		if err := e.store.InsertSpendingEntries(ctx, profileID, entries); err != nil {
			logger.Get().Warnw("spending entry append failed", "profile_id", profileID, "count", len(entries), "error", err)
		}
	}()
}

// ensureRemoteRow resolves the effective profiles row for the identity,
// creating it from the snapshot when none exists yet, and returns its id.
// An existing remote row id wins over a locally generated one.
func (e *Engine) ensureRemoteRow(ctx context.Context, snapshot models.Profile) (string, error) {
	userID, _ := e.auth.CurrentUserID()

	remote, err := e.store.FindProfileByUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	if remote != nil {
		if remote.ID != snapshot.ID {
			e.adoptRemoteID(remote.ID, snapshot)
		}
		return remote.ID, nil
	}

	snapshot.UserID = userID
	snapshot.DataCompleteness = Completeness(snapshot)
	if err := e.store.UpsertProfile(ctx, snapshot); err != nil {
		return "", err
	}
	return snapshot.ID, nil
}

// adoptRemoteID rewrites the in-memory and cached profile to carry the
// remote row id, returning the adjusted snapshot.
func (e *Engine) adoptRemoteID(id string, snapshot models.Profile) models.Profile {
	snapshot.ID = id
	e.mu.Lock()
	e.profile.ID = id
	e.mu.Unlock()
	e.writeCache(snapshot)
	return snapshot
}

// AddSpendingSummary accumulates amount into the summary for category,
// inserting a new row when the category has none yet.
func (e *Engine) AddSpendingSummary(category models.Category, amount decimal.Decimal, confidence models.Confidence) {
	e.mutate(func(p *models.Profile) {
		for i := range p.SpendingSummary {
			if p.SpendingSummary[i].Category == category {
				p.SpendingSummary[i].Total = p.SpendingSummary[i].Total.Add(amount)
				p.SpendingSummary[i].TransactionCount++
				return
			}
		}
		p.SpendingSummary = append(p.SpendingSummary, models.SpendingSummary{
			Category:         category,
			Total:            amount,
			Confidence:       confidence,
			TransactionCount: 1,
		})
	})
}

// UpdateSpendingSummary replaces the whole summary collection. At most
// one summary exists per category, so duplicate categories in the input
// are merged: totals and transaction counts accumulate into the first
// occurrence.
func (e *Engine) UpdateSpendingSummary(summaries []models.SpendingSummary) {
	e.mutate(func(p *models.Profile) {
		deduped := make([]models.SpendingSummary, 0, len(summaries))
		index := make(map[models.Category]int, len(summaries))
		for _, s := range summaries {
			if i, seen := index[s.Category]; seen {
				deduped[i].Total = deduped[i].Total.Add(s.Total)
				deduped[i].TransactionCount += s.TransactionCount
				continue
			}
			index[s.Category] = len(deduped)
			deduped = append(deduped, s)
		}
		p.SpendingSummary = deduped
	})
}

// AddGoal appends a savings goal.
func (e *Engine) AddGoal(goal models.SavingsGoal) {
	e.mutate(func(p *models.Profile) {
		p.Goals = append(p.Goals, goal)
	})
}

// UpdateGoal merges the non-nil fields of update into the goal with the
// given id. Unknown ids are a no-op.
func (e *Engine) UpdateGoal(id string, update models.GoalUpdate) {
	e.mutate(func(p *models.Profile) {
		for i := range p.Goals {
			if p.Goals[i].ID != id {
				continue
			}
			g := &p.Goals[i]
			if update.Name != nil {
				g.Name = *update.Name
			}
			if update.Target != nil {
				g.Target = *update.Target
			}
			if update.Current != nil {
				g.Current = *update.Current
			}
			if update.Deadline != nil {
				g.Deadline = update.Deadline
			}
			if update.Priority != nil {
				g.Priority = *update.Priority
			}
			return
		}
	})
}

// DeleteGoal removes the goal with the given id. Deleting a missing id
// leaves the collection unchanged.
func (e *Engine) DeleteGoal(id string) {
	e.mutate(func(p *models.Profile) {
		goals := p.Goals[:0]
		for _, g := range p.Goals {
			if g.ID != id {
				goals = append(goals, g)
			}
		}
		p.Goals = goals
	})
}

// SetUserName replaces the display name.
func (e *Engine) SetUserName(name string) {
	e.mutate(func(p *models.Profile) {
		p.Name = name
	})
}

// CompleteOnboarding sets the onboarding flag and persists immediately,
// bypassing the debounce window, so the flag survives an immediate
// navigation. The returned error is informational; local state is already
// committed either way.
func (e *Engine) CompleteOnboarding(ctx context.Context) error {
	e.mu.Lock()
	e.profile.HasCompletedOnboarding = true
	e.profile.LastUpdated = time.Now()
	snapshot := e.profile.Clone()
	e.mu.Unlock()

	e.writeCache(snapshot)

	// The immediate persist carries this state; a pending debounced one
	// would be stale or redundant.
	e.saver.Cancel()
	return e.persist(ctx, snapshot)
}

// ResetProfile replaces the in-memory profile with a fresh empty one,
// clears the identity-scoped cache entry and deletes the remote row.
// A failed remote delete is logged and left behind; local state is
// already cleared at that point.
func (e *Engine) ResetProfile(ctx context.Context) {
	e.mu.Lock()
	oldID := e.profile.ID
	e.state = StateLoading
	e.profile = models.NewEmptyProfile()
	e.state = StateReady
	e.mu.Unlock()

	e.saver.Cancel()

	userID, authenticated := e.auth.CurrentUserID()
	if err := e.cache.Remove(cache.Key(userID)); err != nil {
		logger.Get().Warnw("profile cache clear failed", "profile_id", oldID, "error", err)
	}

	if !authenticated {
		return
	}
	if err := e.store.DeleteProfile(ctx, oldID); err != nil {
		// Known gap: the remote row may be orphaned here. No
		// compensating action is taken.
		logger.Get().Errorw("remote profile delete failed", "profile_id", oldID, "error", err)
	}
}

// DataCompleteness recomputes the derived completeness score.
func (e *Engine) DataCompleteness() int {
	return Completeness(e.currentProfile())
}

// Completeness is a weighted score out of 100: income 30, spending
// summary coverage up to 40 (scaled by distinct categories out of five),
// any goal 20, name 10.
func Completeness(p models.Profile) int {
	score := 0.0
	if p.Income != nil {
		score += 30
	}
	if len(p.SpendingSummary) > 0 {
		categories := make(map[models.Category]bool, len(p.SpendingSummary))
		for _, s := range p.SpendingSummary {
			categories[s.Category] = true
		}
		score += math.Min(40, float64(len(categories))/5*40)
	}
	if len(p.Goals) > 0 {
		score += 20
	}
	if p.Name != "" {
		score += 10
	}
	return int(math.Round(score))
}

// Close flushes any pending debounced persist so a shutdown inside the
// window does not drop the last remote write.
func (e *Engine) Close() {
	e.saver.Flush()
}

func (e *Engine) beginSync() {
	e.mu.Lock()
	e.inflight++
	e.mu.Unlock()
}

func (e *Engine) endSync(status Status) {
	e.mu.Lock()
	e.inflight--
	e.status = status
	e.mu.Unlock()
}

// persist converges remote storage towards the snapshot. Anonymous
// sessions persist to the local cache only. The procedure is not
// transactional: a crash mid-sequence can leave remote storage partially
// updated, which the next debounce cycle repairs.
func (e *Engine) persist(ctx context.Context, snapshot models.Profile) error {
	userID, authenticated := e.auth.CurrentUserID()
	if !authenticated {
		return nil
	}

	e.beginSync()

	// Resolve the effective row id: an existing remote row for this
	// identity wins over a locally generated id.
	remote, err := e.store.FindProfileByUserID(ctx, userID)
	if err != nil {
		e.endSync(StatusFailed)
		return err
	}
	if remote != nil && remote.ID != snapshot.ID {
		snapshot = e.adoptRemoteID(remote.ID, snapshot)
	}

	snapshot.UserID = userID
	snapshot.DataCompleteness = Completeness(snapshot)

	if err := e.store.UpsertProfile(ctx, snapshot); err != nil {
		e.endSync(StatusFailed)
		return err
	}

	if err := e.store.ReplaceSpendingSummaries(ctx, snapshot.ID, snapshot.SpendingSummary); err != nil {
		e.endSync(StatusFailed)
		return err
	}

	if err := e.reconcileGoals(ctx, snapshot); err != nil {
		e.endSync(StatusFailed)
		return err
	}

	e.endSync(StatusOk)
	return nil
}

// reconcileGoals converges the remote goal set by difference: delete rows
// whose id is no longer present locally, then upsert everything present.
func (e *Engine) reconcileGoals(ctx context.Context, snapshot models.Profile) error {
	remoteGoals, err := e.store.ListGoals(ctx, snapshot.ID)
	if err != nil {
		return err
	}

	current := make(map[string]bool, len(snapshot.Goals))
	for _, g := range snapshot.Goals {
		current[g.ID] = true
	}

	var stale []string
	for _, g := range remoteGoals {
		if !current[g.ID] {
			stale = append(stale, g.ID)
		}
	}

	if err := e.store.DeleteGoals(ctx, stale); err != nil {
		return err
	}
	return e.store.UpsertGoals(ctx, snapshot.ID, snapshot.Goals)
}
