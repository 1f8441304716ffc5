// Package finance holds the per-session finance data controller: the cached
// copy of one user's records, the write path that keeps it in step with the
// record store, and the registry of live controllers.
package finance

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"organizapay/internal/core"
	"organizapay/internal/log"
	"organizapay/internal/records"
)

// ChangePublisher announces successful writes. Publishing is best effort.
type ChangePublisher interface {
	PublishChange(ctx context.Context, ev core.ChangeEvent) error
}

type state struct {
	user         *core.User
	incomes      []core.IncomeEntry
	expenses     []core.ExpenseEntry
	goals        []core.Goal
	profile      *core.Profile
	subscription *core.Subscription
	loading      bool
	loadedAt     time.Time
	// stale is set when the latest load failed; counts may be behind the store.
	stale bool
}

func (st *state) plan() core.Plan {
	if st.subscription == nil {
		return core.PlanFree
	}
	return st.subscription.EffectivePlan()
}

func (st *state) permissions() core.Permissions {
	return core.EvaluatePlan(st.plan(), core.Counts{
		Incomes:  len(st.incomes),
		Expenses: len(st.expenses),
		Goals:    len(st.goals),
	})
}

// Controller caches one user's records and routes every mutation through the
// record store. Reads are served from the cache; each successful write is
// followed by a full reload.
type Controller struct {
	store     records.Store
	publisher ChangePublisher
	logger    *log.Logger
	now       func() time.Time
	newID     func() string

	// life is cancelled by Close and bounds every load.
	life   context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	st     state
	token  uint64
	closed bool

	// writeMu serializes the check, write and refresh of mutations.
	writeMu sync.Mutex
}

type Option func(*Controller)

func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l.WithComponent(log.ComponentFinance) }
}

func WithPublisher(p ChangePublisher) Option {
	return func(c *Controller) { c.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func WithIDGenerator(fn func() string) Option {
	return func(c *Controller) { c.newID = fn }
}

func New(store records.Store, opts ...Option) *Controller {
	c := &Controller{
		store:  store,
		logger: log.Discard().WithComponent(log.ComponentFinance),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.life, c.cancel = context.WithCancel(context.Background())
	return c
}

// SetSession switches the controller to user. A nil user clears the cache
// without touching the store; otherwise the cache is reloaded for user.
func (c *Controller) SetSession(ctx context.Context, user *core.User) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return newError("set session", KindTransport, ErrClosed)
	}
	if user == nil {
		c.token++
		c.st = state{}
		c.mu.Unlock()
		return nil
	}
	if c.st.user == nil || c.st.user.ID != user.ID {
		c.token++
		c.st = state{}
	}
	u := *user
	c.st.user = &u
	c.mu.Unlock()

	return c.LoadAll(ctx)
}

// User returns the signed-in user, if any.
func (c *Controller) User() (core.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.st.user == nil {
		return core.User{}, false
	}
	return *c.st.user, true
}

// LoadAll refetches every collection concurrently. Each collection replaces
// its cached copy as soon as its own query returns, unless a newer load or a
// session change has started since. A failed query keeps the previous copy
// of that collection; the first failure is returned.
func (c *Controller) LoadAll(ctx context.Context) error {
	const op = "load"

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return newError(op, KindTransport, ErrClosed)
	}
	if c.st.user == nil {
		c.mu.Unlock()
		return newError(op, KindUnauthorized, ErrNotAuthenticated)
	}
	c.token++
	token := c.token
	userID := c.st.user.ID
	c.st.loading = true
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(c.life, cancel)
	defer stop()

	logger := c.logger.With(log.FieldUserID, userID, log.FieldToken, token)
	logger.DebugContext(ctx, "Loading finance data", log.FieldOperation, log.OpLoad)

	var g errgroup.Group
	g.Go(func() error {
		items, err := c.store.ListIncomes(ctx, userID)
		if err != nil {
			return fmt.Errorf("list incomes: %w", err)
		}
		c.apply(token, func(st *state) { st.incomes = items })
		return nil
	})
	g.Go(func() error {
		items, err := c.store.ListExpenses(ctx, userID)
		if err != nil {
			return fmt.Errorf("list expenses: %w", err)
		}
		c.apply(token, func(st *state) { st.expenses = items })
		return nil
	})
	g.Go(func() error {
		items, err := c.store.ListGoals(ctx, userID)
		if err != nil {
			return fmt.Errorf("list goals: %w", err)
		}
		c.apply(token, func(st *state) { st.goals = items })
		return nil
	})
	g.Go(func() error {
		profile, err := c.store.GetProfile(ctx, userID)
		if err != nil && !errors.Is(err, records.ErrNotFound) {
			return fmt.Errorf("get profile: %w", err)
		}
		sub, subErr := c.store.GetSubscription(ctx, userID)
		if subErr != nil && !errors.Is(subErr, records.ErrNotFound) {
			return fmt.Errorf("get subscription: %w", subErr)
		}
		c.apply(token, func(st *state) {
			st.profile, st.subscription = nil, nil
			if err == nil {
				st.profile = &profile
			}
			if subErr == nil {
				st.subscription = &sub
			}
		})
		return nil
	})
	err := g.Wait()

	c.mu.Lock()
	current := token == c.token && !c.closed
	if current {
		c.st.loading = false
		c.st.stale = err != nil
		if err == nil {
			c.st.loadedAt = c.now()
		}
	}
	c.mu.Unlock()

	if err != nil {
		logger.WarnContext(ctx, "Finance data load failed", log.FieldError, err)
		return newError(op, KindTransport, err)
	}
	if !current {
		logger.DebugContext(ctx, "Finance data load superseded")
	}
	return nil
}

func (c *Controller) apply(token uint64, fn func(*state)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if token != c.token || c.closed {
		return
	}
	fn(&c.st)
}

// Snapshot returns a copy of the cache with its derived values.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.st.snapshot()
}

// Permissions evaluates the plan policy against the cached collections.
func (c *Controller) Permissions() core.Permissions {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.st.permissions()
}

// Close cancels in-flight loads and drops their results. Later calls fail
// with ErrClosed.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.token++
	c.mu.Unlock()
	c.cancel()
}

// writable returns the session user and the permissions the next write is
// checked against.
func (c *Controller) writable(op string) (core.User, core.Permissions, error) {
	user, perms, _, err := c.session(op)
	return user, perms, err
}

func (c *Controller) session(op string) (core.User, core.Permissions, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.User{}, core.Permissions{}, false, newError(op, KindTransport, ErrClosed)
	}
	if c.st.user == nil {
		return core.User{}, core.Permissions{}, false, newError(op, KindUnauthorized, ErrNotAuthenticated)
	}
	return *c.st.user, c.st.permissions(), c.st.stale, nil
}

// limited is writable for writes that plan limits apply to. The permissions
// must come from a successful load: a stale cache is reloaded first and the
// write is refused when that fails.
func (c *Controller) limited(ctx context.Context, op string) (core.User, core.Permissions, error) {
	user, perms, stale, err := c.session(op)
	if err != nil || !stale {
		return user, perms, err
	}
	if err := c.LoadAll(ctx); err != nil {
		return core.User{}, core.Permissions{}, newError(op, KindTransport, err)
	}
	user, perms, stale, err = c.session(op)
	if err == nil && stale {
		err = newError(op, KindTransport, ErrStale)
	}
	return user, perms, err
}

// committed publishes the change and refreshes the cache. The write already
// succeeded, so neither step can fail the operation.
func (c *Controller) committed(ctx context.Context, userID string, coll core.Collection, action core.ChangeAction, id string) {
	logger := c.logger.With(log.FieldUserID, userID, log.FieldCollection, string(coll), log.FieldRecordID, id)

	if c.publisher != nil {
		ev := core.ChangeEvent{
			UserID:     userID,
			Collection: coll,
			Action:     action,
			RecordID:   id,
			Timestamp:  c.now().UTC(),
		}
		if err := c.publisher.PublishChange(ctx, ev); err != nil {
			logger.WarnContext(ctx, "Failed to publish change event", log.FieldError, err)
		}
	}

	if err := c.LoadAll(ctx); err != nil {
		logger.WarnContext(ctx, "Refresh after write failed", log.FieldError, err)
	}
}

func (c *Controller) AddIncome(ctx context.Context, e core.IncomeEntry) (core.IncomeEntry, error) {
	const op = "add income"
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	user, perms, err := c.limited(ctx, op)
	if err != nil {
		return core.IncomeEntry{}, err
	}
	if err := e.Validate(); err != nil {
		return core.IncomeEntry{}, newError(op, KindValidation, err)
	}
	if err := perms.Check(core.ResourceIncome); err != nil {
		return core.IncomeEntry{}, newError(op, KindPlanLimit, err)
	}

	e.ID = c.newID()
	e.UserID = user.ID
	e.CreatedAt = c.now().UTC()
	if err := c.store.InsertIncome(ctx, e); err != nil {
		return core.IncomeEntry{}, storeError(op, err)
	}
	c.committed(ctx, user.ID, core.CollectionIncomes, core.ActionCreated, e.ID)
	return e, nil
}

func (c *Controller) UpdateIncome(ctx context.Context, id string, p core.IncomePatch) error {
	const op = "update income"
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	user, _, err := c.writable(op)
	if err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return newError(op, KindValidation, err)
	}
	if err := c.store.UpdateIncome(ctx, id, user.ID, p); err != nil {
		return storeError(op, err)
	}
	c.committed(ctx, user.ID, core.CollectionIncomes, core.ActionUpdated, id)
	return nil
}

func (c *Controller) DeleteIncome(ctx context.Context, id string) error {
	const op = "delete income"
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	user, _, err := c.writable(op)
	if err != nil {
		return err
	}
	if err := c.store.DeleteIncome(ctx, id, user.ID); err != nil {
		return storeError(op, err)
	}
	c.committed(ctx, user.ID, core.CollectionIncomes, core.ActionDeleted, id)
	return nil
}

// AddExpense records an expense. An empty kind means an ordinary expense.
func (c *Controller) AddExpense(ctx context.Context, e core.ExpenseEntry) (core.ExpenseEntry, error) {
	const op = "add expense"
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	user, perms, err := c.limited(ctx, op)
	if err != nil {
		return core.ExpenseEntry{}, err
	}
	if e.Kind == "" {
		e.Kind = core.ExpenseOrdinary
	}
	if err := e.Validate(); err != nil {
		return core.ExpenseEntry{}, newError(op, KindValidation, err)
	}
	if err := perms.Check(core.ResourceExpense); err != nil {
		return core.ExpenseEntry{}, newError(op, KindPlanLimit, err)
	}

	e.ID = c.newID()
	e.UserID = user.ID
	e.CreatedAt = c.now().UTC()
	if err := c.store.InsertExpense(ctx, e); err != nil {
		return core.ExpenseEntry{}, storeError(op, err)
	}
	c.committed(ctx, user.ID, core.CollectionExpenses, core.ActionCreated, e.ID)
	return e, nil
}

func (c *Controller) UpdateExpense(ctx context.Context, id string, p core.ExpensePatch) error {
	const op = "update expense"
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	user, _, err := c.writable(op)
	if err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return newError(op, KindValidation, err)
	}
	if err := c.store.UpdateExpense(ctx, id, user.ID, p); err != nil {
		return storeError(op, err)
	}
	c.committed(ctx, user.ID, core.CollectionExpenses, core.ActionUpdated, id)
	return nil
}

func (c *Controller) DeleteExpense(ctx context.Context, id string) error {
	const op = "delete expense"
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	user, _, err := c.writable(op)
	if err != nil {
		return err
	}
	if err := c.store.DeleteExpense(ctx, id, user.ID); err != nil {
		return storeError(op, err)
	}
	c.committed(ctx, user.ID, core.CollectionExpenses, core.ActionDeleted, id)
	return nil
}

func (c *Controller) AddGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	const op = "add goal"
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	user, perms, err := c.limited(ctx, op)
	if err != nil {
		return core.Goal{}, err
	}
	if err := g.Validate(); err != nil {
		return core.Goal{}, newError(op, KindValidation, err)
	}
	if err := perms.Check(core.ResourceGoal); err != nil {
		return core.Goal{}, newError(op, KindPlanLimit, err)
	}

	g.ID = c.newID()
	g.UserID = user.ID
	g.CreatedAt = c.now().UTC()
	if err := c.store.InsertGoal(ctx, g); err != nil {
		return core.Goal{}, storeError(op, err)
	}
	c.committed(ctx, user.ID, core.CollectionGoals, core.ActionCreated, g.ID)
	return g, nil
}

// UpdateGoal changes a goal. A contribution is recorded by sending the new
// current amount; there is no increment operation.
func (c *Controller) UpdateGoal(ctx context.Context, id string, p core.GoalPatch) error {
	const op = "update goal"
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	user, _, err := c.writable(op)
	if err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return newError(op, KindValidation, err)
	}
	if err := c.store.UpdateGoal(ctx, id, user.ID, p); err != nil {
		return storeError(op, err)
	}
	c.committed(ctx, user.ID, core.CollectionGoals, core.ActionUpdated, id)
	return nil
}

func (c *Controller) DeleteGoal(ctx context.Context, id string) error {
	const op = "delete goal"
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	user, _, err := c.writable(op)
	if err != nil {
		return err
	}
	if err := c.store.DeleteGoal(ctx, id, user.ID); err != nil {
		return storeError(op, err)
	}
	c.committed(ctx, user.ID, core.CollectionGoals, core.ActionDeleted, id)
	return nil
}

// UpdateProfile saves profile settings. Choosing the couple profile on the
// free plan is rejected before anything is written.
func (c *Controller) UpdateProfile(ctx context.Context, p core.ProfilePatch) (core.Profile, error) {
	const op = "update profile"
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	user, perms, err := c.limited(ctx, op)
	if err != nil {
		return core.Profile{}, err
	}
	if err := p.Validate(); err != nil {
		return core.Profile{}, newError(op, KindValidation, err)
	}
	if p.ProfileType != nil && *p.ProfileType == core.ProfileCouple && !perms.CanUseSharedAccount {
		return core.Profile{}, newError(op, KindPlanLimit, ErrPremiumRequired)
	}

	c.mu.RLock()
	profile := core.DefaultProfile(user)
	if c.st.profile != nil {
		profile = *c.st.profile
	}
	c.mu.RUnlock()

	profile = p.Apply(profile)
	profile.UserID = user.ID
	if err := c.store.UpsertProfile(ctx, profile); err != nil {
		return core.Profile{}, storeError(op, err)
	}
	c.committed(ctx, user.ID, core.CollectionProfile, core.ActionUpdated, user.ID)
	return profile, nil
}

// UpdatePlan sets the user's subscription tier. Billing happens elsewhere;
// this only records the outcome.
func (c *Controller) UpdatePlan(ctx context.Context, plan core.Plan) error {
	const op = "update plan"
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	user, _, err := c.writable(op)
	if err != nil {
		return err
	}
	if !plan.Valid() {
		return newError(op, KindValidation, fmt.Errorf("unknown plan %q", plan))
	}
	if err := c.store.UpsertSubscription(ctx, core.Subscription{UserID: user.ID, Plan: plan}); err != nil {
		return storeError(op, err)
	}
	c.logger.InfoContext(ctx, "Plan changed", log.FieldUserID, user.ID, log.FieldPlan, string(plan))
	c.committed(ctx, user.ID, core.CollectionSubscription, core.ActionUpdated, user.ID)
	return nil
}
