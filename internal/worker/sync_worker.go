// Package worker keeps the Google Sheets mirror of premium users in step
// with the record store.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"organizapay/internal/amqp"
	"organizapay/internal/core"
	"organizapay/internal/finance"
	"organizapay/internal/log"
	"organizapay/internal/records"
	"organizapay/internal/report"
	"organizapay/internal/sheets"
)

// SyncWorker mirrors users on change messages and on a periodic sweep.
type SyncWorker struct {
	store    records.Store
	mirror   sheets.Mirror
	logger   *log.Logger
	interval time.Duration
	now      func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// SweepResult counts the outcome of a full sweep.
type SweepResult struct {
	Synced  int
	Skipped int
	Errors  int
}

func NewSyncWorker(store records.Store, mirror sheets.Mirror, interval time.Duration, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.Discard()
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &SyncWorker{
		store:    store,
		mirror:   mirror,
		logger:   logger.WithComponent(log.ComponentWorker),
		interval: interval,
		now:      time.Now,
	}
}

// HandleChange mirrors the user named by msg.
func (w *SyncWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	w.logger.InfoContext(ctx, "Processing change message",
		log.FieldUserID, msg.UserID,
		log.FieldCollection, string(msg.Collection),
		"action", string(msg.Action))

	if _, err := w.SyncUser(ctx, msg.UserID); err != nil {
		return fmt.Errorf("sync user %s: %w", msg.UserID, err)
	}
	return nil
}

// SyncUser loads the user's records and mirrors them. Users on the free
// plan are skipped; the returned bool reports whether a mirror was written.
func (w *SyncWorker) SyncUser(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, errors.New("empty user id")
	}
	ctrl := finance.New(w.store, finance.WithLogger(w.logger), finance.WithClock(w.now))
	defer ctrl.Close()

	if err := ctrl.SetSession(ctx, &core.User{ID: userID}); err != nil {
		return false, err
	}
	snap := ctrl.Snapshot()
	if snap.Subscription.Plan != core.PlanPremium {
		w.logger.DebugContext(ctx, "Skipping user without premium plan", log.FieldUserID, userID)
		return false, nil
	}

	owner := snap.Profile.DisplayName
	if owner == "" {
		owner = userID
	}
	data := report.Data{
		Owner:       owner,
		Plan:        snap.Subscription.Plan,
		GeneratedAt: w.now(),
		Incomes:     snap.Incomes,
		Expenses:    snap.Expenses,
		Goals:       snap.GoalEntries(),
	}
	if err := w.mirror.MirrorUser(ctx, userID, data); err != nil {
		return false, err
	}
	return true, nil
}

// Sweep mirrors every known user. It recovers from change messages that
// were lost while the worker was down.
func (w *SyncWorker) Sweep(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	ids, err := w.store.ListUserIDs(ctx)
	if err != nil {
		return res, fmt.Errorf("list users: %w", err)
	}

	for _, id := range ids {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		synced, err := w.SyncUser(ctx, id)
		switch {
		case err != nil:
			w.logger.ErrorContext(ctx, "Failed to sync user during sweep", log.FieldUserID, id, log.FieldError, err)
			res.Errors++
		case synced:
			res.Synced++
		default:
			res.Skipped++
		}
	}

	w.logger.InfoContext(ctx, "Sweep completed",
		"total", len(ids),
		"synced", res.Synced,
		"skipped", res.Skipped,
		"errors", res.Errors)
	return res, nil
}

// Start runs a sweep immediately and then once per interval until Stop.
func (w *SyncWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("sync worker is already running")
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	stopCh, doneCh := w.stopCh, w.doneCh
	w.mu.Unlock()

	go w.runLoop(ctx, stopCh, doneCh)

	w.logger.InfoContext(ctx, "Sync worker started", "interval", w.interval)
	return nil
}

// Stop signals the sweep loop and waits for it to finish.
func (w *SyncWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	stopCh, doneCh := w.stopCh, w.doneCh
	w.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		w.logger.InfoContext(ctx, "Sync worker stopped gracefully")
		return nil
	case <-ctx.Done():
		w.logger.WarnContext(ctx, "Sync worker stop timed out")
		return ctx.Err()
	}
}

func (w *SyncWorker) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	sweep := func() {
		if _, err := w.Sweep(ctx); err != nil && ctx.Err() == nil {
			w.logger.ErrorContext(ctx, "Sweep failed", log.FieldError, err)
		}
	}
	sweep()

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}
