package client

import (
	"context"
	"time"
)

const defaultReconcileInterval = 2 * time.Minute

// Reconciler pushes pending and failed cache entries to the server in the
// background. One record is retried at a time; a record stays in the cache
// until the server confirms it.
type Reconciler struct {
	store    *HistoryStore
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

// NewReconciler creates a reconciler for the store.
func NewReconciler(store *HistoryStore, interval time.Duration) *Reconciler {
	if interval <= 0 {
		interval = defaultReconcileInterval
	}
	return &Reconciler{
		store:    store,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the background loop. An immediate pass runs first so
// records cached while offline upload as soon as connectivity returns.
func (r *Reconciler) Start() {
	go func() {
		defer close(r.done)

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		r.runOnce()
		for {
			select {
			case <-r.stop:
				return
			case <-ticker.C:
				r.runOnce()
			}
		}
	}()
}

// Stop halts the loop and waits for the in-flight pass to finish.
func (r *Reconciler) Stop() {
	close(r.stop)
	<-r.done
}

func (r *Reconciler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	r.Sync(ctx)
}

// Sync retries every unsynced entry once. Successful pushes adopt the
// server-assigned ID; failures are marked for the next pass.
func (r *Reconciler) Sync(ctx context.Context) {
	if r.store.remote == nil {
		return
	}

	entries, err := r.store.unsynced(ctx)
	if err != nil {
		r.store.logger.Errorw("failed to read unsynced entries", "error", err)
		return
	}

	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return
		default:
		}

		stored, err := r.store.remote.CreateFactCheck(ctx, entry.Record)
		if err != nil {
			r.store.logger.Warnw("reconcile push failed", "error", err, "id", entry.ID)
			if entry.SyncStatus != syncFailed {
				if err := r.store.markFailed(ctx, entry.ID); err != nil {
					r.store.logger.Errorw("failed to mark entry", "error", err, "id", entry.ID)
				}
			}
			continue
		}

		oldID := entry.ID
		entry.ID = stored.ID.String()
		entry.Record = stored
		entry.SyncStatus = syncConfirmed
		if err := r.store.swapID(ctx, oldID, entry); err != nil {
			r.store.logger.Errorw("failed to confirm entry", "error", err, "id", oldID)
		}
	}
}
