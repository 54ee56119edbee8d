package store

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
)

// Outcome classifies how the reconciler handled an offered snapshot.
type Outcome int

const (
	// OutcomeApplied means the snapshot was the expected next version.
	OutcomeApplied Outcome = iota
	// OutcomeStale means the snapshot version was at or below the local
	// version and was discarded.
	OutcomeStale
	// OutcomeResync means a version gap was detected and a full
	// resynchronization was requested.
	OutcomeResync
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeStale:
		return "stale"
	case OutcomeResync:
		return "resync"
	default:
		return "unknown"
	}
}

// Reconciler merges an out-of-order snapshot stream into a strictly
// versioned local view. Exactly one of three things happens per offer:
// a snapshot at or below the local version is discarded, the next
// consecutive version is applied, and anything further ahead triggers a
// full resync request.
//
// Draw snapshots are applied with a short recognition delay so the drawn
// card stays readable before the next render; a newer snapshot arriving
// inside the delay supersedes the held one.
type Reconciler struct {
	mu      sync.Mutex
	version int64
	pending *quartz.Timer
	await   *quartz.Timer

	clock       quartz.Clock
	logger      *log.Logger
	recognition time.Duration
	apply       func(Snapshot)
	resync      func()
}

// ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithRecognitionDelay holds the render of draw snapshots for d.
func WithRecognitionDelay(d time.Duration) ReconcilerOption {
	return func(r *Reconciler) { r.recognition = d }
}

// WithClock injects the clock used for the recognition delay.
func WithClock(clock quartz.Clock) ReconcilerOption {
	return func(r *Reconciler) { r.clock = clock }
}

// NewReconciler creates a reconciler at version 0. apply renders an
// accepted snapshot; resync asks the server for a full state copy.
func NewReconciler(logger *log.Logger, apply func(Snapshot), resync func(), opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		clock:  quartz.NewReal(),
		logger: logger.WithPrefix("reconcile"),
		apply:  apply,
		resync: resync,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Version returns the current local version.
func (r *Reconciler) Version() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.version
}

// Offer feeds one incoming snapshot through the reconciliation rules.
func (r *Reconciler) Offer(snap Snapshot) Outcome {
	r.mu.Lock()

	switch {
	case snap.Version <= r.version:
		r.logger.Debug("discarding stale snapshot",
			"incoming", snap.Version, "local", r.version)
		r.mu.Unlock()
		return OutcomeStale

	case snap.Version > r.version+1:
		r.logger.Warn("version gap, requesting resync",
			"incoming", snap.Version, "local", r.version)
		r.cancelAwaitLocked()
		r.mu.Unlock()
		r.resync()
		return OutcomeResync
	}

	r.version = snap.Version
	r.cancelPendingLocked()
	r.cancelAwaitLocked()

	if snap.Action == "draw" && r.recognition > 0 {
		r.pending = r.clock.AfterFunc(r.recognition, func() {
			r.mu.Lock()
			r.pending = nil
			r.mu.Unlock()
			r.apply(snap)
		})
		r.mu.Unlock()
		return OutcomeApplied
	}

	r.mu.Unlock()
	r.apply(snap)
	return OutcomeApplied
}

// Reset installs a full state copy unconditionally, e.g. the response to a
// resync request or the initial room join.
func (r *Reconciler) Reset(snap Snapshot) {
	r.mu.Lock()
	r.version = snap.Version
	r.cancelPendingLocked()
	r.cancelAwaitLocked()
	r.mu.Unlock()
	r.apply(snap)
}

// ExpectUpdate arms a recognition deadline after a command was submitted:
// if no snapshot is accepted within d, a full resync is requested instead
// of waiting on an echo that may never arrive. Any accepted snapshot or
// reset disarms it; re-arming restarts the window.
func (r *Reconciler) ExpectUpdate(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.await != nil {
		r.await.Stop()
	}
	r.await = r.clock.AfterFunc(d, func() {
		r.mu.Lock()
		r.await = nil
		r.mu.Unlock()
		r.logger.Warn("no update within the recognition window, requesting resync")
		r.resync()
	})
}

func (r *Reconciler) cancelPendingLocked() {
	if r.pending != nil {
		r.pending.Stop()
		r.pending = nil
	}
}

func (r *Reconciler) cancelAwaitLocked() {
	if r.await != nil {
		r.await.Stop()
		r.await = nil
	}
}
