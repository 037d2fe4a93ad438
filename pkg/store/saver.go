// saver.go moves snapshot writes off the caller's path.
//
// Every transition produces a full snapshot, and an interactive session can
// produce them faster than SQLite commits them. The Saver keeps only the most
// recent requested snapshot; older unwritten ones are superseded. Flush and
// Close guarantee that whatever was last requested is on disk.
package store

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/daviddao/tickledger/pkg/model"
)

// ErrSaverClosed is returned by Flush after Close.
var ErrSaverClosed = errors.New("saver closed")

// Saver writes snapshots in the background, coalescing bursts of requests
// into a single write of the latest state.
type Saver struct {
	w   SnapshotWriter
	log *slog.Logger

	mu      sync.Mutex
	pending *model.State
	closed  bool
	lastErr error

	kick  chan struct{}
	flush chan chan error
	quit  chan struct{}
	done  chan struct{}
	once  sync.Once
}

// NewSaver starts a Saver writing to w. Callers must Close it.
func NewSaver(w SnapshotWriter) *Saver {
	sv := &Saver{
		w:     w,
		log:   slog.Default().With("component", "saver"),
		kick:  make(chan struct{}, 1),
		flush: make(chan chan error),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go sv.run()
	return sv
}

// Request schedules state to be written. The snapshot is cloned, so the
// caller may keep mutating its own copy. Requests after Close are dropped.
func (sv *Saver) Request(state model.State) {
	snap := state.Clone()
	sv.mu.Lock()
	if sv.closed {
		sv.mu.Unlock()
		return
	}
	sv.pending = &snap
	sv.mu.Unlock()

	select {
	case sv.kick <- struct{}{}:
	default:
	}
}

// Flush blocks until the latest requested snapshot is written and returns
// the error from the most recent write, if any.
func (sv *Saver) Flush() error {
	sv.mu.Lock()
	closed := sv.closed
	sv.mu.Unlock()
	if closed {
		return ErrSaverClosed
	}

	reply := make(chan error, 1)
	select {
	case sv.flush <- reply:
		return <-reply
	case <-sv.done:
		return ErrSaverClosed
	}
}

// Close writes any pending snapshot and stops the background goroutine.
// It returns the last write error seen by the Saver.
func (sv *Saver) Close() error {
	sv.once.Do(func() {
		sv.mu.Lock()
		sv.closed = true
		sv.mu.Unlock()

		close(sv.quit)
		<-sv.done
		sv.write()
	})
	return sv.lastError()
}

func (sv *Saver) lastError() error {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	return sv.lastErr
}

func (sv *Saver) run() {
	defer close(sv.done)
	for {
		select {
		case <-sv.kick:
			sv.write()
		case reply := <-sv.flush:
			sv.write()
			reply <- sv.lastError()
		case <-sv.quit:
			return
		}
	}
}

// write saves the pending snapshot, if any. Only run and the final step of
// Close call it, never concurrently.
func (sv *Saver) write() {
	sv.mu.Lock()
	snap := sv.pending
	sv.pending = nil
	sv.mu.Unlock()
	if snap == nil {
		return
	}

	rev, err := sv.w.Save(*snap)
	sv.mu.Lock()
	sv.lastErr = err
	sv.mu.Unlock()
	if err != nil {
		sv.log.Warn("background save failed", "tick", snap.Ticks, "error", err)
		return
	}
	sv.log.Debug("background save", "revision", rev.ID, "tick", rev.Tick)
}
