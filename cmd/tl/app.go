package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/daviddao/tickledger/pkg/clock"
	"github.com/daviddao/tickledger/pkg/model"
	"github.com/daviddao/tickledger/pkg/sim"
	"github.com/daviddao/tickledger/pkg/store"
)

// app holds shared state for all CLI subcommands: one store and one engine
// loaded from its snapshot.
type app struct {
	cfg   config
	store store.StoreInterface
	eng   *sim.Engine
	log   *slog.Logger
}

// newApp opens the database and loads the stored simulation.
// Creates the database directory if it does not exist.
func newApp(cfg config) (*app, error) {
	if dir := filepath.Dir(cfg.DB); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("cannot create %s: %w", dir, err)
		}
	}
	s, err := store.New(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("cannot open database %q: %w", cfg.DB, err)
	}
	a, err := newAppWithStore(cfg, s)
	if err != nil {
		s.Close()
		return nil, err
	}
	return a, nil
}

// newAppWithStore loads the snapshot held by s into a fresh engine.
func newAppWithStore(cfg config, s store.StoreInterface) (*app, error) {
	state, err := s.Load()
	if err != nil {
		return nil, fmt.Errorf("cannot load simulation: %w", err)
	}
	return &app{
		cfg:   cfg,
		store: s,
		eng:   sim.New(state),
		log:   slog.Default().With("component", "cli"),
	}, nil
}

// Close releases the database connection.
func (a *app) Close() { a.store.Close() }

// commit persists the engine's state after a transition.
func (a *app) commit(cmd string) error {
	rev, err := a.store.Save(a.eng.Snapshot())
	if err != nil {
		return err
	}
	a.log.Info("transition saved", "cmd", cmd, "tick", rev.Tick, "revision", rev.ID)
	return nil
}

// tickLabel renders a tick for humans.
func (a *app) tickLabel(t int64) string {
	return clock.Format(t, a.cfg.formatOptions())
}

// fail reports a command error on stderr and returns exit code 1.
func fail(cmd string, err error) int {
	fmt.Fprintf(os.Stderr, "tl: %s: %v\n", cmd, err)
	return 1
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// printEvent writes a one-line summary of e.
func (a *app) printEvent(e model.GameEvent) {
	fmt.Printf("  %-8s %-20s %-9s %s\n", e.ID, e.Name, e.Status, eventDetail(e))
}

// eventDetail describes where an event stands: countdown for pending events,
// the end tick otherwise.
func eventDetail(e model.GameEvent) string {
	repeat := ""
	if e.IsRepeating {
		repeat = " (repeats)"
	}
	if e.Status == model.StatusPending {
		return fmt.Sprintf("%d/%d ticks left%s", e.TicksToComplete, e.TicksTotal, repeat)
	}
	if e.EndedOn != nil {
		return fmt.Sprintf("ended T%d%s", *e.EndedOn, repeat)
	}
	return repeat
}
