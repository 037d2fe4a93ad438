// Package sim is the tick engine: the only component that moves time forward
// and resolves events against the ledger.
//
// An Engine owns exactly one State. Every exported method is a complete
// transition over that state; nothing observes a half-applied change.
// Engine is not goroutine-safe: callers serialize access (one session per
// state), the same way the CLI holds one engine per invocation.
package sim

import (
	"github.com/daviddao/tickledger/pkg/clock"
	"github.com/daviddao/tickledger/pkg/ledger"
	"github.com/daviddao/tickledger/pkg/model"
	"github.com/daviddao/tickledger/pkg/registry"
)

// Engine runs transitions over a single simulation state.
type Engine struct {
	state model.State
}

// New returns an engine seeded with a copy of s.
func New(s model.State) *Engine {
	e := &Engine{}
	e.Load(s)
	return e
}

func (e *Engine) ledger() *ledger.Ledger {
	return ledger.New(&e.state.Resources)
}

func (e *Engine) registry() *registry.Registry {
	return registry.New(&e.state.Events)
}

// Ticks returns the current tick.
func (e *Engine) Ticks() int64 { return e.state.Ticks }

// Snapshot returns a deep copy of the current state, safe to hand to a
// background saver.
func (e *Engine) Snapshot() model.State {
	return e.state.Clone()
}

// Load replaces the engine's state with a copy of s.
func (e *Engine) Load(s model.State) {
	s = s.Clone()
	s.Normalize()
	if s.Ticks < 0 {
		s.Ticks = 0
	}
	e.state = s
}

// Clear resets to the empty default state.
func (e *Engine) Clear() {
	e.state = model.DefaultState()
}

// Resource returns the named resource.
func (e *Engine) Resource(name string) (model.Resource, bool) {
	return e.ledger().Get(name)
}

// Event returns a copy of the event with id.
func (e *Engine) Event(id string) (model.GameEvent, bool) {
	ev, ok := e.registry().FindByID(id)
	if !ok {
		return model.GameEvent{}, false
	}
	return *ev, true
}

// CreateResource adds a zero balance for name. Idempotent.
func (e *Engine) CreateResource(name string) error {
	return e.ledger().Create(name)
}

// AdjustResource is a manual correction. It is guarded: it returns
// ledger.ErrUnknownResource or ledger.ErrInsufficient instead of letting a
// balance go negative, and changes nothing in that case.
func (e *Engine) AdjustResource(name string, delta int64) error {
	return e.ledger().Adjust(name, delta)
}

// SubmitEvent schedules raw at the current tick. An event whose upfront cost
// cannot be paid is recorded as failed; that is a result, not an error. The
// only error is model.ErrInvalidEvent for a malformed raw event.
func (e *Engine) SubmitEvent(raw model.RawEvent) (model.GameEvent, error) {
	if err := raw.Validate(); err != nil {
		return model.GameEvent{}, err
	}
	return e.createEvent(raw, e.state.Ticks), nil
}

// createEvent charges the before group all-or-nothing and registers the
// event as pending, or as failed if the charge is not affordable.
func (e *Engine) createEvent(raw model.RawEvent, tick int64) model.GameEvent {
	before, _ := model.Split(raw.Outcomes)
	l := e.ledger()
	if ok, _ := l.Feasible(before); !ok {
		return e.registry().Submit(raw, tick, model.StatusFailed)
	}
	l.ApplyAll(before)
	return e.registry().Submit(raw, tick, model.StatusPending)
}

// CancelEvent cancels a pending event at the current tick. Unknown or
// terminal ids are a no-op; the result reports whether anything changed.
func (e *Engine) CancelEvent(id string) bool {
	return e.registry().Cancel(id, e.state.Ticks)
}

// DuplicateEvent schedules a fresh copy of event id with its countdown reset
// to the original duration. Unknown ids are a no-op.
func (e *Engine) DuplicateEvent(id string) (model.GameEvent, bool) {
	src, ok := e.registry().FindByID(id)
	if !ok {
		return model.GameEvent{}, false
	}
	return e.createEvent(src.Raw(), e.state.Ticks), true
}

// Resolution describes one event that left pending during a tick.
type Resolution struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Status model.Status `json:"status"`
	// Short lists the resources that could not cover the after group.
	Short []string `json:"short,omitempty"`
}

// TickReport summarizes one AdvanceTick.
type TickReport struct {
	Tick     int64             `json:"tick"`
	Resolved []Resolution      `json:"resolved"`
	Spawned  []model.GameEvent `json:"spawned,omitempty"`
}

// AdvanceTick moves time forward by exactly one tick and resolves every event
// that comes due.
//
// Each pending event counts down. An event reaching zero applies its whole
// after group if the ledger can cover it and completes, or applies nothing
// and fails. A completed repeating event immediately spawns a fresh copy,
// charged under the same rule as any new event. Finally, events that ended on
// this tick sink below the rest; clones spawned this tick follow them.
func (e *Engine) AdvanceTick() TickReport {
	var c clock.Clock
	c.Set(e.state.Ticks)
	tick := c.Tick()

	rep := TickReport{Tick: tick, Resolved: []Resolution{}}
	n := len(e.state.Events)
	for i := 0; i < n; i++ {
		// Re-index every iteration: spawning appends and may reallocate.
		ev := &e.state.Events[i]
		if ev.Status != model.StatusPending {
			continue
		}
		if ev.TicksToComplete-1 > 0 {
			ev.TicksToComplete--
			continue
		}

		ended := tick
		ev.TicksToComplete = 0
		ev.EndedOn = &ended

		_, after := model.Split(ev.Outcomes)
		l := e.ledger()
		if ok, short := l.Feasible(after); !ok {
			ev.Status = model.StatusFailed
			rep.Resolved = append(rep.Resolved, Resolution{ID: ev.ID, Name: ev.Name, Status: ev.Status, Short: short})
			continue
		}
		l.ApplyAll(after)
		ev.Status = model.StatusCompleted
		rep.Resolved = append(rep.Resolved, Resolution{ID: ev.ID, Name: ev.Name, Status: ev.Status})

		if ev.IsRepeating {
			clone := e.createEvent(ev.Raw(), tick)
			rep.Spawned = append(rep.Spawned, clone)
		}
	}

	settle(e.state.Events[:n], tick)
	e.state.Ticks = c.Value()
	return rep
}

// AdvanceUntil advances until event id is terminal or max ticks have passed.
// It returns the reports of every tick run and whether the event finished.
// An unknown id runs no ticks.
func (e *Engine) AdvanceUntil(id string, max int) ([]TickReport, bool) {
	var reports []TickReport
	for i := 0; i < max; i++ {
		ev, ok := e.registry().FindByID(id)
		if !ok {
			return reports, false
		}
		if ev.Status.Terminal() {
			return reports, true
		}
		reports = append(reports, e.AdvanceTick())
	}
	ev, ok := e.registry().FindByID(id)
	return reports, ok && ev.Status.Terminal()
}
