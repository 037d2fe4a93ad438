// Package registry owns the ordered sequence of game events: identity
// assignment, appends and the cancel transition. Status changes driven by
// time belong to the tick engine, not here.
package registry

import (
	"fmt"

	"github.com/daviddao/tickledger/pkg/model"
)

// Registry is a view over a state's event slice.
type Registry struct {
	events *[]model.GameEvent
}

// New returns a registry operating on *events.
func New(events *[]model.GameEvent) *Registry {
	return &Registry{events: events}
}

// Len returns the number of events ever submitted (events are never removed).
func (r *Registry) Len() int { return len(*r.events) }

// nextID returns "evt-N" where N starts at the current event count and is
// bumped past any id already taken (possible with hand-edited snapshots).
func (r *Registry) nextID() string {
	for n := r.Len(); ; n++ {
		id := fmt.Sprintf("evt-%d", n)
		if _, ok := r.FindByID(id); !ok {
			return id
		}
	}
}

// Submit appends a new event built from raw. status must be StatusPending or
// StatusFailed; the caller has already settled the before-outcome charge.
// A failed event is ended on the tick it was created.
func (r *Registry) Submit(raw model.RawEvent, tick int64, status model.Status) model.GameEvent {
	e := model.GameEvent{
		ID:              r.nextID(),
		Name:            raw.Name,
		TicksToComplete: raw.TicksToComplete,
		TicksTotal:      raw.TicksToComplete,
		Outcomes:        append([]model.Outcome{}, raw.Outcomes...),
		IsRepeating:     raw.IsRepeating,
		AddedOn:         tick,
		Status:          status,
	}
	if status.Terminal() {
		ended := tick
		e.EndedOn = &ended
	}
	*r.events = append(*r.events, e)
	return e
}

// Cancel moves a pending event to cancelled at tick. Missing or terminal
// events are left alone; the return value reports whether anything changed.
func (r *Registry) Cancel(id string, tick int64) bool {
	e, ok := r.FindByID(id)
	if !ok || e.Status != model.StatusPending {
		return false
	}
	ended := tick
	e.Status = model.StatusCancelled
	e.EndedOn = &ended
	return true
}

// FindByID returns a pointer into the sequence. The pointer is invalidated by
// the next Submit.
func (r *Registry) FindByID(id string) (*model.GameEvent, bool) {
	for i := range *r.events {
		if (*r.events)[i].ID == id {
			return &(*r.events)[i], true
		}
	}
	return nil, false
}

// Pending returns copies of all pending events in sequence order.
func (r *Registry) Pending() []model.GameEvent {
	var out []model.GameEvent
	for _, e := range *r.events {
		if e.Status == model.StatusPending {
			out = append(out, e)
		}
	}
	return out
}
