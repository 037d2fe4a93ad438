// Package frontier computes the resolution frontier of a simulation: the
// pending events that will come due on the earliest upcoming tick.
//
// The frontier answers "what happens on the next interesting advance?"
// without running it. Affordability is judged against the current ledger,
// each event on its own; the tick engine resolves frontier events in
// sequence order, so an earlier event's payout or cost can still change the
// verdict for a later one. Treat the status as a forecast.
package frontier

import (
	"github.com/daviddao/tickledger/pkg/ledger"
	"github.com/daviddao/tickledger/pkg/model"
	"github.com/daviddao/tickledger/pkg/registry"
)

// ComputeFrontier returns the pending events with the smallest remaining
// countdown, in sequence order. An event e is in the frontier iff no other
// pending event has fewer ticks left.
func ComputeFrontier(events []model.GameEvent) []model.GameEvent {
	var frontier []model.GameEvent
	var least int64
	for _, e := range registry.New(&events).Pending() {
		switch {
		case len(frontier) == 0 || e.TicksToComplete < least:
			frontier = []model.GameEvent{e}
			least = e.TicksToComplete
		case e.TicksToComplete == least:
			frontier = append(frontier, e)
		}
	}
	return frontier
}

// Progress returns how far along a pending event is, in [0, 1]. Terminal
// events report 1 when completed and their last progress otherwise.
func Progress(e model.GameEvent) float64 {
	if e.Status == model.StatusCompleted || e.TicksTotal <= 0 {
		return 1
	}
	done := e.TicksTotal - e.TicksToComplete
	if done < 0 {
		return 0
	}
	if done > e.TicksTotal {
		return 1
	}
	return float64(done) / float64(e.TicksTotal)
}

// Due is one frontier event with its forecast.
type Due struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	CanPay  bool     `json:"can_pay"`
	ShortOn []string `json:"short_on,omitempty"`
}

// FrontierStatus is the forecast for the next resolving tick.
type FrontierStatus struct {
	// NextTick is the tick on which the frontier resolves; zero when nothing
	// is pending.
	NextTick int64 `json:"next_tick"`
	Pending  int   `json:"pending"`
	Due      []Due `json:"due"`
	// AtRisk counts frontier events that would fail against the current
	// ledger.
	AtRisk int `json:"at_risk"`
}

// ComputeFrontierStatus forecasts the next resolving tick of s.
func ComputeFrontierStatus(s model.State) FrontierStatus {
	status := FrontierStatus{Due: []Due{}}
	status.Pending = len(registry.New(&s.Events).Pending())

	f := ComputeFrontier(s.Events)
	if len(f) == 0 {
		return status
	}
	remaining := f[0].TicksToComplete
	if remaining < 1 {
		remaining = 1
	}
	status.NextTick = s.Ticks + remaining

	res := append([]model.Resource(nil), s.Resources...)
	l := ledger.New(&res)
	for _, e := range f {
		_, after := model.Split(e.Outcomes)
		ok, short := l.Feasible(after)
		status.Due = append(status.Due, Due{ID: e.ID, Name: e.Name, CanPay: ok, ShortOn: short})
		if !ok {
			status.AtRisk++
		}
	}
	return status
}
