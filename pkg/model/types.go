// Package model defines the core domain types for tickledger.
//
// Tickledger is a discrete-tick resource simulation built on two ideas:
//
//   - A ledger of named, non-negative resource balances. Every change to a
//     balance goes through a feasibility check first; a balance never goes
//     below zero.
//
//   - Game events that charge an upfront cost ("before" outcomes) when they
//     are created and pay out ("after" outcomes) when their countdown reaches
//     zero. Time only moves when the caller advances it, one tick at a time.
//
// The whole simulation is a single State value: resources, events, ticks.
package model

import "errors"

// ErrInvalidEvent is returned when a raw event cannot be scheduled as given.
var ErrInvalidEvent = errors.New("invalid event")

// Operation is the direction of an outcome's resource change.
type Operation string

const (
	OpIncrement Operation = "increment"
	OpDecrement Operation = "decrement"
)

// Timing says when an outcome is applied relative to the event's lifetime.
type Timing string

const (
	// TimingBefore outcomes are charged when the event is created.
	TimingBefore Timing = "before"
	// TimingAfter outcomes are applied when the event completes.
	TimingAfter Timing = "after"
)

// Status is the lifecycle state of a GameEvent.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// Terminal reports whether s is a final status. Terminal events never change.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusFailed
}

// Resource is a named balance. Amount is never negative.
type Resource struct {
	Name   string `json:"name"`
	Amount int64  `json:"amount"`
}

// Outcome is one resource delta attached to an event.
type Outcome struct {
	ResourceName string    `json:"resourceName"`
	Operation    Operation `json:"operation"`
	Amount       int64     `json:"amount"`
	Timing       Timing    `json:"timing"`
}

// Delta returns the signed change: +Amount for increment, -Amount for
// decrement.
func (o Outcome) Delta() int64 {
	if o.Operation == OpDecrement {
		return -o.Amount
	}
	return o.Amount
}

// RawEvent is an event as submitted by a caller, before the registry has
// assigned it an identity.
type RawEvent struct {
	Name            string    `json:"name"`
	TicksToComplete int64     `json:"ticksToComplete"`
	Outcomes        []Outcome `json:"outcomes"`
	IsRepeating     bool      `json:"isRepeating"`
}

// GameEvent is a scheduled event tracked by the registry.
type GameEvent struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	TicksToComplete int64     `json:"ticksToComplete"`
	TicksTotal      int64     `json:"ticksTotal"`
	Outcomes        []Outcome `json:"outcomes"`
	IsRepeating     bool      `json:"isRepeating"`
	AddedOn         int64     `json:"addedOn"`
	EndedOn         *int64    `json:"endedOn"`
	Status          Status    `json:"status"`
}

// Raw returns the event's submission form with the countdown reset to
// TicksTotal. Used to respawn repeating events and to duplicate events.
func (e GameEvent) Raw() RawEvent {
	return RawEvent{
		Name:            e.Name,
		TicksToComplete: e.TicksTotal,
		Outcomes:        append([]Outcome(nil), e.Outcomes...),
		IsRepeating:     e.IsRepeating,
	}
}

// EndedAt reports whether the event left pending at tick.
func (e GameEvent) EndedAt(tick int64) bool {
	return e.EndedOn != nil && *e.EndedOn == tick
}

// State is the complete simulation snapshot.
type State struct {
	Resources []Resource  `json:"resources"`
	Events    []GameEvent `json:"events"`
	Ticks     int64       `json:"ticks"`
}

// DefaultState returns the empty state used when no snapshot exists.
func DefaultState() State {
	return State{Resources: []Resource{}, Events: []GameEvent{}, Ticks: 0}
}

// Clone returns a deep copy of s. Snapshots handed to persistence are clones
// so that later transitions never leak into a save in progress.
func (s State) Clone() State {
	out := State{
		Resources: make([]Resource, len(s.Resources)),
		Events:    make([]GameEvent, len(s.Events)),
		Ticks:     s.Ticks,
	}
	copy(out.Resources, s.Resources)
	for i, e := range s.Events {
		e.Outcomes = append([]Outcome(nil), e.Outcomes...)
		if e.EndedOn != nil {
			v := *e.EndedOn
			e.EndedOn = &v
		}
		out.Events[i] = e
	}
	return out
}

// Normalize replaces nil slices with empty ones so that encoded snapshots
// always carry arrays, never null.
func (s *State) Normalize() {
	if s.Resources == nil {
		s.Resources = []Resource{}
	}
	if s.Events == nil {
		s.Events = []GameEvent{}
	}
	for i := range s.Events {
		if s.Events[i].Outcomes == nil {
			s.Events[i].Outcomes = []Outcome{}
		}
	}
}
