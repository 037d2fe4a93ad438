// Package scenario loads scripted starting positions from YAML.
//
// A scenario names the resources to create with their opening balances, the
// events to submit in order, and how many ticks to run afterwards:
//
//	name: orchard
//	resources:
//	  - name: apples
//	    amount: 10
//	events:
//	  - name: harvest
//	    ticks: 3
//	    repeating: true
//	    before: [{resource: apples, delta: -2}]
//	    after:  [{resource: apples, delta: 5}]
//	advance: 6
//
// Outcome deltas are signed: positive increments, negative decrements.
package scenario

import (
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"

	"github.com/daviddao/tickledger/pkg/model"
	"github.com/daviddao/tickledger/pkg/sim"
)

// Scenario is a parsed scenario file.
type Scenario struct {
	Name      string         `yaml:"name"`
	Resources []ResourceSpec `yaml:"resources"`
	Events    []EventSpec    `yaml:"events"`
	Advance   int            `yaml:"advance"`
}

// ResourceSpec is a resource with its opening balance.
type ResourceSpec struct {
	Name   string `yaml:"name"`
	Amount int64  `yaml:"amount"`
}

// EventSpec is the YAML form of a raw event.
type EventSpec struct {
	Name      string        `yaml:"name"`
	Ticks     int64         `yaml:"ticks"`
	Repeating bool          `yaml:"repeating"`
	Before    []OutcomeSpec `yaml:"before"`
	After     []OutcomeSpec `yaml:"after"`
}

// OutcomeSpec is one signed resource change.
type OutcomeSpec struct {
	Resource string `yaml:"resource"`
	Delta    int64  `yaml:"delta"`
}

func (o OutcomeSpec) outcome(t model.Timing) model.Outcome {
	out := model.Outcome{ResourceName: o.Resource, Operation: model.OpIncrement, Amount: o.Delta, Timing: t}
	if o.Delta < 0 {
		out.Operation = model.OpDecrement
		out.Amount = -o.Delta
	}
	return out
}

// Raw converts the spec to a raw event. Before outcomes come first.
func (e EventSpec) Raw() model.RawEvent {
	raw := model.RawEvent{
		Name:            e.Name,
		TicksToComplete: e.Ticks,
		IsRepeating:     e.Repeating,
		Outcomes:        make([]model.Outcome, 0, len(e.Before)+len(e.After)),
	}
	for _, o := range e.Before {
		raw.Outcomes = append(raw.Outcomes, o.outcome(model.TimingBefore))
	}
	for _, o := range e.After {
		raw.Outcomes = append(raw.Outcomes, o.outcome(model.TimingAfter))
	}
	return raw
}

// Load reads and validates a scenario file.
func Load(path string) (Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return Scenario{}, oops.Code("SCENARIO_READ_FAILED").With("path", path).Wrap(err)
	}
	defer f.Close()

	sc, err := Decode(f)
	if err != nil {
		return Scenario{}, oops.With("path", path).Wrap(err)
	}
	return sc, nil
}

// Decode parses a scenario from r. Unknown keys are rejected.
func Decode(r io.Reader) (Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil && !errors.Is(err, io.EOF) {
		return Scenario{}, oops.Code("SCENARIO_INVALID").Wrapf(err, "parse yaml")
	}
	if err := sc.Validate(); err != nil {
		return Scenario{}, err
	}
	return sc, nil
}

// Parse is Decode over a byte slice.
func Parse(data []byte) (Scenario, error) {
	return Decode(bytes.NewReader(data))
}

// Validate checks resource names and balances and every event.
func (sc Scenario) Validate() error {
	errb := oops.Code("SCENARIO_INVALID").With("scenario", sc.Name)
	if sc.Advance < 0 {
		return errb.Errorf("advance must be >= 0, got %d", sc.Advance)
	}
	seen := make(map[string]bool, len(sc.Resources))
	for _, r := range sc.Resources {
		if r.Name == "" {
			return errb.Errorf("resource with empty name")
		}
		if seen[r.Name] {
			return errb.With("resource", r.Name).Errorf("duplicate resource %q", r.Name)
		}
		if r.Amount < 0 {
			return errb.With("resource", r.Name).Errorf("resource %q: amount must be >= 0, got %d", r.Name, r.Amount)
		}
		seen[r.Name] = true
	}
	for i, e := range sc.Events {
		if e.Name == "" {
			return errb.With("index", i).Errorf("event %d has no name", i)
		}
		if err := e.Raw().Validate(); err != nil {
			return errb.With("event", e.Name).Wrap(err)
		}
	}
	return nil
}

// Result is what Apply did.
type Result struct {
	Submitted []model.GameEvent `json:"submitted"`
	Reports   []sim.TickReport  `json:"reports"`
}

// Apply plays sc onto eng: resources are created and moved to their opening
// balance through the guarded adjust path, events are submitted in order,
// then the engine advances sc.Advance ticks. An event whose upfront cost
// cannot be paid is submitted as failed, like any other submission.
func Apply(eng *sim.Engine, sc Scenario) (Result, error) {
	errb := oops.Code("SCENARIO_APPLY_FAILED").With("scenario", sc.Name)
	for _, r := range sc.Resources {
		if err := eng.CreateResource(r.Name); err != nil {
			return Result{}, errb.With("resource", r.Name).Wrap(err)
		}
		cur, _ := eng.Resource(r.Name)
		if delta := r.Amount - cur.Amount; delta != 0 {
			if err := eng.AdjustResource(r.Name, delta); err != nil {
				return Result{}, errb.With("resource", r.Name).Wrap(err)
			}
		}
	}

	res := Result{Submitted: []model.GameEvent{}, Reports: []sim.TickReport{}}
	for _, e := range sc.Events {
		ev, err := eng.SubmitEvent(e.Raw())
		if err != nil {
			return Result{}, errb.With("event", e.Name).Wrap(err)
		}
		res.Submitted = append(res.Submitted, ev)
	}
	for i := 0; i < sc.Advance; i++ {
		res.Reports = append(res.Reports, eng.AdvanceTick())
	}
	return res, nil
}
