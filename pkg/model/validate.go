package model

import "fmt"

// Validate checks that r can be scheduled: a positive countdown, and
// well-formed outcomes. Feasibility against the ledger is not checked here;
// an unaffordable event is a modeled failure, not a validation error.
func (r RawEvent) Validate() error {
	if r.TicksToComplete < 1 {
		return fmt.Errorf("%w: ticksToComplete must be >= 1, got %d", ErrInvalidEvent, r.TicksToComplete)
	}
	for i, o := range r.Outcomes {
		if err := o.Validate(); err != nil {
			return fmt.Errorf("outcome %d: %w", i, err)
		}
	}
	return nil
}

// Validate checks an outcome's fields.
func (o Outcome) Validate() error {
	if o.ResourceName == "" {
		return fmt.Errorf("%w: empty resource name", ErrInvalidEvent)
	}
	switch o.Operation {
	case OpIncrement, OpDecrement:
	default:
		return fmt.Errorf("%w: unknown operation %q", ErrInvalidEvent, o.Operation)
	}
	switch o.Timing {
	case TimingBefore, TimingAfter:
	default:
		return fmt.Errorf("%w: unknown timing %q", ErrInvalidEvent, o.Timing)
	}
	if o.Amount < 0 {
		return fmt.Errorf("%w: negative amount %d", ErrInvalidEvent, o.Amount)
	}
	return nil
}

// Split partitions outcomes by timing, preserving order within each group.
func Split(outcomes []Outcome) (before, after []Outcome) {
	for _, o := range outcomes {
		if o.Timing == TimingBefore {
			before = append(before, o)
		} else {
			after = append(after, o)
		}
	}
	return before, after
}
