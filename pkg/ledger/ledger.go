// Package ledger keeps named, non-negative resource balances.
//
// The guard and the write are separate operations: WouldExhaust and Feasible
// only read, Apply and ApplyAll only write. The tick engine checks a whole
// group of outcomes before committing any of them, which is what makes event
// resolution all-or-nothing.
package ledger

import (
	"errors"
	"fmt"

	"github.com/daviddao/tickledger/pkg/model"
)

var (
	// ErrEmptyName is returned when creating a resource without a name.
	ErrEmptyName = errors.New("resource name is empty")
	// ErrUnknownResource is returned by Adjust for a name with no balance.
	ErrUnknownResource = errors.New("unknown resource")
	// ErrInsufficient is returned by Adjust when the change would take the
	// balance below zero.
	ErrInsufficient = errors.New("insufficient resource")
)

// Ledger is a view over a state's resource slice. It mutates the slice it
// was created from, so a Ledger must not outlive the transition it serves.
type Ledger struct {
	res *[]model.Resource
}

// New returns a ledger operating on *res.
func New(res *[]model.Resource) *Ledger {
	return &Ledger{res: res}
}

func (l *Ledger) index(name string) int {
	for i, r := range *l.res {
		if r.Name == name {
			return i
		}
	}
	return -1
}

// Get returns the named resource.
func (l *Ledger) Get(name string) (model.Resource, bool) {
	if i := l.index(name); i >= 0 {
		return (*l.res)[i], true
	}
	return model.Resource{}, false
}

// Create inserts {name, 0}. Idempotent: an existing balance is untouched.
func (l *Ledger) Create(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	if l.index(name) >= 0 {
		return nil
	}
	*l.res = append(*l.res, model.Resource{Name: name, Amount: 0})
	return nil
}

// WouldExhaust reports whether applying delta to name would drive it below
// zero. A missing resource is insufficient for any negative delta.
func (l *Ledger) WouldExhaust(name string, delta int64) bool {
	if delta >= 0 {
		return false
	}
	i := l.index(name)
	if i < 0 {
		return true
	}
	return (*l.res)[i].Amount+delta < 0
}

// Apply adds delta to name. It performs no guard; callers check feasibility
// first. Deltas on a missing resource are dropped.
func (l *Ledger) Apply(name string, delta int64) {
	if i := l.index(name); i >= 0 {
		(*l.res)[i].Amount += delta
	}
}

// Feasible reports whether every outcome in the group can be applied
// together. Each outcome is checked against the balance on its own, so a
// credit in the group never pays for a debit in the same group. Debits on
// one resource are also checked cumulatively, so two outcomes cannot jointly
// overdraw it. An outcome that names a missing resource makes the group
// infeasible regardless of sign. The names of short or missing resources are
// returned in first-seen order.
func (l *Ledger) Feasible(outcomes []model.Outcome) (bool, []string) {
	debits := make(map[string]int64, len(outcomes))
	flagged := make(map[string]bool)
	var short []string
	for _, o := range outcomes {
		name, delta := o.ResourceName, o.Delta()
		if delta < 0 {
			debits[name] += delta
		}
		bad := l.index(name) < 0 || l.WouldExhaust(name, delta) || l.WouldExhaust(name, debits[name])
		if bad && !flagged[name] {
			flagged[name] = true
			short = append(short, name)
		}
	}
	return len(short) == 0, short
}

// ApplyAll applies every outcome's delta. The group must be Feasible.
func (l *Ledger) ApplyAll(outcomes []model.Outcome) {
	for _, o := range outcomes {
		l.Apply(o.ResourceName, o.Delta())
	}
}

// Adjust is the manual correction path. Unlike Apply it is guarded: it
// refuses unknown resources and changes that would go below zero, leaving
// the balance untouched.
func (l *Ledger) Adjust(name string, delta int64) error {
	i := l.index(name)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownResource, name)
	}
	if l.WouldExhaust(name, delta) {
		return fmt.Errorf("%w: %s has %d, change %d", ErrInsufficient, name, (*l.res)[i].Amount, delta)
	}
	(*l.res)[i].Amount += delta
	return nil
}
