// Package clock implements the simulation's tick counter.
//
// Simulated time is a non-negative integer that moves forward by exactly one
// per advance. There is no rewind and no multi-tick jump: callers that want
// to skip ahead call Tick repeatedly so every intermediate tick is resolved.
//
// Note: Clock is not goroutine-safe. Each Clock is short-lived, seeded from
// the persisted state at the start of a transition.
package clock

// Clock is a monotonic tick counter. Not goroutine-safe; see package doc.
type Clock struct {
	ts int64
}

// Tick advances the clock by one and returns the new tick.
func (c *Clock) Tick() int64 {
	c.ts++
	return c.ts
}

// Value returns the current tick without advancing it.
func (c *Clock) Value() int64 { return c.ts }

// Set seeds the clock from a persisted tick count. Negative values are
// treated as zero.
func (c *Clock) Set(v int64) {
	if v < 0 {
		v = 0
	}
	c.ts = v
}
