package clock

import (
	"fmt"
	"strings"
)

// TicksPerDay is the number of ticks in one simulated day. One tick is one
// simulated hour.
const TicksPerDay = 24

// FormatOptions selects which parts of a tick label are rendered.
type FormatOptions struct {
	RawTick   bool   // "T<tick>"
	Day       bool   // "D<day>"
	Time      bool   // "h:00 AM" or "H:00"
	Is24h     bool
	Separator string
}

// DefaultFormat renders all parts, 12-hour time, joined by "-".
var DefaultFormat = FormatOptions{
	RawTick:   true,
	Day:       true,
	Time:      true,
	Separator: "-",
}

// Format renders tick as a human label, e.g. "T13-D0-1:00 PM".
func Format(tick int64, opts FormatOptions) string {
	days := tick / TicksPerDay
	hour := tick % TicksPerDay

	var parts []string
	if opts.RawTick {
		parts = append(parts, fmt.Sprintf("T%d", tick))
	}
	if opts.Day {
		parts = append(parts, fmt.Sprintf("D%d", days))
	}
	if opts.Time {
		if opts.Is24h {
			parts = append(parts, fmt.Sprintf("%d:00", hour))
		} else {
			h := hour % 12
			if h == 0 {
				h = 12
			}
			suffix := "AM"
			if hour >= 12 {
				suffix = "PM"
			}
			parts = append(parts, fmt.Sprintf("%d:00 %s", h, suffix))
		}
	}
	return strings.Join(parts, opts.Separator)
}
