package sim

import "github.com/daviddao/tickledger/pkg/model"

// settle moves events that ended on tick to the end of events, keeping the
// relative order inside both groups. It is a stable partition, not a sort:
// freshly resolved events settle to the bottom of a running log.
func settle(events []model.GameEvent, tick int64) {
	kept := make([]model.GameEvent, 0, len(events))
	var ended []model.GameEvent
	for _, ev := range events {
		if ev.EndedAt(tick) {
			ended = append(ended, ev)
		} else {
			kept = append(kept, ev)
		}
	}
	copy(events, append(kept, ended...))
}
