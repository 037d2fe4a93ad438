package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/daviddao/tickledger/pkg/frontier"
	"github.com/daviddao/tickledger/pkg/model"
)

// eventView is an event with its display progress.
type eventView struct {
	model.GameEvent
	Progress float64 `json:"progress"`
}

func (a *app) cmdLog(args []string) int {
	flags := flag.NewFlagSet("log", flag.ContinueOnError)
	status := flags.String("status", "", "filter by status (pending, completed, failed, cancelled)")
	limit := flags.Int("limit", 0, "show only the last N events (0 = all)")
	jsonOut := flags.Bool("json", false, "JSON output")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	switch model.Status(*status) {
	case "", model.StatusPending, model.StatusCompleted, model.StatusFailed, model.StatusCancelled:
	default:
		fmt.Fprintf(os.Stderr, "tl: log: unknown status %q\n", *status)
		return 1
	}

	events := filterEvents(a.eng.Snapshot().Events, model.Status(*status), *limit)

	if *jsonOut {
		views := make([]eventView, len(events))
		for i, e := range events {
			views[i] = eventView{GameEvent: e, Progress: frontier.Progress(e)}
		}
		printJSON(map[string]interface{}{"events": views, "count": len(views)})
		return 0
	}

	if len(events) == 0 {
		fmt.Println("no events")
		return 0
	}
	for _, e := range events {
		fmt.Printf("  %-8s %-20s %-9s %3.0f%%  added %s  %s\n",
			e.ID, e.Name, e.Status, frontier.Progress(e)*100,
			a.tickLabel(e.AddedOn), eventDetail(e))
	}
	return 0
}

// filterEvents keeps events matching status (all when empty), in sequence
// order, then trims to the last limit entries when limit > 0.
func filterEvents(events []model.GameEvent, status model.Status, limit int) []model.GameEvent {
	out := make([]model.GameEvent, 0, len(events))
	for _, e := range events {
		if status == "" || e.Status == status {
			out = append(out, e)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}
