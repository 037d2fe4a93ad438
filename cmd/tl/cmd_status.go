package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/daviddao/tickledger/pkg/frontier"
	"github.com/daviddao/tickledger/pkg/model"
)

func (a *app) cmdStatus(args []string) int {
	flags := flag.NewFlagSet("status", flag.ContinueOnError)
	jsonOut := flags.Bool("json", false, "JSON output")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	s := a.eng.Snapshot()
	fr := frontier.ComputeFrontierStatus(s)
	counts := statusCounts(s.Events)

	if *jsonOut {
		printJSON(map[string]interface{}{
			"ticks":     s.Ticks,
			"label":     a.tickLabel(s.Ticks),
			"resources": s.Resources,
			"counts":    counts,
			"frontier":  fr,
		})
		return 0
	}

	fmt.Printf("tick: %s\n", a.tickLabel(s.Ticks))

	if len(s.Resources) == 0 {
		fmt.Println("resources: none")
	} else {
		fmt.Println("resources:")
		for _, r := range s.Resources {
			fmt.Printf("  %-20s %d\n", r.Name, r.Amount)
		}
	}

	fmt.Printf("events: %d pending, %d completed, %d failed, %d cancelled\n",
		counts[model.StatusPending], counts[model.StatusCompleted],
		counts[model.StatusFailed], counts[model.StatusCancelled])

	if len(fr.Due) > 0 {
		fmt.Printf("next: %s\n", a.tickLabel(fr.NextTick))
		for _, d := range fr.Due {
			verdict := "ok"
			if !d.CanPay {
				verdict = "AT RISK, short on " + strings.Join(d.ShortOn, ", ")
			}
			fmt.Printf("  %-8s %-20s %s\n", d.ID, d.Name, verdict)
		}
	}
	return 0
}

// statusCounts tallies events by status. Every status is present.
func statusCounts(events []model.GameEvent) map[model.Status]int {
	counts := map[model.Status]int{
		model.StatusPending:   0,
		model.StatusCompleted: 0,
		model.StatusFailed:    0,
		model.StatusCancelled: 0,
	}
	for _, e := range events {
		counts[e.Status]++
	}
	return counts
}
