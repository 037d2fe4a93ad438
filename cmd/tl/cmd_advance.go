package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/daviddao/tickledger/pkg/sim"
)

// cmdAdvance moves time forward, either a fixed number of ticks or until a
// given event finishes.
//
// Usage: tl advance [--n N]
//
//	tl advance --until evt-3 [--max 1000]
func (a *app) cmdAdvance(args []string) int {
	flags := flag.NewFlagSet("advance", flag.ContinueOnError)
	n := flags.Int("n", 1, "number of ticks to advance")
	until := flags.String("until", "", "advance until this event is no longer pending")
	maxTicks := flags.Int("max", 1000, "tick limit for --until")
	quiet := flags.Bool("quiet", false, "only print the final tick")
	jsonOut := flags.Bool("json", false, "JSON output")
	if err := flags.Parse(args); err != nil {
		return 1
	}
	if *n < 0 || *maxTicks < 0 {
		fmt.Fprintln(os.Stderr, "tl: advance: --n and --max must be >= 0")
		return 1
	}

	var reports []sim.TickReport
	finished := true
	if *until != "" {
		if _, ok := a.eng.Event(*until); !ok {
			return fail("advance", fmt.Errorf("no event %q", *until))
		}
		reports, finished = a.eng.AdvanceUntil(*until, *maxTicks)
	} else {
		for i := 0; i < *n; i++ {
			reports = append(reports, a.eng.AdvanceTick())
		}
	}
	if len(reports) > 0 {
		if err := a.commit("advance"); err != nil {
			return fail("advance", err)
		}
	}

	code := 0
	if !finished {
		code = 2
	}

	if *jsonOut {
		if reports == nil {
			reports = []sim.TickReport{}
		}
		out := map[string]interface{}{"tick": a.eng.Ticks(), "reports": reports}
		if *until != "" {
			out["finished"] = finished
		}
		printJSON(out)
		return code
	}

	if !*quiet {
		for _, r := range reports {
			printReport(a.tickLabel(r.Tick), r)
		}
	}
	fmt.Printf("now %s\n", a.tickLabel(a.eng.Ticks()))
	if !finished {
		fmt.Printf("%s still pending after %d tick(s)\n", *until, len(reports))
	}
	return code
}

// printReport prints the events resolved and spawned on one tick. Quiet
// ticks print nothing.
func printReport(label string, r sim.TickReport) {
	for _, res := range r.Resolved {
		line := fmt.Sprintf("%s  %-8s %-20s %s", label, res.ID, res.Name, res.Status)
		if len(res.Short) > 0 {
			line += " (short on " + strings.Join(res.Short, ", ") + ")"
		}
		fmt.Println(line)
	}
	for _, ev := range r.Spawned {
		fmt.Printf("%s  %-8s %-20s respawned (%s)\n", label, ev.ID, ev.Name, ev.Status)
	}
}
