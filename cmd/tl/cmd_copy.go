package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/daviddao/tickledger/pkg/model"
)

// cmdCopy schedules a fresh copy of an existing event, whatever its status.
// The copy's countdown restarts at the original duration and its upfront
// cost is charged again. An unknown id changes nothing and is not an error.
func (a *app) cmdCopy(args []string) int {
	flags := flag.NewFlagSet("copy", flag.ContinueOnError)
	jsonOut := flags.Bool("json", false, "JSON output")
	if err := flags.Parse(args); err != nil {
		return 1
	}
	if flags.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: tl copy <id> [--json]")
		return 1
	}

	ev, ok := a.eng.DuplicateEvent(flags.Arg(0))
	if !ok {
		if *jsonOut {
			printJSON(map[string]interface{}{"copied": nil, "unchanged": flags.Arg(0)})
			return 0
		}
		fmt.Printf("%s: no change (unknown event)\n", flags.Arg(0))
		return 0
	}
	if err := a.commit("copy"); err != nil {
		return fail("copy", err)
	}

	if *jsonOut {
		printJSON(ev)
		return 0
	}
	if ev.Status == model.StatusFailed {
		fmt.Printf("%s copied from %s but failed: cannot pay its upfront cost\n", ev.ID, flags.Arg(0))
	} else {
		fmt.Printf("%s copied from %s, completes in %d tick(s)\n", ev.ID, flags.Arg(0), ev.TicksToComplete)
	}
	return 0
}
