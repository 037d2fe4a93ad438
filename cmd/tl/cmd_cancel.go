package main

import (
	"flag"
	"fmt"
	"os"
)

func (a *app) cmdCancel(args []string) int {
	flags := flag.NewFlagSet("cancel", flag.ContinueOnError)
	jsonOut := flags.Bool("json", false, "JSON output")
	if err := flags.Parse(args); err != nil {
		return 1
	}
	if flags.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: tl cancel <id>... [--json]")
		fmt.Fprintln(os.Stderr, "  Only pending events can be cancelled; upfront costs are not refunded.")
		return 1
	}

	var cancelled, unchanged []string
	for _, id := range flags.Args() {
		if a.eng.CancelEvent(id) {
			cancelled = append(cancelled, id)
		} else {
			unchanged = append(unchanged, id)
		}
	}
	if len(cancelled) > 0 {
		if err := a.commit("cancel"); err != nil {
			return fail("cancel", err)
		}
	}

	if *jsonOut {
		printJSON(map[string]interface{}{
			"cancelled": nonNil(cancelled),
			"unchanged": nonNil(unchanged),
		})
		return 0
	}
	for _, id := range cancelled {
		fmt.Printf("%s cancelled at %s\n", id, a.tickLabel(a.eng.Ticks()))
	}
	for _, id := range unchanged {
		fmt.Printf("%s: no change (unknown or already finished)\n", id)
	}
	return 0
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
