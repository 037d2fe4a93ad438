package main

import (
	"flag"
	"fmt"
)

// cmdClear resets the simulation and drops its revision history.
func (a *app) cmdClear(args []string) int {
	flags := flag.NewFlagSet("clear", flag.ContinueOnError)
	jsonOut := flags.Bool("json", false, "JSON output")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	a.eng.Clear()
	if err := a.store.Clear(); err != nil {
		return fail("clear", err)
	}
	a.log.Info("simulation cleared")

	if *jsonOut {
		printJSON(map[string]interface{}{"cleared": true})
		return 0
	}
	fmt.Println("cleared simulation and history")
	return 0
}
