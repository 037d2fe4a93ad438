package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/daviddao/tickledger/pkg/scenario"
)

func (a *app) cmdScenario(args []string) int {
	flags := flag.NewFlagSet("scenario", flag.ContinueOnError)
	reset := flags.Bool("reset", false, "start from the empty simulation")
	jsonOut := flags.Bool("json", false, "JSON output")
	if err := flags.Parse(args); err != nil {
		return 1
	}
	if flags.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: tl scenario <file.yaml> [--reset] [--json]")
		return 1
	}

	sc, err := scenario.Load(flags.Arg(0))
	if err != nil {
		return fail("scenario", err)
	}
	if *reset {
		a.eng.Clear()
	}
	res, err := scenario.Apply(a.eng, sc)
	if err != nil {
		return fail("scenario", err)
	}
	if err := a.commit("scenario"); err != nil {
		return fail("scenario", err)
	}

	if *jsonOut {
		printJSON(map[string]interface{}{
			"name":      sc.Name,
			"submitted": res.Submitted,
			"reports":   res.Reports,
			"tick":      a.eng.Ticks(),
		})
		return 0
	}

	name := sc.Name
	if name == "" {
		name = flags.Arg(0)
	}
	fmt.Printf("scenario %s: %d resource(s), %d event(s) submitted\n",
		name, len(sc.Resources), len(res.Submitted))
	for _, ev := range res.Submitted {
		a.printEvent(ev)
	}
	for _, r := range res.Reports {
		printReport(a.tickLabel(r.Tick), r)
	}
	fmt.Printf("now %s\n", a.tickLabel(a.eng.Ticks()))
	return 0
}
