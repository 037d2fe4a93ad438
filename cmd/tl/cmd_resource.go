package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
)

// cmdResource dispatches the resource subcommands: add, adjust, list.
func (a *app) cmdResource(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: tl resource <add|adjust|list> ...")
		return 1
	}
	switch args[0] {
	case "add", "create":
		return a.cmdResourceAdd(args[1:])
	case "adjust", "adj":
		return a.cmdResourceAdjust(args[1:])
	case "list", "ls":
		return a.cmdResourceList(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "tl: resource: unknown subcommand %q\n", args[0])
		return 1
	}
}

func (a *app) cmdResourceAdd(args []string) int {
	flags := flag.NewFlagSet("resource add", flag.ContinueOnError)
	jsonOut := flags.Bool("json", false, "JSON output")
	if err := flags.Parse(args); err != nil {
		return 1
	}
	if flags.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: tl resource add <name>... [--json]")
		return 1
	}

	for _, name := range flags.Args() {
		if err := a.eng.CreateResource(name); err != nil {
			return fail("resource add", err)
		}
	}
	if err := a.commit("resource add"); err != nil {
		return fail("resource add", err)
	}

	if *jsonOut {
		printJSON(map[string]interface{}{"resources": a.eng.Snapshot().Resources})
	} else {
		for _, name := range flags.Args() {
			r, _ := a.eng.Resource(name)
			fmt.Printf("%s = %d\n", r.Name, r.Amount)
		}
	}
	return 0
}

func (a *app) cmdResourceAdjust(args []string) int {
	flags := flag.NewFlagSet("resource adjust", flag.ContinueOnError)
	jsonOut := flags.Bool("json", false, "JSON output")
	if err := flags.Parse(args); err != nil {
		return 1
	}
	if flags.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "usage: tl resource adjust <name> <delta> [--json]")
		fmt.Fprintln(os.Stderr, "  delta is signed: +5 adds, -5 removes. Refused if the balance would go negative.")
		return 1
	}
	name := flags.Arg(0)
	delta, err := strconv.ParseInt(flags.Arg(1), 10, 64)
	if err != nil {
		return fail("resource adjust", fmt.Errorf("invalid delta %q", flags.Arg(1)))
	}

	if err := a.eng.AdjustResource(name, delta); err != nil {
		return fail("resource adjust", err)
	}
	if err := a.commit("resource adjust"); err != nil {
		return fail("resource adjust", err)
	}

	r, _ := a.eng.Resource(name)
	if *jsonOut {
		printJSON(r)
	} else {
		fmt.Printf("%s = %d (%+d)\n", r.Name, r.Amount, delta)
	}
	return 0
}

func (a *app) cmdResourceList(args []string) int {
	flags := flag.NewFlagSet("resource list", flag.ContinueOnError)
	jsonOut := flags.Bool("json", false, "JSON output")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	res := a.eng.Snapshot().Resources
	if *jsonOut {
		printJSON(map[string]interface{}{"resources": res, "count": len(res)})
		return 0
	}
	if len(res) == 0 {
		fmt.Println("no resources")
		return 0
	}
	for _, r := range res {
		fmt.Printf("  %-20s %d\n", r.Name, r.Amount)
	}
	return 0
}
