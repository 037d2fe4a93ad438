package main

import (
	"flag"
	"fmt"
)

func (a *app) cmdInit(args []string) int {
	flags := flag.NewFlagSet("init", flag.ContinueOnError)
	jsonOut := flags.Bool("json", false, "JSON output")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	existing, err := a.store.HasSnapshot()
	if err != nil {
		return fail("init", fmt.Errorf("database error: %w", err))
	}
	if !existing {
		if err := a.commit("init"); err != nil {
			return fail("init", err)
		}
	}

	s := a.eng.Snapshot()
	if *jsonOut {
		printJSON(map[string]interface{}{
			"db":        a.cfg.DB,
			"existing":  existing,
			"ticks":     s.Ticks,
			"resources": len(s.Resources),
			"events":    len(s.Events),
		})
		return 0
	}

	dbNote := ""
	if a.cfg.DB == defaultDB {
		dbNote = ", default"
	}
	fmt.Printf("initialized tickledger (db: %s%s)\n", a.cfg.DB, dbNote)
	if existing {
		fmt.Printf("  existing simulation at %s: %d resource(s), %d event(s)\n",
			a.tickLabel(s.Ticks), len(s.Resources), len(s.Events))
	}

	fmt.Println()
	fmt.Println("next steps:")
	fmt.Println("  tl resource add wood gold          # create resources")
	fmt.Println("  tl submit --name chop --ticks 3 --after wood:+5")
	fmt.Println("  tl advance --n 3                   # move time forward")
	fmt.Println("  tl status                          # see where things stand")
	return 0
}
