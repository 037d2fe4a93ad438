package main

import (
	"flag"
	"fmt"

	"github.com/daviddao/tickledger/pkg/model"
)

func (a *app) cmdHistory(args []string) int {
	flags := flag.NewFlagSet("history", flag.ContinueOnError)
	limit := flags.Int("limit", 20, "max revisions to show")
	jsonOut := flags.Bool("json", false, "JSON output")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	revs, err := a.store.ListRevisions(*limit)
	if err != nil {
		return fail("history", err)
	}
	if revs == nil {
		revs = []model.Revision{}
	}

	if *jsonOut {
		printJSON(map[string]interface{}{"revisions": revs, "count": len(revs)})
		return 0
	}
	if len(revs) == 0 {
		fmt.Println("no revisions")
		return 0
	}
	for _, r := range revs {
		fmt.Printf("  %s  %-22s %3d resource(s) %4d event(s)  %s\n",
			r.ID, a.tickLabel(r.Tick), r.Resources, r.Events,
			r.SavedAt.Local().Format("2006-01-02 15:04:05"))
	}
	return 0
}
