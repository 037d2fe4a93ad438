package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/daviddao/tickledger/pkg/model"
	"github.com/daviddao/tickledger/pkg/scenario"
)

// cmdSubmit schedules one event, built from flags or read from a JSON file.
//
// Usage: tl submit --name chop --ticks 3 --before gold:-1 --after wood:+5
//
//	tl submit --file event.json
func (a *app) cmdSubmit(args []string) int {
	flags := flag.NewFlagSet("submit", flag.ContinueOnError)
	name := flags.String("name", "", "event name")
	ticks := flags.Int64("ticks", 1, "ticks until the event completes (>= 1)")
	repeat := flags.Bool("repeat", false, "respawn the event each time it completes")
	file := flags.String("file", "", "read the raw event as JSON from this file (- for stdin)")
	jsonOut := flags.Bool("json", false, "JSON output")

	var outcomes []model.Outcome
	outcomeFlag := func(t model.Timing) func(string) error {
		return func(s string) error {
			o, err := parseOutcome(s, t)
			if err != nil {
				return err
			}
			outcomes = append(outcomes, o)
			return nil
		}
	}
	flags.Func("before", "cost charged on submit, as resource:±n (repeatable)", outcomeFlag(model.TimingBefore))
	flags.Func("after", "outcome applied on completion, as resource:±n (repeatable)", outcomeFlag(model.TimingAfter))
	if err := flags.Parse(args); err != nil {
		return 1
	}

	var raw model.RawEvent
	if *file != "" {
		data, err := readInput(*file)
		if err != nil {
			return fail("submit", err)
		}
		if raw, err = scenario.DecodeEvent(data); err != nil {
			return fail("submit", err)
		}
	} else {
		if *name == "" {
			fmt.Fprintln(os.Stderr, "usage: tl submit --name N --ticks T [--before res:±n]... [--after res:±n]... [--repeat]")
			fmt.Fprintln(os.Stderr, "       tl submit --file event.json")
			return 1
		}
		raw = model.RawEvent{Name: *name, TicksToComplete: *ticks, Outcomes: outcomes, IsRepeating: *repeat}
		if raw.Outcomes == nil {
			raw.Outcomes = []model.Outcome{}
		}
	}

	ev, err := a.eng.SubmitEvent(raw)
	if err != nil {
		return fail("submit", err)
	}
	if err := a.commit("submit"); err != nil {
		return fail("submit", err)
	}

	if *jsonOut {
		printJSON(ev)
		return 0
	}
	switch ev.Status {
	case model.StatusFailed:
		fmt.Printf("%s %q failed: cannot pay its upfront cost\n", ev.ID, ev.Name)
	default:
		fmt.Printf("%s %q scheduled at %s, completes in %d tick(s)\n",
			ev.ID, ev.Name, a.tickLabel(ev.AddedOn), ev.TicksToComplete)
	}
	return 0
}

// parseOutcome parses "resource:±n". A bare number increments.
func parseOutcome(s string, t model.Timing) (model.Outcome, error) {
	i := strings.LastIndex(s, ":")
	if i <= 0 || i == len(s)-1 {
		return model.Outcome{}, fmt.Errorf("outcome %q: want resource:±n", s)
	}
	delta, err := strconv.ParseInt(s[i+1:], 10, 64)
	if err != nil {
		return model.Outcome{}, fmt.Errorf("outcome %q: invalid amount", s)
	}
	o := model.Outcome{ResourceName: s[:i], Operation: model.OpIncrement, Amount: delta, Timing: t}
	if delta < 0 {
		o.Operation = model.OpDecrement
		o.Amount = -delta
	}
	return o, nil
}

// readInput reads a whole file, or stdin for "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
