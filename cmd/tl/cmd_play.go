package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/daviddao/tickledger/pkg/scenario"
	"github.com/daviddao/tickledger/pkg/store"
)

const playHelp = `commands:
  <enter> | a [n]            advance 1 or n ticks
  s                          status
  add <name>                 create a resource
  adjust <name> <±n>         manual correction
  submit <json>              schedule a raw event
  cancel <id>                cancel a pending event
  copy <id>                  schedule a copy of an event
  log                        list events
  q                          save and quit
`

// cmdPlay runs an interactive session over stdin. Transitions are saved by a
// background saver, so rapid advancing never waits on the disk; the last
// state is flushed on exit.
func (a *app) cmdPlay(args []string) int {
	flags := flag.NewFlagSet("play", flag.ContinueOnError)
	if err := flags.Parse(args); err != nil {
		return 1
	}
	return a.play(os.Stdin)
}

func (a *app) play(in io.Reader) int {
	saver := store.NewSaver(a.store)
	fmt.Fprintf(os.Stderr, "playing at %s (h for help, q to quit)\n", a.tickLabel(a.eng.Ticks()))

	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(os.Stderr, "tl> ")
		if !sc.Scan() {
			break
		}
		changed, quit := a.playLine(strings.TrimSpace(sc.Text()))
		if changed {
			saver.Request(a.eng.Snapshot())
		}
		if quit {
			break
		}
	}

	if err := saver.Close(); err != nil {
		return fail("play", err)
	}
	a.log.Info("play session saved", "tick", a.eng.Ticks())
	return 0
}

// playLine executes one session command. It reports whether the state
// changed and whether the session should end.
func (a *app) playLine(line string) (changed, quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		fields = []string{"a"}
	}
	arg := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}

	switch fields[0] {
	case "q", "quit", "exit":
		return false, true
	case "h", "help", "?":
		fmt.Print(playHelp)
	case "a", "advance":
		n := 1
		if s := arg(1); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil || v < 0 {
				fmt.Printf("invalid tick count %q\n", s)
				return false, false
			}
			n = v
		}
		for i := 0; i < n; i++ {
			r := a.eng.AdvanceTick()
			printReport(a.tickLabel(r.Tick), r)
		}
		fmt.Printf("now %s\n", a.tickLabel(a.eng.Ticks()))
		return n > 0, false
	case "s", "status":
		a.cmdStatus(nil)
	case "log":
		a.cmdLog(nil)
	case "add":
		if err := a.eng.CreateResource(arg(1)); err != nil {
			fmt.Printf("error: %v\n", err)
			return false, false
		}
		return true, false
	case "adjust":
		delta, err := strconv.ParseInt(arg(2), 10, 64)
		if err != nil {
			fmt.Printf("invalid delta %q\n", arg(2))
			return false, false
		}
		if err := a.eng.AdjustResource(arg(1), delta); err != nil {
			fmt.Printf("error: %v\n", err)
			return false, false
		}
		r, _ := a.eng.Resource(arg(1))
		fmt.Printf("%s = %d\n", r.Name, r.Amount)
		return true, false
	case "submit":
		raw, err := scenario.DecodeEvent([]byte(strings.TrimSpace(strings.TrimPrefix(line, fields[0]))))
		if err != nil {
			fmt.Printf("error: %v\n", err)
			return false, false
		}
		ev, err := a.eng.SubmitEvent(raw)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			return false, false
		}
		a.printEvent(ev)
		return true, false
	case "cancel":
		if !a.eng.CancelEvent(arg(1)) {
			fmt.Printf("%s: no change\n", arg(1))
			return false, false
		}
		fmt.Printf("%s cancelled\n", arg(1))
		return true, false
	case "copy":
		ev, ok := a.eng.DuplicateEvent(arg(1))
		if !ok {
			fmt.Printf("%s: no change\n", arg(1))
			return false, false
		}
		a.printEvent(ev)
		return true, false
	default:
		fmt.Printf("unknown command %q (h for help)\n", fields[0])
	}
	return false, false
}
