// Command tl is the tickledger CLI: a discrete-tick resource simulation with
// a persistent ledger.
package main

import (
	"fmt"
	"log/slog"
	"os"
)

const version = "0.4.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 1 {
		printUsage()
		return 1
	}

	switch args[0] {
	case "--help", "-h", "help":
		printUsage()
		return 0
	case "--version", "-v", "version":
		fmt.Println("tl", version)
		return 0
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "tl: %v\n", err)
		return 1
	}
	slog.SetDefault(setupLogging("tickledger", version, cfg.LogFormat, cfg.LogLevel, os.Stderr))

	a, err := newApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tl: %v\n", err)
		return 1
	}
	defer a.Close()

	return a.dispatch(args[0], args[1:])
}

func (a *app) dispatch(cmd string, args []string) int {
	switch cmd {
	// Setup
	case "init":
		return a.cmdInit(args)
	case "scenario":
		return a.cmdScenario(args)
	case "clear":
		return a.cmdClear(args)

	// Ledger
	case "resource", "res":
		return a.cmdResource(args)

	// Events
	case "submit":
		return a.cmdSubmit(args)
	case "cancel":
		return a.cmdCancel(args)
	case "copy", "dup":
		return a.cmdCopy(args)

	// Time
	case "advance", "adv":
		return a.cmdAdvance(args)
	case "play":
		return a.cmdPlay(args)

	// Inspection
	case "status":
		return a.cmdStatus(args)
	case "log":
		return a.cmdLog(args)
	case "history":
		return a.cmdHistory(args)

	// Archives
	case "export":
		return a.cmdExport(args)
	case "import":
		return a.cmdImport(args)

	default:
		fmt.Fprintf(os.Stderr, "tl: unknown command %q\n", cmd)
		fmt.Fprintln(os.Stderr, "Run 'tl --help' for usage.")
		return 1
	}
}

func printUsage() {
	fmt.Printf(`tl: discrete-tick resource simulation

Named resources never go below zero. Events charge their "before" costs when
submitted and pay their "after" outcomes when their countdown runs out.
Time moves only when you advance it.

Usage:
  tl <command> [flags]

Setup:
  init                          Create the database and an empty simulation
  scenario <file.yaml>          Apply a scripted scenario [--reset]
  clear                         Reset to the empty simulation, drop history

Ledger:
  resource add <name>...        Create resources at zero (idempotent)
  resource adjust <name> <±n>   Manual correction, refused if it would go negative
  resource list                 Show balances

Events:
  submit --name N --ticks T     Schedule an event
         [--before res:±n]... [--after res:±n]... [--repeat]
  submit --file event.json      Schedule an event from JSON (- for stdin)
  cancel <id>...                Cancel pending events
  copy <id>                     Schedule a fresh copy of an event

Time:
  advance [--n N]               Advance N ticks (default 1)
  advance --until ID [--max M]  Advance until event ID finishes
  play                          Interactive session (saves in the background)

Inspection:
  status                        Tick, balances, next resolving events
  log [--status S]              Event list with progress
  history [--limit N]           Saved snapshot revisions

Archives:
  export <file>                 Write a compressed snapshot
  import <file>                 Replace the simulation from a snapshot or JSON export

Aliases:
  res = resource, dup = copy, adv = advance

Environment:
  TICKLEDGER_DB          SQLite database path (default: %s)
  TICKLEDGER_LOG_FORMAT  text or json (default: text)
  TICKLEDGER_LOG_LEVEL   debug, info, warn, error (default: warn)
  TICKLEDGER_24H         show ticks on a 24-hour clock

Read commands support --json for machine-readable output.

Exit codes:
  0  success
  1  error
  2  advance --until stopped before the event finished
`, defaultDB)
}
