package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/daviddao/tickledger/pkg/model"
	"github.com/daviddao/tickledger/pkg/store"
)

func newTestApp(t *testing.T) *app {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	a, err := newAppWithStore(config{DB: dbPath}, s)
	if err != nil {
		t.Fatalf("newAppWithStore: %v", err)
	}
	return a
}

// reopen builds a fresh app over the same store, as a second invocation of
// the CLI would.
func reopen(t *testing.T, a *app) *app {
	t.Helper()
	b, err := newAppWithStore(a.cfg, a.store)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	return b
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old
	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

func captureStderr(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w

	fn()

	w.Close()
	os.Stderr = old
	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

// mustRun runs a command and fails the test on a non-zero exit code.
func mustRun(t *testing.T, a *app, cmd string, args ...string) string {
	t.Helper()
	var code int
	out := captureStdout(t, func() { code = a.dispatch(cmd, args) })
	if code != 0 {
		t.Fatalf("tl %s %v: exit %d, output:\n%s", cmd, args, code, out)
	}
	return out
}

// --- parseOutcome tests ---

func TestParseOutcome(t *testing.T) {
	tests := []struct {
		in      string
		want    model.Outcome
		wantErr bool
	}{
		{"wood:+5", model.Outcome{ResourceName: "wood", Operation: model.OpIncrement, Amount: 5, Timing: model.TimingAfter}, false},
		{"wood:5", model.Outcome{ResourceName: "wood", Operation: model.OpIncrement, Amount: 5, Timing: model.TimingAfter}, false},
		{"gold:-3", model.Outcome{ResourceName: "gold", Operation: model.OpDecrement, Amount: 3, Timing: model.TimingAfter}, false},
		{"ns:key:2", model.Outcome{ResourceName: "ns:key", Operation: model.OpIncrement, Amount: 2, Timing: model.TimingAfter}, false},
		{"wood", model.Outcome{}, true},
		{":5", model.Outcome{}, true},
		{"wood:", model.Outcome{}, true},
		{"wood:lots", model.Outcome{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseOutcome(tt.in, model.TimingAfter)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseOutcome(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("parseOutcome(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

// --- helper tests ---

func TestFilterEvents(t *testing.T) {
	events := []model.GameEvent{
		{ID: "evt-0", Status: model.StatusCompleted},
		{ID: "evt-1", Status: model.StatusPending},
		{ID: "evt-2", Status: model.StatusPending},
		{ID: "evt-3", Status: model.StatusFailed},
	}
	if got := filterEvents(events, "", 0); len(got) != 4 {
		t.Fatalf("no filter: got %d", len(got))
	}
	got := filterEvents(events, model.StatusPending, 0)
	if len(got) != 2 || got[0].ID != "evt-1" || got[1].ID != "evt-2" {
		t.Fatalf("pending filter = %+v", got)
	}
	got = filterEvents(events, "", 2)
	if len(got) != 2 || got[0].ID != "evt-2" || got[1].ID != "evt-3" {
		t.Fatalf("limit 2 = %+v", got)
	}
}

func TestStatusCounts(t *testing.T) {
	counts := statusCounts([]model.GameEvent{
		{Status: model.StatusPending}, {Status: model.StatusPending}, {Status: model.StatusFailed},
	})
	if counts[model.StatusPending] != 2 || counts[model.StatusFailed] != 1 {
		t.Fatalf("counts = %v", counts)
	}
	if _, ok := counts[model.StatusCancelled]; !ok {
		t.Fatal("every status should be present")
	}
}

func TestEventDetail(t *testing.T) {
	ended := int64(7)
	tests := []struct {
		e    model.GameEvent
		want string
	}{
		{model.GameEvent{Status: model.StatusPending, TicksToComplete: 2, TicksTotal: 5}, "2/5 ticks left"},
		{model.GameEvent{Status: model.StatusPending, TicksToComplete: 1, TicksTotal: 1, IsRepeating: true}, "1/1 ticks left (repeats)"},
		{model.GameEvent{Status: model.StatusCompleted, EndedOn: &ended}, "ended T7"},
	}
	for _, tt := range tests {
		if got := eventDetail(tt.e); got != tt.want {
			t.Errorf("eventDetail(%+v) = %q, want %q", tt.e, got, tt.want)
		}
	}
}

// --- command tests ---

func TestInit_SavesDefaultOnce(t *testing.T) {
	a := newTestApp(t)
	out := mustRun(t, a, "init")
	if !strings.Contains(out, "initialized tickledger") {
		t.Fatalf("init output: %q", out)
	}
	ok, err := a.store.HasSnapshot()
	if err != nil || !ok {
		t.Fatalf("HasSnapshot after init = %v, %v", ok, err)
	}
	out = mustRun(t, a, "init")
	if !strings.Contains(out, "existing simulation") {
		t.Fatalf("second init should report the existing simulation: %q", out)
	}
	revs, _ := a.store.ListRevisions(10)
	if len(revs) != 1 {
		t.Fatalf("init twice wrote %d revisions, want 1", len(revs))
	}
}

func TestResourceFlow(t *testing.T) {
	a := newTestApp(t)
	mustRun(t, a, "resource", "add", "wood", "gold")
	out := mustRun(t, a, "resource", "adjust", "wood", "+7")
	if !strings.Contains(out, "wood = 7 (+7)") {
		t.Fatalf("adjust output: %q", out)
	}

	b := reopen(t, a)
	out = mustRun(t, b, "resource", "list")
	if !strings.Contains(out, "wood") || !strings.Contains(out, "gold") {
		t.Fatalf("list output: %q", out)
	}
	if r, _ := b.eng.Resource("wood"); r.Amount != 7 {
		t.Fatalf("persisted wood = %d, want 7", r.Amount)
	}
}

func TestResourceAdjust_RefusesOverdraw(t *testing.T) {
	a := newTestApp(t)
	mustRun(t, a, "resource", "add", "wood")
	var code int
	errOut := captureStderr(t, func() {
		captureStdout(t, func() { code = a.dispatch("resource", []string{"adjust", "wood", "-1"}) })
	})
	if code != 1 {
		t.Fatalf("overdraw exit = %d, want 1", code)
	}
	if !strings.Contains(errOut, "tl: resource adjust: insufficient resource") {
		t.Fatalf("stderr = %q", errOut)
	}
	if r, _ := a.eng.Resource("wood"); r.Amount != 0 {
		t.Fatalf("wood = %d after refused adjust", r.Amount)
	}
}

func TestResourceAdjust_UnknownResource(t *testing.T) {
	a := newTestApp(t)
	var code int
	errOut := captureStderr(t, func() { code = a.dispatch("resource", []string{"adjust", "ghost", "5"}) })
	if code != 1 || !strings.Contains(errOut, "unknown resource") {
		t.Fatalf("exit %d, stderr %q", code, errOut)
	}
}

func TestSubmit_FromFlags(t *testing.T) {
	a := newTestApp(t)
	mustRun(t, a, "resource", "add", "gold", "wood")
	mustRun(t, a, "resource", "adjust", "gold", "2")

	out := mustRun(t, a, "submit", "--name", "chop", "--ticks", "2",
		"--before", "gold:-1", "--after", "wood:+5", "--json")
	var ev model.GameEvent
	if err := json.Unmarshal([]byte(out), &ev); err != nil {
		t.Fatalf("parse submit json: %v\n%s", err, out)
	}
	if ev.ID != "evt-0" || ev.Status != model.StatusPending || len(ev.Outcomes) != 2 {
		t.Fatalf("submitted = %+v", ev)
	}
	if r, _ := a.eng.Resource("gold"); r.Amount != 1 {
		t.Fatalf("gold = %d, want 1 after upfront cost", r.Amount)
	}
}

func TestSubmit_UnaffordableIsFailedNotError(t *testing.T) {
	a := newTestApp(t)
	mustRun(t, a, "resource", "add", "gold")
	out := mustRun(t, a, "submit", "--name", "castle", "--ticks", "5", "--before", "gold:-100")
	if !strings.Contains(out, "failed") {
		t.Fatalf("output = %q", out)
	}
	ev, _ := a.eng.Event("evt-0")
	if ev.Status != model.StatusFailed {
		t.Fatalf("status = %s, want failed", ev.Status)
	}
}

func TestSubmit_InvalidTicks(t *testing.T) {
	a := newTestApp(t)
	var code int
	errOut := captureStderr(t, func() { code = a.dispatch("submit", []string{"--name", "x", "--ticks", "0"}) })
	if code != 1 || !strings.Contains(errOut, "invalid event") {
		t.Fatalf("exit %d, stderr %q", code, errOut)
	}
	if len(a.eng.Snapshot().Events) != 0 {
		t.Fatal("invalid submit must not register an event")
	}
}

func TestSubmit_FromFile(t *testing.T) {
	a := newTestApp(t)
	mustRun(t, a, "resource", "add", "bread")
	path := filepath.Join(t.TempDir(), "bake.json")
	doc := `{"name":"bake","ticksToComplete":1,"isRepeating":true,
	  "outcomes":[{"resourceName":"bread","operation":"increment","amount":2,"timing":"after"}]}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	mustRun(t, a, "submit", "--file", path)
	mustRun(t, a, "advance", "--n", "3")
	if r, _ := a.eng.Resource("bread"); r.Amount != 6 {
		t.Fatalf("bread = %d after 3 repeating bakes, want 6", r.Amount)
	}
}

func TestSubmit_FileSchemaError(t *testing.T) {
	a := newTestApp(t)
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{"name":"x","ticksToComplete":1,"colour":"red"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	var code int
	captureStderr(t, func() { code = a.dispatch("submit", []string{"--file", path}) })
	if code != 1 {
		t.Fatalf("exit = %d, want 1", code)
	}
}

func TestAdvance_ReportsResolutions(t *testing.T) {
	a := newTestApp(t)
	mustRun(t, a, "resource", "add", "wood")
	mustRun(t, a, "submit", "--name", "chop", "--ticks", "2", "--after", "wood:+3")
	out := mustRun(t, a, "advance", "--n", "2")
	if !strings.Contains(out, "evt-0") || !strings.Contains(out, "completed") {
		t.Fatalf("advance output: %q", out)
	}
	if !strings.Contains(out, "now T2-D0-2:00 AM") {
		t.Fatalf("advance should print the new tick: %q", out)
	}
	b := reopen(t, a)
	if b.eng.Ticks() != 2 {
		t.Fatalf("persisted ticks = %d, want 2", b.eng.Ticks())
	}
}

func TestAdvance_Until(t *testing.T) {
	a := newTestApp(t)
	mustRun(t, a, "submit", "--name", "long", "--ticks", "5")

	var code int
	captureStdout(t, func() { code = a.dispatch("advance", []string{"--until", "evt-0", "--max", "3"}) })
	if code != 2 {
		t.Fatalf("unfinished --until exit = %d, want 2", code)
	}
	if a.eng.Ticks() != 3 {
		t.Fatalf("ticks = %d, want 3", a.eng.Ticks())
	}

	out := mustRun(t, a, "advance", "--until", "evt-0", "--json")
	var res struct {
		Tick     int64 `json:"tick"`
		Finished bool  `json:"finished"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("parse: %v\n%s", err, out)
	}
	if !res.Finished || res.Tick != 5 {
		t.Fatalf("until result = %+v", res)
	}
}

func TestAdvance_UntilUnknownEvent(t *testing.T) {
	a := newTestApp(t)
	var code int
	captureStderr(t, func() { code = a.dispatch("advance", []string{"--until", "evt-99"}) })
	if code != 1 || a.eng.Ticks() != 0 {
		t.Fatalf("exit %d, ticks %d", code, a.eng.Ticks())
	}
}

func TestCancelAndCopy(t *testing.T) {
	a := newTestApp(t)
	mustRun(t, a, "submit", "--name", "wait", "--ticks", "4")
	out := mustRun(t, a, "cancel", "evt-0", "evt-7")
	if !strings.Contains(out, "evt-0 cancelled") || !strings.Contains(out, "evt-7: no change") {
		t.Fatalf("cancel output: %q", out)
	}
	out = mustRun(t, a, "copy", "evt-0")
	if !strings.Contains(out, "evt-1 copied from evt-0") {
		t.Fatalf("copy output: %q", out)
	}
	b := reopen(t, a)
	ev, _ := b.eng.Event("evt-1")
	if ev.Status != model.StatusPending || ev.TicksToComplete != 4 {
		t.Fatalf("copy = %+v", ev)
	}
}

func TestCopy_UnknownIsNoOp(t *testing.T) {
	a := newTestApp(t)
	mustRun(t, a, "resource", "add", "gold")
	revsBefore, _ := a.store.ListRevisions(10)

	out := mustRun(t, a, "copy", "evt-7")
	if !strings.Contains(out, "no change") {
		t.Fatalf("output = %q, want no change", out)
	}
	revsAfter, _ := a.store.ListRevisions(10)
	if len(revsAfter) != len(revsBefore) {
		t.Fatalf("revisions %d -> %d, unknown copy must not save", len(revsBefore), len(revsAfter))
	}
	if n := len(a.eng.Snapshot().Events); n != 0 {
		t.Fatalf("events = %d, want 0", n)
	}

	js := mustRun(t, a, "copy", "--json", "evt-7")
	var res map[string]interface{}
	if err := json.Unmarshal([]byte(js), &res); err != nil {
		t.Fatalf("parse: %v\n%s", err, js)
	}
	if res["unchanged"] != "evt-7" || res["copied"] != nil {
		t.Fatalf("json = %v", res)
	}
}

func TestStatus_JSON(t *testing.T) {
	a := newTestApp(t)
	mustRun(t, a, "resource", "add", "gold")
	mustRun(t, a, "submit", "--name", "tax", "--ticks", "1", "--after", "gold:-5")
	out := mustRun(t, a, "status", "--json")

	var st struct {
		Ticks    int64          `json:"ticks"`
		Counts   map[string]int `json:"counts"`
		Frontier struct {
			NextTick int64 `json:"next_tick"`
			AtRisk   int   `json:"at_risk"`
		} `json:"frontier"`
	}
	if err := json.Unmarshal([]byte(out), &st); err != nil {
		t.Fatalf("parse: %v\n%s", err, out)
	}
	if st.Counts["pending"] != 1 || st.Frontier.NextTick != 1 || st.Frontier.AtRisk != 1 {
		t.Fatalf("status = %+v", st)
	}

	text := mustRun(t, a, "status")
	if !strings.Contains(text, "AT RISK, short on gold") {
		t.Fatalf("status text: %q", text)
	}
}

func TestLog_StatusFilter(t *testing.T) {
	a := newTestApp(t)
	mustRun(t, a, "resource", "add", "gold")
	mustRun(t, a, "submit", "--name", "ok", "--ticks", "3")
	mustRun(t, a, "submit", "--name", "broke", "--ticks", "3", "--before", "gold:-1")

	out := mustRun(t, a, "log", "--status", "failed", "--json")
	var res struct {
		Events []eventView `json:"events"`
		Count  int         `json:"count"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("parse: %v\n%s", err, out)
	}
	if res.Count != 1 || res.Events[0].Name != "broke" {
		t.Fatalf("failed filter = %+v", res)
	}

	var code int
	captureStderr(t, func() { code = a.dispatch("log", []string{"--status", "running"}) })
	if code != 1 {
		t.Fatalf("unknown status exit = %d, want 1", code)
	}
}

func TestHistory(t *testing.T) {
	a := newTestApp(t)
	mustRun(t, a, "resource", "add", "a")
	mustRun(t, a, "advance", "--n", "2")
	out := mustRun(t, a, "history", "--json")
	var res struct {
		Revisions []model.Revision `json:"revisions"`
		Count     int              `json:"count"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("parse: %v\n%s", err, out)
	}
	if res.Count != 2 || res.Revisions[0].Tick != 2 {
		t.Fatalf("history = %+v", res)
	}
}

func TestExportImport(t *testing.T) {
	a := newTestApp(t)
	mustRun(t, a, "resource", "add", "wood")
	mustRun(t, a, "resource", "adjust", "wood", "9")
	mustRun(t, a, "submit", "--name", "chop", "--ticks", "3", "--after", "wood:+1")
	mustRun(t, a, "advance")
	path := filepath.Join(t.TempDir(), "save.tla")
	mustRun(t, a, "export", path)

	b := newTestApp(t)
	out := mustRun(t, b, "import", path)
	if !strings.Contains(out, "imported") {
		t.Fatalf("import output: %q", out)
	}
	if b.eng.Ticks() != 1 {
		t.Fatalf("imported ticks = %d, want 1", b.eng.Ticks())
	}
	if r, _ := b.eng.Resource("wood"); r.Amount != 9 {
		t.Fatalf("imported wood = %d, want 9", r.Amount)
	}
	c := reopen(t, b)
	if ev, ok := c.eng.Event("evt-0"); !ok || ev.TicksToComplete != 2 {
		t.Fatalf("persisted import event = %+v, %v", ev, ok)
	}
}

func TestScenarioAndClear(t *testing.T) {
	a := newTestApp(t)
	path := filepath.Join(t.TempDir(), "farm.yaml")
	doc := `
name: farm
resources:
  - {name: seeds, amount: 3}
  - {name: wheat}
events:
  - name: sow
    ticks: 2
    before: [{resource: seeds, delta: -1}]
    after: [{resource: wheat, delta: 4}]
advance: 2
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	out := mustRun(t, a, "scenario", path)
	if !strings.Contains(out, "scenario farm") {
		t.Fatalf("scenario output: %q", out)
	}
	if r, _ := a.eng.Resource("wheat"); r.Amount != 4 {
		t.Fatalf("wheat = %d, want 4", r.Amount)
	}
	if r, _ := a.eng.Resource("seeds"); r.Amount != 2 {
		t.Fatalf("seeds = %d, want 2", r.Amount)
	}

	mustRun(t, a, "clear")
	b := reopen(t, a)
	if b.eng.Ticks() != 0 || len(b.eng.Snapshot().Resources) != 0 {
		t.Fatalf("state after clear = %+v", b.eng.Snapshot())
	}
	revs, _ := b.store.ListRevisions(10)
	if len(revs) != 0 {
		t.Fatalf("revisions after clear = %d", len(revs))
	}
}

func TestPlay(t *testing.T) {
	a := newTestApp(t)
	script := strings.Join([]string{
		"add wood",
		"adjust wood 5",
		`submit {"name":"burn","ticksToComplete":2,"outcomes":[{"resourceName":"wood","operation":"decrement","amount":2,"timing":"after"}]}`,
		"a 2",
		"",
		"bogus",
		"q",
		"add never",
	}, "\n")

	var code int
	var out string
	captureStderr(t, func() {
		out = captureStdout(t, func() { code = a.play(strings.NewReader(script)) })
	})
	if code != 0 {
		t.Fatalf("play exit = %d\n%s", code, out)
	}
	if !strings.Contains(out, `unknown command "bogus"`) {
		t.Fatalf("play output: %q", out)
	}

	b := reopen(t, a)
	if b.eng.Ticks() != 3 {
		t.Fatalf("persisted ticks = %d, want 3", b.eng.Ticks())
	}
	if r, _ := b.eng.Resource("wood"); r.Amount != 3 {
		t.Fatalf("persisted wood = %d, want 3", r.Amount)
	}
	if _, ok := b.eng.Resource("never"); ok {
		t.Fatal("commands after q must not run")
	}
}

func TestDispatch_Unknown(t *testing.T) {
	a := newTestApp(t)
	var code int
	errOut := captureStderr(t, func() { code = a.dispatch("frobnicate", nil) })
	if code != 1 || !strings.Contains(errOut, `unknown command "frobnicate"`) {
		t.Fatalf("exit %d, stderr %q", code, errOut)
	}
}

func TestRun_HelpAndVersion(t *testing.T) {
	out := captureStdout(t, func() {
		if code := run([]string{"--version"}); code != 0 {
			t.Errorf("version exit = %d", code)
		}
	})
	if strings.TrimSpace(out) != "tl "+version {
		t.Fatalf("version output = %q", out)
	}
	out = captureStdout(t, func() {
		if code := run([]string{"help"}); code != 0 {
			t.Errorf("help exit = %d", code)
		}
	})
	if !strings.Contains(out, "Usage:") {
		t.Fatalf("help output missing usage")
	}
}

func TestRun_EndToEnd(t *testing.T) {
	t.Setenv("TICKLEDGER_DB", filepath.Join(t.TempDir(), "sub", "e2e.db"))
	captureStdout(t, func() {
		if code := run([]string{"resource", "add", "ore"}); code != 0 {
			t.Errorf("resource add exit = %d", code)
		}
		if code := run([]string{"resource", "adjust", "ore", "4"}); code != 0 {
			t.Errorf("resource adjust exit = %d", code)
		}
	})
	out := captureStdout(t, func() {
		if code := run([]string{"resource", "list", "--json"}); code != 0 {
			t.Errorf("resource list exit = %d", code)
		}
	})
	if !strings.Contains(out, `"amount": 4`) {
		t.Fatalf("list output: %q", out)
	}
}
