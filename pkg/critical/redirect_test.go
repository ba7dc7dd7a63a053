package critical

import (
	"testing"

	"github.com/critlens/critlens/pkg/trace"
)

func redirectFixture(t *testing.T) *trace.Registry {
	t.Helper()
	records := []trace.RequestRecord{
		{
			ID: "0", URL: "https://example.com/", FrameID: "F1",
			ResourceType: trace.ResourceDocument, Priority: trace.PriorityVeryHigh,
			StartTime: 0, Finished: true,
		},
		{
			ID: "1", URL: "https://example.com/old.js", FrameID: "F1",
			ResourceType: trace.ResourceUnknown, Priority: trace.PriorityUnknown,
			Initiator: &trace.Initiator{Kind: trace.InitiatorParser, URL: "https://example.com/"},
			StartTime: 10, StatusCode: 301, RedirectDestination: "2",
		},
		{
			ID: "2", URL: "https://cdn.example.com/mid.js", FrameID: "F1",
			ResourceType: trace.ResourceUnknown, Priority: trace.PriorityUnknown,
			Initiator: &trace.Initiator{Kind: trace.InitiatorOther, URL: "https://example.com/old.js"},
			StartTime: 20, StatusCode: 302, RedirectDestination: "3",
		},
		{
			ID: "3", URL: "https://cdn.example.com/new.js", FrameID: "F1",
			ResourceType: trace.ResourceScript, Priority: trace.PriorityHigh,
			Initiator: &trace.Initiator{Kind: trace.InitiatorOther, URL: "https://cdn.example.com/mid.js"},
			StartTime: 30, StatusCode: 200, Finished: true,
		},
	}
	reg, err := trace.NewRegistry(records)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	return reg
}

func TestCollapseRedirects_HopsInheritTerminal(t *testing.T) {
	reg := redirectFixture(t)
	chains := CollapseRedirects(reg)

	for _, id := range []string{"1", "2"} {
		rec, _ := reg.Get(id)
		eff := chains.Effective(rec)
		if eff.ResourceType != trace.ResourceScript {
			t.Errorf("Effective(%s).ResourceType = %q, want %q", id, eff.ResourceType, trace.ResourceScript)
		}
		if eff.Priority != trace.PriorityHigh {
			t.Errorf("Effective(%s).Priority = %q, want %q", id, eff.Priority, trace.PriorityHigh)
		}
	}

	// The collapser returns copies; the registry's records stay untouched.
	rec, _ := reg.Get("1")
	if rec.ResourceType != trace.ResourceUnknown {
		t.Errorf("registry record mutated: ResourceType = %q", rec.ResourceType)
	}
}

func TestCollapseRedirects_OwnValuesWin(t *testing.T) {
	records := []trace.RequestRecord{
		{
			ID: "0", URL: "https://example.com/", FrameID: "F1",
			ResourceType: trace.ResourceDocument, Priority: trace.PriorityVeryHigh,
			StartTime: 0, Finished: true,
		},
		{
			ID: "1", URL: "https://example.com/old.css", FrameID: "F1",
			ResourceType: trace.ResourceStylesheet, Priority: trace.PriorityLow,
			Initiator: &trace.Initiator{Kind: trace.InitiatorParser, URL: "https://example.com/"},
			StartTime: 10, StatusCode: 301, RedirectDestination: "2",
		},
		{
			ID: "2", URL: "https://example.com/new.css", FrameID: "F1",
			ResourceType: trace.ResourceStylesheet, Priority: trace.PriorityHigh,
			Initiator: &trace.Initiator{Kind: trace.InitiatorOther, URL: "https://example.com/old.css"},
			StartTime: 20, StatusCode: 200, Finished: true,
		},
	}
	reg, err := trace.NewRegistry(records)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	chains := CollapseRedirects(reg)
	rec, _ := reg.Get("1")
	eff := chains.Effective(rec)
	// A hop with its own declared values is classified on those, not the
	// terminal hop's.
	if eff.Priority != trace.PriorityLow {
		t.Errorf("Effective(1).Priority = %q, want %q", eff.Priority, trace.PriorityLow)
	}
}

func TestCollapseRedirects_TerminalAndPrevHop(t *testing.T) {
	reg := redirectFixture(t)
	chains := CollapseRedirects(reg)

	for _, id := range []string{"1", "2"} {
		if got := chains.Terminal(id); got != "3" {
			t.Errorf("Terminal(%s) = %q, want \"3\"", id, got)
		}
	}
	if got := chains.Terminal("3"); got != "3" {
		t.Errorf("Terminal(3) = %q, want \"3\"", got)
	}
	if got := chains.Terminal("0"); got != "0" {
		t.Errorf("Terminal(0) = %q, want \"0\"", got)
	}

	if src, ok := chains.PrevHop("2"); !ok || src != "1" {
		t.Errorf("PrevHop(2) = %q, %v, want \"1\", true", src, ok)
	}
	if src, ok := chains.PrevHop("3"); !ok || src != "2" {
		t.Errorf("PrevHop(3) = %q, %v, want \"2\", true", src, ok)
	}
	if _, ok := chains.PrevHop("1"); ok {
		t.Error("PrevHop(1) found a source for the chain head, want none")
	}
}

func TestCollapseRedirects_DanglingDestination(t *testing.T) {
	records := []trace.RequestRecord{
		{
			ID: "0", URL: "https://example.com/", FrameID: "F1",
			ResourceType: trace.ResourceDocument, Priority: trace.PriorityVeryHigh,
			StartTime: 0, Finished: true,
		},
		{
			ID: "1", URL: "https://example.com/gone.js", FrameID: "F1",
			ResourceType: trace.ResourceScript, Priority: trace.PriorityHigh,
			Initiator: &trace.Initiator{Kind: trace.InitiatorParser, URL: "https://example.com/"},
			StartTime: 10, StatusCode: 302, RedirectDestination: "missing",
		},
	}
	reg, err := trace.NewRegistry(records)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	chains := CollapseRedirects(reg)
	if got := chains.Terminal("1"); got != "1" {
		t.Errorf("Terminal(1) = %q, want \"1\" for dangling destination", got)
	}
}
