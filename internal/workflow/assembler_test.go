package workflow

import (
	"strings"
	"testing"
)

// deltaEvents splits text into per-character message events.
func deltaEvents(text string) []Event {
	out := make([]Event, 0, len(text))
	for _, r := range text {
		out = append(out, Event{Kind: EventMessage, MessageID: "msg-1", Text: string(r)})
	}
	return out
}

func applyAll(a *Assembler, events []Event) {
	for _, ev := range events {
		a.Apply(ev)
	}
}

func TestAssemblerFullWorkflow(t *testing.T) {
	planJSON := `{"title":"Research Plan","steps":[{"title":"Search the web"}]}`

	a := NewAssembler()
	a.Apply(Event{Kind: EventStartOfWorkflow})
	a.Apply(Event{Kind: EventStartOfAgent, AgentID: "planner-1", AgentName: AgentPlanner})
	a.Apply(Event{Kind: EventStartOfLLM, AgentName: AgentPlanner})
	applyAll(a, deltaEvents(planJSON))
	a.Apply(Event{Kind: EventEndOfLLM, AgentName: AgentPlanner})
	a.Apply(Event{Kind: EventEndOfAgent, AgentID: "planner-1"})

	a.Apply(Event{Kind: EventStartOfAgent, AgentID: "researcher-1", AgentName: AgentResearcher})
	a.Apply(Event{Kind: EventToolCall, ToolCallID: "call-1", ToolName: "tavily_search", ToolInput: `{"query":"golang"}`})
	a.Apply(Event{Kind: EventToolCallResult, ToolCallID: "call-1", ToolName: "tavily_search", ToolResult: "3 results"})
	a.Apply(Event{Kind: EventEndOfAgent, AgentID: "researcher-1"})

	a.Apply(Event{Kind: EventStartOfAgent, AgentID: "reporter-1", AgentName: AgentReporter})
	a.Apply(Event{Kind: EventMessage, MessageID: "rep-1", Text: "Final report body."})
	a.Apply(Event{Kind: EventEndOfAgent, AgentID: "reporter-1"})
	a.Apply(Event{Kind: EventEndOfWorkflow})

	res := a.Finalize()
	if res.Workflow == nil {
		t.Fatal("expected a workflow result")
	}
	if res.Err != "" {
		t.Fatalf("unexpected error text: %q", res.Err)
	}

	steps := res.Workflow.NavigableSteps()
	if len(steps) != 2 {
		t.Fatalf("navigable steps = %d, want 2 (reporter excluded)", len(steps))
	}
	if steps[0].AgentName != AgentPlanner || steps[1].AgentName != AgentResearcher {
		t.Fatalf("unexpected step order: %s, %s", steps[0].AgentName, steps[1].AgentName)
	}

	// Planner deltas reassemble into the exact plan text.
	plannerTasks := steps[0].VisibleTasks()
	if len(plannerTasks) != 1 || plannerTasks[0].Kind != TaskThinking {
		t.Fatalf("planner tasks = %+v", plannerTasks)
	}
	if plannerTasks[0].Thinking.Text != planJSON {
		t.Errorf("planner text = %q", plannerTasks[0].Thinking.Text)
	}
	plan := ParsePlan(plannerTasks[0].Thinking.Text)
	if plan.Title != "Research Plan" || len(plan.Steps) != 1 {
		t.Errorf("parsed plan = %+v", plan)
	}

	// Tool call and its result share one task.
	researcherTasks := steps[1].VisibleTasks()
	if len(researcherTasks) != 1 {
		t.Fatalf("researcher tasks = %d, want 1", len(researcherTasks))
	}
	tc := researcherTasks[0].ToolCall
	if tc == nil || tc.Name != "tavily_search" || tc.Output != "3 results" {
		t.Errorf("tool call = %+v", tc)
	}

	if got := res.Workflow.Report(); got != "Final report body." {
		t.Errorf("report = %q", got)
	}
}

func TestAssemblerUnknownAgentEventsAreNoOps(t *testing.T) {
	a := NewAssembler()
	a.Apply(Event{Kind: EventStartOfWorkflow})
	a.Apply(Event{Kind: EventStartOfAgent, AgentID: "coder-1", AgentName: AgentCoder})

	// Events for an agent never announced must not create steps.
	a.Apply(Event{Kind: EventEndOfAgent, AgentID: "ghost"})
	a.Apply(Event{Kind: EventEndOfLLM, AgentName: "ghost"})

	res := a.Finalize()
	if res.Workflow == nil || len(res.Workflow.Steps) != 1 {
		t.Fatalf("expected exactly the coder step, got %+v", res.Workflow)
	}
}

func TestAssemblerSealedStepRejectsTasks(t *testing.T) {
	a := NewAssembler()
	a.Apply(Event{Kind: EventStartOfAgent, AgentID: "coder-1", AgentName: AgentCoder})
	a.Apply(Event{Kind: EventMessage, Text: "working"})
	a.Apply(Event{Kind: EventEndOfAgent, AgentID: "coder-1"})

	// The step is sealed: deltas fall through to the text buffer and tool
	// events are dropped.
	a.Apply(Event{Kind: EventMessage, Text: " after"})
	a.Apply(Event{Kind: EventToolCall, ToolCallID: "late", ToolName: "bash_tool"})

	res := a.Finalize()
	step := res.Workflow.Steps[0]
	if len(step.Tasks) != 1 {
		t.Fatalf("sealed step grew tasks: %+v", step.Tasks)
	}
	if step.Tasks[0].Thinking.Text != "working" {
		t.Errorf("thinking text = %q", step.Tasks[0].Thinking.Text)
	}
	if res.Text != " after" {
		t.Errorf("text buffer = %q", res.Text)
	}
}

func TestAssemblerReopenedAgentNotDuplicated(t *testing.T) {
	a := NewAssembler()
	a.Apply(Event{Kind: EventStartOfAgent, AgentID: "browser-1", AgentName: AgentBrowser})
	a.Apply(Event{Kind: EventStartOfAgent, AgentID: "browser-1", AgentName: AgentBrowser})

	res := a.Finalize()
	if len(res.Workflow.Steps) != 1 {
		t.Fatalf("replayed start duplicated the step: %d", len(res.Workflow.Steps))
	}
}

func TestAssemblerTextOnlyStream(t *testing.T) {
	a := NewAssembler()
	applyAll(a, []Event{
		{Kind: EventMessage, Text: "Hello"},
		{Kind: EventMessage, Text: ", world"},
		{Kind: EventEndOfWorkflow},
	})

	res := a.Finalize()
	if res.Workflow != nil {
		t.Fatalf("expected no workflow, got %+v", res.Workflow)
	}
	if res.Text != "Hello, world" {
		t.Errorf("text = %q", res.Text)
	}
}

func TestAssemblerErrorEventFinalizes(t *testing.T) {
	a := NewAssembler()
	a.Apply(Event{Kind: EventStartOfAgent, AgentID: "planner-1", AgentName: AgentPlanner})
	a.Apply(Event{Kind: EventError, Err: "backend exploded"})

	if a.State() != StateFinalized {
		t.Fatal("error event must finalize the assembler")
	}

	// Nothing after finalization lands.
	a.Apply(Event{Kind: EventMessage, Text: "late"})

	res := a.Finalize()
	if res.Err != "backend exploded" {
		t.Errorf("err = %q", res.Err)
	}
	if res.Text != "" {
		t.Errorf("post-finalize delta leaked: %q", res.Text)
	}
}

func TestAssemblerReasoningDeltas(t *testing.T) {
	a := NewAssembler()
	a.Apply(Event{Kind: EventStartOfAgent, AgentID: "planner-1", AgentName: AgentPlanner})
	a.Apply(Event{Kind: EventMessage, MessageID: "m1", Reasoning: "Let me think. "})
	a.Apply(Event{Kind: EventMessage, MessageID: "m1", Reasoning: "Done thinking."})
	a.Apply(Event{Kind: EventMessage, MessageID: "m1", Text: "{}"})

	res := a.Finalize()
	th := res.Workflow.Steps[0].Tasks[0].Thinking
	if th.Reason != "Let me think. Done thinking." {
		t.Errorf("reason = %q", th.Reason)
	}
	if th.Text != "{}" {
		t.Errorf("text = %q", th.Text)
	}
}

func TestVisibleTasksPrunesEmptyThinking(t *testing.T) {
	step := &Step{
		Tasks: []*Task{
			{Kind: TaskThinking, Thinking: &ThinkingPayload{}},
			{Kind: TaskToolCall, ToolCall: &ToolCallPayload{Name: "crawl_tool"}},
		},
	}
	visible := step.VisibleTasks()
	if len(visible) != 1 || visible[0].Kind != TaskToolCall {
		t.Fatalf("visible = %+v", visible)
	}
	if len(step.Tasks) != 2 {
		t.Fatal("pruning must not mutate the task list")
	}
}

func TestSnapshotIsolation(t *testing.T) {
	a := NewAssembler()
	a.Apply(Event{Kind: EventStartOfAgent, AgentID: "coder-1", AgentName: AgentCoder})
	a.Apply(Event{Kind: EventMessage, Text: "partial"})

	snap := a.Snapshot()
	a.Apply(Event{Kind: EventMessage, Text: " more"})

	got := snap.Workflow.Steps[0].Tasks[0].Thinking.Text
	if got != "partial" {
		t.Errorf("snapshot mutated by later event: %q", got)
	}
	if !strings.HasSuffix(a.Snapshot().Workflow.Steps[0].Tasks[0].Thinking.Text, " more") {
		t.Error("live document missed the later delta")
	}
}
