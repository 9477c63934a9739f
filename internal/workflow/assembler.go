package workflow

import (
	"fmt"
	"strings"
)

// State is the assembler lifecycle state.
type State int

const (
	// StateIdle means no event for the turn has been seen yet.
	StateIdle State = iota
	// StateBuilding means the workflow document is being mutated in place.
	StateBuilding
	// StateFinalized means the document is frozen; further events are ignored.
	StateFinalized
)

// Result is the assembler's output: exactly one of Workflow / Text describes
// the assistant's turn. Workflow wins whenever at least one step was produced.
type Result struct {
	Workflow *Workflow
	Text     string
	Err      string // backend-reported stream error, if any
}

// Assembler folds the stream of typed events for one turn into a mutable
// workflow document. It is a plain single-goroutine reducer: the caller owns
// serialization (events are processed strictly in arrival order).
//
// Delta routing: while a step is open, message deltas accumulate into that
// step's single lazily-created thinking task (reasoning fragments into its
// Reason field). With no open step, deltas accumulate into the turn's
// plain-text buffer. The planner step's thinking text doubles as the plan
// payload and is re-parsed by ParsePlan at render time, every render, because
// the buffer keeps growing mid-stream.
type Assembler struct {
	state   State
	wf      *Workflow
	byAgent map[string]*Step
	active  *Step
	text    strings.Builder
	toolSeq int
	errText string
}

// NewAssembler returns an assembler in StateIdle.
func NewAssembler() *Assembler {
	return &Assembler{byAgent: make(map[string]*Step)}
}

// State returns the current lifecycle state.
func (a *Assembler) State() State { return a.state }

// Apply folds one event into the document. Events referencing an agent with
// no open step are ignored: streams may be replayed or lossy at the edges,
// and that must never be an error.
func (a *Assembler) Apply(ev Event) {
	if a.state == StateFinalized {
		return
	}

	switch ev.Kind {
	case EventStartOfWorkflow:
		a.ensureWorkflow()

	case EventStartOfAgent:
		a.ensureWorkflow()
		if step, ok := a.byAgent[ev.AgentID]; ok {
			// Replayed start: reopen rather than duplicating the step.
			if !step.sealed {
				a.active = step
			}
			return
		}
		step := &Step{ID: ev.AgentID, AgentName: ev.AgentName}
		a.byAgent[ev.AgentID] = step
		a.wf.Steps = append(a.wf.Steps, step)
		a.active = step

	case EventMessage:
		if a.active != nil && !a.active.sealed {
			t := a.thinkingTask(a.active, ev.MessageID)
			t.Thinking.Text += ev.Text
			t.Thinking.Reason += ev.Reasoning
			return
		}
		a.text.WriteString(ev.Text)

	case EventToolCall, EventToolCallResult:
		if a.active == nil || a.active.sealed {
			return
		}
		t := a.toolTask(a.active, ev)
		if ev.Kind == EventToolCallResult {
			t.ToolCall.Output = ev.ToolResult
		}

	case EventStartOfLLM:
		// Generation phase opening; nothing structural.

	case EventEndOfLLM:
		if step, ok := a.stepFor(ev); ok {
			step.llmDone = true
		}

	case EventEndOfAgent:
		step, ok := a.byAgent[ev.AgentID]
		if !ok {
			return
		}
		step.sealed = true
		if a.active == step {
			a.active = nil
		}

	case EventEndOfWorkflow:
		a.finalize()

	case EventError:
		a.errText = ev.Err
		a.finalize()
	}
}

// Finalize freezes the document and returns the turn's result. The workflow
// is handed off as a deep copy, fully materialized. Safe to call more than
// once and after cancellation: whatever partial structure has accumulated is
// returned.
func (a *Assembler) Finalize() Result {
	a.finalize()
	return a.snapshot()
}

// Snapshot returns the in-progress result without freezing the document.
// Used for live rendering while the stream is still open.
func (a *Assembler) Snapshot() Result {
	return a.snapshot()
}

func (a *Assembler) snapshot() Result {
	res := Result{Text: a.text.String(), Err: a.errText}
	if a.wf != nil && len(a.wf.Steps) > 0 {
		res.Workflow = a.wf.Clone()
	}
	return res
}

func (a *Assembler) finalize() {
	if a.state == StateFinalized {
		return
	}
	a.state = StateFinalized
	a.active = nil
}

func (a *Assembler) ensureWorkflow() {
	if a.wf == nil {
		a.wf = &Workflow{}
	}
	if a.state == StateIdle {
		a.state = StateBuilding
	}
}

func (a *Assembler) stepFor(ev Event) (*Step, bool) {
	if ev.AgentID != "" {
		s, ok := a.byAgent[ev.AgentID]
		return s, ok
	}
	if a.wf == nil {
		return nil, false
	}
	// llm events carry only the agent name.
	for i := len(a.wf.Steps) - 1; i >= 0; i-- {
		if a.wf.Steps[i].AgentName == ev.AgentName {
			return a.wf.Steps[i], true
		}
	}
	return nil, false
}

// thinkingTask returns the step's single thinking task, creating it lazily on
// the first delta.
func (a *Assembler) thinkingTask(step *Step, messageID string) *Task {
	for _, t := range step.Tasks {
		if t.Kind == TaskThinking {
			return t
		}
	}
	id := messageID
	if id == "" {
		id = step.ID + "_thinking"
	}
	t := &Task{ID: id, Kind: TaskThinking, Thinking: &ThinkingPayload{}}
	step.Tasks = append(step.Tasks, t)
	return t
}

// toolTask locates the tool-call task by call id within the step, creating it
// if this is the first event for that call. Result events therefore fill in
// the existing task instead of duplicating it.
func (a *Assembler) toolTask(step *Step, ev Event) *Task {
	for _, t := range step.Tasks {
		if t.Kind == TaskToolCall && t.ID == ev.ToolCallID {
			if t.ToolCall.Name == "" {
				t.ToolCall.Name = ev.ToolName
			}
			return t
		}
	}
	id := ev.ToolCallID
	if id == "" {
		a.toolSeq++
		id = fmt.Sprintf("%s_tool_%d", step.ID, a.toolSeq)
	}
	t := &Task{
		ID:       id,
		Kind:     TaskToolCall,
		ToolCall: &ToolCallPayload{Name: ev.ToolName, Input: ev.ToolInput},
	}
	step.Tasks = append(step.Tasks, t)
	return t
}
