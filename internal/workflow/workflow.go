// Package workflow holds the structured representation of one assistant turn
// produced by the multi-agent backend, the typed stream events it is built
// from, and the assembler that folds events into it.
package workflow

// Known agent names emitted by the backend. They are treated as opaque data
// everywhere except display-label mapping and the two special cases the
// assembler cares about (planner plan text, reporter report).
const (
	AgentPlanner     = "planner"
	AgentCoordinator = "coordinator"
	AgentSupervisor  = "supervisor"
	AgentResearcher  = "researcher"
	AgentCoder       = "coder"
	AgentBrowser     = "browser"
	AgentReporter    = "reporter"
	AgentFileManager = "file_manager"
)

// TaskKind discriminates the task variant. It is fixed at creation and never
// changes.
type TaskKind string

const (
	TaskThinking TaskKind = "thinking"
	TaskToolCall TaskKind = "tool_call"
)

// Workflow is the structured multi-agent execution trace for one assistant
// turn. Steps are append-only in arrival order.
type Workflow struct {
	Title   string  `json:"title,omitempty"`
	Thought string  `json:"thought,omitempty"`
	Steps   []*Step `json:"steps"`
}

// Step is one agent's contiguous span of work within a workflow.
type Step struct {
	ID        string  `json:"id"`
	AgentName string  `json:"agentName"`
	Tasks     []*Task `json:"tasks"`

	sealed  bool
	llmDone bool
}

// Task is one thinking block or tool invocation within a step. Exactly one of
// Thinking/ToolCall is set, matching Kind.
type Task struct {
	ID       string           `json:"id"`
	Kind     TaskKind         `json:"type"`
	Thinking *ThinkingPayload `json:"thinking,omitempty"`
	ToolCall *ToolCallPayload `json:"tool_call,omitempty"`
}

// ThinkingPayload accumulates streamed reasoning text. Reason holds the
// longer-form deep-thinking rationale, shown collapsed by default.
type ThinkingPayload struct {
	Text   string `json:"text,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// ToolCallPayload is populated progressively: the call is announced before
// its result is known.
type ToolCallPayload struct {
	Name   string `json:"toolName"`
	Input  string `json:"input,omitempty"`
	Output string `json:"output,omitempty"`
}

// Sealed reports whether the step received its end_of_agent event. A sealed
// step accepts no further tasks.
func (s *Step) Sealed() bool { return s.sealed }

// GenerationDone reports whether the agent's LLM phase has finished. Display
// state only; no structural meaning.
func (s *Step) GenerationDone() bool { return s.llmDone }

// VisibleTasks filters out thinking tasks that gathered neither text nor a
// reason. This is a presentation-time filter: the underlying task list is not
// mutated, so nothing is lost while the stream is still growing.
func (s *Step) VisibleTasks() []*Task {
	out := make([]*Task, 0, len(s.Tasks))
	for _, t := range s.Tasks {
		if t.Kind == TaskThinking && t.Thinking != nil && t.Thinking.Text == "" && t.Thinking.Reason == "" {
			continue
		}
		out = append(out, t)
	}
	return out
}

// NavigableSteps returns the steps shown in the step list. Reporter steps are
// excluded; their content is surfaced through Report instead.
func (w *Workflow) NavigableSteps() []*Step {
	out := make([]*Step, 0, len(w.Steps))
	for _, s := range w.Steps {
		if s.AgentName == AgentReporter {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Report returns the reporter step's accumulated text, or "" if no reporter
// step produced any.
func (w *Workflow) Report() string {
	for _, s := range w.Steps {
		if s.AgentName != AgentReporter {
			continue
		}
		for _, t := range s.Tasks {
			if t.Kind == TaskThinking && t.Thinking != nil {
				return t.Thinking.Text
			}
		}
	}
	return ""
}

// Clone returns a deep copy. The assembler hands workflows off by value so
// later mutation of the live structure cannot leak into committed messages.
func (w *Workflow) Clone() *Workflow {
	if w == nil {
		return nil
	}
	out := &Workflow{Title: w.Title, Thought: w.Thought, Steps: make([]*Step, 0, len(w.Steps))}
	for _, s := range w.Steps {
		cs := &Step{ID: s.ID, AgentName: s.AgentName, Tasks: make([]*Task, 0, len(s.Tasks)), sealed: s.sealed, llmDone: s.llmDone}
		for _, t := range s.Tasks {
			ct := &Task{ID: t.ID, Kind: t.Kind}
			if t.Thinking != nil {
				p := *t.Thinking
				ct.Thinking = &p
			}
			if t.ToolCall != nil {
				p := *t.ToolCall
				ct.ToolCall = &p
			}
			cs.Tasks = append(cs.Tasks, ct)
		}
		out.Steps = append(out.Steps, cs)
	}
	return out
}

// DisplayName maps an agent name to its human-readable step label.
func DisplayName(agentName string) string {
	switch agentName {
	case AgentBrowser:
		return "Browsing Web"
	case AgentCoder:
		return "Coding"
	case AgentFileManager:
		return "File Management"
	case AgentPlanner:
		return "Planning"
	case AgentResearcher:
		return "Researching"
	case AgentSupervisor:
		return "Thinking"
	default:
		if agentName == "" {
			return "Unknown"
		}
		return agentName
	}
}
