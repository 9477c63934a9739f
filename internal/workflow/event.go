package workflow

// EventKind names a stream event type. The values match the wire protocol of
// the agent backend.
type EventKind string

const (
	EventStartOfWorkflow EventKind = "start_of_workflow"
	EventStartOfAgent    EventKind = "start_of_agent"
	EventEndOfAgent      EventKind = "end_of_agent"
	EventStartOfLLM      EventKind = "start_of_llm"
	EventEndOfLLM        EventKind = "end_of_llm"
	EventMessage         EventKind = "message"
	EventToolCall        EventKind = "tool_call"
	EventToolCallResult  EventKind = "tool_call_result"
	EventEndOfWorkflow   EventKind = "end_of_workflow"
	EventError           EventKind = "error"
)

// Event is one decoded stream event. Which fields are meaningful depends on
// Kind; unused fields are zero.
type Event struct {
	Kind EventKind

	// start_of_agent / end_of_agent / start_of_llm / end_of_llm
	AgentID   string
	AgentName string

	// message
	MessageID string
	Text      string // delta content fragment
	Reasoning string // delta reasoning_content fragment

	// tool_call / tool_call_result
	ToolCallID string
	ToolName   string
	ToolInput  string
	ToolResult string

	// error
	Err string
}

// Terminal reports whether this event ends the turn's stream.
func (e Event) Terminal() bool {
	return e.Kind == EventEndOfWorkflow || e.Kind == EventError
}
