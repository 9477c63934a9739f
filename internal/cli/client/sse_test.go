package client

import (
	"context"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/Bluenyg/BuptManus/internal/workflow"
)

// byteReader yields one byte per Read call, the worst-case chunking a
// network stream can produce.
type byteReader struct {
	data []byte
	i    int
}

func (r *byteReader) Read(p []byte) (int, error) {
	if r.i >= len(r.data) {
		return 0, io.EOF
	}
	p[0] = r.data[r.i]
	r.i++
	return 1, nil
}

func collectEvents(t *testing.T, r io.Reader) ([]workflow.Event, []error) {
	t.Helper()
	evCh := make(chan workflow.Event, 64)
	errCh := make(chan error, 4)
	done := make(chan struct{})
	go func() {
		parseEventStream(context.Background(), r, evCh, errCh)
		close(evCh)
		close(errCh)
		close(done)
	}()

	var events []workflow.Event
	for ev := range evCh {
		events = append(events, ev)
	}
	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	<-done
	return events, errs
}

const sampleStream = "event: start_of_workflow\n" +
	"data: {\"workflow_id\":\"w1\"}\n" +
	"\n" +
	"event: start_of_agent\n" +
	"data: {\"agent_name\":\"planner\",\"agent_id\":\"planner-1\"}\n" +
	"\n" +
	"event: message\n" +
	"data: {\"message_id\":\"m1\",\"delta\":{\"content\":\"hello\"}}\n" +
	"\n" +
	"event: message\n" +
	"data: {\"message_id\":\"m1\",\"delta\":{\"reasoning_content\":\"hmm\"}}\n" +
	"\n" +
	"event: tool_call\n" +
	"data: {\"tool_call_id\":\"c1\",\"tool_name\":\"tavily_search\",\"tool_input\":{\"query\":\"go\"}}\n" +
	"\n" +
	"event: end_of_agent\n" +
	"data: {\"agent_id\":\"planner-1\"}\n" +
	"\n" +
	"event: end_of_workflow\n" +
	"data: {}\n" +
	"\n"

func TestParseEventStream(t *testing.T) {
	events, errs := collectEvents(t, strings.NewReader(sampleStream))
	if len(errs) != 0 {
		t.Fatalf("errors: %v", errs)
	}

	wantKinds := []workflow.EventKind{
		workflow.EventStartOfWorkflow,
		workflow.EventStartOfAgent,
		workflow.EventMessage,
		workflow.EventMessage,
		workflow.EventToolCall,
		workflow.EventEndOfAgent,
		workflow.EventEndOfWorkflow,
	}
	var gotKinds []workflow.EventKind
	for _, ev := range events {
		gotKinds = append(gotKinds, ev.Kind)
	}
	if !reflect.DeepEqual(gotKinds, wantKinds) {
		t.Fatalf("kinds = %v, want %v", gotKinds, wantKinds)
	}

	if events[1].AgentID != "planner-1" || events[1].AgentName != "planner" {
		t.Errorf("start_of_agent = %+v", events[1])
	}
	if events[2].Text != "hello" || events[3].Reasoning != "hmm" {
		t.Errorf("deltas = %+v / %+v", events[2], events[3])
	}
	if events[4].ToolCallID != "c1" || events[4].ToolInput != `{"query":"go"}` {
		t.Errorf("tool_call = %+v", events[4])
	}
}

// Decoding must not depend on how the bytes are chunked.
func TestParseEventStreamByteAtATime(t *testing.T) {
	whole, _ := collectEvents(t, strings.NewReader(sampleStream))
	chunked, _ := collectEvents(t, &byteReader{data: []byte(sampleStream)})
	if !reflect.DeepEqual(whole, chunked) {
		t.Fatalf("chunking changed decode:\nwhole:   %+v\nchunked: %+v", whole, chunked)
	}
}

func TestParseEventStreamSkipsMalformedFrames(t *testing.T) {
	body := "event: message\n" +
		"data: {not json\n" +
		"\n" +
		"event: totally_unknown\n" +
		"data: {}\n" +
		"\n" +
		": heartbeat comment\n" +
		"\n" +
		"event: message\n" +
		"data: {\"delta\":{\"content\":\"kept\"}}\n" +
		"\n"

	events, errs := collectEvents(t, strings.NewReader(body))
	if len(errs) != 0 {
		t.Fatalf("errors: %v", errs)
	}
	if len(events) != 1 || events[0].Text != "kept" {
		t.Fatalf("events = %+v", events)
	}
}

func TestParseEventStreamStopsAtTerminal(t *testing.T) {
	body := "event: error\n" +
		"data: {\"message\":\"agent crashed\"}\n" +
		"\n" +
		"event: message\n" +
		"data: {\"delta\":{\"content\":\"after terminal\"}}\n" +
		"\n"

	events, _ := collectEvents(t, strings.NewReader(body))
	if len(events) != 1 {
		t.Fatalf("events past terminal: %+v", events)
	}
	if events[0].Kind != workflow.EventError || events[0].Err != "agent crashed" {
		t.Fatalf("error event = %+v", events[0])
	}
	if !events[0].Terminal() {
		t.Error("error event must be terminal")
	}
}

func TestStringifyToolInput(t *testing.T) {
	if got := stringifyToolInput("raw text"); got != "raw text" {
		t.Errorf("string input = %q", got)
	}
	if got := stringifyToolInput(nil); got != "" {
		t.Errorf("nil input = %q", got)
	}
	if got := stringifyToolInput(map[string]any{"a": 1.0}); got != `{"a":1}` {
		t.Errorf("object input = %q", got)
	}
}

func TestNormalizeServerURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "localhost:8000", want: "http://localhost:8000"},
		{in: "http://localhost:8000/", want: "http://localhost:8000"},
		{in: "https://api.example.com/manus/", want: "https://api.example.com/manus"},
		{in: "://", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := normalizeServerURL(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%q: expected error, got %q", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%q -> %q, want %q", tt.in, got, tt.want)
		}
	}
}
