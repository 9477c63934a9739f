package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/Bluenyg/BuptManus/internal/workflow"
	"github.com/Bluenyg/BuptManus/pkg/logger"
)

// Wire payloads for the chat event stream. Each SSE frame carries an event
// name plus one JSON object; unknown fields are ignored.
type wirePayload struct {
	AgentName  string    `json:"agent_name"`
	AgentID    string    `json:"agent_id"`
	MessageID  string    `json:"message_id"`
	Delta      wireDelta `json:"delta"`
	ToolCallID string    `json:"tool_call_id"`
	ToolName   string    `json:"tool_name"`
	ToolInput  any       `json:"tool_input"`
	ToolResult string    `json:"tool_result"`
	Message    string    `json:"message"`
}

type wireDelta struct {
	Content          string `json:"content"`
	ReasoningContent string `json:"reasoning_content"`
}

// parseEventStream reads an SSE body and emits decoded events until the
// stream ends, a terminal event arrives, or ctx is cancelled. Frames with an
// unknown event name or an undecodable payload are skipped; a stream that
// simply ends without a terminal event is not an error, the caller's
// assembler finalizes whatever arrived.
func parseEventStream(ctx context.Context, r io.Reader, evCh chan<- workflow.Event, errCh chan<- error) {
	log := logger.FromContext(ctx)
	scanner := bufio.NewScanner(r)

	// SSE frames carry whole tool results and can get large
	const maxScanTokenSize = 1024 * 1024 // 1MB
	buf := make([]byte, maxScanTokenSize)
	scanner.Buffer(buf, maxScanTokenSize)

	var (
		eventName string
		data      []string
	)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		if line == "" {
			// Blank line ends the frame
			if eventName != "" || len(data) > 0 {
				name, payload := eventName, strings.Join(data, "\n")
				eventName, data = "", nil
				ev, err := decodeEvent(name, payload)
				if err != nil {
					logger.WithError(log, err).Debug("skipping stream frame", "event", name)
					continue
				}
				select {
				case evCh <- ev:
				case <-ctx.Done():
					return
				}
				if ev.Terminal() {
					return
				}
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			eventName = value
		case "data":
			data = append(data, value)
		}
	}

	if err := scanner.Err(); err != nil && err != io.EOF {
		select {
		case errCh <- fmt.Errorf("event stream read failed: %w", err):
		case <-ctx.Done():
		}
	}
}

// decodeEvent maps one wire frame onto a workflow event. Errors on event
// names this client does not know and on payloads that fail to parse.
func decodeEvent(name, data string) (workflow.Event, error) {
	kind := workflow.EventKind(name)
	switch kind {
	case workflow.EventStartOfWorkflow, workflow.EventStartOfAgent, workflow.EventEndOfAgent,
		workflow.EventStartOfLLM, workflow.EventEndOfLLM, workflow.EventMessage,
		workflow.EventToolCall, workflow.EventToolCallResult,
		workflow.EventEndOfWorkflow, workflow.EventError:
	default:
		return workflow.Event{}, fmt.Errorf("unknown event %q", name)
	}

	var p wirePayload
	if data != "" {
		if err := sonic.UnmarshalString(data, &p); err != nil {
			return workflow.Event{}, fmt.Errorf("undecodable payload for %q: %w", name, err)
		}
	}

	return workflow.Event{
		Kind:       kind,
		AgentID:    p.AgentID,
		AgentName:  p.AgentName,
		MessageID:  p.MessageID,
		Text:       p.Delta.Content,
		Reasoning:  p.Delta.ReasoningContent,
		ToolCallID: p.ToolCallID,
		ToolName:   p.ToolName,
		ToolInput:  stringifyToolInput(p.ToolInput),
		ToolResult: p.ToolResult,
		Err:        p.Message,
	}, nil
}

// stringifyToolInput keeps string inputs as-is and renders structured ones
// as compact JSON.
func stringifyToolInput(v any) string {
	switch in := v.(type) {
	case nil:
		return ""
	case string:
		return in
	default:
		out, err := sonic.MarshalString(in)
		if err != nil {
			return fmt.Sprintf("%v", in)
		}
		return out
	}
}
