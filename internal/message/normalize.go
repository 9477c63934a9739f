package message

import (
	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"github.com/Bluenyg/BuptManus/internal/workflow"
)

// Raw is a stored or wire message payload before normalization. Content may
// be a plain string, a parts array, a legacy {text, image} object, or a
// JSON-encoded workflow embedded as a string.
type Raw struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	SessionID string `json:"session_id"`
	Content   any    `json:"content"`
}

// Normalize converts an arbitrary stored or wire payload into a Message with
// a definite type. Precedence, first match wins: embedded workflow JSON,
// multimodal shapes, plain text. Parse failures are never propagated; each
// rule silently falls through to the next, bottoming out in a text message.
func Normalize(raw Raw) Message {
	m := Message{
		ID:        raw.ID,
		Role:      Role(raw.Role),
		SessionID: raw.SessionID,
	}
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.Role != RoleUser && m.Role != RoleAssistant {
		m.Role = RoleAssistant
	}

	content := raw.Content

	// Strings holding JSON get one chance to reveal a richer shape. The
	// original string is kept: a plain text message must round-trip
	// unchanged, so only a recognized richer shape replaces it.
	if s, ok := content.(string); ok {
		var parsed any
		if err := sonic.Unmarshal([]byte(s), &parsed); err == nil {
			switch v := parsed.(type) {
			case map[string]any:
				if wf, ok := workflowFromObject(v); ok {
					m.Type = TypeWorkflow
					m.Workflow = wf
					return m
				}
				if parts, ok := legacyMultimodal(v); ok {
					m.Type = TypeMultimodal
					m.Parts = parts
					return m
				}
			case []any:
				if parts, ok := partsFromList(v); ok {
					m.Type = TypeMultimodal
					m.Parts = parts
					return m
				}
			}
		}
		m.Type = TypeText
		m.Text = s
		return m
	}

	switch v := content.(type) {
	case nil:
		m.Type = TypeText
		return m
	case map[string]any:
		if wf, ok := workflowFromObject(v); ok {
			m.Type = TypeWorkflow
			m.Workflow = wf
			return m
		}
		if parts, ok := legacyMultimodal(v); ok {
			m.Type = TypeMultimodal
			m.Parts = parts
			return m
		}
	case []any:
		if parts, ok := partsFromList(v); ok {
			m.Type = TypeMultimodal
			m.Parts = parts
			return m
		}
	}

	// Unrecognized shape: serialize deterministically rather than discard.
	m.Type = TypeText
	if b, err := sortedJSON.Marshal(content); err == nil {
		m.Text = string(b)
	} else {
		m.Text = unableToDisplay
	}
	return m
}

// workflowFromObject classifies an object as an embedded workflow when it
// carries any workflow-shaped key, and backfills missing required fields so
// every workflow message is structurally complete.
func workflowFromObject(obj map[string]any) (*workflow.Workflow, bool) {
	if !hasAnyKey(obj, "workflow", "steps", "thought", "title") {
		return nil, false
	}
	if _, ok := obj["workflow"]; ok {
		// The wrapper key decides classification even when its value is not
		// an object; backfill then yields an empty workflow.
		inner, _ := obj["workflow"].(map[string]any)
		if inner == nil {
			inner = map[string]any{}
		}
		obj = inner
	}

	b, err := sonic.Marshal(obj)
	if err != nil {
		return nil, false
	}
	var wf workflow.Workflow
	if err := sonic.Unmarshal(b, &wf); err != nil {
		return nil, false
	}
	if wf.Steps == nil {
		wf.Steps = []*workflow.Step{}
	}
	if wf.Title == "" {
		wf.Title = "Workflow"
	}
	return &wf, true
}

// legacyMultimodal handles the old {text, image} object shape: both fields
// must be present.
func legacyMultimodal(obj map[string]any) ([]Part, bool) {
	text, hasText := obj["text"].(string)
	image, hasImage := obj["image"].(string)
	if !hasText || !hasImage {
		return nil, false
	}
	return []Part{
		{Kind: PartText, Text: text},
		{Kind: PartImage, ImageURL: image},
	}, true
}

// partsFromList normalizes the list-of-typed-parts shape, preserving element
// order. Items that match neither part shape are skipped.
func partsFromList(items []any) ([]Part, bool) {
	parts := make([]Part, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		switch obj["type"] {
		case "text":
			if text, ok := obj["text"].(string); ok {
				parts = append(parts, Part{Kind: PartText, Text: text})
			}
		case "image_url":
			if ref, ok := obj["image_url"].(map[string]any); ok {
				if url, ok := ref["url"].(string); ok {
					parts = append(parts, Part{Kind: PartImage, ImageURL: url})
				}
			}
		}
	}
	if len(parts) == 0 {
		return nil, false
	}
	return parts, true
}

func hasAnyKey(obj map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := obj[k]; ok {
			return true
		}
	}
	return false
}
