// Package message defines the canonical in-memory message shape and the
// normalization boundary that converts heterogeneous stored or wire payloads
// into it. Internal components never re-inspect raw content shapes: the type
// tag fully determines the content after normalization.
package message

import (
	"github.com/bytedance/sonic"

	"github.com/Bluenyg/BuptManus/internal/workflow"
)

// Role of a conversational turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Type tags the message content variant.
type Type string

const (
	TypeText       Type = "text"
	TypeMultimodal Type = "multimodal"
	TypeWorkflow   Type = "workflow"
)

// PartKind tags one multimodal part.
type PartKind string

const (
	PartText  PartKind = "text"
	PartImage PartKind = "image"
)

// Part is one element of a multimodal message, in original order.
type Part struct {
	Kind     PartKind
	Text     string // PartText
	ImageURL string // PartImage, usually a data: URL
}

// Message is one conversational turn artifact. Exactly one of Text / Parts /
// Workflow is meaningful, per Type.
type Message struct {
	ID        string
	Role      Role
	Type      Type
	SessionID string

	Text     string
	Parts    []Part
	Workflow *workflow.Workflow
}

// sortedJSON marshals with sorted map keys so fallback stringification is
// deterministic across runs.
var sortedJSON = sonic.Config{SortMapKeys: true}.Froze()

// unableToDisplay is the terminal fallback for content that cannot be
// represented at all. Malformed content degrades, it never crashes rendering.
const unableToDisplay = "[unable to display]"

// Wire shapes for the chat stream request body. Multimodal content is always
// sent as the structured parts array; this client does not reproduce the
// legacy flattened text-with-marker form.
type (
	// WireMessage is one {role, content} element of the request history.
	WireMessage struct {
		Role    string `json:"role"`
		Content any    `json:"content"`
	}

	// WirePart is one typed content part.
	WirePart struct {
		Type     string        `json:"type"`
		Text     string        `json:"text,omitempty"`
		ImageURL *WireImageURL `json:"image_url,omitempty"`
	}

	// WireImageURL wraps an image reference.
	WireImageURL struct {
		URL string `json:"url"`
	}
)

// Wire serializes the message for transport. Text content goes out as the
// original string unchanged.
func (m Message) Wire() WireMessage {
	w := WireMessage{Role: string(m.Role)}
	switch m.Type {
	case TypeMultimodal:
		parts := make([]WirePart, 0, len(m.Parts))
		for _, p := range m.Parts {
			switch p.Kind {
			case PartText:
				parts = append(parts, WirePart{Type: "text", Text: p.Text})
			case PartImage:
				parts = append(parts, WirePart{Type: "image_url", ImageURL: &WireImageURL{URL: p.ImageURL}})
			}
		}
		w.Content = parts
	case TypeWorkflow:
		if b, err := sortedJSON.Marshal(m.Workflow); err == nil {
			w.Content = string(b)
		} else {
			w.Content = unableToDisplay
		}
	default:
		w.Content = m.Text
	}
	return w
}
