package message

import (
	"testing"

	"github.com/Bluenyg/BuptManus/internal/workflow"
)

func TestNormalizeWorkflowContent(t *testing.T) {
	tests := []struct {
		name    string
		content any
	}{
		{
			name:    "workflow JSON embedded in a string",
			content: `{"workflow":{"title":"Trip","steps":[{"id":"s1","agentName":"planner","tasks":[]}]}}`,
		},
		{
			name: "bare workflow object",
			content: map[string]any{
				"title": "Trip",
				"steps": []any{
					map[string]any{"id": "s1", "agentName": "planner", "tasks": []any{}},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Normalize(Raw{ID: "m1", Role: "assistant", Content: tt.content})
			if m.Type != TypeWorkflow {
				t.Fatalf("type = %q, want workflow", m.Type)
			}
			if m.Workflow == nil || m.Workflow.Title != "Trip" {
				t.Fatalf("workflow = %+v", m.Workflow)
			}
			if len(m.Workflow.Steps) != 1 || m.Workflow.Steps[0].AgentName != workflow.AgentPlanner {
				t.Fatalf("steps = %+v", m.Workflow.Steps)
			}
		})
	}
}

func TestNormalizeWorkflowBackfillsMissingFields(t *testing.T) {
	m := Normalize(Raw{Content: map[string]any{"thought": "hmm"}})
	if m.Type != TypeWorkflow {
		t.Fatalf("type = %q", m.Type)
	}
	if m.Workflow.Title != "Workflow" {
		t.Errorf("title not backfilled: %q", m.Workflow.Title)
	}
	if m.Workflow.Steps == nil {
		t.Error("steps not backfilled to empty slice")
	}

	// The wrapper key alone classifies, even with a non-object value.
	m = Normalize(Raw{Content: `{"workflow": "pending"}`})
	if m.Type != TypeWorkflow {
		t.Fatalf("wrapper with non-object value: type = %q", m.Type)
	}
	if m.Workflow.Title != "Workflow" || m.Workflow.Steps == nil || len(m.Workflow.Steps) != 0 {
		t.Errorf("wrapper with non-object value: workflow = %+v", m.Workflow)
	}
}

func TestNormalizeMultimodal(t *testing.T) {
	tests := []struct {
		name    string
		content any
		want    []Part
	}{
		{
			name:    "stringified parts array keeps order",
			content: `[{"type":"text","text":"look at this"},{"type":"image_url","image_url":{"url":"data:image/png;base64,xxx"}},{"type":"text","text":"thanks"}]`,
			want: []Part{
				{Kind: PartText, Text: "look at this"},
				{Kind: PartImage, ImageURL: "data:image/png;base64,xxx"},
				{Kind: PartText, Text: "thanks"},
			},
		},
		{
			name:    "legacy text and image object",
			content: map[string]any{"text": "caption", "image": "data:image/jpeg;base64,yyy"},
			want: []Part{
				{Kind: PartText, Text: "caption"},
				{Kind: PartImage, ImageURL: "data:image/jpeg;base64,yyy"},
			},
		},
		{
			name: "non-conforming items skipped",
			content: []any{
				map[string]any{"type": "text", "text": "kept"},
				map[string]any{"type": "video", "url": "x"},
				"garbage",
			},
			want: []Part{{Kind: PartText, Text: "kept"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Normalize(Raw{Role: "user", Content: tt.content})
			if m.Type != TypeMultimodal {
				t.Fatalf("type = %q, want multimodal", m.Type)
			}
			if len(m.Parts) != len(tt.want) {
				t.Fatalf("parts = %+v, want %+v", m.Parts, tt.want)
			}
			for i := range tt.want {
				if m.Parts[i] != tt.want[i] {
					t.Errorf("part %d = %+v, want %+v", i, m.Parts[i], tt.want[i])
				}
			}
		})
	}
}

func TestNormalizeTextRoundTrip(t *testing.T) {
	// Plain strings must come through byte for byte, including ones that
	// happen to parse as JSON scalars.
	for _, text := range []string{
		"hello there",
		"123",
		"true",
		`"quoted"`,
		"{not json",
		"",
	} {
		m := Normalize(Raw{Role: "user", Content: text})
		if m.Type != TypeText {
			t.Fatalf("%q: type = %q", text, m.Type)
		}
		if m.Text != text {
			t.Errorf("%q round-tripped to %q", text, m.Text)
		}
	}
}

func TestNormalizeDefaults(t *testing.T) {
	m := Normalize(Raw{Role: "system", Content: nil})
	if m.ID == "" {
		t.Error("missing id not backfilled")
	}
	if m.Role != RoleAssistant {
		t.Errorf("unknown role = %q, want assistant", m.Role)
	}
	if m.Type != TypeText || m.Text != "" {
		t.Errorf("nil content: %+v", m)
	}
}

func TestNormalizeUnrecognizedShapeIsDeterministic(t *testing.T) {
	content := map[string]any{"zeta": 1.0, "alpha": "x", "mid": true}
	a := Normalize(Raw{Content: content})
	b := Normalize(Raw{Content: content})
	if a.Type != TypeText || a.Text == "" {
		t.Fatalf("fallback = %+v", a)
	}
	if a.Text != b.Text {
		t.Errorf("fallback stringify not deterministic: %q vs %q", a.Text, b.Text)
	}
	if a.Text != `{"alpha":"x","mid":true,"zeta":1}` {
		t.Errorf("fallback not key-sorted: %q", a.Text)
	}
}

func TestWire(t *testing.T) {
	t.Run("text content unchanged", func(t *testing.T) {
		w := Message{Role: RoleUser, Type: TypeText, Text: "exactly this"}.Wire()
		if w.Role != "user" || w.Content != "exactly this" {
			t.Fatalf("wire = %+v", w)
		}
	})

	t.Run("multimodal goes out structured", func(t *testing.T) {
		m := Message{Role: RoleUser, Type: TypeMultimodal, Parts: []Part{
			{Kind: PartText, Text: "see image"},
			{Kind: PartImage, ImageURL: "data:image/png;base64,zzz"},
		}}
		w := m.Wire()
		parts, ok := w.Content.([]WirePart)
		if !ok || len(parts) != 2 {
			t.Fatalf("content = %#v", w.Content)
		}
		if parts[0].Type != "text" || parts[0].Text != "see image" {
			t.Errorf("part 0 = %+v", parts[0])
		}
		if parts[1].Type != "image_url" || parts[1].ImageURL == nil || parts[1].ImageURL.URL != "data:image/png;base64,zzz" {
			t.Errorf("part 1 = %+v", parts[1])
		}
	})

	t.Run("workflow serialized to sorted JSON string", func(t *testing.T) {
		m := Message{Role: RoleAssistant, Type: TypeWorkflow, Workflow: &workflow.Workflow{Title: "T", Steps: []*workflow.Step{}}}
		w := m.Wire()
		s, ok := w.Content.(string)
		if !ok || s == "" {
			t.Fatalf("content = %#v", w.Content)
		}
		again, _ := m.Wire().Content.(string)
		if s != again {
			t.Errorf("workflow serialization not deterministic")
		}
	})
}
