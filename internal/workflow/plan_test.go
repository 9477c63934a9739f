package workflow

import (
	"reflect"
	"testing"
)

func TestParsePlan(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantTitle string
		wantSteps []PlanStep
		wantEmpty bool
	}{
		{
			name:      "well-formed plan",
			text:      `{"title":"Trip Plan","steps":[{"title":"Research","description":"Find flights"},{"title":"Book"}]}`,
			wantTitle: "Trip Plan",
			wantSteps: []PlanStep{
				{Title: "Research", Description: "Find flights"},
				{Title: "Book"},
			},
		},
		{
			name:      "plan wrapped in markdown fences and prose",
			text:      "Here is the plan:\n```json\n{\"title\":\"Summary\",\"steps\":[{\"title\":\"Collect data\"}]}\n```\nDone.",
			wantTitle: "Summary",
			wantSteps: []PlanStep{{Title: "Collect data"}},
		},
		{
			name:      "truncated after step object opens",
			text:      `{"title":"Plan A","steps":[{"title":"Step 1"}`,
			wantTitle: "Plan A",
			wantSteps: []PlanStep{{Title: "Step 1"}},
		},
		{
			name:      "truncated mid string value",
			text:      `{"title":"Plan B","steps":[{"title":"Resea`,
			wantTitle: "Plan B",
			wantSteps: []PlanStep{{Title: "Resea"}},
		},
		{
			name:      "dangling key without value is dropped",
			text:      `{"title":"Plan C","steps":[{"title":"Step 1","description"`,
			wantTitle: "Plan C",
			wantSteps: []PlanStep{{Title: "Step 1"}},
		},
		{
			name:      "trailing comma",
			text:      `{"title":"Plan D","steps":[{"title":"Only"},]}`,
			wantTitle: "Plan D",
			wantSteps: []PlanStep{{Title: "Only"}},
		},
		{
			name:      "no opening brace yet",
			text:      "Thinking about how to structure this...",
			wantEmpty: true,
		},
		{
			name:      "empty input",
			text:      "",
			wantEmpty: true,
		},
		{
			name:      "only an opening brace",
			text:      "{",
			wantEmpty: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePlan(tt.text)
			if tt.wantEmpty {
				if !got.Empty() {
					t.Fatalf("expected empty plan, got %+v", got)
				}
				return
			}
			if got.Title != tt.wantTitle {
				t.Errorf("title = %q, want %q", got.Title, tt.wantTitle)
			}
			if !reflect.DeepEqual(got.Steps, tt.wantSteps) {
				t.Errorf("steps = %+v, want %+v", got.Steps, tt.wantSteps)
			}
		})
	}
}

func TestParsePlanIdempotent(t *testing.T) {
	text := `{"title":"Plan","steps":[{"title":"One","description":"Desc`
	first := ParsePlan(text)
	second := ParsePlan(text)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("re-parse differs: %+v vs %+v", first, second)
	}
}

// A growing stream must never lose fields that an earlier, shorter snapshot
// already extracted.
func TestParsePlanMonotonicUnderPrefixGrowth(t *testing.T) {
	full := `{"title":"Plan","steps":[{"title":"One","description":"first"},{"title":"Two","description":"second"}]}`

	var lastSteps int
	sawTitle := false
	for i := 0; i <= len(full); i++ {
		plan := ParsePlan(full[:i])
		if sawTitle && plan.Title != "Plan" {
			t.Fatalf("prefix %d lost title: %+v", i, plan)
		}
		if plan.Title == "Plan" {
			sawTitle = true
		}
		if len(plan.Steps) < lastSteps {
			t.Fatalf("prefix %d dropped steps: had %d, now %d", i, lastSteps, len(plan.Steps))
		}
		lastSteps = len(plan.Steps)
	}
	if !sawTitle || lastSteps != 2 {
		t.Fatalf("full text did not parse completely: title seen %v, steps %d", sawTitle, lastSteps)
	}
}
