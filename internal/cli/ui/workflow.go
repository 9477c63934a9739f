package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"

	"github.com/Bluenyg/BuptManus/internal/workflow"
)

var (
	// Tree node styles
	stepStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)  // Cyan
	keyStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))            // Gray
	valueStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("229"))            // Yellow
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true) // Pink

	workflowTitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("86")).
				Bold(true).
				MarginTop(1)

	reportHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("212")).
				Bold(true).
				MarginTop(1)

	spinnerNote = keyStyle.Render("…")
)

// RenderWorkflow renders a workflow trace as a step tree. Works on partial
// workflows mid-stream as well as finalized ones; reporter output is shown
// as a trailing report section instead of a step.
func RenderWorkflow(wf *workflow.Workflow) string {
	if wf == nil {
		return ""
	}

	var b strings.Builder
	title := wf.Title
	if title == "" {
		title = "Workflow"
	}
	b.WriteString(workflowTitleStyle.Render("⚙ " + title))
	b.WriteString("\n")

	steps := wf.NavigableSteps()
	if len(steps) == 0 {
		b.WriteString(keyStyle.Render("(no steps yet)"))
		b.WriteString("\n")
	}
	for _, step := range steps {
		b.WriteString(buildStepNode(step).String())
		b.WriteString("\n")
	}

	if report := wf.Report(); report != "" {
		b.WriteString(reportHeaderStyle.Render("📋 Report"))
		b.WriteString("\n")
		b.WriteString(strings.TrimSpace(report))
		b.WriteString("\n")
	}

	return b.String()
}

// buildStepNode creates a tree node for one agent step.
func buildStepNode(step *workflow.Step) *tree.Tree {
	label := stepStyle.Render(workflow.DisplayName(step.AgentName))
	if !step.Sealed() {
		label += " " + spinnerNote
	}
	node := tree.New().Root(label)

	tasks := step.VisibleTasks()
	if len(tasks) == 0 {
		node.Child(keyStyle.Render("(working)"))
		return node
	}

	for _, task := range tasks {
		switch task.Kind {
		case workflow.TaskThinking:
			for _, child := range thinkingChildren(step.AgentName, task.Thinking) {
				node.Child(child)
			}
		case workflow.TaskToolCall:
			node.Child(buildToolNode(task.ToolCall))
		}
	}
	return node
}

// thinkingChildren renders a thinking task. Planner text is re-parsed as a
// plan on every render so a partial stream upgrades in place once enough of
// the JSON has arrived.
func thinkingChildren(agentName string, payload *workflow.ThinkingPayload) []any {
	if payload == nil {
		return nil
	}

	var children []any
	if payload.Reason != "" {
		children = append(children, keyStyle.Render(clipText(payload.Reason, 3)))
	}

	if agentName == workflow.AgentPlanner {
		plan := workflow.ParsePlan(payload.Text)
		if !plan.Empty() {
			if plan.Title != "" {
				children = append(children, highlightStyle.Render(plan.Title))
			}
			for _, ps := range plan.Steps {
				node := tree.New().Root(valueStyle.Render(ps.Title))
				if ps.Description != "" {
					node.Child(clipText(ps.Description, 2))
				}
				children = append(children, node)
			}
			return children
		}
	}

	if payload.Text != "" {
		children = append(children, clipText(payload.Text, 6))
	}
	return children
}

// buildToolNode renders a tool invocation with its result, if any.
func buildToolNode(call *workflow.ToolCallPayload) *tree.Tree {
	if call == nil {
		return tree.New().Root(keyStyle.Render("(tool call)"))
	}

	label := highlightStyle.Render("🔧 " + call.Name)
	if call.Input != "" {
		label += keyStyle.Render(fmt.Sprintf(" (%s)", clipLine(call.Input, 60)))
	}
	node := tree.New().Root(label)

	if call.Output == "" {
		node.Child(keyStyle.Render("(running)"))
	} else {
		node.Child(valueStyle.Render(clipText(call.Output, 4)))
	}
	return node
}

// clipText keeps at most maxLines lines, marking elision.
func clipText(s string, maxLines int) string {
	s = strings.TrimSpace(s)
	lines := strings.Split(s, "\n")
	if len(lines) <= maxLines {
		return s
	}
	return strings.Join(lines[:maxLines], "\n") + "\n" + keyStyle.Render("…")
}

// clipLine flattens to a single line of at most max runes.
func clipLine(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
