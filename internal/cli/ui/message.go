package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"

	"github.com/Bluenyg/BuptManus/internal/message"
)

var (
	userLabelStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true) // Blue
	assistantLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true) // Green
	imageNoteStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
)

// RenderMessage renders one committed conversation message for the
// transcript view.
func RenderMessage(m message.Message) string {
	var b strings.Builder

	switch m.Role {
	case message.RoleUser:
		b.WriteString(userLabelStyle.Render("You"))
	default:
		b.WriteString(assistantLabelStyle.Render("Agent"))
	}
	b.WriteString("\n")

	switch m.Type {
	case message.TypeWorkflow:
		b.WriteString(RenderWorkflow(m.Workflow))
	case message.TypeMultimodal:
		for i, part := range m.Parts {
			if i > 0 {
				b.WriteString("\n")
			}
			switch part.Kind {
			case message.PartText:
				b.WriteString(part.Text)
			case message.PartImage:
				b.WriteString(imageNoteStyle.Render("[image: " + clipLine(part.ImageURL, 40) + "]"))
			}
		}
		b.WriteString("\n")
	default:
		b.WriteString(m.Text)
		b.WriteString("\n")
	}

	return b.String()
}

// SessionRow is one row of the session list view.
type SessionRow struct {
	ID        string
	Title     string
	CreatedAt string
	Current   bool
}

// RenderSessionList renders sessions as a tree, marking the current one.
func RenderSessionList(rows []SessionRow) string {
	if len(rows) == 0 {
		return keyStyle.Render("No sessions found")
	}

	root := tree.New().Root(stepStyle.Render("Sessions"))
	for _, row := range rows {
		label := row.ID
		if row.Current {
			label = highlightStyle.Render("* " + row.ID)
		}
		if row.Title != "" {
			label += "  " + valueStyle.Render(clipLine(row.Title, 40))
		}
		if row.CreatedAt != "" {
			label += "  " + keyStyle.Render(row.CreatedAt)
		}
		root.Child(label)
	}
	return root.String()
}
