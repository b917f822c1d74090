package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/c360studio/swcgen/artifact"
	"github.com/c360studio/swcgen/graph"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA")).
			Width(18)
	okStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#4CAF50"))
	errStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B"))
	noteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

// renderCounts lists non-zero counts in containment order.
func renderCounts(title string, counts artifact.Counts) string {
	lines := []string{titleStyle.Render(title)}
	for _, kind := range artifact.Kinds() {
		n := counts[kind]
		if n == 0 {
			continue
		}
		lines = append(lines, labelStyle.Render(string(kind))+fmt.Sprintf("%d", n))
	}
	if len(lines) == 1 {
		lines = append(lines, noteStyle.Render("nothing"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderValidation(result graph.ValidationResult) string {
	if result.Valid {
		return okStyle.Render("✓ graph is consistent")
	}
	lines := []string{errStyle.Render(fmt.Sprintf("✗ %d violation(s)", len(result.Errors)))}
	for _, e := range result.Errors {
		lines = append(lines, "  - "+e)
	}
	return strings.Join(lines, "\n")
}

// renderSummary is printed after commands that change a project.
func renderSummary(project string, added, total artifact.Counts, result graph.ValidationResult) string {
	head := titleStyle.Render("project " + project)
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		boxStyle.Render(renderCounts("added", added)),
		boxStyle.Render(renderCounts("total", total)))
	return lipgloss.JoinVertical(lipgloss.Left, head, body, renderValidation(result)) + "\n"
}
