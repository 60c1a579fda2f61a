package main

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"lessonvisit/internal/validation"
	"lessonvisit/pkg/schema"
)

var (
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	rejectStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	gubStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
)

// renderVerdict renders the outcome of a field check.
func renderVerdict(field validation.Field, msg string) string {
	if msg == "" {
		return okStyle.Render("ok") + " " + string(field)
	}
	return rejectStyle.Render("refused") + " " + string(field) + ": " + msg
}

// renderRecords renders saved records as a table, one visit per line.
func renderRecords(records []schema.AttendanceRecord, rules *schema.Rulebook) string {
	if len(records) == 0 {
		return mutedStyle.Render("No visits saved.") + "\n"
	}

	// Columns are padded by display width; only the topic label is cut.
	widths := []int{14, 8, 5, 10, 24}
	const topicCol = 4
	row := func(cells ...string) string {
		var b strings.Builder
		for i, cell := range cells {
			if i == topicCol {
				cell = runewidth.Truncate(cell, widths[i], "…")
			}
			if i < len(widths) {
				cell = runewidth.FillRight(cell, widths[i]) + " "
			}
			b.WriteString(cell)
		}
		return strings.TrimRight(b.String(), " ")
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(row("ID", "SUBJECT", "YEAR", "DATE", "TOPIC", "EXAMINERS")))
	b.WriteString("\n")
	for _, rec := range records {
		date := "-"
		if !rec.Date.IsZero() {
			date = rec.Date.Format(time.DateOnly)
		}
		topic := "-"
		if rec.LessonTopic != "" {
			topic = rules.TopicLabel(rec.LessonTopic)
		}
		roles := make([]string, 0, len(rec.Examiners))
		for _, r := range rec.Roles() {
			roles = append(roles, string(r))
		}
		line := row(rec.ID, string(rec.Subject), valueOr(string(rec.SchoolYear), "-"), date, topic, strings.Join(roles, ","))
		if rec.IsGub() {
			line += " " + gubStyle.Render("GUB")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
