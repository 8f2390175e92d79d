package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fyrsmithlabs/lpcassist/internal/benchmark"
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("51")).
			Bold(true).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true).
			MarginTop(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	recommendStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")).
			Bold(true)

	reasoningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			Width(78)
)

// renderSummary formats a comparison for the terminal.
func renderSummary(cmp *benchmark.Comparison) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("lpcassist benchmark"))
	b.WriteString(" ")
	b.WriteString(dimStyle.Render(fmt.Sprintf("run %s, %d result(s)", cmp.RunID, len(cmp.Results))))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("Models"))
	b.WriteString("\n")
	if len(cmp.Summary.Models) == 0 {
		b.WriteString(dimStyle.Render("  no successful results"))
		b.WriteString("\n")
	} else {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %-28s %5s %9s %9s %10s %9s", "model", "runs", "accuracy", "quality", "latency", "combined")))
		b.WriteString("\n")
		for _, m := range cmp.Summary.Models {
			row := fmt.Sprintf("  %-28s %5d %8.1f%% %8.1f%% %8.0fms %9.3f",
				m.Model, m.Runs, m.AvgAccuracy*100, m.AvgQuality*100, m.AvgLatencyMs, m.Combined)
			if m.Model == cmp.Summary.RecommendedModel {
				b.WriteString(recommendStyle.Render(row))
			} else {
				b.WriteString(valueStyle.Render(row))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString(sectionStyle.Render("Leaders"))
	b.WriteString("\n")
	for _, kv := range [][2]string{
		{"Best accuracy", cmp.Summary.BestAccuracy},
		{"Fastest", cmp.Summary.BestSpeed},
		{"Best quality", cmp.Summary.BestQuality},
		{"Recommended", cmp.Summary.RecommendedModel},
	} {
		b.WriteString("  ")
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-14s", kv[0])))
		b.WriteString(" ")
		b.WriteString(valueStyle.Render(orDash(kv[1])))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(reasoningStyle.Render(cmp.Summary.Reasoning))
	return b.String()
}
