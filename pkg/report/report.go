// Package report defines the structured output of the deep research
// pipeline and renders it as a markdown document.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Section is one researched part of the final report.
type Section struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Sources []string `json:"sources"`
}

// Report is the assembled research report. KeyFindings is free-form
// markdown (typically a bullet list) rather than a structured list.
type Report struct {
	Topic            string    `json:"topic"`
	ExecutiveSummary string    `json:"executive_summary"`
	KeyFindings      string    `json:"key_findings"`
	DetailedAnalysis []Section `json:"detailed_analysis"`
	Limitations      string    `json:"limitations"`
}

// Markdown renders the report as a markdown document.
func (r *Report) Markdown() string {
	var out strings.Builder

	out.WriteString(fmt.Sprintf("# Research Report: %s\n\n", r.Topic))

	out.WriteString("## Executive Summary\n\n")
	out.WriteString(strings.TrimSpace(r.ExecutiveSummary))
	out.WriteString("\n\n")

	out.WriteString("## Key Findings\n\n")
	out.WriteString(strings.TrimSpace(r.KeyFindings))
	out.WriteString("\n\n")

	out.WriteString("## Detailed Analysis\n\n")
	for _, section := range r.DetailedAnalysis {
		out.WriteString(fmt.Sprintf("### %s\n\n", section.Title))
		out.WriteString(strings.TrimSpace(section.Content))
		out.WriteString("\n\n")
		if len(section.Sources) > 0 {
			out.WriteString("Sources:\n")
			for _, src := range section.Sources {
				out.WriteString(fmt.Sprintf("- %s\n", src))
			}
			out.WriteString("\n")
		}
	}

	out.WriteString("## Limitations\n\n")
	out.WriteString(strings.TrimSpace(r.Limitations))
	out.WriteString("\n")

	return out.String()
}

// Save renders the report and writes it to path, creating parent
// directories as needed.
func (r *Report) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(r.Markdown()), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
