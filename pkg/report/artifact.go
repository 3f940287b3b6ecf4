package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/entrhq/uiflow/pkg/flow"
)

// ArtifactWriter handles writing run artifacts
type ArtifactWriter struct {
	outputDir string
}

// NewArtifactWriter creates a new artifact writer
func NewArtifactWriter(outputDir string) *ArtifactWriter {
	return &ArtifactWriter{
		outputDir: outputDir,
	}
}

// Dir returns the output directory.
func (w *ArtifactWriter) Dir() string {
	return w.outputDir
}

// WriteAll writes every artifact format
func (w *ArtifactWriter) WriteAll(r *Report) error {
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := w.WriteResultsJSON(r); err != nil {
		return fmt.Errorf("failed to write results JSON: %w", err)
	}

	if err := w.WriteSummaryMarkdown(r); err != nil {
		return fmt.Errorf("failed to write summary markdown: %w", err)
	}

	if err := w.WriteSummaryHTML(r); err != nil {
		return fmt.Errorf("failed to write summary HTML: %w", err)
	}

	return WriteMetrics(filepath.Join(w.outputDir, "metrics.prom"), r)
}

// WriteResultsJSON writes the full report as JSON
func (w *ArtifactWriter) WriteResultsJSON(r *Report) error {
	path := filepath.Join(w.outputDir, "results.json")

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if writeErr := os.WriteFile(path, data, 0600); writeErr != nil {
		return fmt.Errorf("failed to write results JSON: %w", writeErr)
	}

	return nil
}

// WriteSummaryMarkdown writes a human-readable markdown summary
func (w *ArtifactWriter) WriteSummaryMarkdown(r *Report) error {
	path := filepath.Join(w.outputDir, "summary.md")

	if writeErr := os.WriteFile(path, []byte(summaryMarkdown(r)), 0600); writeErr != nil {
		return fmt.Errorf("failed to write summary markdown: %w", writeErr)
	}

	return nil
}

var htmlPage = template.Must(template.New("summary").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>uiflow run {{.RunID}}</title>
<style>
body { font-family: sans-serif; max-width: 60rem; margin: 2rem auto; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ccc; padding: 0.25rem 0.5rem; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// WriteSummaryHTML renders the markdown summary as a standalone page.
func (w *ArtifactWriter) WriteSummaryHTML(r *Report) error {
	path := filepath.Join(w.outputDir, "summary.html")

	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var body bytes.Buffer
	if err := md.Convert([]byte(summaryMarkdown(r)), &body); err != nil {
		return fmt.Errorf("failed to render summary: %w", err)
	}

	var page bytes.Buffer
	err := htmlPage.Execute(&page, struct {
		RunID string
		Body  template.HTML
	}{r.RunID, template.HTML(body.String())})
	if err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}

	if writeErr := os.WriteFile(path, page.Bytes(), 0600); writeErr != nil {
		return fmt.Errorf("failed to write summary HTML: %w", writeErr)
	}

	return nil
}

func summaryMarkdown(r *Report) string {
	var md strings.Builder

	md.WriteString("# UI Flow Run Summary\n\n")
	md.WriteString(fmt.Sprintf("**Run:** %s\n\n", r.RunID))
	md.WriteString(fmt.Sprintf("**Target:** %s\n\n", r.BaseURL))
	md.WriteString(fmt.Sprintf("**Started:** %s\n\n", r.StartTime.Format(time.RFC3339)))
	md.WriteString(fmt.Sprintf("**Duration:** %s\n\n", r.Duration.Round(time.Millisecond)))
	md.WriteString(fmt.Sprintf("**Result:** %d passed, %d failed, %d infrastructure errors (exit %d)\n\n",
		r.Totals.Passed, r.Totals.Failed, r.Totals.Infra, r.ExitCode))

	md.WriteString("## Scenarios\n\n")
	md.WriteString("| Scenario | Verdict | Duration |\n|---|---|---|\n")
	for _, s := range r.Scenarios {
		md.WriteString(fmt.Sprintf("| %s | %s %s | %s |\n",
			s.Name, verdictIcon(s.Verdict), s.Verdict, s.Duration.Round(time.Millisecond)))
	}
	md.WriteString("\n")

	for _, s := range r.Scenarios {
		if s.Reason == "" && len(s.Flags) == 0 && len(s.DegradedFrames) == 0 && len(s.Notes) == 0 {
			continue
		}
		md.WriteString(fmt.Sprintf("### %s\n\n", s.Name))
		if s.Reason != "" {
			md.WriteString(fmt.Sprintf("%s **%s**\n\n", verdictIcon(s.Verdict), escapeInline(s.Reason)))
		}
		if s.Expectation != "" {
			md.WriteString(fmt.Sprintf("- **Expectation:** %s\n", s.Expectation))
		}
		if len(s.Missing) > 0 {
			md.WriteString(fmt.Sprintf("- **Not shown:** %s\n", quoteAll(s.Missing)))
		}
		if s.PageURL != "" {
			md.WriteString(fmt.Sprintf("- **Page:** %s\n", s.PageURL))
		}
		if s.PageText != "" {
			md.WriteString(fmt.Sprintf("- **Visible text:** %s\n", escapeInline(s.PageText)))
		}
		for _, f := range s.DegradedFrames {
			md.WriteString(fmt.Sprintf("- **Degraded frame:** `%s` (%s) %s\n", f.Name, f.URL, escapeInline(f.Error)))
		}
		for _, flag := range s.Flags {
			md.WriteString(fmt.Sprintf("- **Note:** %s\n", escapeInline(flag)))
		}
		for _, note := range s.Notes {
			md.WriteString(fmt.Sprintf("- **Scenario note:** %s\n", escapeInline(note)))
		}
		if s.Cleanup != "" {
			md.WriteString(fmt.Sprintf("- **Cleanup:** %s\n", escapeInline(s.Cleanup)))
		}
		md.WriteString("\n")
	}

	return md.String()
}

func verdictIcon(v flow.Verdict) string {
	switch v {
	case flow.VerdictPass:
		return "✅"
	case flow.VerdictFail:
		return "❌"
	default:
		return "⚠️"
	}
}

func quoteAll(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(quoted, ", ")
}

// escapeInline keeps multi-line errors on one markdown line.
func escapeInline(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
