package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/entrhq/uiflow/pkg/flow"
)

// Verdict colours.
var (
	passGreen  = lipgloss.Color("#A8E6CF")
	failRed    = lipgloss.Color("203")
	infraAmber = lipgloss.Color("#FFC857")
	mutedGray  = lipgloss.Color("#6B7280")
)

// Console prints reports to a terminal. Styles are bound to the writer so
// colour is dropped when it is not a terminal.
type Console struct {
	w io.Writer

	header lipgloss.Style
	pass   lipgloss.Style
	fail   lipgloss.Style
	infra  lipgloss.Style
	muted  lipgloss.Style
	box    lipgloss.Style
}

// NewConsole creates a console printer writing to w.
func NewConsole(w io.Writer) *Console {
	r := lipgloss.NewRenderer(w)
	return &Console{
		w:      w,
		header: r.NewStyle().Bold(true),
		pass:   r.NewStyle().Foreground(passGreen).Bold(true),
		fail:   r.NewStyle().Foreground(failRed).Bold(true),
		infra:  r.NewStyle().Foreground(infraAmber).Bold(true),
		muted:  r.NewStyle().Foreground(mutedGray),
		box: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedGray).
			Padding(0, 1),
	}
}

// Print writes one line per scenario, details for anything that did not
// pass cleanly, and a totals box.
func (c *Console) Print(r *Report) {
	fmt.Fprintln(c.w, c.header.Render(fmt.Sprintf("Run %s against %s", r.RunID, r.BaseURL)))
	fmt.Fprintln(c.w)

	width := 0
	for _, s := range r.Scenarios {
		width = max(width, len(s.Name))
	}

	for _, s := range r.Scenarios {
		fmt.Fprintf(c.w, "  %s  %-*s  %s\n",
			c.badge(s.Verdict), width, s.Name,
			c.muted.Render(s.Duration.Round(time.Millisecond).String()))
		c.details(s)
	}
	fmt.Fprintln(c.w)

	t := r.Totals
	totals := strings.Join([]string{
		c.pass.Render(fmt.Sprintf("%d passed", t.Passed)),
		c.fail.Render(fmt.Sprintf("%d failed", t.Failed)),
		c.infra.Render(fmt.Sprintf("%d infra errors", t.Infra)),
		c.muted.Render(fmt.Sprintf("in %s", r.Duration.Round(time.Millisecond))),
	}, "  ")
	fmt.Fprintln(c.w, c.box.Render(totals))
}

func (c *Console) badge(v flow.Verdict) string {
	switch v {
	case flow.VerdictPass:
		return c.pass.Render("PASS ")
	case flow.VerdictFail:
		return c.fail.Render("FAIL ")
	default:
		return c.infra.Render("INFRA")
	}
}

func (c *Console) details(s ScenarioResult) {
	line := func(label, text string) {
		fmt.Fprintf(c.w, "         %s %s\n", c.muted.Render(label+":"), text)
	}

	if s.Verdict != flow.VerdictPass {
		line("reason", s.Reason)
	}
	if len(s.Missing) > 0 {
		line("not shown", quoteAll(s.Missing))
	}
	if s.PageText != "" {
		line("page", truncate(s.PageText, 160))
	}
	for _, f := range s.DegradedFrames {
		line("degraded frame", fmt.Sprintf("%s (%s)", f.Name, f.URL))
	}
	for _, flag := range s.Flags {
		line("note", flag)
	}
	if s.Cleanup != "" {
		line("cleanup", s.Cleanup)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
