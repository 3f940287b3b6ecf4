package flow

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/entrhq/uiflow/pkg/browser"
)

// Script is a scenario declared in YAML.
type Script struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description,omitempty"`
	Start       string        `yaml:"start,omitempty"`
	Tags        []string      `yaml:"tags,omitempty"`
	Viewport    *ViewportSpec `yaml:"viewport,omitempty"`
	Notes       []string      `yaml:"notes,omitempty"`
	Steps       []StepSpec    `yaml:"steps"`
	Expect      []ExpectSpec  `yaml:"expect,omitempty"`
}

// ViewportSpec is a width and height in CSS pixels.
type ViewportSpec struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// TargetSpec picks an element. Exactly one of Text, CSS or XPath is set.
type TargetSpec struct {
	Text  string `yaml:"text,omitempty"`
	Exact bool   `yaml:"exact,omitempty"`
	CSS   string `yaml:"css,omitempty"`
	XPath string `yaml:"xpath,omitempty"`
}

// ScrollSpec is a wheel delta.
type ScrollSpec struct {
	DX float64 `yaml:"dx"`
	DY float64 `yaml:"dy"`
}

// FillSpec types Value into Target.
type FillSpec struct {
	TargetSpec `yaml:",inline"`
	Value      string `yaml:"value"`
}

// StepSpec is one step. Exactly one action field is set. Alternates are
// tried in order when the step fails the way the application would.
type StepSpec struct {
	Goto        string        `yaml:"goto,omitempty"`
	Click       *TargetSpec   `yaml:"click,omitempty"`
	Fill        *FillSpec     `yaml:"fill,omitempty"`
	Scroll      *ScrollSpec   `yaml:"scroll,omitempty"`
	Evaluate    string        `yaml:"evaluate,omitempty"`
	Pause       time.Duration `yaml:"pause,omitempty"`
	WaitVisible *TargetSpec   `yaml:"wait_visible,omitempty"`
	Viewport    *ViewportSpec `yaml:"viewport,omitempty"`
	Expect      []ExpectSpec  `yaml:"expect,omitempty"`

	Timeout    time.Duration `yaml:"timeout,omitempty"`
	Alternates []StepSpec    `yaml:"alternates,omitempty"`
}

// ExpectSpec is an end-state check: visible text, or a script expression
// that must become true.
type ExpectSpec struct {
	Text        string `yaml:"text,omitempty"`
	Exact       bool   `yaml:"exact,omitempty"`
	Eval        string `yaml:"eval,omitempty"`
	Expectation string `yaml:"expectation,omitempty"`
}

// LoadScript reads and validates a YAML scenario file.
func LoadScript(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open script: %w", err)
	}
	defer f.Close()

	s, err := ParseScript(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ParseScript decodes and validates a YAML scenario. Unknown keys are
// rejected.
func ParseScript(r io.Reader) (*Script, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Script
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("script is empty")
		}
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the script's structure.
func (s *Script) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Steps) == 0 && len(s.Expect) == 0 {
		return fmt.Errorf("script %s has no steps and no expectations", s.Name)
	}
	if s.Viewport != nil {
		if err := s.Viewport.validate(); err != nil {
			return err
		}
	}
	for i, st := range s.Steps {
		if err := st.validate(true); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	for i, e := range s.Expect {
		if err := e.validate(); err != nil {
			return fmt.Errorf("expect %d: %w", i+1, err)
		}
	}
	return nil
}

func (v ViewportSpec) validate() error {
	if v.Width <= 0 || v.Height <= 0 {
		return fmt.Errorf("viewport must be positive, got %dx%d", v.Width, v.Height)
	}
	return nil
}

func (st StepSpec) actions() []string {
	var set []string
	if st.Goto != "" {
		set = append(set, "goto")
	}
	if st.Click != nil {
		set = append(set, "click")
	}
	if st.Fill != nil {
		set = append(set, "fill")
	}
	if st.Scroll != nil {
		set = append(set, "scroll")
	}
	if st.Evaluate != "" {
		set = append(set, "evaluate")
	}
	if st.Pause > 0 {
		set = append(set, "pause")
	}
	if st.WaitVisible != nil {
		set = append(set, "wait_visible")
	}
	if st.Viewport != nil {
		set = append(set, "viewport")
	}
	if len(st.Expect) > 0 {
		set = append(set, "expect")
	}
	return set
}

func (st StepSpec) validate(top bool) error {
	switch set := st.actions(); len(set) {
	case 0:
		return fmt.Errorf("no action given")
	case 1:
	default:
		return fmt.Errorf("exactly one action allowed, got %s", strings.Join(set, ", "))
	}

	if st.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if !top && len(st.Alternates) > 0 {
		return fmt.Errorf("alternates cannot be nested")
	}
	if len(st.Alternates) > MaxAlternates {
		return fmt.Errorf("at most %d alternates allowed, got %d", MaxAlternates, len(st.Alternates))
	}

	for _, t := range []*TargetSpec{st.Click, st.WaitVisible} {
		if t != nil {
			if err := t.validate(); err != nil {
				return err
			}
		}
	}
	if st.Fill != nil {
		if err := st.Fill.TargetSpec.validate(); err != nil {
			return err
		}
	}
	if st.Viewport != nil {
		if err := st.Viewport.validate(); err != nil {
			return err
		}
	}
	for _, e := range st.Expect {
		if err := e.validate(); err != nil {
			return err
		}
	}
	for i, alt := range st.Alternates {
		if err := alt.validate(false); err != nil {
			return fmt.Errorf("alternate %d: %w", i+1, err)
		}
	}
	return nil
}

func (t TargetSpec) validate() error {
	n := 0
	for _, v := range []string{t.Text, t.CSS, t.XPath} {
		if v != "" {
			n++
		}
	}
	if n != 1 {
		return fmt.Errorf("target needs exactly one of text, css or xpath")
	}
	if t.Exact && t.Text == "" {
		return fmt.Errorf("exact only applies to text targets")
	}
	return nil
}

func (t TargetSpec) selector() browser.Selector {
	switch {
	case t.CSS != "":
		return browser.CSS(t.CSS)
	case t.XPath != "":
		return browser.XPath(t.XPath)
	case t.Exact:
		return browser.ExactText(t.Text)
	default:
		return browser.Text(t.Text)
	}
}

func (e ExpectSpec) validate() error {
	if (e.Text == "") == (e.Eval == "") {
		return fmt.Errorf("expectation needs exactly one of text or eval")
	}
	if e.Exact && e.Text == "" {
		return fmt.Errorf("exact only applies to text expectations")
	}
	return nil
}

// Scenario converts the script into a runnable scenario.
func (s *Script) Scenario() Scenario {
	sc := Scenario{
		Name:        s.Name,
		Description: s.Description,
		Start:       s.Start,
		Tags:        s.Tags,
		Notes:       s.Notes,
		Body: func(ctx context.Context, r *Run) error {
			for i, st := range s.Steps {
				if err := runStep(ctx, r, st); err != nil {
					r.logger.Debugf("step %d failed: %v", i+1, err)
					return err
				}
			}
			return expectAll(ctx, r, s.Expect)
		},
	}
	if s.Viewport != nil {
		sc.Viewport = browser.Viewport{Width: s.Viewport.Width, Height: s.Viewport.Height}
	}
	return sc
}

func runStep(ctx context.Context, r *Run, st StepSpec) error {
	if len(st.Alternates) == 0 {
		return st.do(ctx, r)
	}
	paths := make([]Alternate, 0, len(st.Alternates)+1)
	paths = append(paths, Path(st.describe(), st.do))
	for _, alt := range st.Alternates {
		paths = append(paths, Path(alt.describe(), alt.do))
	}
	_, err := r.FirstOf(ctx, paths...)
	return err
}

func (st StepSpec) do(ctx context.Context, r *Run) error {
	switch {
	case st.Goto != "":
		_, err := r.Goto(ctx, st.Goto)
		return err
	case st.Click != nil:
		return r.act(ctx, r.Page(), st.Click.selector(), browser.Click(), st.Timeout).Error()
	case st.Fill != nil:
		return r.act(ctx, r.Page(), st.Fill.selector(), browser.Fill(st.Fill.Value), st.Timeout).Error()
	case st.Scroll != nil:
		return r.act(ctx, r.Page(), browser.Selector{}, browser.ScrollBy(st.Scroll.DX, st.Scroll.DY), st.Timeout).Error()
	case st.Evaluate != "":
		return r.act(ctx, r.Page(), browser.Selector{}, browser.Evaluate(st.Evaluate), st.Timeout).Error()
	case st.Pause > 0:
		if st.Timeout <= 0 {
			return r.Pause(ctx, st.Pause)
		}
		return r.act(ctx, r.Page(), browser.Selector{}, browser.Pause(st.Pause), st.Timeout).Error()
	case st.WaitVisible != nil:
		return r.WaitVisible(ctx, st.WaitVisible.selector(), st.Timeout)
	case st.Viewport != nil:
		return r.SetViewport(browser.Viewport{Width: st.Viewport.Width, Height: st.Viewport.Height})
	case len(st.Expect) > 0:
		return expectAll(ctx, r, st.Expect)
	}
	return fmt.Errorf("no action given")
}

func (st StepSpec) describe() string {
	switch {
	case st.Goto != "":
		return "goto " + st.Goto
	case st.Click != nil:
		return "click " + st.Click.selector().Describe()
	case st.Fill != nil:
		return "fill " + st.Fill.selector().Describe()
	case st.Scroll != nil:
		return fmt.Sprintf("scroll %g,%g", st.Scroll.DX, st.Scroll.DY)
	case st.Evaluate != "":
		return "evaluate"
	case st.Pause > 0:
		return fmt.Sprintf("pause %v", st.Pause)
	case st.WaitVisible != nil:
		return "wait for " + st.WaitVisible.selector().Describe()
	case st.Viewport != nil:
		return fmt.Sprintf("viewport %dx%d", st.Viewport.Width, st.Viewport.Height)
	default:
		return "expect"
	}
}

// expectAll checks text markers together under one deadline, then each
// eval expectation in order.
func expectAll(ctx context.Context, r *Run, specs []ExpectSpec) error {
	var markers []browser.Marker
	for _, e := range specs {
		if e.Text != "" {
			markers = append(markers, browser.Marker{Text: e.Text, Exact: e.Exact, Expectation: e.Expectation})
		}
	}
	if len(markers) > 0 {
		if err := r.Expect(ctx, markers...); err != nil {
			return err
		}
	}
	for _, e := range specs {
		if e.Eval != "" {
			if err := r.ExpectTrue(ctx, e.Eval, e.Expectation); err != nil {
				return err
			}
		}
	}
	return nil
}
