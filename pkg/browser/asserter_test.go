package browser_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/uiflow/pkg/browser"
	"github.com/entrhq/uiflow/pkg/browser/browsertest"
)

func newAsserter() *browser.Asserter {
	a := browser.NewAsserter(fastTimeouts(), nil)
	a.SetPollInterval(10 * time.Millisecond)
	return a
}

func TestAssertVisible_Present(t *testing.T) {
	page := browsertest.NewPage()
	page.AddText("Creator OS")

	err := newAsserter().AssertVisible(context.Background(), page, browser.Expect("Creator OS", "landing page did not render"))
	assert.NoError(t, err)
}

func TestAssertVisible_WaitsForAsyncContent(t *testing.T) {
	page := browsertest.NewPage()
	marker := "Analysis Complete: Risks and Opportunities Identified"
	page.Add(browser.Text(marker), browsertest.Element{Text: marker, Delay: 100 * time.Millisecond})

	err := newAsserter().AssertVisible(context.Background(), page, browser.Expect(marker, "analysis not produced"))
	assert.NoError(t, err)
}

func TestAssertVisible_FailureStatesExpectation(t *testing.T) {
	page := browsertest.NewPage()
	page.AddText("Paste the brand email or brief content here...")
	_ = page.Goto("http://localhost:3000/#/deal/42", browser.LoadCommit, time.Second)

	marker := browser.Expect("Analysis Complete: Risks and Opportunities Identified", "analysis not produced")
	start := time.Now()
	err := newAsserter().AssertVisible(context.Background(), page, marker)
	elapsed := time.Since(start)

	var aerr *browser.AssertionError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "analysis not produced", aerr.Expectation)
	assert.Equal(t, []string{marker.Text}, aerr.Missing)
	assert.Equal(t, "http://localhost:3000/#/deal/42", aerr.URL)
	assert.Contains(t, aerr.Excerpt, "Paste the brand email")
	assert.Contains(t, err.Error(), "analysis not produced")
	assert.NotContains(t, err.Error(), "browser: timeout")

	assert.GreaterOrEqual(t, elapsed, 300*time.Millisecond)
	assert.Less(t, elapsed, time.Second)
}

func TestAssertAllVisible_HungDriverStaysWithinTimeout(t *testing.T) {
	page := browsertest.NewPage()
	page.AddText("Creator OS")
	page.HangVisibility(5 * time.Second)

	markers := make([]browser.Marker, 8)
	for i := range markers {
		markers[i] = browser.Expect(fmt.Sprintf("Stage %d", i), "pipeline stages missing")
	}

	start := time.Now()
	err := newAsserter().AssertAllVisible(context.Background(), page, markers...)
	elapsed := time.Since(start)

	var aerr *browser.AssertionError
	require.ErrorAs(t, err, &aerr)
	assert.Len(t, aerr.Missing, 8, "unchecked markers are still reported")
	assert.Less(t, elapsed, 700*time.Millisecond)
}

func TestAssertTrue_HungDriverStaysWithinTimeout(t *testing.T) {
	page := browsertest.NewPage()
	page.OnEvaluate(func(string) (any, bool, error) {
		time.Sleep(5 * time.Second)
		return true, true, nil
	})

	start := time.Now()
	err := newAsserter().AssertTrue(context.Background(), page, "form.checkValidity() === false", "validation did not run")
	var aerr *browser.AssertionError
	require.ErrorAs(t, err, &aerr)
	assert.Less(t, time.Since(start), 700*time.Millisecond)
}

func TestAssertVisible_HiddenTextDoesNotCount(t *testing.T) {
	page := browsertest.NewPage()
	page.Add(browser.Text("Creator OS"), browsertest.Element{Text: "Creator OS", Hidden: true})

	err := newAsserter().AssertVisible(context.Background(), page, browser.Expect("Creator OS", "brand header hidden"))
	var aerr *browser.AssertionError
	assert.ErrorAs(t, err, &aerr)
}

func TestAssertAllVisible_ReportsEveryMissingMarker(t *testing.T) {
	page := browsertest.NewPage()
	page.AddText("Creator OS", "Outreach")

	err := newAsserter().AssertAllVisible(context.Background(), page,
		browser.Expect("Creator OS", "landing copy missing"),
		browser.Expect("Outreach", "landing copy missing"),
		browser.Expect("Negotiating", "landing copy missing"),
		browser.Expect("In Review", "pipeline stages missing"),
	)

	var aerr *browser.AssertionError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, []string{"Negotiating", "In Review"}, aerr.Missing)
	assert.Equal(t, "landing copy missing; pipeline stages missing", aerr.Expectation)
}

func TestAssertAllVisible_NoMarkers(t *testing.T) {
	assert.NoError(t, newAsserter().AssertAllVisible(context.Background(), browsertest.NewPage()))
}

func TestAssertVisible_ExactMarker(t *testing.T) {
	page := browsertest.NewPage()
	page.Add(browser.ExactText("Pricing"), browsertest.Element{Text: "Pricing"})

	err := newAsserter().AssertVisible(context.Background(), page, browser.Marker{Text: "Pricing", Exact: true, Expectation: "nav missing"})
	assert.NoError(t, err)
}

func TestAssertVisible_CancelledIsNotAssertionFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newAsserter().AssertVisible(ctx, browsertest.NewPage(), browser.Expect("Creator OS", "landing"))
	assert.ErrorIs(t, err, context.Canceled)
	var aerr *browser.AssertionError
	assert.False(t, errors.As(err, &aerr))
}

func TestAssertVisible_CrashedPage(t *testing.T) {
	page := browsertest.NewPage()
	page.Crash()

	err := newAsserter().AssertVisible(context.Background(), page, browser.Expect("Creator OS", "landing"))
	assert.ErrorIs(t, err, browser.ErrTargetClosed)
}

func TestAssertTrue(t *testing.T) {
	page := browsertest.NewPage()
	var calls atomic.Int32
	page.OnEvaluate(func(expr string) (any, bool, error) {
		if expr != "document.querySelector('#brandName').validity.valueMissing" {
			return nil, false, nil
		}
		return calls.Add(1) >= 3, true, nil
	})

	err := newAsserter().AssertTrue(context.Background(), page,
		"document.querySelector('#brandName').validity.valueMissing", "empty deal form was not rejected by validation")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func TestAssertTrue_Failure(t *testing.T) {
	page := browsertest.NewPage()
	page.OnEvaluate(func(string) (any, bool, error) { return false, true, nil })

	err := newAsserter().AssertTrue(context.Background(), page, "form.checkValidity() === false", "empty deal form was not rejected by validation")
	var aerr *browser.AssertionError
	require.ErrorAs(t, err, &aerr)
	assert.Contains(t, err.Error(), "validation")
	assert.Equal(t, []string{"form.checkValidity() === false"}, aerr.Missing)
}
