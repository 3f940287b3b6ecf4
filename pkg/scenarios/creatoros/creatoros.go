// Package creatoros holds the built-in scenarios for the Creator OS web
// app: a hash-routed single page app with a public landing page, a login
// form and a deal pipeline behind it.
package creatoros

import (
	"context"
	"fmt"
	"math"

	"github.com/entrhq/uiflow/pkg/browser"
	"github.com/entrhq/uiflow/pkg/flow"
)

// Routes.
const (
	RouteLanding   = "/#/landing"
	RouteLogin     = "/#/login"
	RouteDashboard = "/#/"
)

// Visible labels the flows steer by.
const (
	LabelGetStarted    = "Get Started"
	LabelSignIn        = "Sign In"
	LabelLoginSubmit   = "Initialize Session"
	LabelNewDeal       = "New Deal"
	LabelBrandIdentity = "Brand Identity"
	LabelDealSubmit    = "Confirm & Start"
	LabelBriefScanner  = "Initialize Brief Scanner"

	MarkerAnalysis = "Analysis Complete: Risks and Opportunities Identified"
)

// Form fields by id.
var (
	FieldEmail     = browser.CSS("#email")
	FieldPassword  = browser.CSS("#password")
	FieldBrandName = browser.CSS("#brandName")
	FieldContact   = browser.CSS("#contact")
	FieldNotes     = browser.CSS("#notes")
	FieldBrief     = browser.CSS(`textarea[placeholder^="Paste the brand email"]`)
)

// LandingMarkers is the landing copy that must render at every viewport.
var LandingMarkers = []string{
	"Creator OS",
	"Built for creators who already do brand deals",
	"Outreach",
	"Negotiating",
	"In Review",
	"Follow-up Needed",
	"Track exactly where you are in the conversation.",
	"Benchmarked against real industry data",
}

// ResponsiveViewports are checked in order by LandingResponsive.
var ResponsiveViewports = []browser.Viewport{
	browser.ViewportDesktop,
	browser.ViewportTablet,
	browser.ViewportMobile,
}

// landingScroll is the vertical offset of the landing round trip.
const landingScroll = 300

const sampleBrief = "Our brand is launching a new eco-friendly athletic wear line targeting " +
	"environmentally conscious millennials. We aim to leverage TikTok for influencer " +
	"partnerships and community engagement. Potential risks include market saturation " +
	"and influencer authenticity concerns."

// All returns every built-in scenario.
func All() []flow.Scenario {
	return []flow.Scenario{
		LandingResponsive(),
		BriefTranslatorAnalysis(),
		BriefTranslatorEmptyInput(),
		DealFormValidation(),
	}
}

// LandingResponsive scrolls the landing page at desktop, tablet and mobile
// sizes and checks its copy at each.
func LandingResponsive() flow.Scenario {
	return flow.Scenario{
		Name:        "landing-responsive",
		Description: "Landing page copy renders and scrolls at desktop, tablet and mobile sizes",
		Start:       RouteLanding,
		Tags:        []string{"landing", "responsive", "smoke"},
		Body: func(ctx context.Context, r *flow.Run) error {
			for _, v := range ResponsiveViewports {
				if err := r.SetViewport(v); err != nil {
					return err
				}
				if err := r.Settle(ctx); err != nil {
					return err
				}
				if err := scrollRoundTrip(ctx, r, v); err != nil {
					return err
				}

				markers := make([]browser.Marker, len(LandingMarkers))
				for i, text := range LandingMarkers {
					markers[i] = browser.Expect(text, fmt.Sprintf("landing copy missing at %s", v))
				}
				if err := r.Expect(ctx, markers...); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// scrollRoundTrip scrolls down and back up by the same offset and expects
// the page to return to where it started.
func scrollRoundTrip(ctx context.Context, r *flow.Run, v browser.Viewport) error {
	start, err := r.Evaluate(ctx, "window.scrollY")
	if err != nil {
		return err
	}
	if err := r.ScrollBy(ctx, 0, landingScroll); err != nil {
		return err
	}
	if err := r.ScrollBy(ctx, 0, -landingScroll); err != nil {
		return err
	}
	end, err := r.Evaluate(ctx, "window.scrollY")
	if err != nil {
		return err
	}
	if math.Abs(number(end)-number(start)) >= 1 {
		return &browser.AssertionError{
			Expectation: fmt.Sprintf("landing page did not scroll back at %s", v),
			Missing:     []string{fmt.Sprintf("window.scrollY == %g (got %g)", number(start), number(end))},
			URL:         r.Page().URL(),
		}
	}
	return nil
}

// BriefTranslatorAnalysis creates a deal with a brief and expects the
// risk analysis.
func BriefTranslatorAnalysis() flow.Scenario {
	return flow.Scenario{
		Name:        "brief-translator-analysis",
		Description: "A deal created with a brand brief produces a risk and opportunity analysis",
		Start:       RouteLanding,
		Tags:        []string{"brief", "deal"},
		Body: func(ctx context.Context, r *flow.Run) error {
			if err := login(ctx, r); err != nil {
				return err
			}
			if err := openNewDeal(ctx, r); err != nil {
				return err
			}
			if err := fillDeal(ctx, r, "EcoFit Athletics", sampleBrief); err != nil {
				return err
			}
			if err := submitDeal(ctx, r); err != nil {
				return err
			}
			return r.Expect(ctx, browser.Expect(MarkerAnalysis, "analysis not produced"))
		},
	}
}

// BriefTranslatorEmptyInput opens the brief scanner on a fresh deal and
// checks that an empty brief cannot be submitted.
func BriefTranslatorEmptyInput() flow.Scenario {
	const brand = "Empty Brief Co"
	return flow.Scenario{
		Name:        "brief-translator-empty-input",
		Description: "The brief scanner refuses to scan an empty brief",
		Start:       RouteLanding,
		Tags:        []string{"brief", "validation"},
		Notes: []string{
			`the recorded flow expected "Brief Translator input accepted" for empty input; ` +
				"this scenario asserts the scan button stays disabled instead",
		},
		Body: func(ctx context.Context, r *flow.Run) error {
			if err := login(ctx, r); err != nil {
				return err
			}
			if err := openNewDeal(ctx, r); err != nil {
				return err
			}
			if err := fillDeal(ctx, r, brand, ""); err != nil {
				return err
			}
			if err := submitDeal(ctx, r); err != nil {
				return err
			}

			if err := r.Settle(ctx); err != nil {
				return err
			}
			if err := r.Click(ctx, browser.Text(brand)); err != nil {
				return err
			}
			if err := r.Settle(ctx); err != nil {
				return err
			}
			if err := r.Click(ctx, browser.Text(LabelBriefScanner)); err != nil {
				return err
			}
			if err := r.WaitVisible(ctx, FieldBrief, 0); err != nil {
				return err
			}
			if err := r.Fill(ctx, FieldBrief, ""); err != nil {
				return err
			}
			return r.ExpectTrue(ctx, briefSubmitDisabled, "brief scanner accepted empty input: scan should stay disabled")
		},
	}
}

const briefSubmitDisabled = `(() => {
  const area = document.querySelector('textarea[placeholder^="Paste the brand email"]');
  const button = area && area.form && area.form.querySelector('button[type="submit"]');
  return !!button && button.disabled;
})()`

// DealFormValidation submits an empty New Deal form and expects the
// browser's required-field validation to keep it open.
func DealFormValidation() flow.Scenario {
	return flow.Scenario{
		Name:        "deal-form-validation",
		Description: "Submitting an empty New Deal form is blocked by validation",
		Start:       RouteLanding,
		Tags:        []string{"deal", "validation"},
		Notes: []string{
			`the recorded flow expected "Validation Passed Successfully"; ` +
				"this scenario asserts the required Brand Identity field blocks submission instead",
		},
		Body: func(ctx context.Context, r *flow.Run) error {
			if err := login(ctx, r); err != nil {
				return err
			}
			if err := openNewDeal(ctx, r); err != nil {
				return err
			}
			if err := submitDeal(ctx, r); err != nil {
				return err
			}
			if err := r.ExpectTrue(ctx, brandNameMissing, "empty deal form passed validation: Brand Identity is required"); err != nil {
				return err
			}
			return r.Expect(ctx,
				browser.Expect(LabelBrandIdentity, "deal form closed despite failing validation"),
				browser.Expect(LabelDealSubmit, "deal form closed despite failing validation"),
			)
		},
	}
}

const brandNameMissing = `document.querySelector('#brandName').validity.valueMissing`

// login reaches the login form by whichever entry point the landing page
// offers and signs in with the run's credentials.
func login(ctx context.Context, r *flow.Run) error {
	if _, err := r.FirstOf(ctx,
		flow.Path(LabelGetStarted, clickToLogin(LabelGetStarted)),
		flow.Path(LabelSignIn, clickToLogin(LabelSignIn)),
		flow.Path("login route", func(ctx context.Context, r *flow.Run) error {
			if _, err := r.Goto(ctx, RouteLogin); err != nil {
				return err
			}
			return r.WaitVisible(ctx, FieldEmail, 0)
		}),
	); err != nil {
		return err
	}

	creds := r.Credentials()
	if err := r.Fill(ctx, FieldEmail, creds.Email); err != nil {
		return err
	}
	if err := r.Fill(ctx, FieldPassword, creds.Password); err != nil {
		return err
	}
	if err := r.Click(ctx, browser.Text(LabelLoginSubmit)); err != nil {
		return err
	}
	return r.Expect(ctx, browser.Expect(LabelNewDeal, "login did not reach the deal pipeline"))
}

func clickToLogin(label string) func(ctx context.Context, r *flow.Run) error {
	return func(ctx context.Context, r *flow.Run) error {
		if err := r.Settle(ctx); err != nil {
			return err
		}
		if err := r.Click(ctx, browser.Text(label)); err != nil {
			return err
		}
		return r.WaitVisible(ctx, FieldEmail, 0)
	}
}

func openNewDeal(ctx context.Context, r *flow.Run) error {
	if err := r.Settle(ctx); err != nil {
		return err
	}
	if err := r.Click(ctx, browser.Text(LabelNewDeal)); err != nil {
		return err
	}
	return r.WaitVisible(ctx, FieldBrandName, 0)
}

func fillDeal(ctx context.Context, r *flow.Run, brand, notes string) error {
	if err := r.Fill(ctx, FieldBrandName, brand); err != nil {
		return err
	}
	if err := r.Fill(ctx, FieldContact, "partnerships@"+slug(brand)+".example"); err != nil {
		return err
	}
	if notes == "" {
		return nil
	}
	return r.Fill(ctx, FieldNotes, notes)
}

func submitDeal(ctx context.Context, r *flow.Run) error {
	if err := r.Settle(ctx); err != nil {
		return err
	}
	return r.Click(ctx, browser.Text(LabelDealSubmit))
}

// number converts a JavaScript number as returned by the driver.
func number(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

func slug(s string) string {
	out := make([]rune, 0, len(s))
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			out = append(out, c)
		case c >= 'A' && c <= 'Z':
			out = append(out, c+'a'-'A')
		}
	}
	return string(out)
}
