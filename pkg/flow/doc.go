// Package flow runs end-to-end UI scenarios on top of package browser.
//
// A Scenario is an ordered script of user actions. The Runner gives every
// scenario its own browser session and context, loads its start page,
// hands the scenario body a *Run (the only handle the body gets on the
// browser) and reports an Outcome:
//
//	pass         the application reached the expected end state
//	fail         the application misbehaved (assertion or step failure)
//	infra-error  the harness could not do its job (launch failure, crash,
//	             unreachable target, panic)
//
// Steps inside a scenario run strictly in order. Where the application
// offers more than one route to the same state, a scenario lists them
// explicitly with Run.FirstOf; there is no generic retry loop.
//
// Scenarios can be written in Go or declared in YAML (see LoadScript):
//
//	name: landing-smoke
//	start: /#/landing
//	steps:
//	  - scroll: {dx: 0, dy: 300}
//	  - click: {text: "Get Started"}
//	    alternates:
//	      - click: {text: "Sign In"}
//	expect:
//	  - text: "Creator OS"
//	    expectation: "landing page did not render its brand header"
package flow
