// Package browser is the resilient core of uiflow: it launches Chromium,
// loads pages without hanging on slow sub-resources, performs bounded user
// actions and checks business-level outcomes on the rendered DOM.
//
// # Architecture
//
// The package is built around four collaborators that share one logger:
//
//  1. SessionManager: launches a browser process per Session and guarantees
//     Release on every exit path (With).
//  2. Navigator: commits a navigation, then waits tolerantly for the page and
//     every embedded frame to reach DOMContentLoaded, recording a FrameStatus
//     per frame instead of failing.
//  3. Executor: performs one Action against a freshly resolved Locator and
//     returns a StepResult (succeeded, timed out, not found, failed).
//  4. Asserter: polls for visible text and reports an AssertionError that
//     names the violated expectation, not the DOM query.
//
// The browser itself is reached through the small Launcher/Browser/Page
// interfaces in driver.go. NewPlaywrightLauncher adapts playwright-go; the
// browsertest subpackage provides an in-memory fake for tests.
//
// # Ownership
//
// Session ⊇ Context ⊇ Page ⊇ Frame. Releasing a Session closes every
// Context it still owns, then the browser process. Frames are discovered
// from a Page on demand and never owned.
//
// # Example Usage
//
//	manager := browser.NewSessionManager(browser.NewPlaywrightLauncher(false, logger), logger)
//	err := manager.With(ctx, cfg, func(s *browser.Session) error {
//	    bctx, err := s.NewContext(ctx)
//	    if err != nil {
//	        return err
//	    }
//	    page := bctx.Page()
//	    if _, err := browser.NewNavigator(timeouts, logger).Load(ctx, page, "http://localhost:3000/#/landing"); err != nil {
//	        return err
//	    }
//	    return browser.NewAsserter(timeouts, logger).AssertVisible(ctx, page, browser.Marker{
//	        Text:        "Creator OS",
//	        Expectation: "landing page did not render",
//	    })
//	})
package browser
