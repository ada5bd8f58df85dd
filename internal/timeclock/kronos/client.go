// Package kronos drives the Kronos timesheet site through a headless
// browser. All selector knowledge lives here; nothing outside this package
// may depend on page structure.
package kronos

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"

	"github.com/tusbot/tusbot/internal/timeclock"
)

// DefaultURL is the timer page of the Kronos instance.
const DefaultURL = "https://kronos.ctdesarrollo-sdr.org/mi-tiempo-hoy"

// Page selectors, with text-matching fallbacks for when the site sheds its
// CSS classes.
const (
	selUserInput     = `input[name="user"]`
	selPasswordInput = `input[name="password"]`
	selLoginButton   = `button[type="submit"]`
	selStopButton    = `.btn-stop`
	selStartButton   = `.btn-start`

	xpathStopButton  = `//button[contains(., "Detener")]`
	xpathStartButton = `//button[contains(., "Iniciar")]`
)

// ClientConfig holds configuration for the Kronos client.
type ClientConfig struct {
	// URL overrides the timer page (optional).
	URL string

	// Timeout bounds one full automation run. Default: 90s.
	Timeout time.Duration

	// Logger for automation progress.
	Logger zerolog.Logger
}

// Client automates the Kronos timer page with chromedp.
type Client struct {
	url     string
	timeout time.Duration
	logger  zerolog.Logger
}

// NewClient creates a Kronos automation client.
func NewClient(cfg ClientConfig) *Client {
	url := cfg.URL
	if url == "" {
		url = DefaultURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 90 * time.Second
	}
	return &Client{url: url, timeout: timeout, logger: cfg.Logger}
}

// Start logs in and starts the timer. Starting an already-running timer is
// reported as success.
func (c *Client) Start(ctx context.Context, username, secret string) (timeclock.Outcome, error) {
	return c.run(ctx, username, secret, true)
}

// Stop logs in and stops the timer. Stopping an already-stopped timer is
// reported as success.
func (c *Client) Stop(ctx context.Context, username, secret string) (timeclock.Outcome, error) {
	return c.run(ctx, username, secret, false)
}

func (c *Client) run(ctx context.Context, username, secret string, start bool) (timeclock.Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("disable-setuid-sandbox", true),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	c.logger.Info().Str("username", username).Bool("start", start).Msg("kronos login")

	if err := chromedp.Run(browserCtx,
		chromedp.Navigate(c.url),
		chromedp.WaitVisible(selUserInput, chromedp.ByQuery),
		chromedp.SendKeys(selUserInput, username, chromedp.ByQuery),
		chromedp.SendKeys(selPasswordInput, secret, chromedp.ByQuery),
		chromedp.Click(selLoginButton, chromedp.ByQuery),
		// The timer widget renders after a client-side redirect.
		chromedp.Sleep(2*time.Second),
	); err != nil {
		return timeclock.Outcome{}, fmt.Errorf("logging in: %w", err)
	}

	if start {
		return c.toggle(browserCtx, selStartButton, xpathStartButton, selStopButton, xpathStopButton,
			"Timer started successfully.", "Timer was already running.")
	}
	return c.toggle(browserCtx, selStopButton, xpathStopButton, selStartButton, xpathStartButton,
		"Timer stopped successfully.", "Timer was already stopped.")
}

// toggle clicks the wanted button if present. Finding only the opposite
// button means the timer is already in the requested state.
func (c *Client) toggle(ctx context.Context, wantSel, wantXPath, oppositeSel, oppositeXPath, okMsg, alreadyMsg string) (timeclock.Outcome, error) {
	if found, err := c.click(ctx, wantSel, wantXPath); err != nil {
		return timeclock.Outcome{}, err
	} else if found {
		// Give the page time to flip state before verifying.
		if err := chromedp.Run(ctx, chromedp.Sleep(3*time.Second)); err != nil {
			return timeclock.Outcome{}, fmt.Errorf("waiting for state change: %w", err)
		}
		if present, err := c.present(ctx, oppositeSel, oppositeXPath); err == nil && present {
			return timeclock.Outcome{Success: true, Message: okMsg}, nil
		}
		return timeclock.Outcome{Success: true, Message: okMsg + " (unverified state)"}, nil
	}

	if present, err := c.present(ctx, oppositeSel, oppositeXPath); err != nil {
		return timeclock.Outcome{}, err
	} else if present {
		c.logger.Info().Msg("timer already in requested state")
		return timeclock.Outcome{Success: true, Message: alreadyMsg}, nil
	}

	return timeclock.Outcome{Success: false, Message: "Could not find the timer controls."}, nil
}

// click clicks the first node matching the CSS selector, falling back to the
// XPath text match. Reports whether anything was clicked.
func (c *Client) click(ctx context.Context, sel, xpath string) (bool, error) {
	found, err := c.clickBy(ctx, sel, chromedp.ByQueryAll)
	if err != nil || found {
		return found, err
	}
	return c.clickBy(ctx, xpath, chromedp.BySearch)
}

func (c *Client) clickBy(ctx context.Context, sel string, by chromedp.QueryOption) (bool, error) {
	var nodes []*cdp.Node
	if err := chromedp.Run(ctx, chromedp.Nodes(sel, &nodes, by, chromedp.AtLeast(0))); err != nil {
		return false, fmt.Errorf("querying %q: %w", sel, err)
	}
	if len(nodes) == 0 {
		return false, nil
	}
	if err := chromedp.Run(ctx, chromedp.MouseClickNode(nodes[0])); err != nil {
		return false, fmt.Errorf("clicking %q: %w", sel, err)
	}
	return true, nil
}

// present reports whether either form of the selector matches.
func (c *Client) present(ctx context.Context, sel, xpath string) (bool, error) {
	for _, probe := range []struct {
		sel string
		by  chromedp.QueryOption
	}{
		{sel: sel, by: chromedp.ByQueryAll},
		{sel: xpath, by: chromedp.BySearch},
	} {
		var nodes []*cdp.Node
		if err := chromedp.Run(ctx, chromedp.Nodes(probe.sel, &nodes, probe.by, chromedp.AtLeast(0))); err != nil {
			return false, fmt.Errorf("querying %q: %w", probe.sel, err)
		}
		if len(nodes) > 0 {
			return true, nil
		}
	}
	return false, nil
}
