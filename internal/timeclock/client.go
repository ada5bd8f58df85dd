// Package timeclock defines the contract for driving the external timesheet
// web application. How a session is obtained and which page elements get
// clicked is entirely an implementation detail of the concrete client; the
// scheduler only sees start/stop outcomes.
package timeclock

import "context"

// Outcome is the result of one automation run. Success with a message covers
// the idempotent cases ("timer was already stopped") as well as the happy
// path.
type Outcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Client drives the timesheet site for one action at a time. Implementations
// return an error for unrecoverable automation failures (login rejected,
// element not found, navigation timeout).
type Client interface {
	// Start logs in and starts the user's timer.
	Start(ctx context.Context, username, secret string) (Outcome, error)

	// Stop logs in and stops the user's timer.
	Stop(ctx context.Context, username, secret string) (Outcome, error)
}
