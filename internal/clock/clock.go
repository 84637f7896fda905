// Package clock abstracts time for the session manager's auto-logout timer.
// Production code injects Real(); tests inject a Fake with deterministic
// control over Now and timer firing.
package clock

import "time"

// Clock provides the two time operations the session lifecycle needs.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc waits for duration d, then calls f. The returned Timer
	// cancels the pending call with Stop. d must be > 0; callers handle
	// the already-elapsed case themselves.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a scheduled call that can be cancelled.
type Timer interface {
	// Stop prevents the timer from firing. Returns true if the call stops
	// the timer, false if it already fired or was stopped.
	Stop() bool
}
