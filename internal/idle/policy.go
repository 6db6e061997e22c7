// internal/idle/policy.go
//
// Inactivity policy: warn, then sign out.
//
// Context
// -------
// Signed-in sessions end after a fixed inactivity window, with a warning
// state entered one warning-window before the cutoff.  Requests and
// heartbeats count as activity, but rapid-fire activity (mouse-move class
// events relayed by the client) must not rewrite the session cookie on
// every hit, so touches inside the debounce interval are ignored.  A
// client that was suspended (laptop lid, background tab) and comes back
// past the cutoff is signed out immediately — the first request after
// resume evaluates as expired rather than restarting the clock.
//
// The policy is pure arithmetic over the last-activity timestamp carried
// in the session cookie; the session middleware owns enforcement.
//
//------------------------------------------------------------------------------

package idle

import "time"

// State is where a session sits relative to the inactivity cutoff.
type State int

const (
	StateActive  State = iota // inside the quiet period
	StateWarning              // past timeout − warning window
	StateExpired              // past the full timeout
)

func (s State) String() string {
	switch s {
	case StateWarning:
		return "warning"
	case StateExpired:
		return "expired"
	default:
		return "active"
	}
}

// Policy holds the three thresholds.  Zero values are invalid; the config
// loader guarantees positive durations.
type Policy struct {
	Timeout  time.Duration // inactivity cutoff
	Warning  time.Duration // window before cutoff that reports StateWarning
	Debounce time.Duration // minimum spacing between recorded touches
}

// Evaluate classifies the session given its last recorded activity.
func (p Policy) Evaluate(lastActivity, now time.Time) State {
	elapsed := now.Sub(lastActivity)
	switch {
	case elapsed >= p.Timeout:
		return StateExpired
	case elapsed >= p.Timeout-p.Warning:
		return StateWarning
	default:
		return StateActive
	}
}

// ShouldTouch reports whether this activity is far enough from the last
// recorded one to be worth persisting.  Debounced touches leave the
// cookie untouched.
func (p Policy) ShouldTouch(lastActivity, now time.Time) bool {
	return now.Sub(lastActivity) >= p.Debounce
}

// Deadline is the instant the session expires absent further activity.
func (p Policy) Deadline(lastActivity time.Time) time.Time {
	return lastActivity.Add(p.Timeout)
}

// WarningAt is the instant the warning state begins.
func (p Policy) WarningAt(lastActivity time.Time) time.Time {
	return lastActivity.Add(p.Timeout - p.Warning)
}

// Remaining is the time left before expiry; negative once expired.
func (p Policy) Remaining(lastActivity, now time.Time) time.Duration {
	return p.Deadline(lastActivity).Sub(now)
}
