// Package notify carries alert commands from the engine to the voice loop
// and defines the speech and audio collaborator contracts.
package notify

import "time"

// Command is one message of the engine -> notifier protocol. The set of
// implementations is closed by the unexported marker method, so a foreign
// command kind cannot be constructed outside this package.
type Command interface {
	isCommand()
}

// SetAlertCount reports the current number of disconnected nodes. It is sent
// after every completed pass; receivers must treat a repeated equal count as
// a no-op and stop ongoing speech when the count drops to zero.
type SetAlertCount struct {
	Count int
}

// Speak requests a one-shot utterance, such as a newly disconnected node's
// speech name.
type Speak struct {
	Text string
}

// SetHush throttles repeated aggregate alarm announcements to at most one per
// Interval. A zero Interval unhushes and releases the throttle immediately.
type SetHush struct {
	Interval time.Duration
}

// Shutdown terminates the voice loop.
type Shutdown struct{}

func (SetAlertCount) isCommand() {}
func (Speak) isCommand()         {}
func (SetHush) isCommand()       {}
func (Shutdown) isCommand()      {}
