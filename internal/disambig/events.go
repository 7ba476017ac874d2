package disambig

import "discord-snake-bot/internal/platform"

// EventKind tags what a presenter or reply event means to a running
// disambiguation. Tagging replaces any guessing about whether a message
// originated from the bot itself: only UserReply and ControlCancel can
// ever resolve a request.
type EventKind int

const (
	// EventUserReply carries a qualifying reply from the requester.
	EventUserReply EventKind = iota
	// EventControlCancel means the requester pressed the stop control.
	EventControlCancel
	// EventControlTimeout means the presenter's control loop went idle
	// and ended silently. The reply wait keeps running.
	EventControlTimeout
	// EventPresenterInternal marks presenter bookkeeping such as a page
	// edit. Never resolves a request.
	EventPresenterInternal
)

// Event is a single occurrence on a disambiguation's event channel.
type Event struct {
	Kind  EventKind
	Reply platform.Message
}
