package admin

import "github.com/gogermany/gobot/core/telegram/state"

// Session is the pending sub-flow of an administrator. Sessions live in
// process memory only; a restart resets everyone to SessionNone.
type Session string

const (
	SessionNone              Session = "none"
	SessionAwaitingNames     Session = "awaiting_names"
	SessionAwaitingBroadcast Session = "awaiting_broadcast"
)

// Sessions tracks the pending sub-flow of each administrator.
type Sessions struct {
	*state.Store[Session]
}

// NewSessions returns an empty tracker.
func NewSessions() *Sessions {
	return &Sessions{Store: state.New(SessionNone)}
}

// InProgress reports whether adminID has a pending sub-flow.
func (s *Sessions) InProgress(adminID int64) bool { return s.Active(adminID) }
