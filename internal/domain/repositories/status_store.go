package repositories

import "context"

// SessionStatus is one live-session entry published for dashboard consumers
type SessionStatus struct {
	MeetingID string `json:"meeting_id"`
	State     string `json:"state"`
}

// StatusStore publishes transient per-session state. Entries expire on
// their own; the store is a best-effort live view, not a source of truth.
type StatusStore interface {
	// SetSessionState records the current state of an active session
	SetSessionState(ctx context.Context, meetingID, state string) error

	// ClearSession removes a session entry once the session is finalized
	ClearSession(ctx context.Context, meetingID string) error

	// ListSessions retrieves all currently published sessions
	ListSessions(ctx context.Context) ([]SessionStatus, error)
}
