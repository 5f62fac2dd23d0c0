package event

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeUserRegistered         Type = "user.registered"
	TypeUserLoggedIn           Type = "user.logged_in"
	TypeUserLoginFailed        Type = "user.login_failed"
	TypeSessionRefreshed       Type = "session.refreshed"
	TypeSessionRefreshRejected Type = "session.refresh_rejected"
	TypeUserLoggedOut          Type = "user.logged_out"
	TypePasswordChanged        Type = "user.password_changed"
)

// Failure reasons carried by rejected events.
const (
	ReasonBadPassword  = "bad_password"
	ReasonUnknownUser  = "unknown_user"
	ReasonThrottled    = "throttled"
	ReasonReused       = "reused"
	ReasonMissingToken = "missing_token"
)

type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	UserID     string    `json:"user_id,omitempty"`
	Identifier string    `json:"identifier,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Failed reports whether the event records a rejected attempt.
func (e Event) Failed() bool {
	return e.Type == TypeUserLoginFailed || e.Type == TypeSessionRefreshRejected
}

func New(t Type, userID string) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
	}
}

func (e Event) WithIdentifier(identifier string) Event {
	e.Identifier = identifier
	return e
}

func (e Event) WithReason(reason string) Event {
	e.Reason = reason
	return e
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func())
}
