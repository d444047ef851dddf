package model

import "time"

// NotificationType categorizes stabilizer notifications.
type NotificationType string

// Notification types.
const (
	NotifyContextChanged       NotificationType = "context_changed"
	NotifyContextConfirmed     NotificationType = "context_confirmed"
	NotifyAwaitingConfirmation NotificationType = "awaiting_confirmation"
)

// Notification is a short, user-visible message about a context change. The
// stabilizer holds at most one at a time; a new notification replaces the old.
type Notification struct {
	Timestamp time.Time
	Type      NotificationType
	Message   string
	From      ContextType
	To        ContextType
}
