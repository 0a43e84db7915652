package domain

import "time"

// MaxDescriptionLen bounds the free-text note attached to a birthday.
const MaxDescriptionLen = 200

// Birthday is one tracked birthday subscription.
// (OwnerID, Name) is unique; ChatID is the delivery destination.
type Birthday struct {
	ID             int64
	OwnerID        int64
	ChatID         int64
	Name           string
	Birthdate      time.Time // calendar day at midnight in the reference timezone
	Description    string
	Username       string // telegram profile handle, without '@', may be empty
	ReminderHour   int
	ReminderMinute int
	Remind3Days    bool
	Remind1Day     bool
	RemindDay      bool
	CreatedAt      time.Time // UTC
}
