package store

import (
	"time"

	"github.com/GritsayMaxim/Birthday-Reminder-Bot/internal/domain"
)

// birthdateLayout is how calendar days are stored in SQLite.
const birthdateLayout = "2006-01-02"

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// row mirrors the birthdays table for scanning.
type row struct {
	id          int64
	userID      int64
	chatID      int64
	name        string
	birthdate   string
	description string
	username    string
	hour        int
	minute      int
	r3d         int
	r1d         int
	rd          int
	createdAt   int64
}

func (r *row) toDomain(loc *time.Location) (*domain.Birthday, error) {
	bd, err := time.ParseInLocation(birthdateLayout, r.birthdate, loc)
	if err != nil {
		return nil, err
	}
	return &domain.Birthday{
		ID:             r.id,
		OwnerID:        r.userID,
		ChatID:         r.chatID,
		Name:           r.name,
		Birthdate:      bd,
		Description:    r.description,
		Username:       r.username,
		ReminderHour:   r.hour,
		ReminderMinute: r.minute,
		Remind3Days:    r.r3d != 0,
		Remind1Day:     r.r1d != 0,
		RemindDay:      r.rd != 0,
		CreatedAt:      time.Unix(r.createdAt, 0).UTC(),
	}, nil
}
