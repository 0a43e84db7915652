package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ErrBadDate            = errors.New("invalid date, expected DD.MM.YYYY")
	ErrFutureDate         = errors.New("birthdate is in the future")
	ErrBadTime            = errors.New("invalid time, expected HH:MM")
	ErrDescriptionTooLong = errors.New("description too long")
)

const dateLayout = "02.01.2006"

var dateRe = regexp.MustCompile(`^\d{2}\.\d{2}\.\d{4}$`)

// ParseBirthdate parses a DD.MM.YYYY date in loc and validates it is not
// later than now at the date level: a birthdate equal to today's date is
// accepted regardless of time-of-day.
func ParseBirthdate(s string, loc *time.Location, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if !dateRe.MatchString(s) {
		return time.Time{}, ErrBadDate
	}
	d, err := time.ParseInLocation(dateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s", ErrBadDate, s)
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	if d.After(today) {
		return time.Time{}, ErrFutureDate
	}
	return d, nil
}

// ParseClock parses HH:MM (hours 0-23, minutes 0-59).
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, ErrBadTime
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, ErrBadTime
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, ErrBadTime
	}
	return hour, minute, nil
}

// ValidateDescription enforces the free-text note limit.
func ValidateDescription(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len([]rune(s)) > MaxDescriptionLen {
		return "", ErrDescriptionTooLong
	}
	return s, nil
}

// NormalizeUsername strips a leading '@' from a telegram handle.
func NormalizeUsername(s string) string {
	return strings.TrimPrefix(strings.TrimSpace(s), "@")
}

// FormatDate renders a birthdate as DD.MM.YYYY.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// FormatClock renders a reminder time as HH:MM.
func FormatClock(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}
