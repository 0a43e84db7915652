package domain

import "time"

// Age category boundaries follow the gift catalogue: lower bound inclusive,
// upper bound exclusive.
const (
	CategoryChild      = "child"       // < 13
	CategoryTeen       = "teen"        // 13–17
	CategoryYoungAdult = "young_adult" // 18–25
	CategoryAdult      = "adult"       // 26–59
	CategoryElder      = "elder"       // >= 60
)

// Age returns full years elapsed between birthdate and asOf,
// subtracting one when asOf's month/day precedes the birthdate's.
func Age(birthdate, asOf time.Time) int {
	age := asOf.Year() - birthdate.Year()
	if asOf.Month() < birthdate.Month() ||
		(asOf.Month() == birthdate.Month() && asOf.Day() < birthdate.Day()) {
		age--
	}
	return age
}

// AgeCategory maps an age to a gift-idea category.
func AgeCategory(age int) string {
	switch {
	case age < 13:
		return CategoryChild
	case age < 18:
		return CategoryTeen
	case age < 26:
		return CategoryYoungAdult
	case age < 60:
		return CategoryAdult
	default:
		return CategoryElder
	}
}

// NextOccurrence returns the next instant the birthday occurs at the given
// reminder time-of-day, in now's location. The candidate is built in the
// current year and rolled to the next year when strictly before now.
//
// Feb 29 birthdates in non-leap target years normalize to Mar 1 (time.Date
// rollover), so leap-day birthdays are observed on Mar 1 in off years.
func NextOccurrence(birthdate time.Time, hour, minute int, now time.Time) time.Time {
	occ := time.Date(now.Year(), birthdate.Month(), birthdate.Day(), hour, minute, 0, 0, now.Location())
	if occ.Before(now) {
		occ = time.Date(now.Year()+1, birthdate.Month(), birthdate.Day(), hour, minute, 0, 0, now.Location())
	}
	return occ
}

// DaysUntil returns whole days between now and the next occurrence of the
// birthday at the given reminder time. Zero means the birthday is today.
func DaysUntil(birthdate time.Time, hour, minute int, now time.Time) int {
	return int(NextOccurrence(birthdate, hour, minute, now).Sub(now).Hours() / 24)
}
