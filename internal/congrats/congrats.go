// Package congrats builds personalized birthday congratulation texts.
package congrats

import (
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/GritsayMaxim/Birthday-Reminder-Bot/internal/domain"
)

var templates = []string{
	"🎉 Happy birthday, {name}! May your {age}th year be full of {gift} and adventure! Wishing you joy and luck in everything you do!",
	"🥳 Hooray, {name}! {age} years — that's awesome! Wishing you a sea of good vibes, {gift} and all your wishes coming true!",
	"🎂 Dear {name}, happy birthday! May every day be filled with joy and smiles. Enjoy your day!",
	"✨ {name}, congratulations on turning {age}! May this year bring you {gift} and happiness!",
	"🎈 Happy birthday, {name}! {age} is a wonderful age for {gift} and new achievements. Good luck with everything!",
}

const comingOfAgeTemplate = "🎉 {name}, congratulations on coming of age! {age} years — the beginning of adult life! May it be full of {gift} and bright moments!"

var giftIdeas = map[string][]string{
	domain.CategoryChild: {
		"toys", "a Lego set", "fairy-tale books", "a bicycle",
		"board games", "plush toys", "paints and sketchbooks",
	},
	domain.CategoryTeen: {
		"gadgets", "headphones", "self-improvement books", "a game console",
		"sportswear", "concert tickets", "fantasy novels", "a skateboard",
	},
	domain.CategoryYoungAdult: {
		"books", "travel", "cinema or theatre tickets", "a gift card",
		"trendy accessories", "courses or workshops", "a stylish backpack",
	},
	domain.CategoryAdult: {
		"perfume", "books", "travel", "wine or coffee",
		"a spa certificate", "kitchen gadgets", "theatre tickets", "a hobby kit",
	},
	domain.CategoryElder: {
		"a cozy blanket", "good books", "warm gatherings", "a tea set",
		"a family photo album", "house plants", "a comfy armchair",
	},
}

// Composer renders congratulation messages. The template and gift choice are
// random; the age is the age being turned, computed against the clock at the
// moment of composition (day-of delivery).
type Composer struct {
	now func() time.Time
}

// New creates a Composer using the given clock.
func New(now func() time.Time) *Composer {
	return &Composer{now: now}
}

// Compose produces the congratulation text for a person. The optional
// description is appended as a personal postscript.
func (c *Composer) Compose(name string, birthdate time.Time, description string) string {
	age := domain.Age(birthdate, c.now())
	category := domain.AgeCategory(age)

	gifts := giftIdeas[category]
	gift := gifts[rand.Intn(len(gifts))]

	tpl := templates[rand.Intn(len(templates))]
	if category == domain.CategoryYoungAdult && age == 18 {
		tpl = comingOfAgeTemplate
	}

	text := strings.NewReplacer(
		"{name}", name,
		"{age}", strconv.Itoa(age),
		"{gift}", gift,
	).Replace(tpl)

	if description != "" {
		text += "\n\nP.S. " + description
	}
	return text
}
