package models

import "time"

// Time availability answers
const (
	AvailabilityUnder15   = "<15min"
	Availability15To30    = "15-30min"
	Availability30To60    = "30-60min"
	AvailabilityOver60    = ">60min"
	AvailabilityWeekends  = "weekends"
	AvailabilityIrregular = "irregular"
)

// Session preference answers that change the session length
const (
	PreferShortSessions = "short-sessions"
	PreferLongSessions  = "long-sessions"
)

var availabilityMinutes = map[string]int{
	AvailabilityUnder15:   15,
	Availability15To30:    30,
	Availability30To60:    45,
	AvailabilityOver60:    90,
	AvailabilityWeekends:  90,
	AvailabilityIrregular: 30,
}

var styleMethods = map[string]LearningMethod{
	"visual":      MethodFlashcards,
	"reading":     MethodFlashcards,
	"solitary":    MethodFlashcards,
	"logical":     MethodQuizzes,
	"kinesthetic": MethodGame,
	"tactile":     MethodGame,
	"auditory":    MethodChat,
	"verbal":      MethodChat,
	"social":      MethodChat,
}

// Profile holds the answers a user gave while setting up their study plan
type Profile struct {
	UserID           int64
	Topic            string
	TimeAvailability string
	LearningStyle    string
	Preference       string
	Goal             string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// KnownAvailability reports whether s is one of the availability answers
func KnownAvailability(s string) bool {
	_, ok := availabilityMinutes[s]
	return ok
}

// KnownLearningStyle reports whether s is one of the learning style answers
func KnownLearningStyle(s string) bool {
	_, ok := styleMethods[s]
	return ok
}

// SessionMinutes is the session length that fits the availability,
// adjusted by a short or long session preference
func (p Profile) SessionMinutes() int {
	minutes, ok := availabilityMinutes[p.TimeAvailability]
	if !ok {
		minutes = 60
	}
	switch p.Preference {
	case PreferShortSessions:
		if minutes > 30 {
			minutes = 30
		}
	case PreferLongSessions:
		if minutes < 60 {
			minutes = 60
		}
	}
	return minutes
}

// Method is the learning method that suits the learning style.
// Unknown styles get flashcards.
func (p Profile) Method() LearningMethod {
	if m, ok := styleMethods[p.LearningStyle]; ok {
		return m
	}
	return MethodFlashcards
}
