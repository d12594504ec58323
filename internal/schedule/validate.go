package schedule

import (
	"strings"

	"github.com/example/studybot/pkg/models"
)

// Session length bounds accepted by the planner and the event form
const (
	MinSessionMinutes     = 5
	MaxSessionMinutes     = 120
	DefaultSessionMinutes = 60
)

// ClampDuration keeps a positive duration inside the accepted range.
// Non-positive values are returned unchanged so Validate can reject them.
func ClampDuration(minutes int) int {
	switch {
	case minutes <= 0:
		return minutes
	case minutes < MinSessionMinutes:
		return MinSessionMinutes
	case minutes > MaxSessionMinutes:
		return MaxSessionMinutes
	}
	return minutes
}

// Validate checks everything a saved event must satisfy
func Validate(ev models.ScheduleEvent) error {
	if strings.TrimSpace(ev.Title) == "" {
		return invalid("title", "must not be empty")
	}
	if !ev.Date.Valid() {
		return invalid("date", "must be a valid calendar date")
	}
	if ev.StartTime < 0 || int(ev.StartTime) >= 24*60 {
		return invalid("start time", "must be within the day")
	}
	if ev.DurationMinutes < MinSessionMinutes || ev.DurationMinutes > MaxSessionMinutes {
		return invalid("duration", "must be between 5 and 120 minutes")
	}
	switch ev.Status {
	case models.StatusPending, models.StatusCompleted, models.StatusCancelled:
	default:
		return invalid("status", "unknown status")
	}
	if !ev.LearningMethod.Valid() {
		return invalid("learning method", "unknown learning method")
	}
	return models.CheckContent(ev.LearningMethod, ev.Content)
}

// Prepare fills the defaults of a new event: pending status, a learning
// method, and a content stub matching that method when none was supplied
func Prepare(ev models.ScheduleEvent) models.ScheduleEvent {
	if ev.Status == 0 {
		ev.Status = models.StatusPending
	}
	if ev.LearningMethod == "" {
		ev.LearningMethod = models.MethodFlashcards
	}
	if ev.DurationMinutes == 0 {
		ev.DurationMinutes = DefaultSessionMinutes
	}
	if ev.Content == nil {
		ev.Content = DefaultContent(ev.LearningMethod, ev.Title)
	}
	return ev
}
