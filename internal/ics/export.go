package ics

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/example/studybot/pkg/models"
)

// Custom properties carried on every exported VEVENT
const (
	PropertyMethod = ical.ComponentProperty("X-STUDYBOT-METHOD")
	PropertyStatus = ical.ComponentProperty("X-STUDYBOT-STATUS")
)

// UIDSuffix is appended to session ids to form globally unique UIDs
const UIDSuffix = "@studybot"

// Export renders sessions as an iCalendar document. Start and end instants
// are computed in loc and written in UTC.
func Export(events []models.ScheduleEvent, loc *time.Location, name string, stamp time.Time) string {
	if loc == nil {
		loc = time.UTC
	}
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//studybot//study schedule//EN")
	if name != "" {
		cal.SetName(name)
	}

	for _, ev := range events {
		ve := cal.AddEvent(ev.ID + UIDSuffix)
		ve.SetDtStampTime(stamp)
		if !ev.CreatedAt.IsZero() {
			ve.SetCreatedTime(ev.CreatedAt)
		}
		if !ev.UpdatedAt.IsZero() {
			ve.SetModifiedAt(ev.UpdatedAt)
		}
		ve.SetStartAt(ev.StartsAt(loc))
		ve.SetEndAt(ev.EndsAt(loc))
		ve.SetSummary(ev.Title)
		if desc := describe(ev); desc != "" {
			ve.SetDescription(desc)
		}
		ve.SetProperty(ical.ComponentPropertyStatus, vstatus(ev.Status))
		ve.SetProperty(ical.ComponentPropertyCategories, string(ev.LearningMethod))
		ve.SetProperty(ical.ComponentPropertySequence, fmt.Sprint(ev.Version))
		ve.SetProperty(PropertyMethod, string(ev.LearningMethod))
		ve.SetProperty(PropertyStatus, ev.Status.String())
	}
	return cal.Serialize()
}

// vstatus maps a session status onto the VEVENT STATUS values
func vstatus(s models.Status) string {
	if s == models.StatusCancelled {
		return "CANCELLED"
	}
	return "CONFIRMED"
}

func describe(ev models.ScheduleEvent) string {
	var parts []string
	if ev.Description != "" {
		parts = append(parts, ev.Description)
	}
	if title := models.ContentTitle(ev.Content); title != "" && title != ev.Title {
		parts = append(parts, fmt.Sprintf("%s: %s", ev.LearningMethod, title))
	}
	return strings.Join(parts, "\n")
}
