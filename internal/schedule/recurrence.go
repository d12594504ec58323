package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/example/studybot/pkg/models"
)

// HorizonDays is the window, counted from the start date, that a
// recurrence policy is expanded over
const HorizonDays = 14

// Frequency controls which days of the horizon get a session
type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
	FrequencyCustom Frequency = "custom"
)

// ParseFrequency accepts "daily", "weekly" and "custom"
func ParseFrequency(s string) (Frequency, error) {
	switch f := Frequency(strings.ToLower(strings.TrimSpace(s))); f {
	case FrequencyDaily, FrequencyWeekly, FrequencyCustom:
		return f, nil
	}
	return "", fmt.Errorf("unknown frequency: %q", s)
}

// WeekdaySet is a set of weekdays stored as a bitmask
type WeekdaySet uint8

// NewWeekdaySet builds a set from the given days
func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s = s.With(d)
	}
	return s
}

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

// ParseWeekdays parses a comma separated list such as "mon,wed,friday"
func ParseWeekdays(s string) (WeekdaySet, error) {
	var set WeekdaySet
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		d, ok := weekdayNames[part]
		if !ok {
			return 0, fmt.Errorf("unknown weekday: %q", part)
		}
		set = set.With(d)
	}
	return set, nil
}

func (s WeekdaySet) With(d time.Weekday) WeekdaySet {
	return s | 1<<uint(d)
}

func (s WeekdaySet) Has(d time.Weekday) bool {
	return s&(1<<uint(d)) != 0
}

// Days lists the members from Sunday to Saturday
func (s WeekdaySet) Days() []time.Weekday {
	var out []time.Weekday
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Has(d) {
			out = append(out, d)
		}
	}
	return out
}

// RecurrencePolicy describes a bulk session plan
type RecurrencePolicy struct {
	UserID                 int64
	StartDate              models.Date
	Frequency              Frequency
	SelectedDays           WeekdaySet // only read for FrequencyCustom
	PreferredTime          models.Clock
	SessionDurationMinutes int
	ContentTitle           string
	ContentType            models.LearningMethod
	Description            string

	// Content, when set, is attached to every generated session instead
	// of the default stub for ContentType.
	Content models.Content
}

var rruleWeekdays = [...]rrule.Weekday{
	time.Sunday:    rrule.SU,
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
}

// Occurrences returns the dates within the horizon selected by the policy
func (p RecurrencePolicy) Occurrences() ([]models.Date, error) {
	start := p.StartDate.Time(time.UTC)
	end := p.StartDate.AddDays(HorizonDays - 1).Time(time.UTC)

	opt := rrule.ROption{Dtstart: start, Until: end}
	switch p.Frequency {
	case FrequencyDaily:
		opt.Freq = rrule.DAILY
	case FrequencyWeekly:
		// A week is the 7-day period counted from the start date, so a
		// plain WEEKLY rule anchored on DTSTART gives offsets 0 and 7.
		opt.Freq = rrule.WEEKLY
	case FrequencyCustom:
		days := p.SelectedDays.Days()
		if len(days) == 0 {
			return nil, nil
		}
		opt.Freq = rrule.DAILY
		for _, d := range days {
			opt.Byweekday = append(opt.Byweekday, rruleWeekdays[d])
		}
	default:
		return nil, invalid("frequency", fmt.Sprintf("unknown frequency %q", p.Frequency))
	}

	r, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("failed to build recurrence rule: %w", err)
	}

	times := r.Between(start, end, true)
	dates := make([]models.Date, 0, len(times))
	for _, t := range times {
		dates = append(dates, models.DateOf(t))
	}
	return dates, nil
}

// Generate expands the policy into concrete pending sessions over the
// horizon, one per selected date, each with a distinct id from ids
func Generate(p RecurrencePolicy, ids IdGenerator) ([]models.ScheduleEvent, error) {
	if strings.TrimSpace(p.ContentTitle) == "" {
		return nil, invalid("title", "must not be empty")
	}
	if !p.StartDate.Valid() {
		return nil, invalid("start date", "must be a valid calendar date")
	}
	if p.SessionDurationMinutes <= 0 {
		return nil, invalid("duration", "must be positive")
	}
	method := p.ContentType
	if method == "" {
		method = models.MethodFlashcards
	}
	if !method.Valid() {
		return nil, invalid("learning method", fmt.Sprintf("unknown learning method %q", method))
	}
	if p.Content != nil {
		if err := models.CheckContent(method, p.Content); err != nil {
			return nil, err
		}
	}

	dates, err := p.Occurrences()
	if err != nil {
		return nil, err
	}

	duration := ClampDuration(p.SessionDurationMinutes)
	events := make([]models.ScheduleEvent, 0, len(dates))
	for _, d := range dates {
		content := p.Content
		if content == nil {
			content = DefaultContent(method, p.ContentTitle)
		}
		events = append(events, models.ScheduleEvent{
			ID:              ids.NewID(),
			UserID:          p.UserID,
			Title:           p.ContentTitle,
			Date:            d,
			StartTime:       p.PreferredTime,
			DurationMinutes: duration,
			Status:          models.StatusPending,
			LearningMethod:  method,
			Content:         models.CloneContent(content),
			Description:     p.Description,
		})
	}
	return events, nil
}

// Plan generates the policy's sessions and adds them to the store. Sessions
// added before a failure stay in the store and are returned with the error.
func Plan(ctx context.Context, store Store, p RecurrencePolicy, ids IdGenerator) ([]models.ScheduleEvent, error) {
	events, err := Generate(p, ids)
	if err != nil {
		return nil, err
	}
	stored := make([]models.ScheduleEvent, 0, len(events))
	for _, ev := range events {
		saved, err := store.Add(ctx, ev)
		if err != nil {
			return stored, fmt.Errorf("failed to store session for %s: %w", ev.Date, err)
		}
		stored = append(stored, saved)
	}
	return stored, nil
}
