package models

import "time"

// ScheduleEvent is a single scheduled study session
type ScheduleEvent struct {
	ID              string         `json:"id"`
	UserID          int64          `json:"user_id"`
	Title           string         `json:"title"`
	Date            Date           `json:"date"`
	StartTime       Clock          `json:"start_time"`
	DurationMinutes int            `json:"duration_minutes"`
	Status          Status         `json:"status"`
	LearningMethod  LearningMethod `json:"learning_method"`
	Content         Content        `json:"-"`
	Description     string         `json:"description,omitempty"`
	Version         int            `json:"version"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// EndTime is derived from the start time and duration, wrapping past midnight
func (e ScheduleEvent) EndTime() Clock {
	return e.StartTime.Add(e.DurationMinutes)
}

// Completed is the boolean view of Status
func (e ScheduleEvent) Completed() bool {
	return e.Status == StatusCompleted
}

// StartsAt returns the absolute start instant in loc
func (e ScheduleEvent) StartsAt(loc *time.Location) time.Time {
	return e.StartTime.On(e.Date, loc)
}

// EndsAt returns the absolute end instant in loc
func (e ScheduleEvent) EndsAt(loc *time.Location) time.Time {
	return e.StartsAt(loc).Add(time.Duration(e.DurationMinutes) * time.Minute)
}

// Clone returns a copy that does not share the content payload
func (e ScheduleEvent) Clone() ScheduleEvent {
	e.Content = CloneContent(e.Content)
	return e
}
