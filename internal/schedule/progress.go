package schedule

import (
	"github.com/example/studybot/pkg/models"
)

// Report summarizes a user's sessions
type Report struct {
	Total          int
	Completed      int
	Pending        int
	Cancelled      int
	Overdue        int // pending sessions dated before today
	Upcoming       int // pending sessions dated today or later
	CompletionRate float64
	StudyMinutes   int // minutes of completed sessions
	StreakDays     int
	ByMethod       map[models.LearningMethod]int
}

// Progress builds a report for events as of today. Cancelled sessions do
// not count towards the completion rate.
func Progress(events []models.ScheduleEvent, today models.Date) Report {
	r := Report{ByMethod: make(map[models.LearningMethod]int)}
	completedDays := make(map[models.Date]bool)

	for _, ev := range events {
		r.Total++
		r.ByMethod[ev.LearningMethod]++
		switch ev.Status {
		case models.StatusCompleted:
			r.Completed++
			r.StudyMinutes += ev.DurationMinutes
			completedDays[ev.Date] = true
		case models.StatusCancelled:
			r.Cancelled++
		default:
			r.Pending++
			if ev.Date.Before(today) {
				r.Overdue++
			} else {
				r.Upcoming++
			}
		}
	}

	if active := r.Total - r.Cancelled; active > 0 {
		r.CompletionRate = float64(r.Completed) / float64(active)
	}
	r.StreakDays = streak(completedDays, today)
	return r
}

// streak counts consecutive days with a completed session ending today,
// or ending yesterday when today has nothing completed yet
func streak(days map[models.Date]bool, today models.Date) int {
	d := today
	if !days[d] {
		d = d.AddDays(-1)
	}
	n := 0
	for days[d] {
		n++
		d = d.AddDays(-1)
	}
	return n
}
