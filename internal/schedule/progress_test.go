package schedule

import (
	"testing"

	"github.com/example/studybot/pkg/models"
)

func TestProgress(t *testing.T) {
	today := jan1.AddDays(5)
	ev := func(offset int, status models.Status, m models.LearningMethod) models.ScheduleEvent {
		return models.ScheduleEvent{Date: jan1.AddDays(offset), Status: status, LearningMethod: m, DurationMinutes: 30}
	}
	events := []models.ScheduleEvent{
		ev(2, models.StatusCompleted, models.MethodFlashcards),
		ev(3, models.StatusCompleted, models.MethodQuizzes),
		ev(4, models.StatusCompleted, models.MethodQuizzes),
		ev(1, models.StatusPending, models.MethodFlashcards),
		ev(6, models.StatusPending, models.MethodChat),
		ev(5, models.StatusCancelled, models.MethodGame),
	}

	r := Progress(events, today)
	if r.Total != 6 || r.Completed != 3 || r.Pending != 2 || r.Cancelled != 1 {
		t.Errorf("counts = %+v", r)
	}
	if r.Overdue != 1 || r.Upcoming != 1 {
		t.Errorf("overdue %d upcoming %d", r.Overdue, r.Upcoming)
	}
	if r.CompletionRate != 0.6 {
		t.Errorf("rate = %v, want 0.6", r.CompletionRate)
	}
	if r.StudyMinutes != 90 {
		t.Errorf("minutes = %d", r.StudyMinutes)
	}
	// nothing completed today, so the streak runs back from yesterday
	if r.StreakDays != 3 {
		t.Errorf("streak = %d, want 3", r.StreakDays)
	}
	if r.ByMethod[models.MethodQuizzes] != 2 {
		t.Errorf("by method = %v", r.ByMethod)
	}
}

func TestProgressStreakBroken(t *testing.T) {
	events := []models.ScheduleEvent{
		{Date: jan1, Status: models.StatusCompleted},
		{Date: jan1.AddDays(3), Status: models.StatusCompleted},
	}
	if got := Progress(events, jan1.AddDays(3)).StreakDays; got != 1 {
		t.Errorf("streak = %d, want 1", got)
	}
	if got := Progress(events, jan1.AddDays(5)).StreakDays; got != 0 {
		t.Errorf("streak = %d, want 0", got)
	}
	if r := Progress(nil, jan1); r.CompletionRate != 0 || r.Total != 0 {
		t.Errorf("empty report = %+v", r)
	}
}
