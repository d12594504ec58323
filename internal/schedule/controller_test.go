package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/studybot/pkg/models"
)

func newTestController(t *testing.T) (*Controller, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore(NewCounterGenerator())
	return NewController(store, 1, jan1, ControllerOptions{}), store
}

func TestControllerNavigation(t *testing.T) {
	c, _ := newTestController(t)
	if c.CurrentMonth() != jan1 || c.SelectedDate() != jan1 {
		t.Fatalf("initial month %s selected %s", c.CurrentMonth(), c.SelectedDate())
	}
	c.PrevMonth()
	if c.CurrentMonth() != models.NewDate(2024, time.December, 1) {
		t.Errorf("PrevMonth = %s", c.CurrentMonth())
	}
	c.NextMonth()
	c.NextMonth()
	if c.CurrentMonth() != models.NewDate(2025, time.February, 1) {
		t.Errorf("NextMonth = %s", c.CurrentMonth())
	}
	c.GoToMonth(2026, time.October)
	if c.CurrentMonth() != models.NewDate(2026, time.October, 1) || c.SelectedDate() != jan1 {
		t.Errorf("GoToMonth moved selection: %s", c.SelectedDate())
	}
	c.SetView(ViewWeek)
	if c.View() != ViewWeek || c.View().String() != "Week" {
		t.Errorf("view = %v", c.View())
	}
}

func TestControllerMonthBindsEvents(t *testing.T) {
	ctx := context.Background()
	c, store := newTestController(t)
	mustAdd(t, store, newEvent(1, "in grid", models.NewDate(2024, time.December, 30), 0))
	mustAdd(t, store, newEvent(1, "far away", models.NewDate(2025, time.May, 1), 0))

	cells, err := c.Month(ctx)
	if err != nil {
		t.Fatalf("Month: %v", err)
	}
	if len(cells) != GridCells {
		t.Fatalf("cells = %d", len(cells))
	}
	if len(cells[1].Events) != 1 || cells[1].Events[0].Title != "in grid" {
		t.Errorf("Dec 30 cell events = %v", titles(cells[1].Events))
	}
}

func TestControllerCreateFlow(t *testing.T) {
	ctx := context.Background()
	c, store := newTestController(t)
	c.SelectDate(jan1.AddDays(2))

	draft := c.OpenNew()
	if c.State() != EditingNew || draft.Date != jan1.AddDays(2) || draft.StartTime != models.NewClock(9, 0) {
		t.Fatalf("draft = %+v state %v", draft, c.State())
	}

	// empty title keeps the editor open
	if _, err := c.Save(ctx); !errors.Is(err, ErrValidation) {
		t.Fatalf("Save without title: err = %v", err)
	}
	if c.State() != EditingNew {
		t.Fatal("rejected save closed the editor")
	}

	if err := c.Edit(func(ev *models.ScheduleEvent) { ev.Title = "Spanish verbs" }); err != nil {
		t.Fatal(err)
	}
	saved, err := c.Save(ctx)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if c.State() != Idle {
		t.Error("editor still open after save")
	}
	if saved.ID == "" || saved.Content == nil || saved.Status != models.StatusPending {
		t.Errorf("saved = %+v", saved)
	}
	day, _ := store.EventsOnDate(ctx, 1, jan1.AddDays(2))
	if len(day) != 1 {
		t.Errorf("stored %d events", len(day))
	}
}

func TestControllerSetOptionsChangesNewDrafts(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestController(t)

	opts := c.Options()
	opts.DefaultLength = 15
	opts.DefaultMethod = models.MethodGame
	c.SetOptions(opts)

	draft := c.OpenNew()
	if draft.DurationMinutes != 15 || draft.LearningMethod != models.MethodGame {
		t.Fatalf("draft = %+v", draft)
	}
	if err := c.Edit(func(ev *models.ScheduleEvent) { ev.Title = "Regex golf" }); err != nil {
		t.Fatal(err)
	}
	saved, err := c.Save(ctx)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, ok := saved.Content.(*models.ChallengeSet); !ok {
		t.Errorf("content = %T, want game content", saved.Content)
	}

	// zero values fall back to the built-in defaults
	c.SetOptions(ControllerOptions{})
	if draft := c.OpenNew(); draft.DurationMinutes != DefaultSessionMinutes || draft.LearningMethod != models.MethodFlashcards {
		t.Errorf("draft after reset = %+v", draft)
	}
	c.Cancel()
}

func TestControllerEditExisting(t *testing.T) {
	ctx := context.Background()
	c, store := newTestController(t)
	ev := mustAdd(t, store, newEvent(1, "A", jan1, 0))

	if _, err := c.OpenExisting(ctx, ev.ID); err != nil {
		t.Fatal(err)
	}
	err := c.Edit(func(e *models.ScheduleEvent) {
		e.ID = "hijack"
		e.Title = "B"
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := c.SetDuration(300); err != nil {
		t.Fatal(err)
	}
	if err := c.SetDuration(0); !errors.Is(err, ErrValidation) {
		t.Errorf("SetDuration(0): err = %v", err)
	}
	saved, err := c.Save(ctx)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.ID != ev.ID || saved.Title != "B" || saved.DurationMinutes != MaxSessionMinutes || saved.Version != 2 {
		t.Errorf("saved = %+v", saved)
	}

	if _, err := c.OpenExisting(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("OpenExisting missing: err = %v", err)
	}
	if c.State() != Idle {
		t.Error("failed open changed state")
	}
}

func TestControllerMethodSwitchKeepsContent(t *testing.T) {
	c, _ := newTestController(t)
	c.OpenNew()
	_ = c.Edit(func(ev *models.ScheduleEvent) { ev.Title = "Go" })

	cards := &models.CardSet{Title: "Go", Cards: []models.Card{{Front: "chan", Back: "pipe"}}}
	if err := c.SetContent(cards); err != nil {
		t.Fatal(err)
	}
	if err := c.SetLearningMethod(models.MethodQuizzes); err != nil {
		t.Fatal(err)
	}
	draft, _ := c.Draft()
	quiz, ok := draft.Content.(*models.QuestionSet)
	if !ok {
		t.Fatalf("content = %T, want *QuestionSet", draft.Content)
	}
	if len(quiz.Questions) != 1 || len(quiz.Questions[0].Options) != 4 || quiz.Questions[0].Answer != 0 {
		t.Errorf("default quiz = %+v", quiz)
	}
	if err := models.CheckContent(draft.LearningMethod, draft.Content); err != nil {
		t.Errorf("default quiz invalid: %v", err)
	}

	if err := c.SetLearningMethod(models.MethodFlashcards); err != nil {
		t.Fatal(err)
	}
	draft, _ = c.Draft()
	if got := draft.Content.(*models.CardSet); got.Cards[0].Front != "chan" {
		t.Errorf("switching back lost cards: %+v", got)
	}

	// Edit routes method changes the same way
	if err := c.Edit(func(ev *models.ScheduleEvent) { ev.LearningMethod = models.MethodChat }); err != nil {
		t.Fatal(err)
	}
	draft, _ = c.Draft()
	if _, ok := draft.Content.(*models.TopicSet); !ok {
		t.Errorf("content after Edit = %T", draft.Content)
	}

	if err := c.SetLearningMethod("video"); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown method: err = %v", err)
	}
}

func TestControllerSetContentRejectsInvalid(t *testing.T) {
	c, _ := newTestController(t)
	c.OpenNew()
	bad := &models.QuestionSet{Title: "q", Questions: []models.Question{{Question: "?", Options: []string{"a", "b"}, Answer: 5}}}
	if err := c.SetContent(bad); !errors.Is(err, ErrContentShapeMismatch) {
		t.Errorf("err = %v, want ErrContentShapeMismatch", err)
	}
	if err := c.SetContent(nil); !errors.Is(err, ErrContentShapeMismatch) {
		t.Errorf("nil content: err = %v", err)
	}
	if err := c.SetContent((*models.CardSet)(nil)); !errors.Is(err, ErrContentShapeMismatch) {
		t.Errorf("typed nil content: err = %v", err)
	}
}

func TestControllerStartLearning(t *testing.T) {
	ctx := context.Background()
	c, store := newTestController(t)
	ev := newEvent(1, "Quiz night", jan1, 0)
	ev.LearningMethod = models.MethodQuizzes
	ev.Content = DefaultContent(models.MethodQuizzes, ev.Title)
	ev = mustAdd(t, store, ev)

	if _, err := c.StartLearning(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("idle StartLearning: err = %v", err)
	}
	c.OpenNew()
	if _, err := c.StartLearning(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("new-event StartLearning: err = %v", err)
	}
	c.Cancel()

	if _, err := c.OpenExisting(ctx, ev.ID); err != nil {
		t.Fatal(err)
	}
	h, err := c.StartLearning()
	if err != nil {
		t.Fatalf("StartLearning: %v", err)
	}
	if h.EventID != ev.ID || h.Method != models.MethodQuizzes || h.Title != "Quiz night" {
		t.Errorf("handoff = %+v", h)
	}
	if _, ok := h.Content.(*models.QuestionSet); !ok {
		t.Errorf("handoff content = %T", h.Content)
	}
	if c.State() != Idle {
		t.Error("editor still open after hand-off")
	}
}

func TestControllerDeleteAndInvalidState(t *testing.T) {
	ctx := context.Background()
	c, store := newTestController(t)
	ev := mustAdd(t, store, newEvent(1, "A", jan1, 0))

	if err := c.Delete(ctx); !errors.Is(err, ErrInvalidState) {
		t.Errorf("idle Delete: err = %v", err)
	}
	if _, err := c.Save(ctx); !errors.Is(err, ErrInvalidState) {
		t.Errorf("idle Save: err = %v", err)
	}
	if err := c.Edit(func(*models.ScheduleEvent) {}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("idle Edit: err = %v", err)
	}

	if _, err := c.OpenExisting(ctx, ev.ID); err != nil {
		t.Fatal(err)
	}
	if err := c.Delete(ctx); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if all, _ := store.List(ctx, 1); len(all) != 0 {
		t.Errorf("%d events left", len(all))
	}
}

func TestControllerToggleCompletion(t *testing.T) {
	ctx := context.Background()
	c, store := newTestController(t)
	ev := mustAdd(t, store, newEvent(1, "A", jan1, 0))

	got, err := c.ToggleCompletion(ctx, ev.ID)
	if err != nil || !got.Completed() {
		t.Fatalf("toggle = %+v, %v", got, err)
	}
	day, _ := c.DayEvents(ctx)
	if len(day) != 1 || !day[0].Completed() {
		t.Errorf("day events = %+v", day)
	}
	week, _ := c.WeekEvents(ctx)
	if len(week) != 1 {
		t.Errorf("week events = %d", len(week))
	}
}
