package schedule

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/example/studybot/pkg/models"
)

func newEvent(userID int64, title string, d models.Date, start models.Clock) models.ScheduleEvent {
	return Prepare(models.ScheduleEvent{
		UserID:          userID,
		Title:           title,
		Date:            d,
		StartTime:       start,
		DurationMinutes: 30,
	})
}

func mustAdd(t *testing.T, s Store, ev models.ScheduleEvent) models.ScheduleEvent {
	t.Helper()
	saved, err := s.Add(context.Background(), ev)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	return saved
}

func TestMemoryStoreAddAssignsIDs(t *testing.T) {
	s := NewMemoryStore(NewCounterGenerator())
	a := mustAdd(t, s, newEvent(1, "A", jan1, models.NewClock(9, 0)))
	b := mustAdd(t, s, newEvent(1, "B", jan1, models.NewClock(9, 0)))
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("ids %q and %q must be distinct and non-empty", a.ID, b.ID)
	}
	if a.Version != 1 || a.CreatedAt.IsZero() {
		t.Errorf("bookkeeping not set: %+v", a)
	}
}

func TestMemoryStoreAddValidates(t *testing.T) {
	s := NewMemoryStore(nil)
	ev := newEvent(1, "", jan1, 0)
	_, err := s.Add(context.Background(), ev)
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "title" {
		t.Fatalf("err = %v, want title ValidationError", err)
	}
	if !errors.Is(err, ErrValidation) {
		t.Error("ValidationError should match ErrValidation")
	}

	ev = newEvent(1, "x", models.Date{}, 0)
	if _, err := s.Add(context.Background(), ev); !errors.Is(err, ErrValidation) {
		t.Errorf("zero date: err = %v", err)
	}

	ev = newEvent(1, "x", jan1, 0)
	ev.LearningMethod = models.MethodQuizzes
	if _, err := s.Add(context.Background(), ev); !errors.Is(err, ErrContentShapeMismatch) {
		t.Errorf("cards on a quiz: err = %v", err)
	}
}

func TestMemoryStoreEventsOnDate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(nil)
	mustAdd(t, s, newEvent(1, "late", jan1, models.NewClock(20, 0)))
	mustAdd(t, s, newEvent(1, "other day", jan1.AddDays(1), models.NewClock(8, 0)))
	mustAdd(t, s, newEvent(1, "early", jan1, models.NewClock(7, 0)))
	mustAdd(t, s, newEvent(2, "someone else", jan1, models.NewClock(7, 0)))

	got, err := s.EventsOnDate(ctx, 1, jan1)
	if err != nil {
		t.Fatalf("EventsOnDate: %v", err)
	}
	if len(got) != 2 || got[0].Title != "late" || got[1].Title != "early" {
		t.Errorf("got %v, want [late early] in insertion order", titles(got))
	}

	between, _ := s.EventsBetween(ctx, 1, jan1, jan1.AddDays(1))
	if len(between) != 3 || between[0].Title != "early" || between[2].Title != "other day" {
		t.Errorf("EventsBetween = %v", titles(between))
	}
}

func TestMemoryStoreUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(nil)
	ev := mustAdd(t, s, newEvent(1, "A", jan1, 0))

	ev.Title = "A2"
	updated, err := s.Update(ctx, ev)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Version != 2 || updated.Title != "A2" {
		t.Errorf("updated = %+v", updated)
	}

	// ev still carries version 1
	ev.Title = "stale"
	if _, err := s.Update(ctx, ev); !errors.Is(err, ErrConflict) {
		t.Errorf("stale update: err = %v, want ErrConflict", err)
	}

	missing := updated
	missing.ID = "nope"
	if _, err := s.Update(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing id: err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreRemoveMissingLeavesStoreUnchanged(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(nil)
	a := mustAdd(t, s, newEvent(1, "A", jan1, 0))
	mustAdd(t, s, newEvent(1, "B", jan1, 0))

	before, _ := s.List(ctx, 1)
	if err := s.Remove(ctx, 1, "does-not-exist"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	after, _ := s.List(ctx, 1)
	if len(before) != len(after) {
		t.Fatalf("size changed: %d -> %d", len(before), len(after))
	}
	for i := range before {
		if before[i].ID != after[i].ID || before[i].Version != after[i].Version {
			t.Errorf("event %d changed", i)
		}
	}

	if err := s.Remove(ctx, 1, a.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := s.Get(ctx, 1, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Remove: err = %v", err)
	}
	if err := s.Remove(ctx, 99, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown user: err = %v", err)
	}
}

func TestMemoryStoreToggleTwiceRestores(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(nil)
	for _, initial := range []models.Status{models.StatusPending, models.StatusCompleted, models.StatusCancelled} {
		ev := newEvent(1, "A", jan1, 0)
		ev.Status = initial
		ev = mustAdd(t, s, ev)

		once, err := s.ToggleCompletion(ctx, 1, ev.ID)
		if err != nil {
			t.Fatalf("ToggleCompletion: %v", err)
		}
		if once.Completed() == ev.Completed() {
			t.Errorf("%v: first toggle did not flip completion", initial)
		}
		twice, _ := s.ToggleCompletion(ctx, 1, ev.ID)
		if twice.Completed() != ev.Completed() {
			t.Errorf("%v: double toggle completed = %v, want %v", initial, twice.Completed(), ev.Completed())
		}
	}
	if _, err := s.ToggleCompletion(ctx, 1, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(nil)
	ev := mustAdd(t, s, newEvent(1, "A", jan1, 0))
	ev.Content.(*models.CardSet).Cards[0].Front = "mutated"

	got, _ := s.Get(ctx, 1, ev.ID)
	if got.Content.(*models.CardSet).Cards[0].Front == "mutated" {
		t.Error("store exposes its internal payload")
	}
}

func TestMemoryStorePendingOn(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(nil)
	mustAdd(t, s, newEvent(2, "u2", jan1, models.NewClock(10, 0)))
	done := newEvent(1, "done", jan1, models.NewClock(8, 0))
	done.Status = models.StatusCompleted
	mustAdd(t, s, done)
	mustAdd(t, s, newEvent(1, "u1", jan1, models.NewClock(9, 0)))
	mustAdd(t, s, newEvent(1, "tomorrow", jan1.AddDays(1), models.NewClock(9, 0)))

	got, _ := s.PendingOn(ctx, jan1)
	if len(got) != 2 || got[0].Title != "u1" || got[1].Title != "u2" {
		t.Errorf("PendingOn = %v", titles(got))
	}
}

func TestMemoryStoreConcurrentAdds(t *testing.T) {
	s := NewMemoryStore(NewCounterGenerator())
	var wg sync.WaitGroup
	for u := int64(1); u <= 4; u++ {
		for i := 0; i < 25; i++ {
			wg.Add(1)
			go func(uid int64) {
				defer wg.Done()
				_, _ = s.Add(context.Background(), newEvent(uid, "x", jan1, 0))
			}(u)
		}
	}
	wg.Wait()

	ids := make(map[string]bool)
	for u := int64(1); u <= 4; u++ {
		list, _ := s.List(context.Background(), u)
		if len(list) != 25 {
			t.Errorf("user %d has %d events, want 25", u, len(list))
		}
		for _, ev := range list {
			ids[ev.ID] = true
		}
	}
	if len(ids) != 100 {
		t.Errorf("%d distinct ids, want 100", len(ids))
	}
}

func titles(events []models.ScheduleEvent) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.Title
	}
	return out
}
