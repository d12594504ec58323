package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/example/studybot/internal/schedule"
	"github.com/example/studybot/pkg/models"
)

type recordingNotifier struct {
	mu   sync.Mutex
	got  []string
	fail bool
}

func (n *recordingNotifier) SendSessionReminder(_ context.Context, ev models.ScheduleEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errors.New("telegram unavailable")
	}
	n.got = append(n.got, ev.Title)
	return nil
}

type failingSource struct{}

func (failingSource) PendingOn(context.Context, models.Date) ([]models.ScheduleEvent, error) {
	return nil, errors.New("db down")
}

var jan1 = models.NewDate(2025, time.January, 1)

func addSession(t *testing.T, store schedule.Store, title string, d models.Date, start models.Clock, status models.Status) {
	t.Helper()
	_, err := store.Add(context.Background(), schedule.Prepare(models.ScheduleEvent{
		UserID:          1,
		Title:           title,
		Date:            d,
		StartTime:       start,
		DurationMinutes: 30,
		Status:          status,
	}))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
}

func TestRunOnceRemindsWithinLeadTime(t *testing.T) {
	store := schedule.NewMemoryStore(nil)
	addSession(t, store, "soon", jan1, models.NewClock(9, 0), models.StatusPending)
	addSession(t, store, "later", jan1, models.NewClock(9, 30), models.StatusPending)
	addSession(t, store, "done", jan1, models.NewClock(9, 5), models.StatusCompleted)
	addSession(t, store, "past", jan1, models.NewClock(8, 0), models.StatusPending)

	n := &recordingNotifier{}
	s := New(store, n, Config{LeadMinutes: 15})
	now := time.Date(2025, time.January, 1, 8, 50, 0, 0, time.UTC)

	sent, err := s.RunOnce(context.Background(), now)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if sent != 1 || len(n.got) != 1 || n.got[0] != "soon" {
		t.Errorf("sent %d: %v", sent, n.got)
	}

	// a second run inside the same window does not repeat the reminder
	sent, _ = s.RunOnce(context.Background(), now.Add(5*time.Minute))
	if sent != 0 || len(n.got) != 1 {
		t.Errorf("duplicate reminders: %v", n.got)
	}
}

func TestRunOnceAcrossMidnight(t *testing.T) {
	store := schedule.NewMemoryStore(nil)
	addSession(t, store, "after midnight", jan1.AddDays(1), models.NewClock(0, 5), models.StatusPending)

	n := &recordingNotifier{}
	s := New(store, n, Config{LeadMinutes: 15})
	sent, err := s.RunOnce(context.Background(), time.Date(2025, time.January, 1, 23, 55, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if sent != 1 {
		t.Errorf("sent %d, want 1", sent)
	}
}

func TestRunOnceUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	store := schedule.NewMemoryStore(nil)
	addSession(t, store, "morning", jan1, models.NewClock(9, 0), models.StatusPending)

	n := &recordingNotifier{}
	s := New(store, n, Config{LeadMinutes: 10, Location: loc})
	// 05:55 UTC is 08:55 in UTC+3
	sent, _ := s.RunOnce(context.Background(), time.Date(2025, time.January, 1, 5, 55, 0, 0, time.UTC))
	if sent != 1 {
		t.Errorf("sent %d, want 1", sent)
	}
}

func TestRunOnceOnDaylightSavingDay(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	day := models.NewDate(2025, time.March, 9)
	store := schedule.NewMemoryStore(nil)
	addSession(t, store, "morning", day, models.NewClock(9, 0), models.StatusPending)

	n := &recordingNotifier{}
	s := New(store, n, Config{LeadMinutes: 15, Location: loc})
	sent, err := s.RunOnce(context.Background(), time.Date(2025, time.March, 9, 8, 50, 0, 0, loc))
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if sent != 1 {
		t.Errorf("sent %d, want 1", sent)
	}
}

func TestRunOnceRetriesFailedSends(t *testing.T) {
	store := schedule.NewMemoryStore(nil)
	addSession(t, store, "soon", jan1, models.NewClock(9, 0), models.StatusPending)

	n := &recordingNotifier{fail: true}
	s := New(store, n, Config{})
	now := time.Date(2025, time.January, 1, 8, 50, 0, 0, time.UTC)
	if sent, _ := s.RunOnce(context.Background(), now); sent != 0 {
		t.Fatalf("sent %d while failing", sent)
	}
	n.fail = false
	if sent, _ := s.RunOnce(context.Background(), now.Add(time.Minute)); sent != 1 {
		t.Errorf("retry sent %d, want 1", sent)
	}
}

func TestRunOnceSourceError(t *testing.T) {
	s := New(failingSource{}, &recordingNotifier{}, Config{})
	if _, err := s.RunOnce(context.Background(), time.Now()); err == nil {
		t.Error("expected source error")
	}
}

func TestStartRejectsBadCron(t *testing.T) {
	s := New(schedule.NewMemoryStore(nil), &recordingNotifier{}, Config{Cron: "not a cron"})
	if err := s.Start(); err == nil {
		s.Stop()
		t.Fatal("expected error for invalid cron")
	}

	s = New(schedule.NewMemoryStore(nil), &recordingNotifier{}, Config{})
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.Stop()
}
