package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/example/studybot/pkg/models"
)

func TestPolicyFromProfile(t *testing.T) {
	tests := []struct {
		availability string
		wantEvents   int
		wantDays     []time.Weekday
	}{
		{models.Availability15To30, HorizonDays, nil},
		{models.AvailabilityWeekends, 4, []time.Weekday{time.Saturday, time.Sunday}},
		{models.AvailabilityIrregular, 2, []time.Weekday{time.Wednesday}},
	}
	for _, tt := range tests {
		p := models.Profile{
			UserID:           7,
			Topic:            "Linear algebra",
			TimeAvailability: tt.availability,
			LearningStyle:    "logical",
			Goal:             "Prepare for an exam or certification",
		}
		policy := PolicyFromProfile(p, jan1, models.NewClock(19, 0))
		if policy.ContentType != models.MethodQuizzes || policy.ContentTitle != "Linear algebra" {
			t.Errorf("%s: policy = %+v", tt.availability, policy)
		}
		if policy.Description != "Goal: Prepare for an exam or certification" {
			t.Errorf("%s: description = %q", tt.availability, policy.Description)
		}

		events := mustGenerate(t, policy)
		if len(events) != tt.wantEvents {
			t.Errorf("%s: %d events, want %d", tt.availability, len(events), tt.wantEvents)
		}
		for _, ev := range events {
			if ev.DurationMinutes != p.SessionMinutes() || ev.StartTime != models.NewClock(19, 0) {
				t.Errorf("%s: event %+v", tt.availability, ev)
			}
			if tt.wantDays == nil {
				continue
			}
			found := false
			for _, d := range tt.wantDays {
				found = found || ev.Date.Weekday() == d
			}
			if !found {
				t.Errorf("%s: session on %s", tt.availability, ev.Date.Weekday())
			}
		}
	}
}

func TestMemoryProfiles(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryProfiles()

	p, err := m.GetProfile(ctx, 1)
	if err != nil || p != nil {
		t.Fatalf("missing profile = %+v, %v", p, err)
	}

	first, err := m.SaveProfile(ctx, models.Profile{UserID: 1, Topic: "Go"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := m.SaveProfile(ctx, models.Profile{UserID: 1, Topic: "Rust"})
	if err != nil {
		t.Fatal(err)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Error("saving again changed CreatedAt")
	}
	p, _ = m.GetProfile(ctx, 1)
	if p == nil || p.Topic != "Rust" {
		t.Errorf("profile = %+v", p)
	}
}
