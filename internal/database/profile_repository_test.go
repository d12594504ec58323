package database

import (
	"context"
	"testing"
	"time"

	"github.com/example/studybot/pkg/models"
)

func TestProfileRepositorySaveAndGet(t *testing.T) {
	ctx := context.Background()
	db, err := Connect("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer db.Close()
	r := NewProfileRepository(db)

	p, err := r.GetProfile(ctx, 42)
	if err != nil || p != nil {
		t.Fatalf("missing profile = %+v, %v", p, err)
	}

	created := time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return created }
	first, err := r.SaveProfile(ctx, models.Profile{
		UserID:           42,
		Topic:            "Kubernetes",
		TimeAvailability: models.AvailabilityWeekends,
		LearningStyle:    "kinesthetic",
		Goal:             "Build professional skills for my career",
	})
	if err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	if first.Topic != "Kubernetes" || first.Method() != models.MethodGame || !first.CreatedAt.Equal(created) {
		t.Errorf("saved = %+v", first)
	}

	r.now = func() time.Time { return created.Add(time.Hour) }
	second, err := r.SaveProfile(ctx, models.Profile{
		UserID:           42,
		Topic:            "Helm",
		TimeAvailability: models.Availability15To30,
		LearningStyle:    "reading",
		Preference:       models.PreferLongSessions,
	})
	if err != nil {
		t.Fatalf("SaveProfile again: %v", err)
	}
	if second.Topic != "Helm" || second.Goal != "" || second.SessionMinutes() != 60 {
		t.Errorf("updated = %+v", second)
	}
	if !second.CreatedAt.Equal(created) || !second.UpdatedAt.Equal(created.Add(time.Hour)) {
		t.Errorf("timestamps = %s / %s", second.CreatedAt, second.UpdatedAt)
	}

	var count int
	if err := db.Get(&count, `SELECT COUNT(*) FROM user_profiles`); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("rows = %d, want 1", count)
	}
}
