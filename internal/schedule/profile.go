package schedule

import (
	"context"
	"sync"
	"time"

	"github.com/example/studybot/pkg/models"
)

// ProfileStore keeps the study preferences of each user
type ProfileStore interface {
	// GetProfile returns nil and no error when the user has no profile yet
	GetProfile(ctx context.Context, userID int64) (*models.Profile, error)
	SaveProfile(ctx context.Context, p models.Profile) (models.Profile, error)
}

// MemoryProfiles is an in-memory ProfileStore
type MemoryProfiles struct {
	mu       sync.Mutex
	profiles map[int64]models.Profile
	now      func() time.Time
}

var _ ProfileStore = (*MemoryProfiles)(nil)

func NewMemoryProfiles() *MemoryProfiles {
	return &MemoryProfiles{profiles: make(map[int64]models.Profile), now: time.Now}
}

func (m *MemoryProfiles) GetProfile(_ context.Context, userID int64) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *MemoryProfiles) SaveProfile(_ context.Context, p models.Profile) (models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now().UTC()
	if old, ok := m.profiles[p.UserID]; ok {
		p.CreatedAt = old.CreatedAt
	} else {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	m.profiles[p.UserID] = p
	return p, nil
}

// PolicyFromProfile builds the plan a user gets without naming any
// parameters: the method, length and topic come from the profile, and the
// availability picks the days. Weekend learners study on Saturday and
// Sunday, irregular ones once a week.
func PolicyFromProfile(p models.Profile, start models.Date, at models.Clock) RecurrencePolicy {
	policy := RecurrencePolicy{
		UserID:                 p.UserID,
		StartDate:              start,
		Frequency:              FrequencyDaily,
		PreferredTime:          at,
		SessionDurationMinutes: p.SessionMinutes(),
		ContentTitle:           p.Topic,
		ContentType:            p.Method(),
	}
	switch p.TimeAvailability {
	case models.AvailabilityWeekends:
		policy.Frequency = FrequencyCustom
		policy.SelectedDays = NewWeekdaySet(time.Saturday, time.Sunday)
	case models.AvailabilityIrregular:
		policy.Frequency = FrequencyWeekly
	}
	if p.Goal != "" {
		policy.Description = "Goal: " + p.Goal
	}
	return policy
}
