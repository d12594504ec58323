package schedule

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/studybot/pkg/models"
)

// Store holds the scheduled sessions of every user
type Store interface {
	// Add validates ev, assigns an id when it has none and stores it
	Add(ctx context.Context, ev models.ScheduleEvent) (models.ScheduleEvent, error)
	// Update replaces the stored event with the same id. ev.Version must
	// match the stored version, otherwise ErrConflict is returned.
	Update(ctx context.Context, ev models.ScheduleEvent) (models.ScheduleEvent, error)
	// Remove deletes an event; an unknown id returns ErrNotFound and changes nothing
	Remove(ctx context.Context, userID int64, id string) error
	Get(ctx context.Context, userID int64, id string) (models.ScheduleEvent, error)
	// EventsOnDate returns the user's events on date in insertion order
	EventsOnDate(ctx context.Context, userID int64, date models.Date) ([]models.ScheduleEvent, error)
	// EventsBetween returns events in [from, to] ordered by date and start time
	EventsBetween(ctx context.Context, userID int64, from, to models.Date) ([]models.ScheduleEvent, error)
	List(ctx context.Context, userID int64) ([]models.ScheduleEvent, error)
	// ToggleCompletion flips an event between completed and not completed
	ToggleCompletion(ctx context.Context, userID int64, id string) (models.ScheduleEvent, error)
	// PendingOn returns pending events of all users on date
	PendingOn(ctx context.Context, date models.Date) ([]models.ScheduleEvent, error)
}

// ToggledStatus is the status an event moves to when its completion is toggled
func ToggledStatus(s models.Status) models.Status {
	if s == models.StatusCompleted {
		return models.StatusPending
	}
	return models.StatusCompleted
}

// SortByStart orders events by date and start time, keeping the original
// order for ties
func SortByStart(events []models.ScheduleEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Date != events[j].Date {
			return events[i].Date.Before(events[j].Date)
		}
		return events[i].StartTime < events[j].StartTime
	})
}

// userEvents is a single user's collection with its own lock
type userEvents struct {
	mu    sync.Mutex
	order []string
	byID  map[string]models.ScheduleEvent
}

// MemoryStore is an in-memory Store. Each user's collection is guarded by
// its own mutex.
type MemoryStore struct {
	ids IdGenerator
	now func() time.Time

	mu    sync.RWMutex
	users map[int64]*userEvents
}

// NewMemoryStore creates an empty store; ids defaults to UUIDGenerator
func NewMemoryStore(ids IdGenerator) *MemoryStore {
	if ids == nil {
		ids = UUIDGenerator{}
	}
	return &MemoryStore{
		ids:   ids,
		now:   time.Now,
		users: make(map[int64]*userEvents),
	}
}

func (s *MemoryStore) collection(userID int64, create bool) *userEvents {
	s.mu.RLock()
	c := s.users[userID]
	s.mu.RUnlock()
	if c != nil || !create {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c = s.users[userID]; c == nil {
		c = &userEvents{byID: make(map[string]models.ScheduleEvent)}
		s.users[userID] = c
	}
	return c
}

func (s *MemoryStore) Add(_ context.Context, ev models.ScheduleEvent) (models.ScheduleEvent, error) {
	if err := Validate(ev); err != nil {
		return models.ScheduleEvent{}, err
	}
	c := s.collection(ev.UserID, true)
	c.mu.Lock()
	defer c.mu.Unlock()

	if ev.ID == "" {
		ev.ID = s.ids.NewID()
	}
	if _, exists := c.byID[ev.ID]; exists {
		return models.ScheduleEvent{}, invalid("id", "already in use")
	}
	now := s.now()
	ev.Version = 1
	ev.CreatedAt = now
	ev.UpdatedAt = now
	ev = ev.Clone()
	c.byID[ev.ID] = ev
	c.order = append(c.order, ev.ID)
	return ev.Clone(), nil
}

func (s *MemoryStore) Update(_ context.Context, ev models.ScheduleEvent) (models.ScheduleEvent, error) {
	if err := Validate(ev); err != nil {
		return models.ScheduleEvent{}, err
	}
	c := s.collection(ev.UserID, false)
	if c == nil {
		return models.ScheduleEvent{}, ErrNotFound
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	cur, ok := c.byID[ev.ID]
	if !ok {
		return models.ScheduleEvent{}, ErrNotFound
	}
	if ev.Version != cur.Version {
		return models.ScheduleEvent{}, ErrConflict
	}
	ev.Version = cur.Version + 1
	ev.CreatedAt = cur.CreatedAt
	ev.UpdatedAt = s.now()
	ev = ev.Clone()
	c.byID[ev.ID] = ev
	return ev.Clone(), nil
}

func (s *MemoryStore) Remove(_ context.Context, userID int64, id string) error {
	c := s.collection(userID, false)
	if c == nil {
		return ErrNotFound
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.byID[id]; !ok {
		return ErrNotFound
	}
	delete(c.byID, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, userID int64, id string) (models.ScheduleEvent, error) {
	c := s.collection(userID, false)
	if c == nil {
		return models.ScheduleEvent{}, ErrNotFound
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	ev, ok := c.byID[id]
	if !ok {
		return models.ScheduleEvent{}, ErrNotFound
	}
	return ev.Clone(), nil
}

func (s *MemoryStore) filter(userID int64, keep func(models.ScheduleEvent) bool) []models.ScheduleEvent {
	c := s.collection(userID, false)
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []models.ScheduleEvent
	for _, id := range c.order {
		if ev := c.byID[id]; keep(ev) {
			out = append(out, ev.Clone())
		}
	}
	return out
}

func (s *MemoryStore) EventsOnDate(_ context.Context, userID int64, date models.Date) ([]models.ScheduleEvent, error) {
	return s.filter(userID, func(ev models.ScheduleEvent) bool { return ev.Date == date }), nil
}

func (s *MemoryStore) EventsBetween(_ context.Context, userID int64, from, to models.Date) ([]models.ScheduleEvent, error) {
	out := s.filter(userID, func(ev models.ScheduleEvent) bool {
		return !ev.Date.Before(from) && !ev.Date.After(to)
	})
	SortByStart(out)
	return out, nil
}

func (s *MemoryStore) List(_ context.Context, userID int64) ([]models.ScheduleEvent, error) {
	return s.filter(userID, func(models.ScheduleEvent) bool { return true }), nil
}

func (s *MemoryStore) ToggleCompletion(_ context.Context, userID int64, id string) (models.ScheduleEvent, error) {
	c := s.collection(userID, false)
	if c == nil {
		return models.ScheduleEvent{}, ErrNotFound
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	ev, ok := c.byID[id]
	if !ok {
		return models.ScheduleEvent{}, ErrNotFound
	}
	ev.Status = ToggledStatus(ev.Status)
	ev.Version++
	ev.UpdatedAt = s.now()
	c.byID[id] = ev
	return ev.Clone(), nil
}

func (s *MemoryStore) PendingOn(_ context.Context, date models.Date) ([]models.ScheduleEvent, error) {
	s.mu.RLock()
	userIDs := make([]int64, 0, len(s.users))
	for id := range s.users {
		userIDs = append(userIDs, id)
	}
	s.mu.RUnlock()
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })

	var out []models.ScheduleEvent
	for _, uid := range userIDs {
		out = append(out, s.filter(uid, func(ev models.ScheduleEvent) bool {
			return ev.Date == date && ev.Status == models.StatusPending
		})...)
	}
	SortByStart(out)
	return out, nil
}
