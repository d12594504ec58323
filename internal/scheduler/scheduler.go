package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/studybot/pkg/models"
)

// Defaults used when Config leaves a field empty
const (
	DefaultCron        = "*/5 * * * *"
	DefaultLeadMinutes = 15
)

// PendingSource lists the sessions still to be done on a date.
// schedule.Store satisfies it.
type PendingSource interface {
	PendingOn(ctx context.Context, date models.Date) ([]models.ScheduleEvent, error)
}

// Notifier interface for sending notifications
type Notifier interface {
	SendSessionReminder(ctx context.Context, ev models.ScheduleEvent) error
}

type Config struct {
	Cron        string
	LeadMinutes int
	Location    *time.Location
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	source    PendingSource
	notifier  Notifier
	cfg       Config
	now       func() time.Time

	mu sync.Mutex
	// reminded maps an event id to the date it was reminded for
	reminded map[string]models.Date
}

// New creates a new scheduler instance
func New(source PendingSource, notifier Notifier, cfg Config) *Scheduler {
	if cfg.Cron == "" {
		cfg.Cron = DefaultCron
	}
	if cfg.LeadMinutes <= 0 {
		cfg.LeadMinutes = DefaultLeadMinutes
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(cfg.Location),
		source:    source,
		notifier:  notifier,
		cfg:       cfg,
		now:       time.Now,
		reminded:  make(map[string]models.Date),
	}
}

// Start registers the reminder job and runs the scheduler in the background
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Cron(s.cfg.Cron).SingletonMode().Do(s.checkAndSendReminders)
	if err != nil {
		return fmt.Errorf("failed to schedule reminders %q: %w", s.cfg.Cron, err)
	}
	s.scheduler.StartAsync()
	log.Printf("Reminder scheduler started (cron %q, lead %d min)", s.cfg.Cron, s.cfg.LeadMinutes)
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) checkAndSendReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	sent, err := s.RunOnce(ctx, s.now())
	if err != nil {
		log.Printf("Error checking upcoming sessions: %v", err)
		return
	}
	if sent > 0 {
		log.Printf("Sent %d session reminders", sent)
	}
}

// RunOnce reminds about every pending session that starts within the lead
// time after now. Each session is reminded at most once per day; a failed
// send is retried on the next run. It returns the number of reminders sent.
func (s *Scheduler) RunOnce(ctx context.Context, now time.Time) (int, error) {
	loc := s.cfg.Location
	local := now.In(loc)
	windowEnd := local.Add(time.Duration(s.cfg.LeadMinutes) * time.Minute)

	dates := []models.Date{models.DateOf(local)}
	if next := models.DateOf(windowEnd); next != dates[0] {
		dates = append(dates, next)
	}

	var due []models.ScheduleEvent
	for _, d := range dates {
		events, err := s.source.PendingOn(ctx, d)
		if err != nil {
			return 0, fmt.Errorf("failed to get pending sessions for %s: %w", d, err)
		}
		for _, ev := range events {
			start := ev.StartsAt(loc)
			if start.Before(local) || start.After(windowEnd) {
				continue
			}
			due = append(due, ev)
		}
	}

	sent := 0
	for _, ev := range due {
		if s.wasReminded(ev) {
			continue
		}
		if err := s.notifier.SendSessionReminder(ctx, ev); err != nil {
			log.Printf("Error sending reminder for session %s to user %d: %v", ev.ID, ev.UserID, err)
			continue
		}
		s.markReminded(ev)
		sent++
	}
	s.prune(dates[0].AddDays(-1))
	return sent, nil
}

func (s *Scheduler) wasReminded(ev models.ScheduleEvent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.reminded[ev.ID]
	return ok && d == ev.Date
}

func (s *Scheduler) markReminded(ev models.ScheduleEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reminded[ev.ID] = ev.Date
}

// prune forgets reminders for dates before cutoff
func (s *Scheduler) prune(cutoff models.Date) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, d := range s.reminded {
		if d.Before(cutoff) {
			delete(s.reminded, id)
		}
	}
}
