package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/studybot/internal/schedule"
	"github.com/example/studybot/pkg/models"
)

const sessionColumns = `seq, id, user_id, title, event_date, start_minute, duration_minutes,
	status, learning_method, content, description, version, created_at, updated_at`

// sessionRow is the schedule_events row layout
type sessionRow struct {
	Seq             int64     `db:"seq"`
	ID              string    `db:"id"`
	UserID          int64     `db:"user_id"`
	Title           string    `db:"title"`
	EventDate       string    `db:"event_date"`
	StartMinute     int       `db:"start_minute"`
	DurationMinutes int       `db:"duration_minutes"`
	Status          int       `db:"status"`
	LearningMethod  string    `db:"learning_method"`
	Content         string    `db:"content"`
	Description     string    `db:"description"`
	Version         int       `db:"version"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func toRow(ev models.ScheduleEvent) (sessionRow, error) {
	content, err := models.EncodeContent(ev.Content)
	if err != nil {
		return sessionRow{}, fmt.Errorf("failed to encode content: %w", err)
	}
	return sessionRow{
		ID:              ev.ID,
		UserID:          ev.UserID,
		Title:           ev.Title,
		EventDate:       ev.Date.String(),
		StartMinute:     int(ev.StartTime),
		DurationMinutes: ev.DurationMinutes,
		Status:          int(ev.Status),
		LearningMethod:  string(ev.LearningMethod),
		Content:         string(content),
		Description:     ev.Description,
		Version:         ev.Version,
		CreatedAt:       ev.CreatedAt,
		UpdatedAt:       ev.UpdatedAt,
	}, nil
}

func (row sessionRow) toEvent() (models.ScheduleEvent, error) {
	date, err := models.ParseDate(row.EventDate)
	if err != nil {
		return models.ScheduleEvent{}, fmt.Errorf("session %s: %w", row.ID, err)
	}
	method := models.LearningMethod(row.LearningMethod)
	content, err := models.DecodeContent(method, []byte(row.Content))
	if err != nil {
		return models.ScheduleEvent{}, fmt.Errorf("session %s: %w", row.ID, err)
	}
	return models.ScheduleEvent{
		ID:              row.ID,
		UserID:          row.UserID,
		Title:           row.Title,
		Date:            date,
		StartTime:       models.Clock(row.StartMinute),
		DurationMinutes: row.DurationMinutes,
		Status:          models.Status(row.Status),
		LearningMethod:  method,
		Content:         content,
		Description:     row.Description,
		Version:         row.Version,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}, nil
}

// SessionRepository is a schedule.Store backed by sqlite3 or postgres
type SessionRepository struct {
	db  *sqlx.DB
	ids schedule.IdGenerator
	now func() time.Time
}

var _ schedule.Store = (*SessionRepository)(nil)

// NewSessionRepository creates a new repository instance; ids defaults to UUIDs
func NewSessionRepository(db *sqlx.DB, ids schedule.IdGenerator) *SessionRepository {
	if ids == nil {
		ids = schedule.UUIDGenerator{}
	}
	return &SessionRepository{db: db, ids: ids, now: time.Now}
}

func (r *SessionRepository) timestamp() time.Time {
	return r.now().UTC().Truncate(time.Microsecond)
}

// Add inserts a new session
func (r *SessionRepository) Add(ctx context.Context, ev models.ScheduleEvent) (models.ScheduleEvent, error) {
	if err := schedule.Validate(ev); err != nil {
		return models.ScheduleEvent{}, err
	}
	if ev.ID == "" {
		ev.ID = r.ids.NewID()
	}

	var taken int
	err := r.db.GetContext(ctx, &taken, r.db.Rebind(`SELECT COUNT(*) FROM schedule_events WHERE id = ?`), ev.ID)
	if err != nil {
		return models.ScheduleEvent{}, fmt.Errorf("failed to check session id: %w", err)
	}
	if taken > 0 {
		return models.ScheduleEvent{}, &schedule.ValidationError{Field: "id", Reason: "already in use"}
	}

	now := r.timestamp()
	ev.Version = 1
	ev.CreatedAt = now
	ev.UpdatedAt = now
	row, err := toRow(ev)
	if err != nil {
		return models.ScheduleEvent{}, err
	}

	query := `
		INSERT INTO schedule_events (
			id, user_id, title, event_date, start_minute, duration_minutes,
			status, learning_method, content, description, version, created_at, updated_at
		) VALUES (
			:id, :user_id, :title, :event_date, :start_minute, :duration_minutes,
			:status, :learning_method, :content, :description, :version, :created_at, :updated_at
		)
	`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return models.ScheduleEvent{}, fmt.Errorf("failed to create session: %w", err)
	}
	return ev.Clone(), nil
}

// Update replaces a session when the caller's version is current
func (r *SessionRepository) Update(ctx context.Context, ev models.ScheduleEvent) (models.ScheduleEvent, error) {
	if err := schedule.Validate(ev); err != nil {
		return models.ScheduleEvent{}, err
	}
	ev.UpdatedAt = r.timestamp()
	row, err := toRow(ev)
	if err != nil {
		return models.ScheduleEvent{}, err
	}

	query := `
		UPDATE schedule_events SET
			title = :title,
			event_date = :event_date,
			start_minute = :start_minute,
			duration_minutes = :duration_minutes,
			status = :status,
			learning_method = :learning_method,
			content = :content,
			description = :description,
			version = version + 1,
			updated_at = :updated_at
		WHERE id = :id AND user_id = :user_id AND version = :version
	`
	result, err := r.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return models.ScheduleEvent{}, fmt.Errorf("failed to update session: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return models.ScheduleEvent{}, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		if _, err := r.Get(ctx, ev.UserID, ev.ID); err != nil {
			return models.ScheduleEvent{}, err
		}
		return models.ScheduleEvent{}, schedule.ErrConflict
	}
	return r.Get(ctx, ev.UserID, ev.ID)
}

// Remove deletes a session of the user
func (r *SessionRepository) Remove(ctx context.Context, userID int64, id string) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM schedule_events WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return schedule.ErrNotFound
	}
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, userID int64, id string) (models.ScheduleEvent, error) {
	return r.getOne(ctx, r.db, userID, id)
}

func (r *SessionRepository) getOne(ctx context.Context, q sqlx.QueryerContext, userID int64, id string) (models.ScheduleEvent, error) {
	var row sessionRow
	query := r.db.Rebind(`SELECT ` + sessionColumns + ` FROM schedule_events WHERE id = ? AND user_id = ?`)
	if err := sqlx.GetContext(ctx, q, &row, query, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ScheduleEvent{}, schedule.ErrNotFound
		}
		return models.ScheduleEvent{}, fmt.Errorf("failed to get session: %w", err)
	}
	return row.toEvent()
}

// EventsOnDate returns the user's sessions on date in insertion order
func (r *SessionRepository) EventsOnDate(ctx context.Context, userID int64, date models.Date) ([]models.ScheduleEvent, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM schedule_events
		WHERE user_id = ? AND event_date = ?
		ORDER BY seq ASC
	`
	return r.selectEvents(ctx, query, userID, date.String())
}

// EventsBetween returns sessions in [from, to] ordered by date and start time
func (r *SessionRepository) EventsBetween(ctx context.Context, userID int64, from, to models.Date) ([]models.ScheduleEvent, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM schedule_events
		WHERE user_id = ? AND event_date >= ? AND event_date <= ?
		ORDER BY event_date ASC, start_minute ASC, seq ASC
	`
	return r.selectEvents(ctx, query, userID, from.String(), to.String())
}

func (r *SessionRepository) List(ctx context.Context, userID int64) ([]models.ScheduleEvent, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM schedule_events
		WHERE user_id = ?
		ORDER BY seq ASC
	`
	return r.selectEvents(ctx, query, userID)
}

// ToggleCompletion flips completion inside a transaction so a concurrent
// edit cannot be overwritten
func (r *SessionRepository) ToggleCompletion(ctx context.Context, userID int64, id string) (models.ScheduleEvent, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.ScheduleEvent{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ev, err := r.getOne(ctx, tx, userID, id)
	if err != nil {
		return models.ScheduleEvent{}, err
	}

	ev.Status = schedule.ToggledStatus(ev.Status)
	ev.UpdatedAt = r.timestamp()
	query := tx.Rebind(`
		UPDATE schedule_events SET status = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND user_id = ? AND version = ?
	`)
	result, err := tx.ExecContext(ctx, query, int(ev.Status), ev.UpdatedAt, id, userID, ev.Version)
	if err != nil {
		return models.ScheduleEvent{}, fmt.Errorf("failed to toggle session: %w", err)
	}
	if rows, err := result.RowsAffected(); err != nil {
		return models.ScheduleEvent{}, fmt.Errorf("failed to get rows affected: %w", err)
	} else if rows == 0 {
		return models.ScheduleEvent{}, schedule.ErrConflict
	}
	if err := tx.Commit(); err != nil {
		return models.ScheduleEvent{}, fmt.Errorf("failed to commit toggle: %w", err)
	}
	ev.Version++
	return ev, nil
}

// PendingOn returns pending sessions of every user on date
func (r *SessionRepository) PendingOn(ctx context.Context, date models.Date) ([]models.ScheduleEvent, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM schedule_events
		WHERE event_date = ? AND status = ?
		ORDER BY start_minute ASC, user_id ASC, seq ASC
	`
	return r.selectEvents(ctx, query, date.String(), int(models.StatusPending))
}

func (r *SessionRepository) selectEvents(ctx context.Context, query string, args ...interface{}) ([]models.ScheduleEvent, error) {
	var rows []sessionRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get sessions: %w", err)
	}
	events := make([]models.ScheduleEvent, 0, len(rows))
	for _, row := range rows {
		ev, err := row.toEvent()
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}
