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

// profileRow is the user_profiles row layout
type profileRow struct {
	UserID           int64     `db:"user_id"`
	Topic            string    `db:"topic"`
	TimeAvailability string    `db:"time_availability"`
	LearningStyle    string    `db:"learning_style"`
	Preference       string    `db:"preference"`
	Goal             string    `db:"goal"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

// ProfileRepository stores study preferences in user_profiles
type ProfileRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

var _ schedule.ProfileStore = (*ProfileRepository)(nil)

// NewProfileRepository creates a new repository instance
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db, now: time.Now}
}

// GetProfile retrieves the preferences of a user
func (r *ProfileRepository) GetProfile(ctx context.Context, userID int64) (*models.Profile, error) {
	query := `
		SELECT user_id, topic, time_availability, learning_style, preference, goal, created_at, updated_at
		FROM user_profiles
		WHERE user_id = ?
	`
	var row profileRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(query), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &models.Profile{
		UserID:           row.UserID,
		Topic:            row.Topic,
		TimeAvailability: row.TimeAvailability,
		LearningStyle:    row.LearningStyle,
		Preference:       row.Preference,
		Goal:             row.Goal,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}, nil
}

// SaveProfile creates or replaces the preferences of a user
func (r *ProfileRepository) SaveProfile(ctx context.Context, p models.Profile) (models.Profile, error) {
	now := r.now().UTC().Truncate(time.Microsecond)
	row := profileRow{
		UserID:           p.UserID,
		Topic:            p.Topic,
		TimeAvailability: p.TimeAvailability,
		LearningStyle:    p.LearningStyle,
		Preference:       p.Preference,
		Goal:             p.Goal,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	query := `
		INSERT INTO user_profiles (
			user_id, topic, time_availability, learning_style, preference, goal, created_at, updated_at
		) VALUES (
			:user_id, :topic, :time_availability, :learning_style, :preference, :goal, :created_at, :updated_at
		)
		ON CONFLICT (user_id) DO UPDATE SET
			topic = excluded.topic,
			time_availability = excluded.time_availability,
			learning_style = excluded.learning_style,
			preference = excluded.preference,
			goal = excluded.goal,
			updated_at = excluded.updated_at
	`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return models.Profile{}, fmt.Errorf("failed to save profile: %w", err)
	}

	saved, err := r.GetProfile(ctx, p.UserID)
	if err != nil {
		return models.Profile{}, err
	}
	if saved == nil {
		return models.Profile{}, fmt.Errorf("profile of user %d vanished after save", p.UserID)
	}
	return *saved, nil
}
