package bot

import (
	"time"

	"github.com/example/studybot/internal/config"
	"github.com/example/studybot/pkg/models"
)

// Options represents the configuration for the bot
type Options struct {
	// Location is the zone "today" and session times are read in
	Location *time.Location
	// WeekStart is the first column of the month keyboard
	WeekStart time.Weekday
	// Default start time and length of sessions added without them
	DefaultTime     models.Clock
	DefaultDuration int
	// GenerateCount caps the cards or questions asked from the generator
	GenerateCount int
	// AdminIDs may use /stats
	AdminIDs []int64
}

// DefaultOptions returns the default bot configuration
func DefaultOptions() Options {
	return Options{
		Location:        time.UTC,
		WeekStart:       time.Sunday,
		DefaultTime:     models.NewClock(9, 0),
		DefaultDuration: 60,
		GenerateCount:   5,
	}
}

// OptionsFromConfig maps the application config onto bot options
func OptionsFromConfig(cfg *config.Config) Options {
	opts := DefaultOptions()
	opts.Location = cfg.Location()
	opts.WeekStart = cfg.WeekStartDay()
	opts.DefaultTime = cfg.DefaultClock()
	if cfg.DefaultDuration > 0 {
		opts.DefaultDuration = cfg.DefaultDuration
	}
	opts.AdminIDs = append([]int64(nil), cfg.Telegram.AdminIDs...)
	return opts
}
