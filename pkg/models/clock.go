package models

import (
	"fmt"
	"strings"
	"time"
)

const minutesPerDay = 24 * 60

// Clock is a wall-clock time of day stored as minutes since midnight
type Clock int

// NewClock builds a Clock from hours and minutes, wrapping around midnight
func NewClock(hour, minute int) Clock {
	return Clock(0).Add(hour*60 + minute)
}

// ParseClock accepts "15:04", "3:04 PM" and "3:04PM"
func ParseClock(s string) (Clock, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, layout := range []string{"15:04", "3:04 PM", "3:04PM"} {
		if t, err := time.Parse(layout, s); err == nil {
			return NewClock(t.Hour(), t.Minute()), nil
		}
	}
	return 0, fmt.Errorf("invalid time %q", s)
}

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

// Add returns the clock shifted by minutes, wrapping modulo 24 hours
func (c Clock) Add(minutes int) Clock {
	total := (int(c) + minutes) % minutesPerDay
	if total < 0 {
		total += minutesPerDay
	}
	return Clock(total)
}

// On returns the instant the clock reads on date d in loc. The wall time is
// resolved by time.Date, so it stays put on daylight saving transition days.
func (c Clock) On(d Date, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, c.Hour(), c.Minute(), 0, 0, loc)
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// MarshalText implements encoding.TextMarshaler
func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *Clock) UnmarshalText(text []byte) error {
	v, err := ParseClock(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
