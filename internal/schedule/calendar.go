package schedule

import (
	"time"

	"github.com/example/studybot/pkg/models"
)

// GridCells is the fixed size of a month grid: 6 rows of 7 days
const GridCells = 42

// Cell is one day of a month grid
type Cell struct {
	Date           models.Date
	IsCurrentMonth bool
	Events         []models.ScheduleEvent
}

// MonthGrid lays out a month as exactly 42 cells: trailing days of the
// previous month up to the first weekday, every day of the month, then
// leading days of the next month
func MonthGrid(year int, month time.Month, weekStart time.Weekday) []Cell {
	first := models.NewDate(year, month, 1)
	lead := (int(first.Weekday()) - int(weekStart) + 7) % 7

	cells := make([]Cell, GridCells)
	d := first.AddDays(-lead)
	for i := range cells {
		cells[i] = Cell{
			Date:           d,
			IsCurrentMonth: d.Year == first.Year && d.Month == first.Month,
		}
		d = d.AddDays(1)
	}
	return cells
}

// BindEvents attaches each event to the cell of its date, keeping the
// order the events were given in
func BindEvents(cells []Cell, events []models.ScheduleEvent) []Cell {
	index := make(map[models.Date]int, len(cells))
	for i := range cells {
		cells[i].Events = nil
		index[cells[i].Date] = i
	}
	for _, ev := range events {
		if i, ok := index[ev.Date]; ok {
			cells[i].Events = append(cells[i].Events, ev)
		}
	}
	return cells
}

// GridRange returns the first and last date shown by a grid
func GridRange(cells []Cell) (models.Date, models.Date) {
	if len(cells) == 0 {
		return models.Date{}, models.Date{}
	}
	return cells[0].Date, cells[len(cells)-1].Date
}

// WeekOf returns the 7 dates of the week containing d
func WeekOf(d models.Date, weekStart time.Weekday) []models.Date {
	offset := (int(d.Weekday()) - int(weekStart) + 7) % 7
	start := d.AddDays(-offset)
	week := make([]models.Date, 7)
	for i := range week {
		week[i] = start.AddDays(i)
	}
	return week
}
