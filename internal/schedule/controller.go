package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/example/studybot/pkg/models"
)

// ViewMode is the calendar presentation the user picked
type ViewMode int

const (
	ViewMonth ViewMode = iota
	ViewWeek
	ViewDay
)

func (v ViewMode) String() string {
	switch v {
	case ViewWeek:
		return "Week"
	case ViewDay:
		return "Day"
	}
	return "Month"
}

// EditorState is the state of the event editing dialog
type EditorState int

const (
	Idle EditorState = iota
	EditingNew
	EditingExisting
)

// Handoff is what a study mode needs to run a session
type Handoff struct {
	EventID string
	Title   string
	Method  models.LearningMethod
	Content models.Content
}

// ControllerOptions tune a Controller
type ControllerOptions struct {
	WeekStart     time.Weekday
	DefaultTime   models.Clock
	DefaultLength int
	DefaultMethod models.LearningMethod
}

func (o ControllerOptions) withDefaults() ControllerOptions {
	if o.DefaultTime == 0 {
		o.DefaultTime = models.NewClock(9, 0)
	}
	if o.DefaultLength <= 0 {
		o.DefaultLength = DefaultSessionMinutes
	}
	if o.DefaultMethod == "" {
		o.DefaultMethod = models.MethodFlashcards
	}
	return o
}

// Controller drives the calendar for one user: month navigation, day
// selection and the create/edit/delete/start-learning dialog. It is not
// safe for concurrent use.
type Controller struct {
	store  Store
	userID int64
	opts   ControllerOptions

	month    models.Date
	selected models.Date
	view     ViewMode

	state EditorState
	draft models.ScheduleEvent
	// stash keeps the content the draft had for each method it visited,
	// so switching methods back and forth does not lose edits
	stash map[models.LearningMethod]models.Content
}

// NewController starts on the month containing today with today selected
func NewController(store Store, userID int64, today models.Date, opts ControllerOptions) *Controller {
	return &Controller{
		store:    store,
		userID:   userID,
		opts:     opts.withDefaults(),
		month:    today.FirstOfMonth(),
		selected: today,
	}
}

func (c *Controller) Options() ControllerOptions { return c.opts }

// SetOptions changes the week start and the values new drafts start with.
// An open draft keeps its values.
func (c *Controller) SetOptions(opts ControllerOptions) { c.opts = opts.withDefaults() }

// CurrentMonth returns day 1 of the displayed month
func (c *Controller) CurrentMonth() models.Date { return c.month }

func (c *Controller) SelectedDate() models.Date { return c.selected }

func (c *Controller) View() ViewMode { return c.view }

func (c *Controller) SetView(v ViewMode) { c.view = v }

func (c *Controller) State() EditorState { return c.state }

// Month returns the 42-cell grid of the displayed month with events bound
func (c *Controller) Month(ctx context.Context) ([]Cell, error) {
	cells := MonthGrid(c.month.Year, c.month.Month, c.opts.WeekStart)
	from, to := GridRange(cells)
	events, err := c.store.EventsBetween(ctx, c.userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load month events: %w", err)
	}
	return BindEvents(cells, events), nil
}

func (c *Controller) NextMonth() {
	c.month = models.NewDate(c.month.Year, c.month.Month+1, 1)
}

func (c *Controller) PrevMonth() {
	c.month = models.NewDate(c.month.Year, c.month.Month-1, 1)
}

// GoToMonth shows the given month without changing the selected day
func (c *Controller) GoToMonth(year int, month time.Month) {
	c.month = models.NewDate(year, month, 1)
}

// SelectDate changes the day used by the day and week panels; the grid stays put
func (c *Controller) SelectDate(d models.Date) {
	c.selected = d
}

// DayEvents returns the events on the selected date
func (c *Controller) DayEvents(ctx context.Context) ([]models.ScheduleEvent, error) {
	return c.store.EventsOnDate(ctx, c.userID, c.selected)
}

// WeekEvents returns the events in the week containing the selected date
func (c *Controller) WeekEvents(ctx context.Context) ([]models.ScheduleEvent, error) {
	week := WeekOf(c.selected, c.opts.WeekStart)
	return c.store.EventsBetween(ctx, c.userID, week[0], week[6])
}

// OpenNew enters the editor with a blank event on the selected date
func (c *Controller) OpenNew() models.ScheduleEvent {
	c.state = EditingNew
	c.draft = models.ScheduleEvent{
		UserID:          c.userID,
		Date:            c.selected,
		StartTime:       c.opts.DefaultTime,
		DurationMinutes: c.opts.DefaultLength,
		Status:          models.StatusPending,
		LearningMethod:  c.opts.DefaultMethod,
	}
	c.stash = make(map[models.LearningMethod]models.Content)
	return c.draft
}

// OpenExisting loads a stored event into the editor
func (c *Controller) OpenExisting(ctx context.Context, id string) (models.ScheduleEvent, error) {
	ev, err := c.store.Get(ctx, c.userID, id)
	if err != nil {
		return models.ScheduleEvent{}, err
	}
	c.state = EditingExisting
	c.draft = ev
	c.stash = make(map[models.LearningMethod]models.Content)
	return ev.Clone(), nil
}

// Draft returns the event being edited
func (c *Controller) Draft() (models.ScheduleEvent, bool) {
	if c.state == Idle {
		return models.ScheduleEvent{}, false
	}
	return c.draft.Clone(), true
}

// Edit applies fn to the draft. Identity fields cannot be changed.
func (c *Controller) Edit(fn func(ev *models.ScheduleEvent)) error {
	if c.state == Idle {
		return ErrInvalidState
	}
	id, user, version, method := c.draft.ID, c.draft.UserID, c.draft.Version, c.draft.LearningMethod
	fn(&c.draft)
	c.draft.ID, c.draft.UserID, c.draft.Version = id, user, version
	if c.draft.LearningMethod != method {
		next := c.draft.LearningMethod
		c.draft.LearningMethod = method
		return c.SetLearningMethod(next)
	}
	return nil
}

// SetDuration changes the session length; the end time follows from it
func (c *Controller) SetDuration(minutes int) error {
	if c.state == Idle {
		return ErrInvalidState
	}
	if minutes <= 0 {
		return invalid("duration", "must be positive")
	}
	c.draft.DurationMinutes = ClampDuration(minutes)
	return nil
}

// SetLearningMethod switches the draft's method. The content is replaced by
// what the draft previously had for that method, or by a default stub.
func (c *Controller) SetLearningMethod(m models.LearningMethod) error {
	if c.state == Idle {
		return ErrInvalidState
	}
	if !m.Valid() {
		return invalid("learning method", fmt.Sprintf("unknown learning method %q", m))
	}
	if m == c.draft.LearningMethod && c.draft.Content != nil {
		return nil
	}
	if c.draft.Content != nil {
		c.stash[c.draft.Content.Method()] = c.draft.Content
	}
	c.draft.LearningMethod = m
	if prev, ok := c.stash[m]; ok {
		c.draft.Content = prev
		return nil
	}
	c.draft.Content = DefaultContent(m, c.draft.Title)
	return nil
}

// SetContent attaches a payload to the draft and switches its method to match
func (c *Controller) SetContent(content models.Content) error {
	if c.state == Idle {
		return ErrInvalidState
	}
	if content == nil {
		return models.CheckContent(c.draft.LearningMethod, nil)
	}
	if err := models.CheckContent(content.Method(), content); err != nil {
		return err
	}
	c.draft.LearningMethod = content.Method()
	c.draft.Content = content
	return nil
}

// Save validates and stores the draft. A rejected form keeps the editor open.
func (c *Controller) Save(ctx context.Context) (models.ScheduleEvent, error) {
	var (
		saved models.ScheduleEvent
		err   error
	)
	switch c.state {
	case EditingNew:
		saved, err = c.store.Add(ctx, Prepare(c.draft))
	case EditingExisting:
		saved, err = c.store.Update(ctx, Prepare(c.draft))
	default:
		return models.ScheduleEvent{}, ErrInvalidState
	}
	if err != nil {
		return models.ScheduleEvent{}, err
	}
	c.close()
	return saved, nil
}

// Delete removes the event being edited
func (c *Controller) Delete(ctx context.Context) error {
	if c.state != EditingExisting {
		return ErrInvalidState
	}
	if err := c.store.Remove(ctx, c.userID, c.draft.ID); err != nil {
		return err
	}
	c.close()
	return nil
}

// StartLearning hands the event's content to a study mode and closes the editor
func (c *Controller) StartLearning() (Handoff, error) {
	if c.state != EditingExisting {
		return Handoff{}, ErrInvalidState
	}
	if err := models.CheckContent(c.draft.LearningMethod, c.draft.Content); err != nil {
		return Handoff{}, err
	}
	h := Handoff{
		EventID: c.draft.ID,
		Title:   c.draft.Title,
		Method:  c.draft.LearningMethod,
		Content: models.CloneContent(c.draft.Content),
	}
	c.close()
	return h, nil
}

// Cancel leaves the editor without saving
func (c *Controller) Cancel() {
	c.close()
}

// ToggleCompletion flips the completion of a stored event
func (c *Controller) ToggleCompletion(ctx context.Context, id string) (models.ScheduleEvent, error) {
	return c.store.ToggleCompletion(ctx, c.userID, id)
}

func (c *Controller) close() {
	c.state = Idle
	c.draft = models.ScheduleEvent{}
	c.stash = nil
}
