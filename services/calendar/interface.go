package calendar

import (
	"context"
	"errors"
	"time"
)

// ErrConflict is returned by CreateEvent when the target slot was taken
// between the availability check and the write.
var ErrConflict = errors.New("calendar slot conflict")

// BusyInterval is an occupied range on a calendar.
type BusyInterval struct {
	Start time.Time
	End   time.Time
}

// Event is the calendar projection of a booking.
type Event struct {
	ID          string
	CalendarRef string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}

// Service abstracts the tenant's external calendar. Implementations must
// treat CreateEvent as conflict-checked: creating over a busy range fails
// with ErrConflict rather than double-booking.
type Service interface {
	ListBusy(ctx context.Context, calendarRef string, from, to time.Time) ([]BusyInterval, error)
	CreateEvent(ctx context.Context, event *Event) (string, error)
	UpdateEvent(ctx context.Context, event *Event) error
	DeleteEvent(ctx context.Context, calendarRef, eventID string) error
}
