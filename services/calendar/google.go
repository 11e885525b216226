package calendar

import (
	"context"
	"fmt"
	"time"

	"bookline/config"
	"bookline/utils"

	"go.uber.org/zap"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// GoogleCalendarService implements Service against the Google Calendar API
// using a service account shared onto each tenant's calendar.
type GoogleCalendarService struct {
	svc *gcal.Service
}

// NewGoogleCalendarService builds the client from the configured service
// account credentials file.
func NewGoogleCalendarService(ctx context.Context) (*GoogleCalendarService, error) {
	svc, err := gcal.NewService(ctx,
		option.WithCredentialsFile(config.AppConfig.GoogleCredentialsPath),
		option.WithScopes(gcal.CalendarScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar client: %w", err)
	}
	return &GoogleCalendarService{svc: svc}, nil
}

// ListBusy queries free/busy for the calendar over [from, to).
func (g *GoogleCalendarService) ListBusy(ctx context.Context, calendarRef string, from, to time.Time) ([]BusyInterval, error) {
	req := &gcal.FreeBusyRequest{
		TimeMin: from.Format(time.RFC3339),
		TimeMax: to.Format(time.RFC3339),
		Items:   []*gcal.FreeBusyRequestItem{{Id: calendarRef}},
	}
	resp, err := g.svc.Freebusy.Query(req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("freebusy query failed for %s: %w", calendarRef, err)
	}

	cal, ok := resp.Calendars[calendarRef]
	if !ok {
		return nil, fmt.Errorf("calendar %s missing from freebusy response", calendarRef)
	}
	busy := make([]BusyInterval, 0, len(cal.Busy))
	for _, period := range cal.Busy {
		start, err := time.Parse(time.RFC3339, period.Start)
		if err != nil {
			return nil, fmt.Errorf("bad busy start %q: %w", period.Start, err)
		}
		end, err := time.Parse(time.RFC3339, period.End)
		if err != nil {
			return nil, fmt.Errorf("bad busy end %q: %w", period.End, err)
		}
		busy = append(busy, BusyInterval{Start: start, End: end})
	}
	return busy, nil
}

// CreateEvent re-checks free/busy for the exact range and inserts the
// event. A busy overlap found at this point surfaces as ErrConflict.
func (g *GoogleCalendarService) CreateEvent(ctx context.Context, event *Event) (string, error) {
	busy, err := g.ListBusy(ctx, event.CalendarRef, event.Start, event.End)
	if err != nil {
		return "", err
	}
	for _, iv := range busy {
		if iv.Start.Before(event.End) && iv.End.After(event.Start) {
			return "", ErrConflict
		}
	}

	created, err := g.svc.Events.Insert(event.CalendarRef, &gcal.Event{
		Summary:     event.Summary,
		Description: event.Description,
		Start:       &gcal.EventDateTime{DateTime: event.Start.Format(time.RFC3339)},
		End:         &gcal.EventDateTime{DateTime: event.End.Format(time.RFC3339)},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("event insert failed on %s: %w", event.CalendarRef, err)
	}

	utils.GetLogger().Debug("calendar event created",
		zap.String("calendar", event.CalendarRef),
		zap.String("event_id", created.Id))
	return created.Id, nil
}

// UpdateEvent patches the time range and summary of an existing event.
func (g *GoogleCalendarService) UpdateEvent(ctx context.Context, event *Event) error {
	_, err := g.svc.Events.Patch(event.CalendarRef, event.ID, &gcal.Event{
		Summary:     event.Summary,
		Description: event.Description,
		Start:       &gcal.EventDateTime{DateTime: event.Start.Format(time.RFC3339)},
		End:         &gcal.EventDateTime{DateTime: event.End.Format(time.RFC3339)},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("event patch failed for %s: %w", event.ID, err)
	}
	return nil
}

// DeleteEvent removes an event from the calendar.
func (g *GoogleCalendarService) DeleteEvent(ctx context.Context, calendarRef, eventID string) error {
	if err := g.svc.Events.Delete(calendarRef, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("event delete failed for %s: %w", eventID, err)
	}
	return nil
}
