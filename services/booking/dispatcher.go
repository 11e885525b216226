package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	bookingRepo "bookline/database/repository/booking"
	"bookline/models"
	"bookline/services/calendar"
	"bookline/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxRetries bounds retries against the calendar and persistence ports.
const maxRetries = 2

// DefaultBookingService implements BookingService over the calendar port
// and the booking repository.
type DefaultBookingService struct {
	Calendar    calendar.Service
	BookingRepo bookingRepo.BookingRepository

	now func() time.Time
}

// NewDefaultBookingService constructs the dispatcher with its ports.
func NewDefaultBookingService(cal calendar.Service, repo bookingRepo.BookingRepository) *DefaultBookingService {
	return &DefaultBookingService{Calendar: cal, BookingRepo: repo, now: time.Now}
}

// ListOfferings renders the tenant catalog. Side-effect free.
func (s *DefaultBookingService) ListOfferings(ctx context.Context, tenant *models.TenantConfig) (*OfferingsResult, error) {
	return variantFor(tenant.BusinessType).offerings(tenant), nil
}

// FindAvailability computes free slots for one date.
func (s *DefaultBookingService) FindAvailability(ctx context.Context, tenant *models.TenantConfig, req AvailabilityRequest) (*AvailabilityResult, error) {
	v := variantFor(tenant.BusinessType)
	loc := tenant.Location()

	day, err := time.ParseInLocation("2006-01-02", req.Date, loc)
	if err != nil {
		return nil, &ValidationError{Field: "date", Message: "please give the date as YYYY-MM-DD"}
	}

	res, err := s.resolveResource(tenant, req.ResourceID)
	if err != nil {
		return nil, err
	}

	windowStart, windowEnd, applicable, reason, err := s.dayWindow(tenant, v, res, day)
	if err != nil {
		return nil, err
	}
	if !applicable {
		return &AvailabilityResult{Applicable: false, Reason: reason}, nil
	}
	if reason != "" {
		// Working day mismatch: applicable in principle, closed that date.
		return &AvailabilityResult{Applicable: true, Reason: reason, Duration: s.resolveDuration(tenant, v, res, req.Service, req.Duration)}, nil
	}

	calendarRef := tenant.ResolvedCalendar(res)
	if calendarRef == "" {
		return &AvailabilityResult{Applicable: false, Reason: "no calendar is configured for bookings"}, nil
	}

	busy, err := s.listBusy(ctx, calendarRef, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}

	duration := s.resolveDuration(tenant, v, res, req.Service, req.Duration)
	slots := BuildSlots(windowStart, windowEnd, time.Duration(duration)*time.Minute, busy, s.now().In(loc))

	result := &AvailabilityResult{
		Applicable:  true,
		Slots:       slots,
		CalendarRef: calendarRef,
		Duration:    duration,
	}
	if res != nil {
		result.ResourceID = res.ID
	}
	return result, nil
}

// CreateBooking validates per business type, re-checks the slot, then
// commits to the calendar and the database with compensating cleanup.
func (s *DefaultBookingService) CreateBooking(ctx context.Context, tenant *models.TenantConfig, req CreateRequest) (*BookingResult, error) {
	v := variantFor(tenant.BusinessType)
	loc := tenant.Location()

	res, err := s.resolveResource(tenant, req.ResourceID)
	if err != nil {
		return nil, err
	}
	if err := v.validateCreate(tenant, &req, res); err != nil {
		return nil, err
	}

	start, err := time.ParseInLocation("2006-01-02 15:04", req.Date+" "+req.Time, loc)
	if err != nil {
		return nil, &ValidationError{Field: "time", Message: "please give the date as YYYY-MM-DD and the time as HH:MM"}
	}
	duration := s.resolveDuration(tenant, v, res, req.Service, req.Duration)
	end := start.Add(time.Duration(duration) * time.Minute)

	calendarRef := tenant.ResolvedCalendar(res)
	if calendarRef == "" {
		return nil, &ValidationError{Message: "bookings are not available for this business"}
	}

	if err := s.checkSlot(ctx, tenant, v, res, calendarRef, start, end, ""); err != nil {
		return nil, err
	}

	booking := &models.Booking{
		ID:          uuid.NewString(),
		TenantID:    tenant.ID,
		CustomerRef: req.CustomerRef,
		Label:       req.Service,
		StartTime:   start,
		EndTime:     end,
		Status:      models.BookingConfirmed,
		Attributes:  req.Attributes,
		CalendarRef: calendarRef,
		CreatedAt:   s.now().UTC(),
		UpdatedAt:   s.now().UTC(),
	}
	if res != nil {
		booking.ResourceID = res.ID
	}

	eventID, err := s.createEvent(ctx, tenant, booking, res)
	if err != nil {
		return nil, err
	}
	booking.CalendarEventID = eventID

	if err := s.BookingRepo.Create(booking); err != nil {
		if delErr := s.withRetry(ctx, func() error {
			return s.Calendar.DeleteEvent(ctx, calendarRef, eventID)
		}); delErr != nil {
			utils.GetLogger().Error("compensating event delete failed, manual reconciliation needed",
				zap.String("tenant", tenant.ID),
				zap.String("booking", booking.ID),
				zap.String("event", eventID),
				zap.Error(delErr))
			return nil, &ConsistencyError{BookingID: booking.ID, Err: err}
		}
		return nil, &UpstreamUnavailableError{System: "persistence", Err: err}
	}

	return &BookingResult{Booking: booking, Message: v.confirmationText(tenant, booking, res)}, nil
}

// ModifyBooking reschedules an existing booking through the same
// validation and availability path as create.
func (s *DefaultBookingService) ModifyBooking(ctx context.Context, tenant *models.TenantConfig, req ModifyRequest) (*BookingResult, error) {
	v := variantFor(tenant.BusinessType)
	loc := tenant.Location()

	booking, err := s.ownedBooking(tenant, req.CustomerRef, req.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingConfirmed {
		return nil, &ValidationError{Message: "that booking is no longer active"}
	}

	oldStart, oldEnd := booking.StartTime, booking.EndTime
	oldCalendar := booking.CalendarRef

	// Missing date or time keeps the corresponding part of the old slot.
	datePart := req.NewDate
	if datePart == "" {
		datePart = oldStart.In(loc).Format("2006-01-02")
	}
	timePart := req.NewTime
	if timePart == "" {
		timePart = oldStart.In(loc).Format("15:04")
	}
	start, err := time.ParseInLocation("2006-01-02 15:04", datePart+" "+timePart, loc)
	if err != nil {
		return nil, &ValidationError{Field: "time", Message: "please give the date as YYYY-MM-DD and the time as HH:MM"}
	}

	res := tenant.ResourceByID(booking.ResourceID)
	resourceChanged := false
	if req.ResourceID != "" {
		newRes, err := s.resolveResource(tenant, req.ResourceID)
		if err != nil {
			return nil, err
		}
		resourceChanged = newRes != nil && (res == nil || newRes.ID != res.ID)
		res = newRes
	}

	end := start.Add(oldEnd.Sub(oldStart))
	calendarRef := tenant.ResolvedCalendar(res)

	if err := s.checkSlot(ctx, tenant, v, res, calendarRef, start, end, booking.ID); err != nil {
		return nil, err
	}

	booking.StartTime = start
	booking.EndTime = end
	booking.CalendarRef = calendarRef
	if res != nil {
		booking.ResourceID = res.ID
	}
	for k, val := range req.Attributes {
		if booking.Attributes == nil {
			booking.Attributes = map[string]string{}
		}
		booking.Attributes[k] = val
	}
	booking.UpdatedAt = s.now().UTC()

	if calendarRef != oldCalendar && booking.CalendarEventID != "" {
		oldEventID := booking.CalendarEventID
		if err := s.withRetry(ctx, func() error {
			return s.Calendar.DeleteEvent(ctx, oldCalendar, oldEventID)
		}); err != nil {
			return nil, &UpstreamUnavailableError{System: "calendar", Err: err}
		}
		eventID, err := s.createEvent(ctx, tenant, booking, res)
		if err != nil {
			return nil, err
		}
		booking.CalendarEventID = eventID
	} else if booking.CalendarEventID != "" {
		event := s.eventFor(tenant, booking, res)
		if err := s.withRetry(ctx, func() error {
			return s.Calendar.UpdateEvent(ctx, event)
		}); err != nil {
			return nil, &UpstreamUnavailableError{System: "calendar", Err: err}
		}
	}

	if err := s.BookingRepo.Update(booking); err != nil {
		// Try to move the calendar event back so the two sides agree.
		booking.StartTime, booking.EndTime, booking.CalendarRef = oldStart, oldEnd, oldCalendar
		revert := s.eventFor(tenant, booking, res)
		if revErr := s.withRetry(ctx, func() error {
			return s.Calendar.UpdateEvent(ctx, revert)
		}); revErr != nil {
			utils.GetLogger().Error("calendar revert failed after persistence error, manual reconciliation needed",
				zap.String("tenant", tenant.ID),
				zap.String("booking", booking.ID),
				zap.Error(revErr))
			return nil, &ConsistencyError{BookingID: booking.ID, Err: err}
		}
		return nil, &UpstreamUnavailableError{System: "persistence", Err: err}
	}

	return &BookingResult{Booking: booking, Message: v.modifiedText(tenant, booking, res, resourceChanged)}, nil
}

// CancelBooking flips the status to cancelled and removes the mirrored
// calendar event. The record is kept, never deleted.
func (s *DefaultBookingService) CancelBooking(ctx context.Context, tenant *models.TenantConfig, customerRef, bookingID string) (*BookingResult, error) {
	booking, err := s.ownedBooking(tenant, customerRef, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status == models.BookingCancelled {
		return nil, &ValidationError{Message: "that booking is already cancelled"}
	}

	if booking.CalendarEventID != "" {
		if err := s.withRetry(ctx, func() error {
			return s.Calendar.DeleteEvent(ctx, booking.CalendarRef, booking.CalendarEventID)
		}); err != nil {
			return nil, &UpstreamUnavailableError{System: "calendar", Err: err}
		}
	}

	booking.Status = models.BookingCancelled
	booking.UpdatedAt = s.now().UTC()
	if err := s.BookingRepo.Update(booking); err != nil {
		utils.GetLogger().Error("status update failed after calendar delete, manual reconciliation needed",
			zap.String("tenant", tenant.ID),
			zap.String("booking", booking.ID),
			zap.Error(err))
		return nil, &ConsistencyError{BookingID: booking.ID, Err: err}
	}

	return &BookingResult{Booking: booking, Message: "Your booking has been cancelled."}, nil
}

// ConfirmBooking handles yes/no/reschedule answers to a reminder prompt.
// With no explicit booking reference it resolves the customer's single
// active booking from context rather than asking again.
func (s *DefaultBookingService) ConfirmBooking(ctx context.Context, tenant *models.TenantConfig, customerRef, bookingID string, response ConfirmResponse) (*BookingResult, error) {
	var booking *models.Booking
	if bookingID != "" {
		b, err := s.ownedBooking(tenant, customerRef, bookingID)
		if err != nil {
			return nil, err
		}
		booking = b
	} else {
		active, err := s.BookingRepo.ListActiveByCustomer(tenant.ID, customerRef)
		if err != nil {
			return nil, &UpstreamUnavailableError{System: "persistence", Err: err}
		}
		switch len(active) {
		case 0:
			return nil, &NotFoundError{BookingID: "upcoming"}
		case 1:
			booking = &active[0]
		default:
			return nil, &ValidationError{Message: "you have several upcoming bookings; which one do you mean?"}
		}
	}

	switch response {
	case ConfirmYes:
		return &BookingResult{
			Booking: booking,
			Message: fmt.Sprintf("Thank you for confirming. We will see you on %s.", formatWhen(tenant, booking)),
		}, nil
	case ConfirmNo:
		return s.CancelBooking(ctx, tenant, customerRef, booking.ID)
	case ConfirmReschedule:
		return &BookingResult{
			Booking:      booking,
			NeedsNewTime: true,
			Message:      "Of course. What new date and time would suit you?",
		}, nil
	default:
		return nil, &ValidationError{Field: "response", Message: "expected yes, no or reschedule"}
	}
}

// ListMyBookings returns the customer's active bookings with the
// business-type list title.
func (s *DefaultBookingService) ListMyBookings(ctx context.Context, tenant *models.TenantConfig, customerRef string) (string, []models.Booking, error) {
	bookings, err := s.BookingRepo.ListActiveByCustomer(tenant.ID, customerRef)
	if err != nil {
		return "", nil, &UpstreamUnavailableError{System: "persistence", Err: err}
	}
	return variantFor(tenant.BusinessType).bookingsTitle(), bookings, nil
}

// resolveResource maps an optional resource reference onto a concrete
// resource. An empty or "any" reference picks the single configured
// resource, fails closed for multi-resource clinics, and otherwise means
// the tenant-general calendar.
func (s *DefaultBookingService) resolveResource(tenant *models.TenantConfig, ref string) (*models.Resource, error) {
	if ref == "" || strings.EqualFold(ref, "any") {
		if len(tenant.Resources) == 1 {
			return &tenant.Resources[0], nil
		}
		if tenant.BusinessType == models.BusinessClinic && len(tenant.Resources) > 1 {
			names := make([]string, 0, len(tenant.Resources))
			for _, r := range tenant.Resources {
				names = append(names, r.Name)
			}
			return nil, &ResourceRequiredError{Options: names}
		}
		return nil, nil
	}
	res := tenant.ResourceByID(ref)
	if res == nil {
		return nil, &ValidationError{Field: "resource", Message: fmt.Sprintf("we do not have %q here", ref)}
	}
	return res, nil
}

// resolveDuration picks the slot length in minutes. Resource override
// wins, then an explicit hint, then the catalog service duration, then
// the variant's base duration.
func (s *DefaultBookingService) resolveDuration(tenant *models.TenantConfig, v variant, res *models.Resource, service string, hint int) int {
	if res != nil && res.SlotDuration > 0 {
		return res.SlotDuration
	}
	if hint > 0 {
		return hint
	}
	if d := serviceDuration(tenant, service); d > 0 {
		return d
	}
	_, base, _, _ := v.window(tenant)
	if base > 0 {
		return base
	}
	return tenant.DefaultSlotDuration
}

// dayWindow computes the operating window for one date: the variant's
// base hours intersected with the resource's own hours (the narrower
// window wins), gated on working-day membership.
func (s *DefaultBookingService) dayWindow(tenant *models.TenantConfig, v variant, res *models.Resource, day time.Time) (time.Time, time.Time, bool, string, error) {
	hours, _, applicable, reason := v.window(tenant)
	if !applicable {
		return time.Time{}, time.Time{}, false, reason, nil
	}

	workingDays := tenant.WorkingDays
	if res != nil && len(res.WorkingDays) > 0 {
		workingDays = res.WorkingDays
	}
	if !IsWorkingDay(workingDays, day) {
		return time.Time{}, time.Time{}, true, "we are closed on that day", nil
	}

	if res != nil && res.BusinessHours != nil {
		narrowed, err := intersectHours(hours, *res.BusinessHours)
		if err != nil {
			return time.Time{}, time.Time{}, true, "no overlapping opening hours on that day", nil
		}
		hours = narrowed
	}

	start, end, err := DayWindow(hours, day, tenant.Location())
	if err != nil {
		return time.Time{}, time.Time{}, false, "", &ValidationError{Message: "opening hours are misconfigured for this business"}
	}
	return start, end, true, "", nil
}

// intersectHours returns the overlap of two HH:MM windows.
func intersectHours(a, b models.BusinessHours) (models.BusinessHours, error) {
	aStart, aEnd, err := a.Minutes()
	if err != nil {
		return models.BusinessHours{}, err
	}
	bStart, bEnd, err := b.Minutes()
	if err != nil {
		return models.BusinessHours{}, err
	}
	start := aStart
	if bStart > start {
		start = bStart
	}
	end := aEnd
	if bEnd < end {
		end = bEnd
	}
	if end <= start {
		return models.BusinessHours{}, fmt.Errorf("windows do not overlap")
	}
	return models.BusinessHours{
		Start: fmt.Sprintf("%02d:%02d", start/60, start%60),
		End:   fmt.Sprintf("%02d:%02d", end/60, end%60),
	}, nil
}

// checkSlot re-validates that [start, end) is a bookable slot right
// before a write. excludeBookingID skips the booking's own interval when
// rescheduling.
func (s *DefaultBookingService) checkSlot(ctx context.Context, tenant *models.TenantConfig, v variant, res *models.Resource, calendarRef string, start, end time.Time, excludeBookingID string) error {
	loc := tenant.Location()
	day := start.In(loc)

	windowStart, windowEnd, applicable, reason, err := s.dayWindow(tenant, v, res, day)
	if err != nil {
		return err
	}
	if !applicable || reason != "" {
		if reason == "" {
			reason = "bookings are not available for this business"
		}
		return &SlotUnavailableError{Reason: reason}
	}
	if start.Before(s.now()) {
		return &SlotUnavailableError{Reason: "that time has already passed"}
	}

	busy, err := s.listBusy(ctx, calendarRef, windowStart, windowEnd)
	if err != nil {
		return err
	}
	if excludeBookingID != "" {
		if prev, err := s.BookingRepo.GetByID(tenant.ID, excludeBookingID); err == nil {
			busy = excludeInterval(busy, prev.StartTime, prev.EndTime)
		}
	}

	resourceID := ""
	if res != nil {
		resourceID = res.ID
	}
	overlapping, err := s.BookingRepo.ListOverlapping(tenant.ID, resourceID, start, end)
	if err != nil {
		return &UpstreamUnavailableError{System: "persistence", Err: err}
	}
	for _, b := range overlapping {
		if b.ID != excludeBookingID {
			return &SlotUnavailableError{Reason: "that time was just taken"}
		}
	}

	if !SlotFree(windowStart, windowEnd, start, end, busy) {
		return &SlotUnavailableError{Reason: "that time is not available"}
	}
	return nil
}

// excludeInterval clips the booking's own range out of the busy list so
// a reschedule within its old slot is not self-blocked.
func excludeInterval(busy []Interval, start, end time.Time) []Interval {
	var out []Interval
	for _, iv := range busy {
		if !iv.Overlaps(start, end) {
			out = append(out, iv)
			continue
		}
		if iv.Start.Before(start) {
			out = append(out, Interval{Start: iv.Start, End: start})
		}
		if iv.End.After(end) {
			out = append(out, Interval{Start: end, End: iv.End})
		}
	}
	return out
}

// ownedBooking loads a booking and verifies the customer owns it.
// Mismatches are indistinguishable from missing bookings on purpose.
func (s *DefaultBookingService) ownedBooking(tenant *models.TenantConfig, customerRef, bookingID string) (*models.Booking, error) {
	if bookingID == "" {
		return nil, &ValidationError{Field: "booking", Message: "which booking do you mean?"}
	}
	booking, err := s.BookingRepo.GetByID(tenant.ID, bookingID)
	if err != nil || booking.CustomerRef != customerRef {
		return nil, &NotFoundError{BookingID: bookingID}
	}
	return booking, nil
}

func (s *DefaultBookingService) eventFor(tenant *models.TenantConfig, booking *models.Booking, res *models.Resource) *calendar.Event {
	summary := booking.Label
	if summary == "" {
		summary = "Booking"
	}
	if res != nil {
		summary = fmt.Sprintf("%s (%s)", summary, res.Name)
	}
	return &calendar.Event{
		ID:          booking.CalendarEventID,
		CalendarRef: booking.CalendarRef,
		Summary:     summary,
		Description: fmt.Sprintf("Booking %s for %s via %s", booking.ID, booking.CustomerRef, tenant.BusinessName),
		Start:       booking.StartTime,
		End:         booking.EndTime,
	}
}

// createEvent inserts the mirrored calendar event, translating a
// conflict into SlotUnavailableError.
func (s *DefaultBookingService) createEvent(ctx context.Context, tenant *models.TenantConfig, booking *models.Booking, res *models.Resource) (string, error) {
	event := s.eventFor(tenant, booking, res)
	var eventID string
	err := s.withRetry(ctx, func() error {
		id, err := s.Calendar.CreateEvent(ctx, event)
		if err != nil {
			return err
		}
		eventID = id
		return nil
	})
	if errors.Is(err, calendar.ErrConflict) {
		return "", &SlotUnavailableError{Reason: "that time was just taken"}
	}
	if err != nil {
		return "", &UpstreamUnavailableError{System: "calendar", Err: err}
	}
	return eventID, nil
}

// listBusy wraps the calendar free/busy query with bounded retries.
func (s *DefaultBookingService) listBusy(ctx context.Context, calendarRef string, from, to time.Time) ([]Interval, error) {
	var busy []calendar.BusyInterval
	err := s.withRetry(ctx, func() error {
		intervals, err := s.Calendar.ListBusy(ctx, calendarRef, from, to)
		if err != nil {
			return err
		}
		busy = intervals
		return nil
	})
	if err != nil {
		return nil, &UpstreamUnavailableError{System: "calendar", Err: err}
	}
	out := make([]Interval, len(busy))
	for i, iv := range busy {
		out[i] = Interval{Start: iv.Start, End: iv.End}
	}
	return out, nil
}

// withRetry runs op up to maxRetries+1 times with doubling backoff.
// Conflicts are terminal, never retried.
func (s *DefaultBookingService) withRetry(ctx context.Context, op func() error) error {
	backoff := 200 * time.Millisecond
	var err error
	for attempt := 0; ; attempt++ {
		err = op()
		if err == nil || errors.Is(err, calendar.ErrConflict) {
			return err
		}
		if attempt >= maxRetries {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}
