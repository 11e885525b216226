package booking

import (
	"context"

	"bookline/models"
)

// OfferingsResult is the tenant catalog rendered for one business type.
type OfferingsResult struct {
	Title      string                   `json:"title"`
	Services   []models.ServiceOffering `json:"services,omitempty"`
	Categories []models.ProductCategory `json:"categories,omitempty"`
	MenuURL    string                   `json:"menu_url,omitempty"`
	Note       string                   `json:"note,omitempty"`
}

// AvailabilityRequest asks for free slots on a single date.
type AvailabilityRequest struct {
	Date       string `json:"date"` // YYYY-MM-DD in the tenant's timezone
	ResourceID string `json:"resource_id,omitempty"`
	Service    string `json:"service,omitempty"`
	Duration   int    `json:"duration,omitempty"` // minutes, overrides resolution
}

// AvailabilityResult carries the computed slots, or the reason none apply.
type AvailabilityResult struct {
	Applicable  bool       `json:"applicable"`
	Reason      string     `json:"reason,omitempty"`
	Slots       []Interval `json:"slots"`
	ResourceID  string     `json:"resource_id,omitempty"`
	CalendarRef string     `json:"-"`
	Duration    int        `json:"duration"` // minutes per slot
}

// CreateRequest carries the arguments for a new booking.
type CreateRequest struct {
	CustomerRef string            `json:"customer_ref"`
	Date        string            `json:"date"` // YYYY-MM-DD
	Time        string            `json:"time"` // HH:MM
	Service     string            `json:"service,omitempty"`
	ResourceID  string            `json:"resource_id,omitempty"`
	Duration    int               `json:"duration,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// ModifyRequest moves or retargets an existing booking.
type ModifyRequest struct {
	BookingID   string            `json:"booking_id"`
	CustomerRef string            `json:"customer_ref"`
	NewDate     string            `json:"new_date,omitempty"`
	NewTime     string            `json:"new_time,omitempty"`
	ResourceID  string            `json:"resource_id,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// ConfirmResponse is the customer's answer to a reminder prompt.
type ConfirmResponse string

const (
	ConfirmYes        ConfirmResponse = "yes"
	ConfirmNo         ConfirmResponse = "no"
	ConfirmReschedule ConfirmResponse = "reschedule"
)

// BookingResult pairs the stored booking with a user-facing message
// flavored by business type.
type BookingResult struct {
	Booking *models.Booking `json:"booking,omitempty"`
	Message string          `json:"message"`
	// NeedsNewTime is set when a reschedule answer requires the caller to
	// ask the customer for a new date and time.
	NeedsNewTime bool `json:"needs_new_time,omitempty"`
}

// BookingService is the tenant-polymorphic operation dispatcher. Callers
// are expected to serialize calls per (tenant, end user); the service
// itself only closes the check-then-write race against the calendar.
type BookingService interface {
	ListOfferings(ctx context.Context, tenant *models.TenantConfig) (*OfferingsResult, error)
	FindAvailability(ctx context.Context, tenant *models.TenantConfig, req AvailabilityRequest) (*AvailabilityResult, error)
	CreateBooking(ctx context.Context, tenant *models.TenantConfig, req CreateRequest) (*BookingResult, error)
	ModifyBooking(ctx context.Context, tenant *models.TenantConfig, req ModifyRequest) (*BookingResult, error)
	CancelBooking(ctx context.Context, tenant *models.TenantConfig, customerRef, bookingID string) (*BookingResult, error)
	ConfirmBooking(ctx context.Context, tenant *models.TenantConfig, customerRef, bookingID string, response ConfirmResponse) (*BookingResult, error)
	ListMyBookings(ctx context.Context, tenant *models.TenantConfig, customerRef string) (string, []models.Booking, error)
}
