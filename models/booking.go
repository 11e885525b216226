package models

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// Booking represents one scheduled occurrence, mirrored as a calendar event.
type Booking struct {
	ID          string `bson:"id" json:"id"`
	TenantID    string `bson:"tenant_id" json:"tenant_id"`
	CustomerRef string `bson:"customer_ref" json:"customer_ref"`
	// ResourceID is empty when the booking targets the tenant-general calendar.
	ResourceID string        `bson:"resource_id,omitempty" json:"resource_id,omitempty"`
	Label      string        `bson:"label" json:"label"` // service or product name
	StartTime  time.Time     `bson:"start_time" json:"start_time"`
	EndTime    time.Time     `bson:"end_time" json:"end_time"`
	Status     BookingStatus `bson:"status" json:"status"`

	// Attributes carries business-type specific extras (delivery address,
	// party size, area, occasion).
	Attributes map[string]string `bson:"attributes,omitempty" json:"attributes,omitempty"`

	// CalendarEventID and CalendarRef key the mirrored calendar event.
	CalendarEventID string `bson:"calendar_event_id,omitempty" json:"calendar_event_id,omitempty"`
	CalendarRef     string `bson:"calendar_ref,omitempty" json:"calendar_ref,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Attribute keys shared between the dispatcher and the reminder worker.
const (
	AttrDeliveryAddress = "delivery_address"
	AttrPartySize       = "party_size"
	AttrArea            = "area"
	AttrOccasion        = "occasion"
	AttrEmail           = "email"
)
