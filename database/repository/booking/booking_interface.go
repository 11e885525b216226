package bookingRepo

import (
	"time"

	"bookline/models"
)

// BookingRepository defines persistence operations for bookings.
type BookingRepository interface {
	Create(booking *models.Booking) error
	GetByID(tenantID, bookingID string) (*models.Booking, error)
	Update(booking *models.Booking) error
	ListActiveByCustomer(tenantID, customerRef string) ([]models.Booking, error)
	ListOverlapping(tenantID, resourceID string, start, end time.Time) ([]models.Booking, error)
	ListConfirmedInWindow(from, to time.Time) ([]models.Booking, error)
}
