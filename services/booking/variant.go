package booking

import (
	"fmt"
	"strings"

	"bookline/models"
)

// variant is the closed per-business-type behavior set. One implementation
// exists per models.BusinessType; all type-specific branching in the
// dispatcher goes through this interface.
type variant interface {
	// validateCreate enforces the type's required fields. The resource has
	// already been resolved (nil means the tenant-general calendar).
	validateCreate(tenant *models.TenantConfig, req *CreateRequest, res *models.Resource) error
	// window returns the base bookable hours and slot duration before
	// resource and service overrides. applicable=false means availability
	// queries are meaningless for this tenant (reason explains it).
	window(tenant *models.TenantConfig) (hours models.BusinessHours, slotDuration int, applicable bool, reason string)
	// offerings renders the tenant catalog.
	offerings(tenant *models.TenantConfig) *OfferingsResult
	// confirmationText flavors the message for a created booking.
	confirmationText(tenant *models.TenantConfig, b *models.Booking, res *models.Resource) string
	// modifiedText flavors the message for a rescheduled booking.
	modifiedText(tenant *models.TenantConfig, b *models.Booking, res *models.Resource, resourceChanged bool) string
	// bookingsTitle heads the listMyBookings response.
	bookingsTitle() string
}

// variantFor maps a business type onto its behavior. Unknown types fall
// back to the general variant so a misconfigured tenant still gets the
// plain booking path.
func variantFor(bt models.BusinessType) variant {
	switch bt {
	case models.BusinessSalon:
		return salonVariant{}
	case models.BusinessClinic:
		return clinicVariant{}
	case models.BusinessStore:
		return storeVariant{}
	case models.BusinessRestaurant:
		return restaurantVariant{}
	default:
		return generalVariant{}
	}
}

func defaultWindow(tenant *models.TenantConfig) (models.BusinessHours, int, bool, string) {
	return tenant.BusinessHours, tenant.DefaultSlotDuration, true, ""
}

// serviceExists reports whether the catalog lists the named service,
// matched case-insensitively.
func serviceExists(tenant *models.TenantConfig, name string) bool {
	for _, svc := range tenant.Catalog.Services {
		if strings.EqualFold(svc.Name, name) {
			return true
		}
	}
	return false
}

// serviceDuration returns the catalog duration for a named service, or 0.
func serviceDuration(tenant *models.TenantConfig, name string) int {
	for _, svc := range tenant.Catalog.Services {
		if strings.EqualFold(svc.Name, name) {
			return svc.Duration
		}
	}
	return 0
}

func formatWhen(tenant *models.TenantConfig, b *models.Booking) string {
	loc := tenant.Location()
	return b.StartTime.In(loc).Format("Monday, 2 January at 15:04")
}

func formatPrice(tenant *models.TenantConfig, price float64) string {
	return fmt.Sprintf("%s %.2f", tenant.Currency, price)
}
