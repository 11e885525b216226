package booking

import (
	"fmt"

	"bookline/models"
)

// generalVariant is the plain booking path for tenants without a
// specialized type. Nothing beyond a time and contact is required.
type generalVariant struct{}

func (generalVariant) validateCreate(tenant *models.TenantConfig, req *CreateRequest, res *models.Resource) error {
	return nil
}

func (generalVariant) window(tenant *models.TenantConfig) (models.BusinessHours, int, bool, string) {
	return defaultWindow(tenant)
}

func (generalVariant) offerings(tenant *models.TenantConfig) *OfferingsResult {
	return &OfferingsResult{
		Title:    "What we offer",
		Services: tenant.Catalog.Services,
	}
}

func (generalVariant) confirmationText(tenant *models.TenantConfig, b *models.Booking, res *models.Resource) string {
	if b.Label != "" {
		return fmt.Sprintf("Your appointment for %s is confirmed for %s.", b.Label, formatWhen(tenant, b))
	}
	return fmt.Sprintf("Your appointment is confirmed for %s.", formatWhen(tenant, b))
}

func (generalVariant) modifiedText(tenant *models.TenantConfig, b *models.Booking, res *models.Resource, resourceChanged bool) string {
	return fmt.Sprintf("Your appointment has been moved to %s.", formatWhen(tenant, b))
}

func (generalVariant) bookingsTitle() string { return "Your scheduled appointments" }
