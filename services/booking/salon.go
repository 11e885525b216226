package booking

import (
	"fmt"

	"bookline/models"
)

// salonVariant books named services against stylists. A resource is
// optional; "any" stylist lands on the tenant-general calendar.
type salonVariant struct{}

func (salonVariant) validateCreate(tenant *models.TenantConfig, req *CreateRequest, res *models.Resource) error {
	if req.Service == "" {
		return &ValidationError{Field: "service", Message: "please tell us which service you would like"}
	}
	if len(tenant.Catalog.Services) > 0 && !serviceExists(tenant, req.Service) {
		return &ValidationError{Field: "service", Message: fmt.Sprintf("we do not offer %q", req.Service)}
	}
	return nil
}

func (salonVariant) window(tenant *models.TenantConfig) (models.BusinessHours, int, bool, string) {
	return defaultWindow(tenant)
}

func (salonVariant) offerings(tenant *models.TenantConfig) *OfferingsResult {
	return &OfferingsResult{
		Title:    "Our services",
		Services: tenant.Catalog.Services,
	}
}

func (salonVariant) confirmationText(tenant *models.TenantConfig, b *models.Booking, res *models.Resource) string {
	msg := fmt.Sprintf("Your appointment for %s is confirmed for %s.", b.Label, formatWhen(tenant, b))
	if res != nil {
		msg = fmt.Sprintf("Your appointment for %s with %s is confirmed for %s.", b.Label, res.Name, formatWhen(tenant, b))
	}
	return msg
}

func (salonVariant) modifiedText(tenant *models.TenantConfig, b *models.Booking, res *models.Resource, resourceChanged bool) string {
	return fmt.Sprintf("Your appointment for %s has been moved to %s.", b.Label, formatWhen(tenant, b))
}

func (salonVariant) bookingsTitle() string { return "Your scheduled appointments" }
