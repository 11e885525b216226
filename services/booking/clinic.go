package booking

import (
	"fmt"

	"bookline/models"
)

// clinicVariant books consultations against medical professionals. With
// more than one professional configured, the choice is mandatory and the
// operation fails closed without it.
type clinicVariant struct{}

func (clinicVariant) validateCreate(tenant *models.TenantConfig, req *CreateRequest, res *models.Resource) error {
	if req.Service == "" {
		return &ValidationError{Field: "service", Message: "please tell us what kind of consultation you need"}
	}
	if res == nil && len(tenant.Resources) > 1 {
		names := make([]string, 0, len(tenant.Resources))
		for _, r := range tenant.Resources {
			names = append(names, r.Name)
		}
		return &ResourceRequiredError{Options: names}
	}
	return nil
}

func (clinicVariant) window(tenant *models.TenantConfig) (models.BusinessHours, int, bool, string) {
	return defaultWindow(tenant)
}

func (clinicVariant) offerings(tenant *models.TenantConfig) *OfferingsResult {
	return &OfferingsResult{
		Title:    "Consultations we offer",
		Services: tenant.Catalog.Services,
	}
}

func (clinicVariant) confirmationText(tenant *models.TenantConfig, b *models.Booking, res *models.Resource) string {
	if res != nil {
		return fmt.Sprintf("Your medical appointment with %s is confirmed for %s.", res.Name, formatWhen(tenant, b))
	}
	return fmt.Sprintf("Your medical appointment is confirmed for %s.", formatWhen(tenant, b))
}

func (clinicVariant) modifiedText(tenant *models.TenantConfig, b *models.Booking, res *models.Resource, resourceChanged bool) string {
	if resourceChanged && res != nil {
		return fmt.Sprintf("Your medical appointment has been moved to %s and will now be with %s.", formatWhen(tenant, b), res.Name)
	}
	return fmt.Sprintf("Your medical appointment has been moved to %s.", formatWhen(tenant, b))
}

func (clinicVariant) bookingsTitle() string { return "Your scheduled appointments" }
