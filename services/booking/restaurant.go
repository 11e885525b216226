package booking

import (
	"fmt"

	"bookline/models"
)

// restaurantVariant books table reservations. Party size is required;
// area and occasion travel along as attributes.
type restaurantVariant struct{}

func (restaurantVariant) validateCreate(tenant *models.TenantConfig, req *CreateRequest, res *models.Resource) error {
	if req.Attributes[models.AttrPartySize] == "" {
		return &ValidationError{Field: "party size", Message: "how many people will be joining?"}
	}
	if len(tenant.Areas) > 0 {
		if area := req.Attributes[models.AttrArea]; area != "" && !areaExists(tenant, area) {
			return &ValidationError{Field: "area", Message: fmt.Sprintf("we do not have a %q area", area)}
		}
	}
	return nil
}

func areaExists(tenant *models.TenantConfig, area string) bool {
	for _, a := range tenant.Areas {
		if a == area {
			return true
		}
	}
	return false
}

func (restaurantVariant) window(tenant *models.TenantConfig) (models.BusinessHours, int, bool, string) {
	return defaultWindow(tenant)
}

func (restaurantVariant) offerings(tenant *models.TenantConfig) *OfferingsResult {
	if tenant.Catalog.MenuURL == "" && len(tenant.Catalog.Categories) == 0 {
		return &OfferingsResult{
			Title: "Menu",
			Note:  "Our menu is not available online yet; ask us about today's dishes or book a table.",
		}
	}
	return &OfferingsResult{
		Title:      "Menu",
		Categories: tenant.Catalog.Categories,
		MenuURL:    tenant.Catalog.MenuURL,
	}
}

func (restaurantVariant) confirmationText(tenant *models.TenantConfig, b *models.Booking, res *models.Resource) string {
	msg := fmt.Sprintf("Your reservation for %s people is confirmed for %s.",
		b.Attributes[models.AttrPartySize], formatWhen(tenant, b))
	if area := b.Attributes[models.AttrArea]; area != "" {
		msg += fmt.Sprintf(" We have reserved the %s area for you.", area)
	}
	if occasion := b.Attributes[models.AttrOccasion]; occasion != "" {
		msg += fmt.Sprintf(" We look forward to celebrating your %s with you.", occasion)
	}
	return msg
}

func (restaurantVariant) modifiedText(tenant *models.TenantConfig, b *models.Booking, res *models.Resource, resourceChanged bool) string {
	return fmt.Sprintf("Your reservation has been moved to %s.", formatWhen(tenant, b))
}

func (restaurantVariant) bookingsTitle() string { return "Your reservations" }
