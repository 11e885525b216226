package booking

import (
	"fmt"

	"bookline/models"
)

// storeVariant schedules deliveries. Availability only makes sense when a
// calendar is configured; walk-in purchases need no booking. The delivery
// policy's hours and duration replace the tenant defaults.
type storeVariant struct{}

func (storeVariant) validateCreate(tenant *models.TenantConfig, req *CreateRequest, res *models.Resource) error {
	if req.Service == "" {
		return &ValidationError{Field: "product", Message: "please tell us what you would like to order"}
	}
	if tenant.CalendarRef != "" && req.Attributes[models.AttrDeliveryAddress] == "" {
		return &ValidationError{Field: "delivery address", Message: "we need a delivery address to schedule your order"}
	}
	return nil
}

func (storeVariant) window(tenant *models.TenantConfig) (models.BusinessHours, int, bool, string) {
	if tenant.CalendarRef == "" && len(tenant.Resources) == 0 {
		return models.BusinessHours{}, 0, false,
			"this store does not take delivery bookings; you are welcome to visit during opening hours"
	}
	if tenant.DeliveryPolicy != nil {
		duration := tenant.DeliveryPolicy.DeliveryDuration
		if duration <= 0 {
			duration = tenant.DefaultSlotDuration
		}
		return tenant.DeliveryPolicy.DeliveryHours, duration, true, ""
	}
	return defaultWindow(tenant)
}

func (storeVariant) offerings(tenant *models.TenantConfig) *OfferingsResult {
	result := &OfferingsResult{
		Title:      "Our products",
		Categories: tenant.Catalog.Categories,
	}
	if tenant.DeliveryPolicy != nil && tenant.DeliveryPolicy.FreeDeliveryMinimum > 0 {
		result.Note = fmt.Sprintf("Free delivery on orders over %s.",
			formatPrice(tenant, tenant.DeliveryPolicy.FreeDeliveryMinimum))
	}
	return result
}

func (storeVariant) confirmationText(tenant *models.TenantConfig, b *models.Booking, res *models.Resource) string {
	if addr := b.Attributes[models.AttrDeliveryAddress]; addr != "" {
		return fmt.Sprintf("Your delivery of %s is scheduled for %s to %s.", b.Label, formatWhen(tenant, b), addr)
	}
	return fmt.Sprintf("Your order of %s is scheduled for %s.", b.Label, formatWhen(tenant, b))
}

func (storeVariant) modifiedText(tenant *models.TenantConfig, b *models.Booking, res *models.Resource, resourceChanged bool) string {
	return fmt.Sprintf("Your delivery of %s has been rescheduled to %s.", b.Label, formatWhen(tenant, b))
}

func (storeVariant) bookingsTitle() string { return "Your scheduled deliveries" }
