package intelligence

import (
	"fmt"
	"strings"

	"bookline/models"
)

// BuildSystemPrompt assembles the per-tenant instruction block the model
// receives. A tenant-provided template wins; otherwise a business-type
// default is used.
func BuildSystemPrompt(tenant *models.TenantConfig, customer *models.Customer) string {
	var sb strings.Builder

	if tenant.PromptTemplate != "" {
		sb.WriteString(tenant.PromptTemplate)
	} else {
		sb.WriteString(defaultPersona(tenant))
	}
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "Business: %s (%s).\n", tenant.BusinessName, tenant.BusinessType)
	fmt.Fprintf(&sb, "Opening hours: %s to %s. Timezone: %s. Currency: %s.\n",
		tenant.BusinessHours.Start, tenant.BusinessHours.End, tenant.Timezone, tenant.Currency)
	if tenant.ContactPhone != "" {
		fmt.Fprintf(&sb, "Phone for urgent matters: %s.\n", tenant.ContactPhone)
	}

	if len(tenant.Resources) > 0 {
		sb.WriteString("Team:\n")
		for _, r := range tenant.Resources {
			if r.Specialty != "" {
				fmt.Fprintf(&sb, "- %s (%s), id %q\n", r.Name, r.Specialty, r.ID)
			} else {
				fmt.Fprintf(&sb, "- %s, id %q\n", r.Name, r.ID)
			}
		}
	}

	writeCatalog(&sb, tenant)

	if customer != nil && customer.FullName != "" {
		fmt.Fprintf(&sb, "\nYou are talking to %s.\n", customer.FullName)
	}

	sb.WriteString(`
Rules:
- Always use the booking tools for offerings, availability and bookings; never invent times or prices.
- Dates go to tools as YYYY-MM-DD and times as HH:MM in the business timezone.
- If a tool reports an error, relay its message politely and offer alternatives.
- When a customer is upset, asks for a person, or you cannot help after two attempts, use escalate_to_human.
- When the customer mentions their name or email, store it with save_customer_field.
- Keep replies short and warm, suited to WhatsApp.`)

	return sb.String()
}

func defaultPersona(tenant *models.TenantConfig) string {
	switch tenant.BusinessType {
	case models.BusinessSalon:
		return fmt.Sprintf("You are the friendly booking assistant of %s, a beauty salon. Help customers pick services and book appointments.", tenant.BusinessName)
	case models.BusinessClinic:
		return fmt.Sprintf("You are the appointment assistant of %s, a medical clinic. Be precise and reassuring; never give medical advice.", tenant.BusinessName)
	case models.BusinessStore:
		return fmt.Sprintf("You are the order assistant of %s, a retail store. Help customers choose products and schedule deliveries.", tenant.BusinessName)
	case models.BusinessRestaurant:
		return fmt.Sprintf("You are the reservation assistant of %s, a restaurant. Help guests reserve tables and answer menu questions.", tenant.BusinessName)
	default:
		return fmt.Sprintf("You are the booking assistant of %s. Help customers schedule appointments.", tenant.BusinessName)
	}
}

func writeCatalog(sb *strings.Builder, tenant *models.TenantConfig) {
	if len(tenant.Catalog.Services) > 0 {
		sb.WriteString("Services:\n")
		for _, svc := range tenant.Catalog.Services {
			fmt.Fprintf(sb, "- %s: %s %.2f, %d min\n", svc.Name, tenant.Currency, svc.Price, svc.Duration)
		}
	}
	if len(tenant.Catalog.Categories) > 0 {
		sb.WriteString("Products:\n")
		for _, cat := range tenant.Catalog.Categories {
			fmt.Fprintf(sb, "%s:\n", cat.Name)
			for _, p := range cat.Products {
				fmt.Fprintf(sb, "- %s: %s %.2f\n", p.Name, tenant.Currency, p.Price)
			}
		}
	}
	if tenant.Catalog.MenuURL != "" {
		fmt.Fprintf(sb, "Menu: %s\n", tenant.Catalog.MenuURL)
	}
	if tenant.DeliveryPolicy != nil && tenant.DeliveryPolicy.FreeDeliveryMinimum > 0 {
		fmt.Fprintf(sb, "Free delivery on orders over %s %.2f.\n", tenant.Currency, tenant.DeliveryPolicy.FreeDeliveryMinimum)
	}
}
