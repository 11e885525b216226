package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// BusinessType is the closed set of supported tenant business types.
type BusinessType string

const (
	BusinessSalon      BusinessType = "salon"
	BusinessStore      BusinessType = "store"
	BusinessClinic     BusinessType = "clinic"
	BusinessRestaurant BusinessType = "restaurant"
	BusinessGeneral    BusinessType = "general"
)

// BusinessHours is a daily operating window in "HH:MM" 24h format.
type BusinessHours struct {
	Start string `bson:"start" json:"start"`
	End   string `bson:"end" json:"end"`
}

// Minutes returns the window as minutes from midnight.
func (h BusinessHours) Minutes() (start, end int, err error) {
	start, err = parseClock(h.Start)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid start %q: %w", h.Start, err)
	}
	end, err = parseClock(h.End)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid end %q: %w", h.End, err)
	}
	return start, end, nil
}

func parseClock(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("expected HH:MM")
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, err
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, err
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("out of range")
	}
	return h*60 + m, nil
}

// Resource is a schedulable entity within a tenant (professional, doctor, stylist).
// Optional fields override the tenant defaults.
type Resource struct {
	ID            string         `bson:"id" json:"id"`
	Name          string         `bson:"name" json:"name"`
	Specialty     string         `bson:"specialty,omitempty" json:"specialty,omitempty"`
	CalendarRef   string         `bson:"calendar_ref,omitempty" json:"calendar_ref,omitempty"`
	BusinessHours *BusinessHours `bson:"business_hours,omitempty" json:"business_hours,omitempty"`
	WorkingDays   []int          `bson:"working_days,omitempty" json:"working_days,omitempty"`
	SlotDuration  int            `bson:"slot_duration,omitempty" json:"slot_duration,omitempty"`
	Price         float64        `bson:"price,omitempty" json:"price,omitempty"`
}

// ServiceOffering is one named service with price and duration (salon/clinic).
type ServiceOffering struct {
	Name     string  `bson:"name" json:"name"`
	Price    float64 `bson:"price" json:"price"`
	Duration int     `bson:"duration" json:"duration"` // minutes
}

// Product is one catalog item (store).
type Product struct {
	Name        string  `bson:"name" json:"name"`
	Price       float64 `bson:"price" json:"price"`
	Description string  `bson:"description,omitempty" json:"description,omitempty"`
}

// ProductCategory groups products under a named category.
type ProductCategory struct {
	Name     string    `bson:"name" json:"name"`
	Products []Product `bson:"products" json:"products"`
}

// Catalog holds either a service list or a product catalog, mutually exclusive
// by business type.
type Catalog struct {
	Services   []ServiceOffering `bson:"services,omitempty" json:"services,omitempty"`
	Categories []ProductCategory `bson:"categories,omitempty" json:"categories,omitempty"`
	MenuURL    string            `bson:"menu_url,omitempty" json:"menu_url,omitempty"`
	// Source is "manual" or "pdf"; PDF catalogs are answered from extracted text.
	Source string `bson:"source,omitempty" json:"source,omitempty"`
	PDFURL string `bson:"pdf_url,omitempty" json:"pdf_url,omitempty"`
}

// DeliveryPolicy configures home delivery for store tenants.
type DeliveryPolicy struct {
	DeliveryHours       BusinessHours `bson:"delivery_hours" json:"delivery_hours"`
	DeliveryDuration    int           `bson:"delivery_duration" json:"delivery_duration"` // minutes
	FreeDeliveryMinimum float64       `bson:"free_delivery_minimum,omitempty" json:"free_delivery_minimum,omitempty"`
}

// WhatsAppChannel holds the per-tenant Meta Graph API credentials.
type WhatsAppChannel struct {
	PhoneNumberID string `bson:"phone_number_id" json:"phone_number_id"`
	AccessToken   string `bson:"access_token" json:"-"`
	APIVersion    string `bson:"api_version,omitempty" json:"api_version,omitempty"`
}

// TenantConfig is the per-tenant configuration snapshot. It is loaded once per
// request and treated as read-only.
type TenantConfig struct {
	ID           string       `bson:"id" json:"id"`
	BusinessName string       `bson:"business_name" json:"business_name"`
	BusinessType BusinessType `bson:"business_type" json:"business_type"`
	Active       bool         `bson:"active" json:"active"`

	Timezone            string        `bson:"timezone" json:"timezone"`
	Currency            string        `bson:"currency" json:"currency"`
	BusinessHours       BusinessHours `bson:"business_hours" json:"business_hours"`
	WorkingDays         []int         `bson:"working_days" json:"working_days"` // ISO weekdays, 1=Monday
	DefaultSlotDuration int           `bson:"default_slot_duration" json:"default_slot_duration"`

	// CalendarRef is the tenant's primary calendar. Resources without their own
	// calendar resolve to this one.
	CalendarRef string `bson:"calendar_ref,omitempty" json:"calendar_ref,omitempty"`

	Resources      []Resource      `bson:"resources,omitempty" json:"resources,omitempty"`
	Catalog        Catalog         `bson:"catalog,omitempty" json:"catalog,omitempty"`
	DeliveryPolicy *DeliveryPolicy `bson:"delivery_policy,omitempty" json:"delivery_policy,omitempty"`

	// Restaurant extras.
	Areas []string `bson:"areas,omitempty" json:"areas,omitempty"`

	ContactPhone      string `bson:"contact_phone,omitempty" json:"contact_phone,omitempty"`
	RequiresInsurance bool   `bson:"requires_insurance,omitempty" json:"requires_insurance,omitempty"`

	// PromptTemplate is appended to the system prompt with highest priority.
	PromptTemplate string `bson:"prompt_template,omitempty" json:"prompt_template,omitempty"`

	WhatsApp WhatsAppChannel `bson:"whatsapp" json:"whatsapp"`

	// Operator side-channel credentials.
	OperatorPasswordHash string   `bson:"operator_password_hash,omitempty" json:"-"`
	OperatorDeviceTokens []string `bson:"operator_device_tokens,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// ResourceByID looks a resource up by exact id, then by case-insensitive
// partial name/id match, mirroring how users refer to professionals.
func (t *TenantConfig) ResourceByID(ref string) *Resource {
	if ref == "" {
		return nil
	}
	for i := range t.Resources {
		if t.Resources[i].ID == ref {
			return &t.Resources[i]
		}
	}
	lower := strings.ToLower(ref)
	for i := range t.Resources {
		r := &t.Resources[i]
		if strings.Contains(strings.ToLower(r.Name), lower) || strings.Contains(strings.ToLower(r.ID), lower) {
			return r
		}
	}
	return nil
}

// ResolvedCalendar returns the calendar a resource's events live on, falling
// back to the tenant's primary calendar.
func (t *TenantConfig) ResolvedCalendar(r *Resource) string {
	if r != nil && r.CalendarRef != "" {
		return r.CalendarRef
	}
	return t.CalendarRef
}

// Location resolves the tenant timezone, defaulting to UTC when unset or invalid.
func (t *TenantConfig) Location() *time.Location {
	if t.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(t.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Validate checks structural invariants once at load time so the dispatcher
// does not have to re-check them on every access.
func (t *TenantConfig) Validate() error {
	switch t.BusinessType {
	case BusinessSalon, BusinessStore, BusinessClinic, BusinessRestaurant, BusinessGeneral:
	default:
		return fmt.Errorf("tenant %s: unknown business type %q", t.ID, t.BusinessType)
	}
	if _, _, err := t.BusinessHours.Minutes(); err != nil {
		return fmt.Errorf("tenant %s: business hours: %w", t.ID, err)
	}
	if t.DefaultSlotDuration <= 0 {
		return fmt.Errorf("tenant %s: default slot duration must be positive", t.ID)
	}
	if len(t.Catalog.Services) > 0 && len(t.Catalog.Categories) > 0 {
		return fmt.Errorf("tenant %s: catalog cannot mix services and product categories", t.ID)
	}
	seen := make(map[string]bool, len(t.Resources))
	for _, r := range t.Resources {
		if r.ID == "" {
			return fmt.Errorf("tenant %s: resource with empty id", t.ID)
		}
		if seen[r.ID] {
			return fmt.Errorf("tenant %s: duplicate resource id %q", t.ID, r.ID)
		}
		seen[r.ID] = true
		if r.BusinessHours != nil {
			if _, _, err := r.BusinessHours.Minutes(); err != nil {
				return fmt.Errorf("tenant %s: resource %s hours: %w", t.ID, r.ID, err)
			}
		}
	}
	if t.DeliveryPolicy != nil {
		if _, _, err := t.DeliveryPolicy.DeliveryHours.Minutes(); err != nil {
			return fmt.Errorf("tenant %s: delivery hours: %w", t.ID, err)
		}
		if t.DeliveryPolicy.DeliveryDuration <= 0 {
			return fmt.Errorf("tenant %s: delivery duration must be positive", t.ID)
		}
	}
	return nil
}
