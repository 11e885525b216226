package models

import "testing"

func validTenant() *TenantConfig {
	return &TenantConfig{
		ID:                  "t-1",
		BusinessName:        "Shear Genius",
		BusinessType:        BusinessSalon,
		Timezone:            "Europe/Madrid",
		BusinessHours:       BusinessHours{Start: "09:00", End: "18:00"},
		DefaultSlotDuration: 30,
	}
}

func TestTenantValidate(t *testing.T) {
	if err := validTenant().Validate(); err != nil {
		t.Fatalf("valid tenant rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*TenantConfig)
	}{
		{"unknown business type", func(tc *TenantConfig) { tc.BusinessType = "gym" }},
		{"bad hours", func(tc *TenantConfig) { tc.BusinessHours.End = "25:00" }},
		{"zero slot duration", func(tc *TenantConfig) { tc.DefaultSlotDuration = 0 }},
		{"mixed catalog", func(tc *TenantConfig) {
			tc.Catalog.Services = []ServiceOffering{{Name: "Haircut"}}
			tc.Catalog.Categories = []ProductCategory{{Name: "Drinks"}}
		}},
		{"empty resource id", func(tc *TenantConfig) {
			tc.Resources = []Resource{{Name: "Ana"}}
		}},
		{"duplicate resource id", func(tc *TenantConfig) {
			tc.Resources = []Resource{{ID: "a", Name: "Ana"}, {ID: "a", Name: "Bea"}}
		}},
		{"delivery policy without duration", func(tc *TenantConfig) {
			tc.DeliveryPolicy = &DeliveryPolicy{DeliveryHours: BusinessHours{Start: "10:00", End: "17:00"}}
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tenant := validTenant()
			tc.mutate(tenant)
			if err := tenant.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestResourceByID(t *testing.T) {
	tenant := validTenant()
	tenant.Resources = []Resource{
		{ID: "dr-lopez", Name: "Dr. Lopez"},
		{ID: "dr-chen", Name: "Dr. Chen"},
	}

	if r := tenant.ResourceByID("dr-chen"); r == nil || r.ID != "dr-chen" {
		t.Error("exact id should match")
	}
	if r := tenant.ResourceByID("lopez"); r == nil || r.ID != "dr-lopez" {
		t.Error("case-insensitive partial name should match")
	}
	if r := tenant.ResourceByID("CHEN"); r == nil || r.ID != "dr-chen" {
		t.Error("uppercase partial should match")
	}
	if r := tenant.ResourceByID("garcia"); r != nil {
		t.Errorf("unknown reference should return nil, got %s", r.ID)
	}
	if r := tenant.ResourceByID(""); r != nil {
		t.Error("empty reference should return nil")
	}
}

func TestBusinessHoursMinutes(t *testing.T) {
	start, end, err := BusinessHours{Start: "09:30", End: "18:00"}.Minutes()
	if err != nil {
		t.Fatalf("Minutes: %v", err)
	}
	if start != 9*60+30 || end != 18*60 {
		t.Errorf("got %d-%d", start, end)
	}

	for _, bad := range []BusinessHours{
		{Start: "9am", End: "18:00"},
		{Start: "09:00", End: "24:30"},
		{Start: "", End: "18:00"},
	} {
		if _, _, err := bad.Minutes(); err == nil {
			t.Errorf("expected error for %v", bad)
		}
	}
}

func TestLocationFallsBackToUTC(t *testing.T) {
	tenant := validTenant()
	tenant.Timezone = "Mars/Olympus"
	if loc := tenant.Location(); loc.String() != "UTC" {
		t.Errorf("invalid timezone should fall back to UTC, got %s", loc)
	}
	tenant.Timezone = ""
	if loc := tenant.Location(); loc.String() != "UTC" {
		t.Errorf("empty timezone should fall back to UTC, got %s", loc)
	}
}
