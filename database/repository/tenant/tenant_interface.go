package tenantRepo

import "bookline/models"

// TenantRepository defines persistence operations for tenant configurations.
type TenantRepository interface {
	GetByID(tenantID string) (*models.TenantConfig, error)
	GetByPhoneNumberID(phoneNumberID string) (*models.TenantConfig, error)
	Upsert(tenant *models.TenantConfig) error
	ListActive() ([]models.TenantConfig, error)
}
