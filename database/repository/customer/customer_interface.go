package customerRepo

import "bookline/models"

// CustomerRepository defines persistence operations for customer profiles.
type CustomerRepository interface {
	GetByPhone(tenantID, phoneNumber string) (*models.Customer, error)
	Upsert(customer *models.Customer) error
	SetField(tenantID, phoneNumber, key, value string) error
}
