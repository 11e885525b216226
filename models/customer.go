package models

import "time"

// Customer is an end user of one tenant, keyed by phone number.
type Customer struct {
	ID          string `bson:"id" json:"id"`
	TenantID    string `bson:"tenant_id" json:"tenant_id"`
	PhoneNumber string `bson:"phone_number" json:"phone_number"`
	FullName    string `bson:"full_name,omitempty" json:"full_name,omitempty"`
	// Data is the open profile map (email, address, preferences).
	Data      map[string]string `bson:"data,omitempty" json:"data,omitempty"`
	CreatedAt time.Time         `bson:"created_at" json:"created_at"`
}

// Email returns the stored contact email, if any.
func (c *Customer) Email() string {
	if c.Data == nil {
		return ""
	}
	return c.Data["email"]
}
