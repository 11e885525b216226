package booking

import "fmt"

// ValidationError reports a request that is malformed or violates a
// business-type rule. The message is safe to surface to the end user.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ResourceRequiredError reports that the tenant has multiple bookable
// resources and the request did not pick one. Options carries the
// resource names to offer the customer.
type ResourceRequiredError struct {
	Options []string
}

func (e *ResourceRequiredError) Error() string {
	return fmt.Sprintf("a resource must be selected (options: %v)", e.Options)
}

// SlotUnavailableError reports that the requested time is already taken
// or falls outside the bookable window.
type SlotUnavailableError struct {
	Reason string
}

func (e *SlotUnavailableError) Error() string {
	return "slot unavailable: " + e.Reason
}

// NotFoundError reports a booking that does not exist or does not belong
// to the requesting customer.
type NotFoundError struct {
	BookingID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("booking %s not found", e.BookingID)
}

// UpstreamUnavailableError reports a calendar or persistence failure that
// retries could not recover from.
type UpstreamUnavailableError struct {
	System string
	Err    error
}

func (e *UpstreamUnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.System, e.Err)
}

func (e *UpstreamUnavailableError) Unwrap() error { return e.Err }

// ConsistencyError reports a partial write that compensation could not
// undo, leaving the calendar and the database in disagreement.
type ConsistencyError struct {
	BookingID string
	Err       error
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("booking %s left in inconsistent state: %v", e.BookingID, e.Err)
}

func (e *ConsistencyError) Unwrap() error { return e.Err }
