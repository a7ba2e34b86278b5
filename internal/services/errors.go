// internal/services/errors.go
package services

import "errors"

// Sentinel errors shared across services. Handlers translate these onto
// HTTP status codes with errors.Is.
var (
	ErrNoAgentsConfigured       = errors.New("no agent emails configured")
	ErrNoEligibleAgents         = errors.New("no eligible agents found")
	ErrCarNotFound              = errors.New("car not found")
	ErrDuplicateRegistration    = errors.New("registration number already listed")
	ErrInvalidState             = errors.New("car already processed")
	ErrNotAssignedAgent         = errors.New("car is not assigned to this agent")
	ErrInvalidVerificationDays  = errors.New("verification days must be between 1 and 10")
	ErrCarNotAvailable          = errors.New("car is not available for purchase")
	ErrPurchaseNotFound         = errors.New("purchase not found")
	ErrNotificationNotFound     = errors.New("notification not found")
	ErrUserNotFound             = errors.New("user not found")
)
