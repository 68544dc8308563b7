package domain

import "errors"

// Authentication and tenancy.
var (
	ErrUnauthenticated    = errors.New("missing authentication token")
	ErrInvalidToken       = errors.New("invalid token")
	ErrMissingTenantClaim = errors.New("token missing company claim")
	ErrTenantMismatch     = errors.New("company mismatch")
	ErrForbidden          = errors.New("access forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrCompanyNotFound    = errors.New("company not found")
	ErrCompanyInactive    = errors.New("company is inactive")
)

// Resource lookups. Every specific not-found error wraps ErrNotFound so the
// transport layer can map the whole family with a single errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrShipmentNotFound  = notFound("shipment not found")
	ErrVehicleNotFound   = notFound("vehicle not found")
	ErrDriverNotFound    = notFound("driver not found")
	ErrInvoiceNotFound   = notFound("invoice not found")
	ErrInventoryNotFound = notFound("inventory not found")
	ErrObjectNotFound    = notFound("object not found")
)

// Business rule violations.
var (
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrVehicleUnavailable = errors.New("vehicle unavailable")
	ErrDriverUnavailable  = errors.New("driver unavailable")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrPaymentFinalized   = errors.New("payment already finalized")
	ErrSeedAlreadyRun     = errors.New("seeder has already been run")
)

// Webhooks and input.
var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrAlreadyProcessed = errors.New("event already processed")
	ErrValidation       = errors.New("validation failed")
)

type notFoundError struct{ msg string }

func notFound(msg string) error { return &notFoundError{msg: msg} }

func (e *notFoundError) Error() string { return e.msg }

func (e *notFoundError) Unwrap() error { return ErrNotFound }
