package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for validation.
var (
	ErrMissingOwner    = errors.New("owner_user_id is required")
	ErrMissingName     = errors.New("name is required")
	ErrMissingPlatform = errors.New("platform_tag is required")
	ErrMissingTenantID = errors.New("tenant_id is required")
)

// Sentinel errors for entity lookups.
var (
	ErrTenantNotFound = errors.New("tenant not found")
	ErrUnknownTenant  = errors.New("unknown tenant")
)

// ErrDuplicateKey indicates a unique constraint violation (maps to HTTP 409 Conflict).
var ErrDuplicateKey = errors.New("duplicate key")

// ErrTenantRevoked indicates the tenant's credential has been revoked.
var ErrTenantRevoked = errors.New("tenant credential revoked")

// ErrFieldTooLong returns an error indicating a field exceeds its maximum length.
func ErrFieldTooLong(field string, maxLen int) error {
	return fmt.Errorf("%s exceeds maximum length of %d", field, maxLen)
}
