package models

import "time"

// TenantStatus enumerates the lifecycle states of a Tenant's ingest channel.
type TenantStatus string

const (
	TenantStatusInactive TenantStatus = "inactive"
	TenantStatusActive   TenantStatus = "active"
	TenantStatusError    TenantStatus = "error"
)

// Tenant is the credential and bookkeeping record for one ingest source.
// The plaintext API key is never stored; only its KDF digest and a short
// display prefix survive past the creation call.
type Tenant struct {
	TenantID     string       `json:"tenant_id"`
	OwnerUserID  string       `json:"owner_user_id"`
	Name         string       `json:"name"`
	PlatformTag  string       `json:"platform_tag"`
	APIKeyHash   string       `json:"-"`
	APIKeySalt   string       `json:"-"`
	APIKeyPrefix string       `json:"api_key_prefix"`
	Status       TenantStatus `json:"status"`
	LastSeenAt   *time.Time   `json:"last_seen_at,omitempty"`
	TotalReceived int64       `json:"total_received"`
	CreatedAt    time.Time    `json:"created_at"`
	RevokedAt    *time.Time   `json:"-"`
}

// Revoked reports whether this tenant's credential has been revoked.
func (t *Tenant) Revoked() bool { return t.RevokedAt != nil }

// CreateTenantRequest is the payload for issuing a new tenant credential.
type CreateTenantRequest struct {
	OwnerUserID string `json:"owner_user_id" binding:"required"`
	Name        string `json:"name" binding:"required,max=200"`
	PlatformTag string `json:"platform_tag" binding:"required,max=100"`
}

// IssuedCredential is returned exactly once, at creation time, and carries
// the plaintext key that the caller must store out-of-band.
type IssuedCredential struct {
	TenantID     string    `json:"tenant_id"`
	PlaintextKey string    `json:"plaintext_key"`
	APIKeyPrefix string    `json:"api_key_prefix"`
	Name         string    `json:"name"`
	PlatformTag  string    `json:"platform_tag"`
	CreatedAt    time.Time `json:"created_at"`
}

// TenantSummary is the list-view shape for GET /connections: it never
// includes anything that could reconstruct the plaintext key.
type TenantSummary struct {
	TenantID      string       `json:"tenant_id"`
	Name          string       `json:"name"`
	PlatformTag   string       `json:"platform_tag"`
	APIKeyPrefix  string       `json:"api_key_prefix"`
	Status        TenantStatus `json:"status"`
	LastSeenAt    *time.Time   `json:"last_seen_at,omitempty"`
	TotalReceived int64        `json:"total_received"`
	CreatedAt     time.Time    `json:"created_at"`
}

// Summary projects a Tenant into its list-view, credential-free shape.
func (t *Tenant) Summary() TenantSummary {
	return TenantSummary{
		TenantID:      t.TenantID,
		Name:          t.Name,
		PlatformTag:   t.PlatformTag,
		APIKeyPrefix:  t.APIKeyPrefix,
		Status:        t.Status,
		LastSeenAt:    t.LastSeenAt,
		TotalReceived: t.TotalReceived,
		CreatedAt:     t.CreatedAt,
	}
}
