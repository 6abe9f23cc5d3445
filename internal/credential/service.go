package credential

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/loglytics/ingestd/internal/apierr"
	"github.com/loglytics/ingestd/internal/models"
)

// Store is the persistence boundary C1 depends on. The concrete
// implementation lives in internal/store (store.CredentialStore).
type Store interface {
	Create(ctx context.Context, tenant *models.Tenant) error
	NameExists(ctx context.Context, ownerUserID, name string) (bool, error)
	GetByID(ctx context.Context, tenantID string) (*models.Tenant, error)
	ListByOwner(ctx context.Context, ownerUserID string, limit, offset int) ([]models.TenantSummary, bool, error)
	Revoke(ctx context.Context, tenantID string) error
}

// FailureGuard tracks per-tenant verify failures and reports whether a
// tenant is presently locked out. Satisfied by *middleware.BruteForceGuard.
type FailureGuard interface {
	IsBlocked(key string) bool
	RecordFailure(key string)
	ResetKey(key string)
}

// Service implements C1 (domain.CredentialService): issuing, verifying,
// and revoking tenant credentials.
type Service struct {
	store      Store
	cache      *verifyCache
	guard      FailureGuard
	log        *logrus.Logger
	iterations int
}

// NewService constructs a credential Service. ctx bounds the lifetime of
// the cache's background eviction goroutine. iterations is the PBKDF2
// iteration count applied to every newly issued credential.
func NewService(ctx context.Context, store Store, guard FailureGuard, log *logrus.Logger, iterations int) *Service {
	return &Service{
		store:      store,
		cache:      newVerifyCache(ctx),
		guard:      guard,
		log:        log,
		iterations: iterations,
	}
}

// Issue implements C1.issue: generates a new opaque credential, hashes it
// with the configured KDF, and persists only the hash+prefix. The
// plaintext key is returned exactly once.
func (s *Service) Issue(ctx context.Context, req models.CreateTenantRequest) (*models.IssuedCredential, error) {
	if req.OwnerUserID == "" {
		return nil, apierr.BadRequest("missing_owner", models.ErrMissingOwner.Error())
	}

	if req.Name == "" {
		return nil, apierr.BadRequest("missing_name", models.ErrMissingName.Error())
	}

	if req.PlatformTag == "" {
		return nil, apierr.BadRequest("missing_platform", models.ErrMissingPlatform.Error())
	}

	exists, err := s.store.NameExists(ctx, req.OwnerUserID, req.Name)
	if err != nil {
		return nil, apierr.Internal("lookup_failed", "checking for name collision", err)
	}

	if exists {
		return nil, apierr.New(apierr.KindConflict, "already_exists", fmt.Sprintf("tenant %q already exists for this owner", req.Name))
	}

	plaintextKey, err := generatePlaintextKey()
	if err != nil {
		return nil, apierr.Internal("key_generation_failed", "generating credential", err)
	}

	salt, err := newSalt()
	if err != nil {
		return nil, apierr.Internal("salt_generation_failed", "generating credential", err)
	}

	digest, err := deriveDigest(plaintextKey, salt, s.iterations)
	if err != nil {
		return nil, apierr.Internal("kdf_failed", "hashing credential", err)
	}

	tenant := &models.Tenant{
		OwnerUserID:  req.OwnerUserID,
		Name:         req.Name,
		PlatformTag:  req.PlatformTag,
		APIKeyHash:   digest,
		APIKeySalt:   salt,
		APIKeyPrefix: keyPrefix(plaintextKey),
		Status:       models.TenantStatusInactive,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.store.Create(ctx, tenant); err != nil {
		return nil, apierr.Internal("create_failed", "persisting credential", err)
	}

	issued := &models.IssuedCredential{
		TenantID:     tenant.TenantID,
		PlaintextKey: plaintextKey,
		APIKeyPrefix: tenant.APIKeyPrefix,
		Name:         tenant.Name,
		PlatformTag:  tenant.PlatformTag,
		CreatedAt:    tenant.CreatedAt,
	}

	// Best-effort scrub: the local copy is about to go out of scope anyway,
	// but clearing it narrows the window the plaintext spends in memory
	// after the response has been handed off.
	plaintextKey = ""

	s.log.WithFields(logrus.Fields{
		"tenant_id":   tenant.TenantID,
		"owner_id":    req.OwnerUserID,
		"action":      "credential_issued",
		"key_prefix":  tenant.APIKeyPrefix,
	}).Info("audit")

	return issued, nil
}

// Verify implements C1.verify: fetches the hash by tenant_id, recomputes
// the KDF digest for the presented key, and compares in constant time.
// Repeated failures for the same tenant trip the guard and return
// KindRateLimited until the lockout window clears, per the verify-rate-limit
// invariant.
func (s *Service) Verify(ctx context.Context, tenantID, presentedKey string) (*models.Tenant, error) {
	if tenantID == "" {
		return nil, apierr.BadRequest("missing_tenant_id", models.ErrMissingTenantID.Error())
	}

	if s.guard != nil && s.guard.IsBlocked(tenantID) {
		return nil, apierr.New(apierr.KindRateLimited, "too_many_failures", "too many failed verify attempts, try again later")
	}

	cached, cachedHit := s.cache.get(tenantID)
	if cachedHit {
		if !cached.found {
			s.recordFailure(tenantID)
			return nil, apierr.New(apierr.KindForbidden, "unknown_tenant", models.ErrUnknownTenant.Error())
		}

		return s.verifyAgainst(tenantID, cached.tenant, presentedKey)
	}

	tenant, err := s.store.GetByID(ctx, tenantID)
	if err != nil {
		s.cache.putNotFound(tenantID)
		s.recordFailure(tenantID)
		return nil, apierr.New(apierr.KindForbidden, "unknown_tenant", models.ErrUnknownTenant.Error())
	}

	cachedTenantEntry := &cachedTenant{
		tenantID:   tenant.TenantID,
		keyHash:    tenant.APIKeyHash,
		salt:       tenant.APIKeySalt,
		iterations: s.iterations,
		revoked:    tenant.Revoked(),
	}
	s.cache.putFound(tenantID, cachedTenantEntry)

	return s.verifyAgainst(tenantID, cachedTenantEntry, presentedKey)
}

// recordFailure reports a failed verify attempt to the guard, if one is
// configured.
func (s *Service) recordFailure(tenantID string) {
	if s.guard != nil {
		s.guard.RecordFailure(tenantID)
	}
}

func (s *Service) verifyAgainst(tenantID string, t *cachedTenant, presentedKey string) (*models.Tenant, error) {
	if t.revoked {
		s.recordFailure(tenantID)
		return nil, apierr.New(apierr.KindForbidden, "revoked", models.ErrTenantRevoked.Error())
	}

	ok, err := verifyDigest(presentedKey, t.salt, t.keyHash, t.iterations)
	if err != nil {
		return nil, apierr.Internal("kdf_failed", "verifying credential", err)
	}

	if !ok {
		s.recordFailure(tenantID)
		return nil, apierr.New(apierr.KindForbidden, "invalid_key", "presented key does not match")
	}

	if s.guard != nil {
		s.guard.ResetKey(tenantID)
	}

	return &models.Tenant{TenantID: t.tenantID}, nil
}

// Revoke implements C1.revoke: marks the record unusable and invalidates
// any cached verify outcome so the next verify call observes the change.
func (s *Service) Revoke(ctx context.Context, tenantID string) error {
	if err := s.store.Revoke(ctx, tenantID); err != nil {
		return apierr.Internal("revoke_failed", "revoking credential", err)
	}

	s.cache.invalidate(tenantID)

	s.log.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"action":    "credential_revoked",
	}).Info("audit")

	return nil
}

// List implements the list side of `GET /connections`.
func (s *Service) List(ctx context.Context, ownerUserID string, limit, offset int) ([]models.TenantSummary, bool, error) {
	summaries, hasMore, err := s.store.ListByOwner(ctx, ownerUserID, limit, offset)
	if err != nil {
		return nil, false, apierr.Internal("list_failed", "listing tenants", err)
	}

	return summaries, hasMore, nil
}

// Get fetches a single tenant's non-secret record.
func (s *Service) Get(ctx context.Context, tenantID string) (*models.Tenant, error) {
	tenant, err := s.store.GetByID(ctx, tenantID)
	if err != nil {
		return nil, apierr.NotFound("unknown_tenant", models.ErrUnknownTenant.Error())
	}

	return tenant, nil
}
