package sessionmanager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/authd/internal/apperrors"
	"github.com/nkiryanov/authd/internal/models"
	"github.com/nkiryanov/authd/internal/repository"
	"github.com/nkiryanov/authd/internal/repository/sessionkeys"
)

const (
	defaultSigningMethod   = "HS256"
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultRefreshTokenTTL = 30 * 24 * time.Hour

	blockedValue = "true"
)

// Session manager with sensible defaults
type Config struct {
	// Secret key to sign tokens
	// Required to be set
	SecretKey string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set than default is used
	Alg string

	// Access and refresh token lifetimes
	// If not set than default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// SessionManager issues, validates, rotates and revokes token pairs and keeps
// the session store consistent with them.
//
// It holds no in-process locks: the store is the only shared state, every
// public method is safe to call from any number of request handlers. Multi-key
// sequences are not transactional. If a pair creation dies between the two
// writes the orphaned refresh entry stays independently usable and the TTL
// collects it eventually.
type SessionManager struct {
	codec codec

	// Access and refresh token lifetimes
	accessTTL  time.Duration
	refreshTTL time.Duration

	// Ledger of live sessions
	store repository.SessionStore
}

func New(cfg Config, store repository.SessionStore) (*SessionManager, error) {
	if store == nil {
		return nil, errors.New("session store must not be nil")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}

	codec, err := newCodec(cfg.SecretKey, cfg.Alg)
	if err != nil {
		return nil, err
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	return &SessionManager{
		codec:      codec,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		store:      store,
	}, nil
}

// CreatePair mints a refresh and an access token for the claim and records the
// session: refresh key holds the fingerprint, access key holds the refresh token.
// The access binding lives as long as the refresh token so revocation and lookup
// by access token stay possible after the access token itself expires.
func (m *SessionManager) CreatePair(ctx context.Context, claim models.AuthClaim, fp models.Fingerprint) (models.TokenPair, error) {
	var pair models.TokenPair
	now := time.Now().Truncate(time.Second)

	refreshClaim := claim
	refreshClaim.IssuedAt = now
	refreshClaim.ExpiresAt = now.Add(m.refreshTTL)

	refresh, err := m.codec.Encode(refreshClaim)
	if err != nil {
		return pair, err
	}

	err = m.store.Set(ctx, sessionkeys.Refresh(claim.UserID, refresh), encodeFingerprint(fp), m.refreshTTL)
	if err != nil {
		return pair, fmt.Errorf("error while saving refresh binding. Err: %w", err)
	}

	accessClaim := claim
	accessClaim.IssuedAt = now
	accessClaim.ExpiresAt = now.Add(m.accessTTL)

	access, err := m.codec.Encode(accessClaim)
	if err != nil {
		return pair, err
	}

	err = m.store.Set(ctx, sessionkeys.Access(claim.UserID, access), refresh, m.refreshTTL)
	if err != nil {
		return pair, fmt.Errorf("error while saving access binding. Err: %w", err)
	}

	return models.TokenPair{
		Access:  models.IssuedToken{Value: access, ExpiresAt: accessClaim.ExpiresAt},
		Refresh: models.IssuedToken{Value: refresh, ExpiresAt: refreshClaim.ExpiresAt},
	}, nil
}

// ValidateAccess checks the signature, the revocation marker and the ledger.
// A cryptographically valid token is not enough: it must still be present in
// the live-session ledger, otherwise it was revoked or rotated away.
func (m *SessionManager) ValidateAccess(ctx context.Context, access string) (models.AuthClaim, error) {
	claim, err := m.codec.Decode(access)
	if err != nil {
		return models.AuthClaim{}, err
	}

	_, err = m.store.Get(ctx, sessionkeys.Blocked(claim.UserID, access))
	switch {
	case err == nil:
		return models.AuthClaim{}, fmt.Errorf("access token is blocked: %w", apperrors.ErrBadToken)
	case !errors.Is(err, apperrors.ErrSessionNotFound):
		return models.AuthClaim{}, err
	}

	if _, err := m.FingerprintByAccess(ctx, claim.UserID, access); err != nil {
		return models.AuthClaim{}, err
	}

	return claim, nil
}

// ValidateRefresh checks the ledger before any codec work: a token that is not
// in the ledger (rotated away, revoked or never issued) fails fast.
// The owner is unknown at this point so the lookup goes by pattern.
func (m *SessionManager) ValidateRefresh(ctx context.Context, refresh string) (models.RefreshClaim, error) {
	ok, err := m.store.ExistsByPattern(ctx, sessionkeys.RefreshPattern(refresh))
	if err != nil {
		return models.RefreshClaim{}, err
	}
	if !ok {
		return models.RefreshClaim{}, fmt.Errorf("refresh token is not in the ledger: %w", apperrors.ErrBadToken)
	}

	claim, err := m.codec.Decode(refresh)
	if err != nil {
		return models.RefreshClaim{}, err
	}

	return models.RefreshClaim{AuthClaim: claim, RefreshToken: refresh}, nil
}

// RefreshPair rotates the pair: the old refresh token becomes permanently
// unusable the moment this succeeds. The claim is the caller's freshly
// re-derived one, not a copy of what the old token carried.
//
// The old refresh delete is conditional on the key still existing, so of two
// concurrent refreshes racing on one token only the first one wins. The loser
// gets apperrors.ErrBadToken.
func (m *SessionManager) RefreshPair(ctx context.Context, oldRefresh string, claim models.AuthClaim, fp models.Fingerprint) (models.TokenPair, error) {
	var pair models.TokenPair

	deleted, err := m.store.Delete(ctx, sessionkeys.Refresh(claim.UserID, oldRefresh))
	if err != nil {
		return pair, err
	}
	if deleted == 0 {
		return pair, fmt.Errorf("refresh token already rotated: %w", apperrors.ErrBadToken)
	}

	if err := m.store.DeleteByPattern(ctx, sessionkeys.UserAccessPattern(claim.UserID)); err != nil {
		return pair, err
	}

	return m.CreatePair(ctx, claim, fp)
}

// Revoke makes the access token unusable immediately: both ledger entries are
// removed and a blocked marker is written for the remaining lifetime an access
// token could have.
func (m *SessionManager) Revoke(ctx context.Context, userID uuid.UUID, access string) error {
	accessKey := sessionkeys.Access(userID, access)

	refresh, err := m.store.Get(ctx, accessKey)
	switch {
	case errors.Is(err, apperrors.ErrSessionNotFound):
		return fmt.Errorf("access token is not in the ledger: %w", apperrors.ErrBadToken)
	case err != nil:
		return err
	}

	err = m.store.Set(ctx, sessionkeys.Blocked(userID, access), blockedValue, m.accessTTL)
	if err != nil {
		return fmt.Errorf("error while writing blocked marker. Err: %w", err)
	}

	_, err = m.store.Delete(ctx, accessKey, sessionkeys.Refresh(userID, refresh))
	return err
}

// FingerprintByAccess resolves the fingerprint through the access binding.
// Either lookup missing means the session is gone even if the token still verifies.
func (m *SessionManager) FingerprintByAccess(ctx context.Context, userID uuid.UUID, access string) (models.Fingerprint, error) {
	refresh, err := m.store.Get(ctx, sessionkeys.Access(userID, access))
	switch {
	case errors.Is(err, apperrors.ErrSessionNotFound):
		return models.Fingerprint{}, fmt.Errorf("access binding not found: %w", apperrors.ErrBadToken)
	case err != nil:
		return models.Fingerprint{}, err
	}

	return m.FingerprintByRefresh(ctx, userID, refresh)
}

func (m *SessionManager) FingerprintByRefresh(ctx context.Context, userID uuid.UUID, refresh string) (models.Fingerprint, error) {
	blob, err := m.store.Get(ctx, sessionkeys.Refresh(userID, refresh))
	switch {
	case errors.Is(err, apperrors.ErrSessionNotFound):
		return models.Fingerprint{}, fmt.Errorf("refresh binding not found: %w", apperrors.ErrBadToken)
	case err != nil:
		return models.Fingerprint{}, err
	}

	return decodeFingerprint(blob)
}
