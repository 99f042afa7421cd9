package sdk

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const defaultRefreshSkew = 30 * time.Second

// TokenManager owns the access/refresh token pair and the pending session
// token. It is the only component that writes credentials to the SecretStore,
// and it guarantees that at most one refresh call is in flight per process:
// concurrent 401s coalesce onto a single shared /auth/refresh request, because
// parallel refreshes could invalidate each other's tokens on a
// rotating-refresh-token backend.
type TokenManager struct {
	store       SecretStore
	logger      zerolog.Logger
	refreshSkew time.Duration

	// refreshFn performs the actual /auth/refresh call. Wired by NewClient.
	refreshFn func(ctx context.Context, refreshToken string) (string, error)

	mu      sync.Mutex
	creds   *Credentials
	pending *PendingSession
	user    *UserProfile
	state   SessionState

	refresh singleflight.Group
}

func newTokenManager(store SecretStore, logger zerolog.Logger, skew time.Duration) *TokenManager {
	if skew <= 0 {
		skew = defaultRefreshSkew
	}
	return &TokenManager{
		store:       store,
		logger:      logger,
		refreshSkew: skew,
		state:       SessionUnauthenticated,
	}
}

// State returns the current session state.
func (m *TokenManager) State() SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// AccessToken returns the cached access token without touching the store.
func (m *TokenManager) AccessToken() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.creds == nil || m.creds.AccessToken == "" {
		return "", false
	}
	return m.creds.AccessToken, true
}

// User returns the cached profile, which may be stale. Display-only.
func (m *TokenManager) User() *UserProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

// bearerToken picks the credential the transport should attach: full access
// token when authenticated, the low-privilege session token while a challenge
// is pending.
func (m *TokenManager) bearerToken() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.creds != nil && m.creds.AccessToken != "" {
		return m.creds.AccessToken, true
	}
	if m.pending != nil && m.pending.SessionToken != "" {
		return m.pending.SessionToken, true
	}
	return "", false
}

func (m *TokenManager) canRefresh() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creds != nil && m.creds.RefreshToken != ""
}

// Load hydrates the in-memory cache from the SecretStore. Call it once at
// startup, before the splash screen resolves.
func (m *TokenManager) Load(ctx context.Context) error {
	access, _, err := m.store.Get(ctx, storeKeyAccessToken)
	if err != nil {
		return err
	}
	refreshTok, _, err := m.store.Get(ctx, storeKeyRefreshToken)
	if err != nil {
		return err
	}
	session, _, err := m.store.Get(ctx, storeKeySessionToken)
	if err != nil {
		return err
	}
	userJSON, hasUser, err := m.store.Get(ctx, storeKeyUser)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case access != "" && refreshTok != "":
		m.creds = &Credentials{AccessToken: access, RefreshToken: refreshTok}
		m.pending = nil
		m.state = SessionAuthenticated
	case session != "":
		m.creds = nil
		m.pending = &PendingSession{SessionToken: session}
		m.state = SessionPendingChallenge
	default:
		m.creds = nil
		m.pending = nil
		m.state = SessionUnauthenticated
	}
	m.user = nil
	if hasUser && m.creds != nil {
		var u UserProfile
		if err := json.Unmarshal([]byte(userJSON), &u); err == nil {
			m.user = &u
		}
	}
	return nil
}

// SetCredentials persists a full token pair (and optionally the user), drops
// any pending session token, and marks the session authenticated. Only
// successful login, challenge verification, or refresh call this.
func (m *TokenManager) SetCredentials(ctx context.Context, creds Credentials, user *UserProfile) error {
	if err := m.store.Set(ctx, storeKeyAccessToken, creds.AccessToken); err != nil {
		return err
	}
	if err := m.store.Set(ctx, storeKeyRefreshToken, creds.RefreshToken); err != nil {
		return err
	}
	if user != nil {
		data, err := json.Marshal(user)
		if err != nil {
			return err
		}
		if err := m.store.Set(ctx, storeKeyUser, string(data)); err != nil {
			return err
		}
	}
	if err := m.store.Delete(ctx, storeKeySessionToken); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	c := creds
	m.creds = &c
	m.pending = nil
	if user != nil {
		m.user = user
	}
	m.state = SessionAuthenticated
	return nil
}

// SetPendingSession persists the step-up session token. Any stored
// credentials are removed first: a pending session and valid credentials are
// mutually exclusive.
func (m *TokenManager) SetPendingSession(ctx context.Context, sessionToken string) error {
	if err := m.store.Delete(ctx, storeKeyAccessToken, storeKeyRefreshToken, storeKeyUser); err != nil {
		return err
	}
	if err := m.store.Set(ctx, storeKeySessionToken, sessionToken); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = nil
	m.user = nil
	m.pending = &PendingSession{SessionToken: sessionToken}
	m.state = SessionPendingChallenge
	return nil
}

// SetUser updates the cached profile.
func (m *TokenManager) SetUser(ctx context.Context, user *UserProfile) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := m.store.Set(ctx, storeKeyUser, string(data)); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = user
	return nil
}

// Clear removes every token and the cached user from both the store and
// memory. Safe to call at any time, including when nothing was ever set.
func (m *TokenManager) Clear(ctx context.Context) error {
	if err := m.store.Delete(ctx, allStoreKeys...); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = nil
	m.pending = nil
	m.user = nil
	m.state = SessionUnauthenticated
	return nil
}

// clearPendingSession drops only the step-up session token, used when
// challenge attempts run out.
func (m *TokenManager) clearPendingSession(ctx context.Context) error {
	if err := m.store.Delete(ctx, storeKeySessionToken); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = nil
	if m.creds == nil {
		m.state = SessionUnauthenticated
	}
	return nil
}

// Refresh obtains a new access token using the stored refresh token. Callers
// arriving while a refresh for the same refresh token is already in flight
// await that shared call instead of starting a second one. On failure all
// local session state is cleared and every waiter receives ErrSessionExpired.
func (m *TokenManager) Refresh(ctx context.Context) (string, error) {
	m.mu.Lock()
	if m.creds == nil || m.creds.RefreshToken == "" {
		m.mu.Unlock()
		return "", ErrSessionExpired
	}
	refreshToken := m.creds.RefreshToken
	m.state = SessionRefreshing
	m.mu.Unlock()

	result, err, _ := m.refresh.Do(refreshToken, func() (any, error) {
		access, err := m.refreshFn(ctx, refreshToken)
		if err != nil {
			m.logger.Warn().Err(err).Msg("token refresh failed, clearing session")
			if clearErr := m.Clear(context.WithoutCancel(ctx)); clearErr != nil {
				m.logger.Error().Err(clearErr).Msg("clearing session state failed")
			}
			return nil, fmt.Errorf("%w: %w", ErrSessionExpired, err)
		}
		if err := m.setAccessToken(ctx, access); err != nil {
			return nil, err
		}
		m.logger.Debug().Msg("access token refreshed")
		return access, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (m *TokenManager) setAccessToken(ctx context.Context, access string) error {
	if err := m.store.Set(ctx, storeKeyAccessToken, access); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.creds == nil {
		// Cleared concurrently; do not resurrect a half session.
		return nil
	}
	m.creds.AccessToken = access
	m.state = SessionAuthenticated
	return nil
}

// accessTokenStale reports whether the cached access token is a JWT whose
// expiry falls within the refresh skew. Opaque tokens always return false and
// rely on the 401 path instead.
func (m *TokenManager) accessTokenStale(now time.Time) bool {
	m.mu.Lock()
	token := ""
	if m.creds != nil {
		token = m.creds.AccessToken
	}
	m.mu.Unlock()
	if token == "" {
		return false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Time.Sub(now) <= m.refreshSkew
}
