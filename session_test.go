package sdk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController(t *testing.T) (*SessionController, *TokenManager) {
	t.Helper()
	tokens := newTokenManager(NewMemoryStore(), nopLogger(), 0)
	return newSessionController(tokens, nopLogger()), tokens
}

func authenticate(t *testing.T, tokens *TokenManager) {
	t.Helper()
	require.NoError(t, tokens.SetCredentials(context.Background(), Credentials{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
	}, nil))
}

func TestControllerStartsOnSplash(t *testing.T) {
	c, _ := newTestController(t)
	assert.Equal(t, ScreenSplash, c.CurrentScreen())
}

func TestFinishLoadingWithoutSessionGoesToLogin(t *testing.T) {
	c, _ := newTestController(t)
	require.NoError(t, c.FinishLoading())
	assert.Equal(t, ScreenLogin, c.CurrentScreen())
}

func TestFinishLoadingWithRestoredSessionGoesHome(t *testing.T) {
	c, tokens := newTestController(t)
	authenticate(t, tokens)
	require.NoError(t, c.FinishLoading())
	assert.Equal(t, ScreenHome, c.CurrentScreen())
	assert.Equal(t, HomeTabFeed, c.CurrentTab())
}

func TestLoginToHomeRequiresCredentials(t *testing.T) {
	c, tokens := newTestController(t)
	require.NoError(t, c.FinishLoading())

	// An Authenticated outcome without actual credentials must not enter Home.
	err := c.Apply(LoginOutcome{Status: LoginStatusAuthenticated})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, ScreenLogin, c.CurrentScreen())

	authenticate(t, tokens)
	require.NoError(t, c.Apply(LoginOutcome{Status: LoginStatusAuthenticated}))
	assert.Equal(t, ScreenHome, c.CurrentScreen())
}

func TestFailedLoginStaysOnLogin(t *testing.T) {
	c, _ := newTestController(t)
	require.NoError(t, c.FinishLoading())
	require.NoError(t, c.Apply(LoginOutcome{Status: LoginStatusFailed, Reason: "Invalid credentials"}))
	assert.Equal(t, ScreenLogin, c.CurrentScreen())
}

func TestRegisterRoundTrip(t *testing.T) {
	c, _ := newTestController(t)
	require.NoError(t, c.FinishLoading())
	require.NoError(t, c.GoToRegister())
	assert.Equal(t, ScreenRegister, c.CurrentScreen())
	require.NoError(t, c.RegisterSucceeded())
	assert.Equal(t, ScreenLogin, c.CurrentScreen())
}

func TestChallengeFailureStaysOnChallenge(t *testing.T) {
	c, _ := newTestController(t)
	require.NoError(t, c.FinishLoading())
	require.NoError(t, c.Apply(LoginOutcome{
		Status: LoginStatusChallengeRequired,
		Risk:   RiskAssessment{Score: 85, Reason: "Unusual typing pattern"},
	}))
	assert.Equal(t, ScreenChallenge, c.CurrentScreen())

	// Failure keeps the user on the challenge screen, never silently
	// falls back to an authenticated state.
	require.NoError(t, c.ChallengeFailed())
	assert.Equal(t, ScreenChallenge, c.CurrentScreen())

	// Verified without credentials is refused.
	assert.ErrorIs(t, c.ChallengeVerified(), ErrInvalidTransition)
	assert.Equal(t, ScreenChallenge, c.CurrentScreen())
}

func TestLogoutClearsTokensAndReturnsToLogin(t *testing.T) {
	c, tokens := newTestController(t)
	authenticate(t, tokens)
	require.NoError(t, c.FinishLoading())
	require.Equal(t, ScreenHome, c.CurrentScreen())

	require.NoError(t, c.Logout(context.Background()))
	assert.Equal(t, ScreenLogin, c.CurrentScreen())
	_, ok := tokens.AccessToken()
	assert.False(t, ok, "tokens survived logout")
	assert.Equal(t, SessionUnauthenticated, tokens.State())
}

func TestSessionExpiredReturnsToLoginFromAnywhere(t *testing.T) {
	c, tokens := newTestController(t)
	authenticate(t, tokens)
	require.NoError(t, c.FinishLoading())

	var from, to Screen
	c.OnTransition = func(f, t Screen) { from, to = f, t }

	require.NoError(t, c.SessionExpired(context.Background()))
	assert.Equal(t, ScreenLogin, c.CurrentScreen())
	assert.Equal(t, ScreenHome, from)
	assert.Equal(t, ScreenLogin, to)
	assert.Equal(t, SessionUnauthenticated, tokens.State())
}

func TestInvalidTransitionsLeaveStateUnchanged(t *testing.T) {
	c, _ := newTestController(t)

	assert.ErrorIs(t, c.GoToRegister(), ErrInvalidTransition)
	assert.ErrorIs(t, c.ChallengeFailed(), ErrInvalidTransition)
	assert.ErrorIs(t, c.Logout(context.Background()), ErrInvalidTransition)
	assert.ErrorIs(t, c.SelectTab(HomeTabChat), ErrInvalidTransition)
	assert.Equal(t, ScreenSplash, c.CurrentScreen())
}

func TestSelectTabWithinHome(t *testing.T) {
	c, tokens := newTestController(t)
	authenticate(t, tokens)
	require.NoError(t, c.FinishLoading())

	require.NoError(t, c.SelectTab(HomeTabSecurity))
	assert.Equal(t, HomeTabSecurity, c.CurrentTab())

	// Returning to Home resets the tab to the feed.
	require.NoError(t, c.Logout(context.Background()))
	authenticate(t, tokens)
	require.NoError(t, c.Apply(LoginOutcome{Status: LoginStatusAuthenticated}))
	assert.Equal(t, HomeTabFeed, c.CurrentTab())
}

// TestHighRiskLoginScenario walks the full step-up flow end to end: a risk
// score of 85 routes Login -> Challenge with the reason available for
// display, credentials stay absent until biometric verification succeeds,
// then the controller lands on Home.
func TestHighRiskLoginScenario(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{
			"requires_challenge": true,
			"session_token":      "sess-1",
			"risk_score":         85.0,
			"risk_level":         "high",
			"reason":             "Unusual typing pattern",
		})
	})
	mux.HandleFunc("/auth/verify-challenge", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ChallengeType string `json:"challenge_type"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "biometric", body.ChallengeType)
		writeJSON(t, w, http.StatusOK, map[string]any{
			"access_token":  "access-1",
			"refresh_token": "refresh-1",
			"user":          UserProfile{ID: 1, Name: "Ada"},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL})
	require.NoError(t, err)
	require.NoError(t, client.Session.FinishLoading())

	outcome, err := client.Auth.Login(context.Background(), "ada@example.com", "secret", nil)
	require.NoError(t, err)
	require.NoError(t, client.Session.Apply(outcome))

	assert.Equal(t, ScreenChallenge, client.Session.CurrentScreen())
	assert.Equal(t, "Unusual typing pattern", client.Session.ChallengeRisk().Reason)
	assert.EqualValues(t, 85, client.Session.ChallengeRisk().Score)
	_, ok := client.Tokens.AccessToken()
	assert.False(t, ok, "credentials present before verification")

	_, err = client.Auth.VerifyChallenge(context.Background(), "biometric")
	require.NoError(t, err)
	require.NoError(t, client.Session.ChallengeVerified())

	assert.Equal(t, ScreenHome, client.Session.CurrentScreen())
	tok, ok := client.Tokens.AccessToken()
	assert.True(t, ok)
	assert.Equal(t, "access-1", tok)
}
