package sdk

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/behavioguard/behavioguard-go/routes"
)

// maxChallengeAttempts bounds step-up verification retries per pending
// session. The third consecutive failure clears the session token and forces
// a fresh login, so a stolen session token cannot be brute-forced.
const maxChallengeAttempts = 3

// AuthClient wraps the authentication endpoints. The server is the sole
// authority on risk: the client forwards telemetry and routes on the verdict,
// it never computes or overrides requires_challenge.
type AuthClient struct {
	client *Client

	mu             sync.Mutex
	failedAttempts int
}

// LoginStatus discriminates the LoginOutcome union.
type LoginStatus string

const (
	// LoginStatusAuthenticated means a full token pair was issued and stored.
	LoginStatusAuthenticated LoginStatus = "authenticated"
	// LoginStatusChallengeRequired means the server demands step-up
	// verification; only a low-privilege session token is stored.
	LoginStatusChallengeRequired LoginStatus = "challenge_required"
	// LoginStatusFailed means the server rejected the credentials.
	LoginStatusFailed LoginStatus = "failed"
)

// LoginOutcome is a discriminated union — check Status to determine which
// fields are populated.
type LoginOutcome struct {
	Status LoginStatus
	// User and Risk are set when Status == LoginStatusAuthenticated.
	User *UserProfile
	Risk RiskAssessment
	// SessionToken is set when Status == LoginStatusChallengeRequired; Risk
	// then carries the score and reason to display.
	SessionToken string
	// Reason is set when Status == LoginStatusFailed.
	Reason string
}

type loginResponse struct {
	AccessToken       string       `json:"access_token"`
	RefreshToken      string       `json:"refresh_token"`
	User              *UserProfile `json:"user"`
	RiskScore         float64      `json:"risk_score"`
	RequiresChallenge bool         `json:"requires_challenge"`
	SessionToken      string       `json:"session_token"`
	RiskLevel         string       `json:"risk_level"`
	Reason            string       `json:"reason"`
}

// Login exchanges credentials and behavioral telemetry for either a full
// token pair or a pending challenge. Credential rejections (401/403) come
// back as a Failed outcome rather than an error; transport and server faults
// are returned as errors.
func (a *AuthClient) Login(ctx context.Context, email, password string, telemetry BehavioralTelemetry) (LoginOutcome, error) {
	if strings.TrimSpace(email) == "" {
		return LoginOutcome{}, ValidationError{Field: "email", Reason: "must not be blank"}
	}
	if strings.TrimSpace(password) == "" {
		return LoginOutcome{}, ValidationError{Field: "password", Reason: "must not be blank"}
	}
	if telemetry == nil {
		telemetry = BehavioralTelemetry{}
	}

	payload := struct {
		Email          string              `json:"email"`
		Password       string              `json:"password"`
		BehavioralData BehavioralTelemetry `json:"behavioral_data"`
	}{Email: email, Password: password, BehavioralData: telemetry}

	var resp loginResponse
	err := a.client.do(ctx, requestSpec{
		method:  http.MethodPost,
		path:    routes.AuthLogin,
		payload: payload,
	}, &resp)
	if err != nil {
		var apiErr *APIError
		if AsAPIError(err, &apiErr) &&
			(apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden) {
			return LoginOutcome{Status: LoginStatusFailed, Reason: apiErr.Message}, nil
		}
		return LoginOutcome{}, err
	}

	risk := RiskAssessment{
		Score:             resp.RiskScore,
		Level:             resp.RiskLevel,
		Reason:            resp.Reason,
		RequiresChallenge: resp.RequiresChallenge,
	}

	if resp.RequiresChallenge {
		if err := a.client.Tokens.SetPendingSession(ctx, resp.SessionToken); err != nil {
			return LoginOutcome{}, err
		}
		a.resetAttempts()
		a.client.logger.Info().
			Float64("risk_score", resp.RiskScore).
			Str("risk_level", resp.RiskLevel).
			Msg("login requires step-up verification")
		return LoginOutcome{
			Status:       LoginStatusChallengeRequired,
			SessionToken: resp.SessionToken,
			Risk:         risk,
		}, nil
	}

	creds := Credentials{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}
	if err := a.client.Tokens.SetCredentials(ctx, creds, resp.User); err != nil {
		return LoginOutcome{}, err
	}
	a.client.logger.Info().Float64("risk_score", resp.RiskScore).Msg("login succeeded")
	return LoginOutcome{Status: LoginStatusAuthenticated, User: resp.User, Risk: risk}, nil
}

// Register creates a new account. All three fields are validated locally
// before any network I/O. A successful registration does not create a
// session; the caller logs in separately.
func (a *AuthClient) Register(ctx context.Context, email, password, name string) error {
	if strings.TrimSpace(email) == "" {
		return ValidationError{Field: "email", Reason: "must not be blank"}
	}
	if strings.TrimSpace(password) == "" {
		return ValidationError{Field: "password", Reason: "must not be blank"}
	}
	if strings.TrimSpace(name) == "" {
		return ValidationError{Field: "name", Reason: "must not be blank"}
	}
	payload := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}{Email: email, Password: password, Name: name}
	return a.client.do(ctx, requestSpec{
		method:  http.MethodPost,
		path:    routes.AuthRegister,
		payload: payload,
	}, nil)
}

// ChallengeResult is returned by a successful VerifyChallenge.
type ChallengeResult struct {
	User *UserProfile
}

// VerifyChallenge exchanges the pending session token for full credentials.
// On failure the pending session stays valid for a retry; after
// maxChallengeAttempts consecutive failures it is cleared and
// ErrSessionExpired is returned.
func (a *AuthClient) VerifyChallenge(ctx context.Context, method string) (ChallengeResult, error) {
	if strings.TrimSpace(method) == "" {
		return ChallengeResult{}, ValidationError{Field: "challenge_type", Reason: "must not be blank"}
	}
	if a.client.Tokens.State() != SessionPendingChallenge {
		return ChallengeResult{}, ValidationError{Field: "session", Reason: "no pending challenge"}
	}

	payload := struct {
		ChallengeType string `json:"challenge_type"`
	}{ChallengeType: method}

	var resp struct {
		AccessToken  string       `json:"access_token"`
		RefreshToken string       `json:"refresh_token"`
		User         *UserProfile `json:"user"`
	}
	// The pending session token is the bearer here; the token manager serves
	// it while no full credentials exist.
	err := a.client.do(ctx, requestSpec{
		method:       http.MethodPost,
		path:         routes.AuthVerifyChallenge,
		payload:      payload,
		authRequired: true,
	}, &resp)
	if err != nil {
		var apiErr *APIError
		if AsAPIError(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			return ChallengeResult{}, a.recordFailedAttempt(ctx, apiErr.Message)
		}
		return ChallengeResult{}, err
	}

	creds := Credentials{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}
	if err := a.client.Tokens.SetCredentials(ctx, creds, resp.User); err != nil {
		return ChallengeResult{}, err
	}
	a.resetAttempts()
	a.client.logger.Info().Msg("challenge verified")
	return ChallengeResult{User: resp.User}, nil
}

// Me fetches the authoritative profile and refreshes the local cache.
func (a *AuthClient) Me(ctx context.Context) (*UserProfile, error) {
	var resp struct {
		User *UserProfile `json:"user"`
	}
	if err := a.client.getJSON(ctx, routes.AuthMe, &resp); err != nil {
		return nil, err
	}
	if resp.User != nil {
		if err := a.client.Tokens.SetUser(ctx, resp.User); err != nil {
			return nil, err
		}
	}
	return resp.User, nil
}

func (a *AuthClient) recordFailedAttempt(ctx context.Context, reason string) error {
	a.mu.Lock()
	a.failedAttempts++
	attempts := a.failedAttempts
	a.mu.Unlock()

	if attempts >= maxChallengeAttempts {
		a.resetAttempts()
		if err := a.client.Tokens.clearPendingSession(ctx); err != nil {
			return err
		}
		a.client.logger.Warn().Int("attempts", attempts).Msg("challenge attempts exhausted")
		return ErrSessionExpired
	}
	return ChallengeError{Reason: reason, AttemptsLeft: maxChallengeAttempts - attempts}
}

func (a *AuthClient) resetAttempts() {
	a.mu.Lock()
	a.failedAttempts = 0
	a.mu.Unlock()
}
