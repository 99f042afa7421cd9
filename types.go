package sdk

// Credentials is the access/refresh token pair issued on successful login or
// challenge verification. It is owned by the TokenManager; callers should not
// persist copies.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// PendingSession is the transient, lower-privilege token issued when the
// server demands step-up verification. It exists only between a
// challenge-required login and a successful VerifyChallenge, and never
// coexists with valid Credentials.
type PendingSession struct {
	SessionToken string `json:"session_token"`
}

// UserProfile mirrors the server's user representation. The local copy is
// display-only and may be stale; it must never feed authorization decisions.
type UserProfile struct {
	ID            int64  `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Avatar        string `json:"avatar"`
	IsAdmin       bool   `json:"is_admin"`
	IsLocked      bool   `json:"is_locked"`
	SecurityScore int    `json:"security_score,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
}

// RiskAssessment is the server's per-action risk verdict. The client only
// consumes and routes on it; it never computes or overrides the verdict.
type RiskAssessment struct {
	// Score is in [0, 100].
	Score             float64 `json:"risk_score"`
	Level             string  `json:"risk_level,omitempty"`
	Reason            string  `json:"reason,omitempty"`
	RequiresChallenge bool    `json:"requires_challenge,omitempty"`
}

// BehavioralTelemetry is the opaque behavioral-biometric payload forwarded to
// the server (typing cadence, device signals). The SDK does not inspect or
// compute it.
type BehavioralTelemetry map[string]any

// SessionState is the token manager's view of the session.
type SessionState string

const (
	// SessionUnauthenticated means no tokens are held.
	SessionUnauthenticated SessionState = "unauthenticated"
	// SessionPendingChallenge means a low-privilege session token is held and
	// step-up verification has not completed.
	SessionPendingChallenge SessionState = "pending_challenge"
	// SessionAuthenticated means a full access/refresh pair is held.
	SessionAuthenticated SessionState = "authenticated"
	// SessionRefreshing means a refresh call is in flight.
	SessionRefreshing SessionState = "refreshing"
)
