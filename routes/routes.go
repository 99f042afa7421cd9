// Package routes provides shared API route constants used by the SDK's
// service clients to prevent path mismatches with the BehavioGuard backend.
package routes

// API route paths, relative to the configured base URL (e.g. http://host:5000/api).
const (
	// AuthLogin exchanges credentials plus behavioral telemetry for a token
	// pair, or for a pending session token when step-up verification is required.
	AuthLogin = "/auth/login"

	// AuthRegister creates a new account. It does not create a session.
	AuthRegister = "/auth/register"

	// AuthVerifyChallenge exchanges a pending session token for a full token pair.
	AuthVerifyChallenge = "/auth/verify-challenge"

	// AuthRefresh swaps a refresh token for a new access token.
	AuthRefresh = "/auth/refresh" // #nosec G101 -- route path, not a credential

	// AuthMe returns the current authenticated user's profile.
	AuthMe = "/auth/me"

	// Posts is the feed endpoint (GET list, POST create).
	Posts = "/posts"

	// PostLike likes a post. Takes a post ID path segment.
	PostLike = "/posts/%d/like"

	// Messages sends a direct message.
	Messages = "/messages"

	// MessagesConversations lists conversation partners.
	MessagesConversations = "/messages/conversations"

	// MessagesWith returns the message history with one user.
	MessagesWith = "/messages/%d"

	// SecurityDashboard returns the user's security overview.
	SecurityDashboard = "/security/dashboard"

	// SecurityBehavioralData forwards captured behavioral telemetry for analysis.
	SecurityBehavioralData = "/security/behavioral-data"

	// AdminDashboard returns platform-wide risk metrics (admin only).
	AdminDashboard = "/admin/dashboard"

	// AdminEvents lists security events with pagination (admin only).
	AdminEvents = "/admin/events"

	// AdminUsers lists all users (admin only).
	AdminUsers = "/admin/users"

	// AdminUserLock locks a user account. Takes a user ID path segment.
	AdminUserLock = "/admin/users/%d/lock"

	// AdminUserUnlock unlocks a user account. Takes a user ID path segment.
	AdminUserUnlock = "/admin/users/%d/unlock"

	// AdminUserMakeAdmin grants admin privileges. Takes a user ID path segment.
	AdminUserMakeAdmin = "/admin/users/%d/make-admin"
)
