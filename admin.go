package sdk

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/behavioguard/behavioguard-go/routes"
)

// AdminThreat is an active high-risk event on the platform.
type AdminThreat struct {
	EventType string  `json:"event_type"`
	RiskScore float64 `json:"risk_score"`
	RiskLevel string  `json:"risk_level"`
	UserID    int64   `json:"user_id"`
	Reason    string  `json:"reason"`
	CreatedAt string  `json:"created_at"`
}

// AdminDashboard aggregates platform-wide risk metrics.
type AdminDashboard struct {
	ActiveUsers         int            `json:"active_users"`
	ThreatsBlockedToday int            `json:"threats_blocked_today"`
	RiskDistribution    map[string]int `json:"risk_distribution"`
	ActiveThreats       []AdminThreat  `json:"active_threats"`
	AvgRiskScore        float64        `json:"avg_risk_score"`
}

// AdminEventsPage is one page of the security event log.
type AdminEventsPage struct {
	Events  []SecurityEvent `json:"events"`
	Total   int             `json:"total"`
	Page    int             `json:"page"`
	PerPage int             `json:"per_page"`
}

// AdminClient exposes operator endpoints. Whether the caller is actually an
// admin is the server's decision; non-admins get 403.
type AdminClient struct {
	client *Client
}

// Dashboard fetches platform-wide risk metrics.
func (a *AdminClient) Dashboard(ctx context.Context) (AdminDashboard, error) {
	var resp AdminDashboard
	if err := a.client.getJSON(ctx, routes.AdminDashboard, &resp); err != nil {
		return AdminDashboard{}, err
	}
	return resp, nil
}

// Events lists security events. riskLevel filters when non-empty; page is
// 1-based.
func (a *AdminClient) Events(ctx context.Context, page, perPage int, riskLevel string) (AdminEventsPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 50
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	if riskLevel != "" {
		q.Set("risk_level", riskLevel)
	}
	var resp AdminEventsPage
	if err := a.client.getJSON(ctx, routes.AdminEvents+"?"+q.Encode(), &resp); err != nil {
		return AdminEventsPage{}, err
	}
	return resp, nil
}

// Users lists every account.
func (a *AdminClient) Users(ctx context.Context) ([]UserProfile, error) {
	var resp struct {
		Users []UserProfile `json:"users"`
	}
	if err := a.client.getJSON(ctx, routes.AdminUsers, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

// LockUser locks an account.
func (a *AdminClient) LockUser(ctx context.Context, userID int64) error {
	return a.client.postJSON(ctx, fmt.Sprintf(routes.AdminUserLock, userID), nil, nil)
}

// UnlockUser unlocks an account.
func (a *AdminClient) UnlockUser(ctx context.Context, userID int64) error {
	return a.client.postJSON(ctx, fmt.Sprintf(routes.AdminUserUnlock, userID), nil, nil)
}

// MakeAdmin grants admin privileges.
func (a *AdminClient) MakeAdmin(ctx context.Context, userID int64) error {
	return a.client.postJSON(ctx, fmt.Sprintf(routes.AdminUserMakeAdmin, userID), nil, nil)
}
