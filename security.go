package sdk

import (
	"context"

	"github.com/behavioguard/behavioguard-go/routes"
)

// SecurityEvent is one entry in the user's recent security history.
type SecurityEvent struct {
	EventType string  `json:"event_type"`
	RiskScore float64 `json:"risk_score"`
	RiskLevel string  `json:"risk_level"`
	Reason    string  `json:"reason"`
	CreatedAt string  `json:"created_at"`
}

// SecurityDashboard is the per-user security overview.
type SecurityDashboard struct {
	SecurityScore     int             `json:"security_score"`
	Status            string          `json:"status"`
	RecentEvents      []SecurityEvent `json:"recent_events"`
	BehavioralProfile map[string]any  `json:"behavioral_profile"`
}

// SecurityClient exposes the user-facing security endpoints.
type SecurityClient struct {
	client *Client
}

// Dashboard fetches the current user's security overview.
func (s *SecurityClient) Dashboard(ctx context.Context) (SecurityDashboard, error) {
	var resp SecurityDashboard
	if err := s.client.getJSON(ctx, routes.SecurityDashboard, &resp); err != nil {
		return SecurityDashboard{}, err
	}
	return resp, nil
}

// ForwardBehavioral ships a captured behavioral payload to the server for
// analysis. It is fire-and-forget: failures are logged at debug level and
// dropped, the one place the SDK swallows an error.
func (s *SecurityClient) ForwardBehavioral(ctx context.Context, payload BehavioralTelemetry) {
	if payload == nil {
		return
	}
	if err := s.client.postJSON(ctx, routes.SecurityBehavioralData, payload, nil); err != nil {
		s.client.logger.Debug().Err(err).Msg("behavioral telemetry dropped")
	}
}
