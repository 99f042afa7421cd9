package sdk

// Version is the published SDK version.
// 0.3.0: Bound challenge verification at 3 attempts per pending session;
// exhausting them clears the session token and surfaces ErrSessionExpired.
// 0.2.0: Proactive refresh for JWT access tokens within the refresh skew.
// 0.1.0: Initial release - transport, token lifecycle, auth flows, session FSM.
const Version = "0.3.0"
