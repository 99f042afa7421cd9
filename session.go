package sdk

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// Screen identifies which screen the UI should render.
type Screen string

const (
	ScreenSplash    Screen = "splash"
	ScreenLogin     Screen = "login"
	ScreenRegister  Screen = "register"
	ScreenChallenge Screen = "challenge"
	ScreenHome      Screen = "home"
)

// HomeTab selects the active tab inside the home screen.
type HomeTab string

const (
	HomeTabFeed     HomeTab = "feed"
	HomeTabChat     HomeTab = "chat"
	HomeTabProfile  HomeTab = "profile"
	HomeTabSecurity HomeTab = "security"
	HomeTabAdmin    HomeTab = "admin"
)

// ErrInvalidTransition is returned when an event does not apply to the
// current screen. State is left unchanged.
var ErrInvalidTransition = errors.New("sdk: invalid session transition")

// SessionController is the finite state machine sequencing screens from
// authentication outcomes. Transitions take typed outcome values; the
// controller never enters Home unless the token manager actually holds
// credentials. There is no terminal state — logout always lands on Login.
type SessionController struct {
	tokens *TokenManager
	logger zerolog.Logger

	mu            sync.Mutex
	screen        Screen
	tab           HomeTab
	challengeRisk RiskAssessment

	// OnTransition, when set, fires after every screen change. It runs
	// outside the controller lock and must not block.
	OnTransition func(from, to Screen)
}

func newSessionController(tokens *TokenManager, logger zerolog.Logger) *SessionController {
	return &SessionController{
		tokens: tokens,
		logger: logger,
		screen: ScreenSplash,
		tab:    HomeTabFeed,
	}
}

// CurrentScreen returns the screen the UI should render.
func (c *SessionController) CurrentScreen() Screen {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.screen
}

// CurrentTab returns the active home tab.
func (c *SessionController) CurrentTab() HomeTab {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tab
}

// ChallengeRisk returns the server's risk verdict behind the current
// challenge, for display on the challenge screen.
func (c *SessionController) ChallengeRisk() RiskAssessment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.challengeRisk
}

// FinishLoading leaves the splash screen. A restored, still-valid session
// (TokenManager.Load found a token pair) goes straight to Home; everything
// else lands on Login.
func (c *SessionController) FinishLoading() error {
	if c.tokens.State() == SessionAuthenticated {
		return c.transition(ScreenSplash, ScreenHome)
	}
	return c.transition(ScreenSplash, ScreenLogin)
}

// Apply routes a login outcome: Authenticated goes to Home, ChallengeRequired
// to the challenge screen, Failed stays on Login.
func (c *SessionController) Apply(outcome LoginOutcome) error {
	switch outcome.Status {
	case LoginStatusAuthenticated:
		return c.transition(ScreenLogin, ScreenHome)
	case LoginStatusChallengeRequired:
		if err := c.transition(ScreenLogin, ScreenChallenge); err != nil {
			return err
		}
		c.mu.Lock()
		c.challengeRisk = outcome.Risk
		c.mu.Unlock()
		return nil
	case LoginStatusFailed:
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.screen != ScreenLogin {
			return ErrInvalidTransition
		}
		return nil
	default:
		return ErrInvalidTransition
	}
}

// GoToRegister navigates from Login to Register.
func (c *SessionController) GoToRegister() error {
	return c.transition(ScreenLogin, ScreenRegister)
}

// BackToLogin abandons registration.
func (c *SessionController) BackToLogin() error {
	return c.transition(ScreenRegister, ScreenLogin)
}

// RegisterSucceeded returns to Login; registration never creates a session.
func (c *SessionController) RegisterSucceeded() error {
	return c.transition(ScreenRegister, ScreenLogin)
}

// ChallengeVerified enters Home after successful step-up verification.
func (c *SessionController) ChallengeVerified() error {
	return c.transition(ScreenChallenge, ScreenHome)
}

// ChallengeFailed keeps the user on the challenge screen for a retry. It
// never falls back to an authenticated state.
func (c *SessionController) ChallengeFailed() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.screen != ScreenChallenge {
		return ErrInvalidTransition
	}
	return nil
}

// SelectTab switches the active home tab.
func (c *SessionController) SelectTab(tab HomeTab) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.screen != ScreenHome {
		return ErrInvalidTransition
	}
	c.tab = tab
	return nil
}

// Logout clears all tokens first, then returns to Login.
func (c *SessionController) Logout(ctx context.Context) error {
	c.mu.Lock()
	if c.screen != ScreenHome {
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	c.mu.Unlock()
	if err := c.tokens.Clear(ctx); err != nil {
		return err
	}
	return c.transition(ScreenHome, ScreenLogin)
}

// SessionExpired handles terminally invalid credentials from any screen:
// tokens are cleared and the user is routed back to Login.
func (c *SessionController) SessionExpired(ctx context.Context) error {
	if err := c.tokens.Clear(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	from := c.screen
	c.screen = ScreenLogin
	c.tab = HomeTabFeed
	c.challengeRisk = RiskAssessment{}
	hook := c.OnTransition
	c.mu.Unlock()

	if from != ScreenLogin {
		c.logger.Info().Str("from", string(from)).Msg("session expired, returning to login")
		if hook != nil {
			hook(from, ScreenLogin)
		}
	}
	return nil
}

func (c *SessionController) transition(from, to Screen) error {
	c.mu.Lock()
	if c.screen != from {
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	if to == ScreenHome && c.tokens.State() != SessionAuthenticated {
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	c.screen = to
	if to == ScreenHome {
		c.tab = HomeTabFeed
	}
	if to == ScreenLogin {
		c.challengeRisk = RiskAssessment{}
	}
	hook := c.OnTransition
	c.mu.Unlock()

	c.logger.Debug().Str("from", string(from)).Str("to", string(to)).Msg("screen transition")
	if hook != nil {
		hook(from, to)
	}
	return nil
}
