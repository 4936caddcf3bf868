package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nkiryanov/jobboard/internal/logger"
	"github.com/nkiryanov/jobboard/internal/models"
)

const (
	DefaultIdleTimeout   = 60 * time.Minute
	DefaultMaxAge        = 6 * time.Hour
	DefaultCheckInterval = time.Minute
)

// Logout reasons shown to the user
const (
	ReasonExpired      = "Your session has expired. Please log in again."
	ReasonIdle         = "Your session has expired due to inactivity. Please log in again."
	ReasonUnauthorized = ReasonExpired
)

type Config struct {
	IdleTimeout   time.Duration
	MaxAge        time.Duration
	CheckInterval time.Duration

	// time.Now if not set
	Now func() time.Time

	// Called after every logout with the reason, e.g. to send user to the login screen
	OnLogout func(reason string)

	Logger logger.Logger
}

// Manager owns client session: it logs the user out after idle timeout,
// after max session age, or as soon as server answered 401
type Manager struct {
	idleTimeout   time.Duration
	maxAge        time.Duration
	checkInterval time.Duration
	now           func() time.Time
	onLogout      func(reason string)
	logger        logger.Logger

	store Store
	bus   *Bus

	mu           sync.Mutex
	state        State
	lastActivity time.Time
}

// NewManager restores session from the store. Restored session counts as active right now
func NewManager(cfg Config, store Store, bus *Bus) (*Manager, error) {
	if store == nil || bus == nil {
		return nil, errors.New("store and bus must not be nil")
	}

	m := &Manager{
		idleTimeout:   cfg.IdleTimeout,
		maxAge:        cfg.MaxAge,
		checkInterval: cfg.CheckInterval,
		now:           cfg.Now,
		onLogout:      cfg.OnLogout,
		logger:        cfg.Logger,
		store:         store,
		bus:           bus,
	}
	if m.idleTimeout == 0 {
		m.idleTimeout = DefaultIdleTimeout
	}
	if m.maxAge == 0 {
		m.maxAge = DefaultMaxAge
	}
	if m.checkInterval == 0 {
		m.checkInterval = DefaultCheckInterval
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.onLogout == nil {
		m.onLogout = func(string) {}
	}
	if m.logger == nil {
		m.logger = logger.NewNoOpLogger()
	}

	state, err := store.Load()
	if err != nil {
		return nil, err
	}
	if state.Authenticated && state.SessionStart.IsZero() {
		state.SessionStart = m.now()
	}

	m.state = state
	m.lastActivity = m.now()

	return m, nil
}

func (m *Manager) Login(token string, role models.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	state := State{
		Authenticated: true,
		Role:          role,
		Token:         token,
		SessionStart:  now,
	}
	if err := m.store.Save(state); err != nil {
		return err
	}

	m.state = state
	m.lastActivity = now
	m.logger.Debug("Session started", "role", role)

	return nil
}

// Touch records user activity
func (m *Manager) Touch() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Authenticated {
		m.lastActivity = m.now()
	}
}

// Focus is called when user returns to the client
func (m *Manager) Focus() bool {
	return m.Check()
}

// Check logs out expired session. Returns true if session is alive after the check
func (m *Manager) Check() bool {
	m.mu.Lock()
	if !m.state.Authenticated {
		m.mu.Unlock()
		return false
	}

	now := m.now()
	var reason string
	switch {
	case now.Sub(m.state.SessionStart) > m.maxAge:
		reason = ReasonExpired
	case now.Sub(m.lastActivity) > m.idleTimeout:
		reason = ReasonIdle
	default:
		m.mu.Unlock()
		return true
	}
	m.mu.Unlock()

	m.Logout(reason)
	return false
}

// Logout clears session state. Hook is called even if there was no session
func (m *Manager) Logout(reason string) {
	m.mu.Lock()
	wasAuthenticated := m.state.Authenticated
	m.state = State{}
	if err := m.store.Clear(); err != nil {
		m.logger.Error("Failed to clear session store", "error", err)
	}
	m.mu.Unlock()

	if wasAuthenticated {
		m.logger.Info("Session ended", "reason", reason)
	}
	m.onLogout(reason)
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Token is the access token of alive session, empty otherwise
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Token
}

// Run checks session every interval and logs out on unauthorized signal
// Returned channel is closed when the loop stopped
func (m *Manager) Run(ctx context.Context) <-chan struct{} {
	stopped := make(chan struct{})
	signals, unsubscribe := m.bus.Subscribe()

	go func() {
		defer close(stopped)
		defer unsubscribe()

		ticker := time.NewTicker(m.checkInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				// Signal published right before stop is still served
				select {
				case sig := <-signals:
					m.unauthorized(sig)
				default:
				}
				m.logger.Debug("Session manager stopped by context")
				return

			case <-ticker.C:
				m.Check()

			case sig := <-signals:
				m.unauthorized(sig)
			}
		}
	}()

	return stopped
}

func (m *Manager) unauthorized(sig Signal) {
	if !m.State().Authenticated {
		return
	}

	reason := sig.Message
	if reason == "" {
		reason = ReasonUnauthorized
	}
	m.Logout(reason)
}
