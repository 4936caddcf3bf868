package e2e

import (
	"context"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nkiryanov/jobboard/internal/client"
	"github.com/nkiryanov/jobboard/internal/handlers"
	"github.com/nkiryanov/jobboard/internal/logger"
	"github.com/nkiryanov/jobboard/internal/models"
	"github.com/nkiryanov/jobboard/internal/notify"
	"github.com/nkiryanov/jobboard/internal/repository"
	"github.com/nkiryanov/jobboard/internal/service/application"
	"github.com/nkiryanov/jobboard/internal/service/auth"
	"github.com/nkiryanov/jobboard/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/jobboard/internal/service/job"
	"github.com/nkiryanov/jobboard/internal/service/otp"
	"github.com/nkiryanov/jobboard/internal/service/profile"
	"github.com/nkiryanov/jobboard/internal/service/quota"
	"github.com/nkiryanov/jobboard/internal/service/subscription"
	"github.com/nkiryanov/jobboard/internal/session"
	"github.com/nkiryanov/jobboard/internal/testutil"
)

const AccessTTL = 15 * time.Minute

// Clock shared by server and client side, so tests may jump over token and session lifetimes
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Mailbox keeps one-time codes sent by server
type Mailbox struct {
	mu   sync.Mutex
	last notify.Message
}

var codePattern = regexp.MustCompile(`\d{6}`)

func (m *Mailbox) Send(_ context.Context, msg notify.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = msg
	return nil
}

// Code from the last message sent to the address
func (m *Mailbox) Code(t *testing.T, to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	require.Equal(t, to, m.last.To, "no code was sent to the address")
	code := codePattern.FindString(m.last.HTML)
	require.NotEmpty(t, code, "message has no code: %s", m.last.HTML)
	return code
}

type Server struct {
	URL     string
	Storage repository.Storage
	Mail    *Mailbox
	Clock   *Clock
}

// Create db transaction and run whole api on top of it (one connection cause one transaction)
// Requests must be sent one by one
func ServeInTx(dbpool *pgxpool.Pool, t *testing.T, fn func(srv Server)) {
	testutil.InTx(dbpool, t, func(store repository.Storage) {
		clock := &Clock{now: time.Now()}
		mail := &Mailbox{}

		tm, err := tokenmanager.New(tokenmanager.Config{SecretKey: "test-secret", AccessTTL: AccessTTL, Now: clock.Now}, store.User())
		require.NoError(t, err, "token manager should be created without errors")

		otpService, err := otp.NewService(otp.Config{Now: clock.Now}, store.User(), mail)
		require.NoError(t, err)

		as, err := auth.NewService(auth.Config{Hasher: auth.BcryptHasher{Cost: bcrypt.MinCost}, InsecureCookies: true}, tm, otpService, store)
		require.NoError(t, err, "auth service starting error")

		router := handlers.NewRouter(
			as,
			job.NewService(store, quota.New(store, clock.Now)),
			application.NewService(store),
			subscription.NewService(subscription.Config{Now: clock.Now}, store),
			profile.NewService(store),
			logger.NewNoOpLogger(),
		)

		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(Server{URL: srv.URL, Storage: store, Mail: mail, Clock: clock})
	})
}

// Session is a logged in api user as a client application sees it
type Session struct {
	*client.Client
	Manager *session.Manager

	mu      sync.Mutex
	reasons []string
}

// Last logout reason, empty if there was no logout
func (s *Session) LogoutReason() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.reasons) == 0 {
		return ""
	}
	return s.reasons[len(s.reasons)-1]
}

// Start client session: manager loop is running till the test end
func (srv Server) NewSession(t *testing.T) *Session {
	t.Helper()

	s := &Session{}
	bus := session.NewBus()

	m, err := session.NewManager(session.Config{
		Now: srv.Clock.Now,
		OnLogout: func(reason string) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.reasons = append(s.reasons, reason)
		},
	}, session.NewFileStore(t.TempDir()+"/session.yaml"), bus)
	require.NoError(t, err)

	s.Manager = m
	s.Client = client.New(srv.URL, m, bus, nil)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := m.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-stopped
	})

	return s
}

// Register user with the role and log the session in
func (s *Session) Register(t *testing.T, email string, role models.Role) client.Login {
	t.Helper()

	login, err := s.Client.Register(t.Context(), client.RegisterRequest{
		FirstName: "Test",
		LastName:  "User",
		Email:     email,
		Password:  "StrongEnoughPassword",
		Role:      role,
	})
	require.NoError(t, err)
	require.NoError(t, s.Manager.Login(login.AccessToken, login.Role))

	return login
}
