package session

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/nkiryanov/jobboard/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Records logout reasons
type logouts struct {
	mu      sync.Mutex
	reasons []string
	done    chan string
}

func newLogouts() *logouts {
	return &logouts{done: make(chan string, 10)}
}

func (l *logouts) hook(reason string) {
	l.mu.Lock()
	l.reasons = append(l.reasons, reason)
	l.mu.Unlock()
	l.done <- reason
}

func (l *logouts) last() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.reasons) == 0 {
		return ""
	}
	return l.reasons[len(l.reasons)-1]
}

var t0 = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func newManager(t *testing.T, cfg Config) (*Manager, *fakeClock, *logouts, *FileStore) {
	t.Helper()

	clock := &fakeClock{now: t0}
	out := newLogouts()
	store := NewFileStore(filepath.Join(t.TempDir(), "session.yaml"))

	cfg.Now = clock.Now
	cfg.OnLogout = out.hook

	m, err := NewManager(cfg, store, NewBus())
	require.NoError(t, err)

	return m, clock, out, store
}

func TestManager_Timeouts(t *testing.T) {
	t.Run("idle timeout", func(t *testing.T) {
		m, clock, out, store := newManager(t, Config{})
		require.NoError(t, m.Login("token", models.RoleJobseeker))

		clock.Advance(59 * time.Minute)
		require.True(t, m.Check(), "session is alive before idle timeout")

		clock.Advance(2 * time.Minute)
		require.False(t, m.Check(), "no activity for 61 minutes")

		assert.Equal(t, ReasonIdle, out.last())
		assert.False(t, m.State().Authenticated)

		stored, err := store.Load()
		require.NoError(t, err)
		assert.Equal(t, State{}, stored, "store is cleared")
	})

	t.Run("absolute timeout despite activity", func(t *testing.T) {
		m, clock, out, _ := newManager(t, Config{})
		require.NoError(t, m.Login("token", models.RoleCompany))

		// Active every 30 minutes up to 5h59m
		for elapsed := 30 * time.Minute; elapsed < 6*time.Hour; elapsed += 30 * time.Minute {
			clock.Advance(30 * time.Minute)
			m.Touch()
		}
		clock.Advance(29 * time.Minute) // 5h59m
		m.Touch()
		require.True(t, m.Check())

		clock.Advance(2 * time.Minute) // 6h01m, idle only 2 minutes
		require.False(t, m.Check())
		assert.Equal(t, ReasonExpired, out.last())
	})

	t.Run("focus checks session", func(t *testing.T) {
		m, clock, out, _ := newManager(t, Config{})
		require.NoError(t, m.Login("token", models.RoleAdmin))

		clock.Advance(61 * time.Minute)
		require.False(t, m.Focus())
		assert.Equal(t, ReasonIdle, out.last())
	})

	t.Run("check without session", func(t *testing.T) {
		m, _, out, _ := newManager(t, Config{})

		require.False(t, m.Check())
		assert.Empty(t, out.reasons, "no logout without session")
	})

	t.Run("custom timeouts", func(t *testing.T) {
		m, clock, _, _ := newManager(t, Config{IdleTimeout: time.Minute, MaxAge: time.Hour})
		require.NoError(t, m.Login("token", models.RoleAdmin))

		clock.Advance(61 * time.Second)
		require.False(t, m.Check())
	})
}

func TestManager_Persistence(t *testing.T) {
	t.Run("login saved and restored", func(t *testing.T) {
		m, clock, _, store := newManager(t, Config{})
		require.NoError(t, m.Login("token-1", models.RoleCompany))

		stored, err := store.Load()
		require.NoError(t, err)
		assert.True(t, stored.Authenticated)
		assert.Equal(t, models.RoleCompany, stored.Role)
		assert.Equal(t, "token-1", stored.Token)
		assert.True(t, t0.Equal(stored.SessionStart), "session start: %s", stored.SessionStart)

		// Restart client two hours later: session start is kept, activity is now
		clock.Advance(2 * time.Hour)
		restored, err := NewManager(Config{Now: clock.Now}, store, NewBus())
		require.NoError(t, err)

		assert.Equal(t, "token-1", restored.Token())
		assert.True(t, restored.Check())

		clock.Advance(4*time.Hour + time.Minute)
		restored.Touch()
		assert.False(t, restored.Check(), "absolute age counts from the first login")
	})

	t.Run("manual logout", func(t *testing.T) {
		m, _, out, store := newManager(t, Config{})
		require.NoError(t, m.Login("token", models.RoleJobseeker))

		m.Logout("")

		assert.Empty(t, m.Token())
		assert.Equal(t, []string{""}, out.reasons)
		_, err := os.Stat(store.path)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("broken file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "session.yaml")
		require.NoError(t, os.WriteFile(path, []byte("authenticated: [oops"), 0o600))

		_, err := NewManager(Config{}, NewFileStore(path), NewBus())
		require.Error(t, err)
	})
}

func TestManager_Run(t *testing.T) {
	t.Run("unauthorized signal logs out", func(t *testing.T) {
		m, _, out, _ := newManager(t, Config{CheckInterval: time.Hour})
		require.NoError(t, m.Login("token", models.RoleJobseeker))

		ctx, cancel := context.WithCancel(t.Context())
		stopped := m.Run(ctx)
		defer func() {
			cancel()
			<-stopped
		}()

		// Publish until manager subscribed and received the signal
		require.Eventually(t, func() bool {
			return m.bus.Publish(Signal{Status: 401, Message: "jwt expired"}) > 0
		}, time.Second, time.Millisecond)

		select {
		case reason := <-out.done:
			assert.Equal(t, "jwt expired", reason)
		case <-time.After(time.Second):
			t.Fatal("manager did not log out")
		}
		assert.False(t, m.State().Authenticated)
	})

	t.Run("signal without session ignored", func(t *testing.T) {
		m, _, out, _ := newManager(t, Config{CheckInterval: time.Hour})

		ctx, cancel := context.WithCancel(t.Context())
		stopped := m.Run(ctx)

		require.Eventually(t, func() bool {
			return m.bus.Publish(Signal{Status: 401}) > 0
		}, time.Second, time.Millisecond)

		cancel()
		<-stopped
		assert.Empty(t, out.reasons)
	})

	t.Run("pending signal served on stop", func(t *testing.T) {
		m, _, out, _ := newManager(t, Config{CheckInterval: time.Hour})
		require.NoError(t, m.Login("token", models.RoleCompany))

		ctx, cancel := context.WithCancel(t.Context())
		stopped := m.Run(ctx)

		require.Equal(t, 1, m.bus.Publish(Signal{Status: 401}))
		cancel()
		<-stopped

		assert.False(t, m.State().Authenticated)
		assert.Equal(t, ReasonUnauthorized, out.last())
	})

	t.Run("ticker checks idle", func(t *testing.T) {
		m, clock, out, _ := newManager(t, Config{CheckInterval: 5 * time.Millisecond})
		require.NoError(t, m.Login("token", models.RoleJobseeker))

		ctx, cancel := context.WithCancel(t.Context())
		stopped := m.Run(ctx)
		defer func() {
			cancel()
			<-stopped
		}()

		clock.Advance(61 * time.Minute)

		select {
		case reason := <-out.done:
			assert.Equal(t, ReasonIdle, reason)
		case <-time.After(time.Second):
			t.Fatal("ticker did not log out idle session")
		}
	})
}

func TestBus(t *testing.T) {
	bus := NewBus()

	first, unsubscribeFirst := bus.Subscribe()
	second, unsubscribeSecond := bus.Subscribe()
	defer unsubscribeSecond()

	require.Equal(t, 2, bus.Publish(Signal{Status: 401}))
	require.Equal(t, 0, bus.Publish(Signal{Status: 401}), "subscribers did not read, publisher must not block")

	assert.Equal(t, 401, (<-first).Status)
	assert.Equal(t, 401, (<-second).Status)

	unsubscribeFirst()
	unsubscribeFirst()
	require.Equal(t, 1, bus.Publish(Signal{Status: 401}))
}
