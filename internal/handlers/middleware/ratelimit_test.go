package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestRateLimiter(t *testing.T) {
	t.Run("per client bucket", func(t *testing.T) {
		now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		rl := NewRateLimiter(rate.Every(time.Minute), 2)
		rl.now = func() time.Time { return now }

		assert.True(t, rl.Allow("a"))
		assert.True(t, rl.Allow("a"))
		assert.False(t, rl.Allow("a"), "burst is exhausted")
		assert.True(t, rl.Allow("b"), "other client has own bucket")

		now = now.Add(time.Minute)
		assert.True(t, rl.Allow("a"), "one token refilled")
	})

	t.Run("idle clients evicted", func(t *testing.T) {
		now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		rl := NewRateLimiter(rate.Every(time.Hour), 1)
		rl.now = func() time.Time { return now }

		rl.Allow("a")
		now = now.Add(limiterIdleTTL + time.Second)
		rl.Allow("b")

		assert.NotContains(t, rl.clients, "a")
		assert.Contains(t, rl.clients, "b")
	})

	t.Run("middleware", func(t *testing.T) {
		rl := NewRateLimiter(rate.Every(time.Hour), 1)
		h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

		do := func() int {
			req := httptest.NewRequest(http.MethodPost, "/send-otp", nil)
			req.RemoteAddr = "10.0.0.1:4242"
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			return rec.Code
		}

		require.Equal(t, http.StatusNoContent, do())
		require.Equal(t, http.StatusTooManyRequests, do())
	})
}
