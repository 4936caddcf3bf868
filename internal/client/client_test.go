package client

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/jobboard/internal/models"
	"github.com/nkiryanov/jobboard/internal/session"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func TestTransport(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path == "/denied" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error": "service_error", "message": "Unauthorized"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	bus := session.NewBus()
	signals, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	httpClient := &http.Client{Transport: &Transport{Tokens: staticToken("tkn"), Bus: bus}}

	t.Run("bearer header set", func(t *testing.T) {
		resp, err := httpClient.Get(srv.URL + "/ok")
		require.NoError(t, err)
		_ = resp.Body.Close()

		assert.Equal(t, "Bearer tkn", gotAuth)
		assert.Empty(t, signals, "no signal on success")
	})

	t.Run("401 published and body kept", func(t *testing.T) {
		resp, err := httpClient.Get(srv.URL + "/denied")
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		_ = resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Contains(t, string(body), "Unauthorized", "caller still reads the body")

		select {
		case sig := <-signals:
			assert.Equal(t, session.Signal{Status: http.StatusUnauthorized, Message: "Unauthorized"}, sig)
		default:
			t.Fatal("signal not published")
		}
	})

	t.Run("anonymous without token", func(t *testing.T) {
		anon := &http.Client{Transport: &Transport{Tokens: staticToken("")}}
		resp, err := anon.Get(srv.URL + "/ok")
		require.NoError(t, err)
		_ = resp.Body.Close()

		assert.Empty(t, gotAuth)
	})
}

func TestClient(t *testing.T) {
	jobID := uuid.New()
	appID := uuid.New()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/users/login", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["password"] != "right" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error": "service_error", "message": "unauthenticated: password is incorrect"}`))
			return
		}
		_, _ = w.Write([]byte(`{"user": {"email": "nk@example.com", "role": "company"}, "role": "company", "profileCompleted": true, "accessToken": "a", "refreshToken": "r"}`))
	})
	mux.HandleFunc("POST /api/v1/applications/apply", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		require.Equal(t, jobID.String(), req["jobId"])

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": appID, "jobId": jobID, "status": "Applied"})
	})
	mux.HandleFunc("POST /api/v1/subscription/create", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PaymentID string          `json:"paymentId"`
			Amount    decimal.Decimal `json:"amount"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"paymentId": req.PaymentID, "amount": req.Amount, "jobPostLimit": 50, "status": "active"})
	})
	mux.HandleFunc("POST /api/v1/postJobs/postJob", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": "service_error", "message": "job post limit reached"}`))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL+"/", nil, nil, nil)

	t.Run("login ok", func(t *testing.T) {
		login, err := c.Login(t.Context(), "nk@example.com", "right")
		require.NoError(t, err)

		assert.Equal(t, models.RoleCompany, login.Role)
		assert.True(t, login.ProfileCompleted)
		assert.Equal(t, "a", login.AccessToken)
	})

	t.Run("login failed", func(t *testing.T) {
		_, err := c.Login(t.Context(), "nk@example.com", "wrong")

		require.True(t, IsStatus(err, http.StatusUnauthorized))
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "unauthenticated: password is incorrect", apiErr.Message)
	})

	t.Run("apply", func(t *testing.T) {
		app, err := c.Apply(t.Context(), jobID)
		require.NoError(t, err)

		assert.Equal(t, appID, app.ID)
		assert.Equal(t, models.StatusApplied, app.Status)
	})

	t.Run("subscription amount", func(t *testing.T) {
		sub, err := c.CreateSubscription(t.Context(), "pay_1", decimal.RequireFromString("49.99"))
		require.NoError(t, err)

		assert.Equal(t, "pay_1", sub.PaymentID)
		assert.True(t, decimal.RequireFromString("49.99").Equal(sub.Amount))
	})

	t.Run("quota error", func(t *testing.T) {
		_, err := c.PostJob(t.Context(), Job{Title: "Go"})

		assert.True(t, IsStatus(err, http.StatusForbidden))
		assert.False(t, IsStatus(err, http.StatusUnauthorized))
	})

	t.Run("unknown route", func(t *testing.T) {
		_, err := c.ListJobs(t.Context())
		assert.True(t, IsStatus(err, http.StatusNotFound))
	})
}
