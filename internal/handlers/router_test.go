package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nkiryanov/jobboard/internal/logger"
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
	"github.com/nkiryanov/jobboard/internal/testutil"
)

// Keeps the last sent message
type lastMessage struct {
	msg notify.Message
}

func (s *lastMessage) Send(_ context.Context, msg notify.Message) error {
	s.msg = msg
	return nil
}

var otpPattern = regexp.MustCompile(`\d{6}`)

// Test client for the api
type api struct {
	t   *testing.T
	url string
}

// Make request and return status code with body
// Token is sent in Authorization header if not empty
func (a api) do(method string, path string, token string, body string) (int, string) {
	a.t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(a.t.Context(), method, a.url+"/api/v1"+path, reader)
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(a.t, err)
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)

	return resp.StatusCode, string(data)
}

type loginBody struct {
	User struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
	Role             string `json:"role"`
	ProfileCompleted bool   `json:"profileCompleted"`
	AccessToken      string `json:"accessToken"`
	RefreshToken     string `json:"refreshToken"`
}

// Register user with role and return access token
func (a api) register(email string, role string) string {
	a.t.Helper()

	code, body := a.do(http.MethodPost, "/users/register", "", fmt.Sprintf(
		`{"firstName": "Nikita", "lastName": "K", "email": %q, "password": "StrongEnoughPassword", "role": %q}`, email, role,
	))
	require.Equalf(a.t, http.StatusCreated, code, "register failed: %s", body)

	var login loginBody
	require.NoError(a.t, json.Unmarshal([]byte(body), &login))
	return login.AccessToken
}

func (a api) postJob(token string, title string) (int, string) {
	return a.do(http.MethodPost, "/postJobs/postJob", token, fmt.Sprintf(`{
		"title": %q,
		"companyName": "Gophers Inc",
		"location": "Remote",
		"jobType": "Full-time",
		"experienceLevel": "Senior-level",
		"applicationDeadline": "2099-01-01T00:00:00Z",
		"description": "Write Go",
		"skills": ["go", "postgres"]
	}`, title))
}

func idOf(t *testing.T, body string) string {
	var v struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &v), body)
	require.NotEmpty(t, v.ID)
	return v.ID
}

func Test_Router(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Run http server with production services on top of test transaction
	withServer := func(t *testing.T, fn func(a api, mail *lastMessage, store repository.Storage)) {
		testutil.InTx(pg.Pool, t, func(store repository.Storage) {
			tm, err := tokenmanager.New(tokenmanager.Config{SecretKey: "test-secret"}, store.User())
			require.NoError(t, err)

			mail := &lastMessage{}
			otpService, err := otp.NewService(otp.Config{}, store.User(), mail)
			require.NoError(t, err)

			authService, err := auth.NewService(auth.Config{Hasher: auth.BcryptHasher{Cost: bcrypt.MinCost}, InsecureCookies: true}, tm, otpService, store)
			require.NoError(t, err)

			router := NewRouter(
				authService,
				job.NewService(store, quota.New(store, nil)),
				application.NewService(store),
				subscription.NewService(subscription.Config{}, store),
				profile.NewService(store),
				logger.NewNoOpLogger(),
			)

			srv := httptest.NewServer(router)
			defer srv.Close()

			fn(api{t: t, url: srv.URL}, mail, store)
		})
	}

	t.Run("register and login", func(t *testing.T) {
		withServer(t, func(a api, _ *lastMessage, _ repository.Storage) {
			a.register("nk@example.com", "jobseeker")

			code, body := a.do(http.MethodPost, "/users/login", "", `{"email": "nk@example.com", "password": "StrongEnoughPassword"}`)
			require.Equalf(t, http.StatusOK, code, "body: %s", body)

			var login loginBody
			require.NoError(t, json.Unmarshal([]byte(body), &login))
			assert.Equal(t, "jobseeker", login.Role)
			assert.Equal(t, "nk@example.com", login.User.Email)
			assert.False(t, login.ProfileCompleted)
			assert.NotEmpty(t, login.AccessToken)
			assert.NotEmpty(t, login.RefreshToken)

			code, _ = a.do(http.MethodPost, "/users/login", "", `{"email": "nk@example.com", "password": "WrongPassword"}`)
			assert.Equal(t, http.StatusUnauthorized, code)

			code, _ = a.do(http.MethodPost, "/users/login", "", `{"email": "nobody@example.com", "password": "WrongPassword"}`)
			assert.Equal(t, http.StatusNotFound, code)
		})
	})

	t.Run("register validation and conflict", func(t *testing.T) {
		withServer(t, func(a api, _ *lastMessage, _ repository.Storage) {
			code, body := a.do(http.MethodPost, "/users/register", "", `{"email": "not-email", "password": "short", "role": "root"}`)
			require.Equal(t, http.StatusBadRequest, code)
			assert.Contains(t, body, "validation_failed")

			a.register("nk@example.com", "company")

			code, body = a.do(http.MethodPost, "/users/register", "", `{"firstName": "A", "lastName": "B", "email": "new@example.com", "password": "StrongEnoughPassword"}`)
			require.Equal(t, http.StatusBadRequest, code, "role is required")
			assert.Contains(t, body, `"role":"This field is required"`)

			code, _ = a.do(http.MethodPost, "/users/register", "", `{"firstName": "A", "lastName": "B", "email": "NK@example.com", "password": "StrongEnoughPassword", "role": "jobseeker"}`)
			assert.Equal(t, http.StatusConflict, code)
		})
	})

	t.Run("login sets cookies", func(t *testing.T) {
		withServer(t, func(a api, _ *lastMessage, _ repository.Storage) {
			a.register("nk@example.com", "jobseeker")

			resp, err := http.Post(a.url+"/api/v1/users/login", "application/json",
				strings.NewReader(`{"email": "nk@example.com", "password": "StrongEnoughPassword"}`))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			cookies := map[string]*http.Cookie{}
			for _, c := range resp.Cookies() {
				cookies[c.Name] = c
			}
			require.Contains(t, cookies, "accessToken")
			require.Contains(t, cookies, "refreshToken")
			assert.True(t, cookies["refreshToken"].HttpOnly)
			assert.Equal(t, http.SameSiteStrictMode, cookies["refreshToken"].SameSite)

			// Cookie alone authenticates request
			req, err := http.NewRequest(http.MethodGet, a.url+"/api/v1/users/current-user", nil)
			require.NoError(t, err)
			req.AddCookie(cookies["accessToken"])
			me, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer func() { _ = me.Body.Close() }()
			assert.Equal(t, http.StatusOK, me.StatusCode)

			// Refresh reads refresh cookie
			req, err = http.NewRequest(http.MethodPost, a.url+"/api/v1/users/refresh", nil)
			require.NoError(t, err)
			req.AddCookie(cookies["refreshToken"])
			refreshed, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer func() { _ = refreshed.Body.Close() }()
			assert.Equal(t, http.StatusOK, refreshed.StatusCode)
		})
	})

	t.Run("otp login single use", func(t *testing.T) {
		withServer(t, func(a api, mail *lastMessage, _ repository.Storage) {
			a.register("nk@example.com", "jobseeker")

			code, _ := a.do(http.MethodPost, "/users/send-otp", "", `{"email": "nobody@example.com"}`)
			require.Equal(t, http.StatusNotFound, code)

			code, body := a.do(http.MethodPost, "/users/send-otp", "", `{"email": "nk@example.com"}`)
			require.Equalf(t, http.StatusOK, code, "body: %s", body)
			otpCode := otpPattern.FindString(mail.msg.HTML)
			require.NotEmpty(t, otpCode)

			login := fmt.Sprintf(`{"email": "nk@example.com", "otp": %q}`, otpCode)

			code, body = a.do(http.MethodPost, "/users/login-otp", "", login)
			require.Equalf(t, http.StatusOK, code, "body: %s", body)

			code, _ = a.do(http.MethodPost, "/users/login-otp", "", login)
			require.Equal(t, http.StatusUnauthorized, code, "code is consumed")
		})
	})

	t.Run("auth required", func(t *testing.T) {
		withServer(t, func(a api, _ *lastMessage, _ repository.Storage) {
			for _, route := range []struct{ method, path string }{
				{http.MethodGet, "/users/current-user"},
				{http.MethodPost, "/users/logout"},
				{http.MethodPost, "/applications/apply"},
				{http.MethodPost, "/applications/update-status"},
				{http.MethodPost, "/subscription/create"},
				{http.MethodPost, "/postJobs/postJob"},
				{http.MethodGet, "/profile"},
			} {
				code, _ := a.do(route.method, route.path, "", "")
				assert.Equalf(t, http.StatusUnauthorized, code, "%s %s", route.method, route.path)

				code, _ = a.do(route.method, route.path, "garbage.token.value", "")
				assert.Equalf(t, http.StatusUnauthorized, code, "%s %s with bad token", route.method, route.path)
			}

			code, _ := a.do(http.MethodGet, "/postJobs/getAllJobs", "", "")
			assert.Equal(t, http.StatusOK, code, "job list is public")
		})
	})

	t.Run("logout revokes refresh only", func(t *testing.T) {
		withServer(t, func(a api, _ *lastMessage, _ repository.Storage) {
			token := a.register("nk@example.com", "jobseeker")

			code, _ := a.do(http.MethodPost, "/users/logout", token, "")
			require.Equal(t, http.StatusOK, code)

			code, _ = a.do(http.MethodGet, "/users/current-user", token, "")
			assert.Equal(t, http.StatusOK, code, "access token lives until expiry")
		})
	})

	t.Run("admin lists users", func(t *testing.T) {
		withServer(t, func(a api, _ *lastMessage, _ repository.Storage) {
			seeker := a.register("seeker@example.com", "jobseeker")
			admin := a.register("admin@example.com", "admin")

			code, _ := a.do(http.MethodGet, "/users/get-allUser", seeker, "")
			assert.Equal(t, http.StatusForbidden, code)

			code, body := a.do(http.MethodGet, "/users/get-allUser", admin, "")
			require.Equal(t, http.StatusOK, code)

			var users struct {
				Jobseekers []userResponse `json:"jobseekers"`
				Companies  []userResponse `json:"companies"`
				Admins     []userResponse `json:"admins"`
			}
			require.NoError(t, json.Unmarshal([]byte(body), &users))
			assert.Len(t, users.Jobseekers, 1)
			assert.Empty(t, users.Companies)
			assert.Len(t, users.Admins, 1)
		})
	})

	t.Run("update auth profile and password", func(t *testing.T) {
		withServer(t, func(a api, _ *lastMessage, _ repository.Storage) {
			token := a.register("nk@example.com", "jobseeker")
			a.register("taken@example.com", "jobseeker")

			code, body := a.do(http.MethodPatch, "/users/update-auth-profile", token, `{"firstName": "Nick"}`)
			require.Equalf(t, http.StatusOK, code, "body: %s", body)
			assert.Contains(t, body, `"firstName":"Nick"`)

			code, _ = a.do(http.MethodPatch, "/users/update-auth-profile", token, `{"email": "taken@example.com"}`)
			assert.Equal(t, http.StatusConflict, code)

			code, _ = a.do(http.MethodPut, "/users/change-password", token, `{"oldPassword": "wrong", "newPassword": "AnotherStrongPassword"}`)
			assert.Equal(t, http.StatusUnauthorized, code)

			code, _ = a.do(http.MethodPut, "/users/change-password", token, `{"oldPassword": "StrongEnoughPassword", "newPassword": "AnotherStrongPassword"}`)
			require.Equal(t, http.StatusOK, code)

			code, _ = a.do(http.MethodPost, "/users/login", "", `{"email": "nk@example.com", "password": "AnotherStrongPassword"}`)
			assert.Equal(t, http.StatusOK, code)
		})
	})

	// Company without subscription posts 5 jobs, 6th is rejected until subscription is bought
	t.Run("job quota scenario", func(t *testing.T) {
		withServer(t, func(a api, _ *lastMessage, _ repository.Storage) {
			company := a.register("company@example.com", "company")

			for i := range 5 {
				code, body := a.postJob(company, fmt.Sprintf("Job %d", i))
				require.Equalf(t, http.StatusCreated, code, "body: %s", body)
			}

			code, body := a.postJob(company, "Job 6")
			require.Equal(t, http.StatusForbidden, code)
			assert.Contains(t, body, "job post limit reached")

			code, body = a.do(http.MethodPost, "/subscription/create", company, `{"paymentId": "pay_1", "amount": "99.90"}`)
			require.Equalf(t, http.StatusCreated, code, "body: %s", body)
			assert.Contains(t, body, `"jobPostLimit":50`)

			code, _ = a.postJob(company, "Job 6")
			require.Equal(t, http.StatusCreated, code)

			code, body = a.do(http.MethodGet, "/postJobs/getAllJob", company, "")
			require.Equal(t, http.StatusOK, code)
			var jobs []jobResponse
			require.NoError(t, json.Unmarshal([]byte(body), &jobs))
			assert.Len(t, jobs, 6)
		})
	})

	t.Run("job role and ownership", func(t *testing.T) {
		withServer(t, func(a api, _ *lastMessage, _ repository.Storage) {
			owner := a.register("owner@example.com", "company")
			other := a.register("other@example.com", "company")
			seeker := a.register("seeker@example.com", "jobseeker")

			code, _ := a.postJob(seeker, "Job")
			assert.Equal(t, http.StatusForbidden, code)

			code, body := a.postJob(owner, "Job")
			require.Equal(t, http.StatusCreated, code)
			jobID := idOf(t, body)

			code, _ = a.do(http.MethodPut, "/postJobs/updateJob/"+jobID, other, `{"title": "Mine now"}`)
			assert.Equal(t, http.StatusForbidden, code)

			code, body = a.do(http.MethodPut, "/postJobs/updateJob/"+jobID, owner, `{"title": "Senior Go developer"}`)
			require.Equal(t, http.StatusOK, code)
			assert.Contains(t, body, "Senior Go developer")

			code, _ = a.do(http.MethodPut, "/postJobs/updateJob/not-uuid", owner, `{}`)
			assert.Equal(t, http.StatusBadRequest, code)

			code, _ = a.do(http.MethodDelete, "/postJobs/JobDelete/"+jobID, other, "")
			assert.Equal(t, http.StatusForbidden, code)

			code, _ = a.do(http.MethodDelete, "/postJobs/JobDelete/"+jobID, owner, "")
			require.Equal(t, http.StatusOK, code)

			code, _ = a.do(http.MethodDelete, "/postJobs/JobDelete/"+jobID, owner, "")
			assert.Equal(t, http.StatusNotFound, code)
		})
	})

	// Jobseeker B applies to job J twice, owner C shortlists, foreign company D is forbidden
	t.Run("application scenario", func(t *testing.T) {
		withServer(t, func(a api, _ *lastMessage, _ repository.Storage) {
			owner := a.register("c@example.com", "company")
			foreign := a.register("d@example.com", "company")
			seeker := a.register("b@example.com", "jobseeker")

			_, body := a.postJob(owner, "Job J")
			jobID := idOf(t, body)
			apply := fmt.Sprintf(`{"jobId": %q}`, jobID)

			code, body := a.do(http.MethodPost, "/applications/apply", seeker, apply)
			require.Equalf(t, http.StatusCreated, code, "body: %s", body)
			assert.Contains(t, body, `"status":"Applied"`)
			appID := idOf(t, body)

			code, _ = a.do(http.MethodPost, "/applications/apply", seeker, apply)
			require.Equal(t, http.StatusConflict, code)

			update := func(status string) string {
				return fmt.Sprintf(`{"applicationId": %q, "status": %q}`, appID, status)
			}

			code, body = a.do(http.MethodPost, "/applications/update-status", owner, update("Shortlisted"))
			require.Equalf(t, http.StatusOK, code, "body: %s", body)
			assert.Contains(t, body, `"status":"Shortlisted"`)

			code, _ = a.do(http.MethodPost, "/applications/update-status", foreign, update("Shortlisted"))
			require.Equal(t, http.StatusForbidden, code)

			code, _ = a.do(http.MethodPost, "/applications/update-status", owner, update("Hired"))
			require.Equal(t, http.StatusBadRequest, code)

			code, body = a.do(http.MethodGet, "/applications/my-applications", seeker, "")
			require.Equal(t, http.StatusOK, code)
			assert.Contains(t, body, "Job J")

			code, body = a.do(http.MethodGet, "/applications/company-applications", owner, "")
			require.Equal(t, http.StatusOK, code)
			assert.Contains(t, body, "b@example.com")

			code, _ = a.do(http.MethodGet, "/applications/company-applications", seeker, "")
			assert.Equal(t, http.StatusForbidden, code)
		})
	})

	t.Run("apply to unknown job", func(t *testing.T) {
		withServer(t, func(a api, _ *lastMessage, _ repository.Storage) {
			seeker := a.register("b@example.com", "jobseeker")

			code, _ := a.do(http.MethodPost, "/applications/apply", seeker, `{"jobId": "7b0d5a0e-3d2b-4c77-9f7a-2f4e1f0b9a11"}`)
			assert.Equal(t, http.StatusNotFound, code)

			code, _ = a.do(http.MethodPost, "/applications/apply", seeker, `{"jobId": "nope"}`)
			assert.Equal(t, http.StatusBadRequest, code)
		})
	})

	t.Run("subscription lifecycle", func(t *testing.T) {
		withServer(t, func(a api, _ *lastMessage, _ repository.Storage) {
			company := a.register("company@example.com", "company")
			seeker := a.register("seeker@example.com", "jobseeker")

			code, _ := a.do(http.MethodPost, "/subscription/create", seeker, `{"paymentId": "pay_1"}`)
			assert.Equal(t, http.StatusForbidden, code)

			code, _ = a.do(http.MethodGet, "/subscription/getAllSubscription", company, "")
			assert.Equal(t, http.StatusNotFound, code)

			code, _ = a.do(http.MethodPost, "/subscription/create", company, `{"paymentId": "pay_1", "amount": 10}`)
			require.Equal(t, http.StatusCreated, code)

			code, _ = a.do(http.MethodPost, "/subscription/create", company, `{"paymentId": "pay_2", "amount": 10}`)
			assert.Equal(t, http.StatusConflict, code)

			code, body := a.do(http.MethodPost, "/subscription/cancel", company, "")
			require.Equal(t, http.StatusOK, code)
			assert.Contains(t, body, `"status":"inactive"`)

			code, _ = a.do(http.MethodPost, "/subscription/cancel", company, "")
			assert.Equal(t, http.StatusBadRequest, code)
		})
	})

	t.Run("profile marks login completed", func(t *testing.T) {
		withServer(t, func(a api, _ *lastMessage, _ repository.Storage) {
			token := a.register("nk@example.com", "jobseeker")

			code, _ := a.do(http.MethodGet, "/profile", token, "")
			assert.Equal(t, http.StatusNotFound, code)

			code, body := a.do(http.MethodPost, "/profile", token, `{"headline": "Gopher"}`)
			require.Equalf(t, http.StatusCreated, code, "body: %s", body)

			code, _ = a.do(http.MethodPost, "/profile", token, `{"headline": "Gopher"}`)
			assert.Equal(t, http.StatusConflict, code)

			code, body = a.do(http.MethodPatch, "/profile", token, `{"city": "Tbilisi"}`)
			require.Equal(t, http.StatusOK, code)
			assert.Contains(t, body, "Tbilisi")
			assert.Contains(t, body, "Gopher")

			code, body = a.do(http.MethodPost, "/users/login", "", `{"email": "nk@example.com", "password": "StrongEnoughPassword"}`)
			require.Equal(t, http.StatusOK, code)
			assert.Contains(t, body, `"profileCompleted":true`)

			code, _ = a.do(http.MethodDelete, "/profile", token, "")
			assert.Equal(t, http.StatusOK, code)
		})
	})
}
