package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/jobboard/internal/logger"
	"github.com/nkiryanov/jobboard/internal/models"
	"github.com/nkiryanov/jobboard/internal/session"
)

const defaultTimeout = 10 * time.Second

// APIError is any non 2xx response
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("status: %d, message: %s", e.Status, e.Message)
}

func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Client of the job board api
type Client struct {
	BaseURL string

	client *http.Client
	logger logger.Logger
}

// New client sending tokens from the source. Bus and tokens may be nil
func New(baseURL string, tokens tokenSource, bus *session.Bus, l logger.Logger) *Client {
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout:   defaultTimeout,
			Transport: &Transport{Tokens: tokens, Bus: bus},
		},
		logger: l,
	}
}

func (c *Client) Register(ctx context.Context, r RegisterRequest) (Login, error) {
	var login Login
	err := c.do(ctx, http.MethodPost, "/users/register", r, &login)
	return login, err
}

func (c *Client) Login(ctx context.Context, email string, password string) (Login, error) {
	var login Login
	err := c.do(ctx, http.MethodPost, "/users/login", map[string]string{"email": email, "password": password}, &login)
	return login, err
}

func (c *Client) SendOTP(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/users/send-otp", map[string]string{"email": email}, nil)
}

func (c *Client) LoginOTP(ctx context.Context, email string, code string) (Login, error) {
	var login Login
	err := c.do(ctx, http.MethodPost, "/users/login-otp", map[string]string{"email": email, "otp": code}, &login)
	return login, err
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/users/logout", nil, nil)
}

func (c *Client) CurrentUser(ctx context.Context) (User, error) {
	var u User
	err := c.do(ctx, http.MethodGet, "/users/current-user", nil, &u)
	return u, err
}

func (c *Client) ChangePassword(ctx context.Context, oldPassword string, newPassword string) error {
	return c.do(ctx, http.MethodPut, "/users/change-password", map[string]string{"oldPassword": oldPassword, "newPassword": newPassword}, nil)
}

func (c *Client) ListJobs(ctx context.Context) ([]Job, error) {
	var jobs []Job
	err := c.do(ctx, http.MethodGet, "/postJobs/getAllJobs", nil, &jobs)
	return jobs, err
}

func (c *Client) ListOwnJobs(ctx context.Context) ([]Job, error) {
	var jobs []Job
	err := c.do(ctx, http.MethodGet, "/postJobs/getAllJob", nil, &jobs)
	return jobs, err
}

func (c *Client) PostJob(ctx context.Context, job Job) (Job, error) {
	var created Job
	err := c.do(ctx, http.MethodPost, "/postJobs/postJob", job, &created)
	return created, err
}

func (c *Client) DeleteJob(ctx context.Context, jobID uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/postJobs/JobDelete/"+jobID.String(), nil, nil)
}

func (c *Client) Apply(ctx context.Context, jobID uuid.UUID) (Application, error) {
	var app Application
	err := c.do(ctx, http.MethodPost, "/applications/apply", map[string]string{"jobId": jobID.String()}, &app)
	return app, err
}

func (c *Client) MyApplications(ctx context.Context) ([]Application, error) {
	var apps []Application
	err := c.do(ctx, http.MethodGet, "/applications/my-applications", nil, &apps)
	return apps, err
}

func (c *Client) CompanyApplications(ctx context.Context) ([]Application, error) {
	var apps []Application
	err := c.do(ctx, http.MethodGet, "/applications/company-applications", nil, &apps)
	return apps, err
}

func (c *Client) UpdateStatus(ctx context.Context, applicationID uuid.UUID, status models.ApplicationStatus) (Application, error) {
	var app Application
	body := map[string]string{"applicationId": applicationID.String(), "status": string(status)}
	err := c.do(ctx, http.MethodPost, "/applications/update-status", body, &app)
	return app, err
}

func (c *Client) CreateSubscription(ctx context.Context, paymentID string, amount decimal.Decimal) (Subscription, error) {
	var sub Subscription
	body := map[string]any{"paymentId": paymentID, "amount": amount}
	err := c.do(ctx, http.MethodPost, "/subscription/create", body, &sub)
	return sub, err
}

func (c *Client) GetSubscription(ctx context.Context) (Subscription, error) {
	var sub Subscription
	err := c.do(ctx, http.MethodGet, "/subscription/getAllSubscription", nil, &sub)
	return sub, err
}

func (c *Client) CancelSubscription(ctx context.Context) (Subscription, error) {
	var sub Subscription
	err := c.do(ctx, http.MethodPost, "/subscription/cancel", nil, &sub)
	return sub, err
}

// Send json request and decode json response to out if it is not nil
func (c *Client) do(ctx context.Context, method string, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+"/api/v1"+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(resp.Body)
		c.logger.Debug("Request failed", "method", method, "path", path, "status_code", resp.StatusCode)
		return &APIError{Status: resp.StatusCode, Message: errorMessage(data)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
