package client

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/nkiryanov/jobboard/internal/session"
)

type tokenSource interface {
	// Access token to send, empty for anonymous requests
	Token() string
}

// Transport authenticates requests with bearer token
// and publishes every 401 response to the session bus
type Transport struct {
	Base   http.RoundTripper
	Tokens tokenSource
	Bus    *session.Bus
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	if t.Tokens != nil {
		if token := t.Tokens.Token(); token != "" && req.Header.Get("Authorization") == "" {
			req = req.Clone(req.Context())
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := base.RoundTrip(req)
	if err != nil || resp.StatusCode != http.StatusUnauthorized || t.Bus == nil {
		return resp, err
	}

	// Body is read to take server message and put back for the caller
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	t.Bus.Publish(session.Signal{Status: resp.StatusCode, Message: errorMessage(body)})

	return resp, nil
}

func errorMessage(body []byte) string {
	var e struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &e)
	return e.Message
}
