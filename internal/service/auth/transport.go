package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/nkiryanov/jobboard/internal/apperrors"
	"github.com/nkiryanov/jobboard/internal/models"
)

const (
	defaultAccessHeaderName  = "Authorization"
	defaultAccessAuthScheme  = "Bearer"
	defaultAccessCookieName  = "accessToken"
	defaultRefreshCookieName = "refreshToken"
)

type Config struct {
	// Hasher to use during user registration or login process
	// Bcrypt is used if not set
	Hasher PasswordHasher

	// Where access token is read from: header first, cookie second
	AccessHeaderName string
	AccessAuthScheme string
	AccessCookieName string

	RefreshCookieName string

	// Set cookies without Secure flag. For local http only
	InsecureCookies bool
}

// How tokens travel over http
type transport struct {
	accessHeaderName  string
	accessAuthScheme  string
	accessCookieName  string
	refreshCookieName string
	secure            bool
}

func newTransport(cfg Config) transport {
	def := func(value string, fallback string) string {
		if value == "" {
			return fallback
		}
		return value
	}

	return transport{
		accessHeaderName:  def(cfg.AccessHeaderName, defaultAccessHeaderName),
		accessAuthScheme:  def(cfg.AccessAuthScheme, defaultAccessAuthScheme),
		accessCookieName:  def(cfg.AccessCookieName, defaultAccessCookieName),
		refreshCookieName: def(cfg.RefreshCookieName, defaultRefreshCookieName),
		secure:            !cfg.InsecureCookies,
	}
}

// Set both tokens as httpOnly cookies
func (t transport) SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair) {
	http.SetCookie(w, t.cookie(t.accessCookieName, pair.Access))
	http.SetCookie(w, t.cookie(t.refreshCookieName, pair.Refresh))
}

// Expire both token cookies
func (t transport) ClearTokens(w http.ResponseWriter) {
	for _, name := range []string{t.accessCookieName, t.refreshCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   t.secure,
			SameSite: http.SameSiteStrictMode,
		})
	}
}

// Get access token from request: Authorization header is preferred over cookie
func (t transport) GetAccessString(r *http.Request) (string, error) {
	if header := r.Header.Get(t.accessHeaderName); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, t.accessAuthScheme) || strings.TrimSpace(token) == "" {
			return "", errors.Join(apperrors.ErrUnauthenticated, apperrors.ErrTokenMalformed)
		}
		return strings.TrimSpace(token), nil
	}

	cookie, err := r.Cookie(t.accessCookieName)
	if err != nil || cookie.Value == "" {
		return "", apperrors.ErrUnauthenticated
	}

	return cookie.Value, nil
}

// Get refresh token from the cookie
func (t transport) GetRefreshString(r *http.Request) (string, error) {
	cookie, err := r.Cookie(t.refreshCookieName)
	if err != nil || cookie.Value == "" {
		return "", apperrors.ErrUnauthenticated
	}

	return cookie.Value, nil
}

func (t transport) cookie(name string, token models.IssuedToken) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    token.Value,
		Path:     "/",
		MaxAge:   int(time.Until(token.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   t.secure,
		SameSite: http.SameSiteStrictMode,
	}
}
