// Package session owns the browser session: which user is logged in and the
// per-session anti-forgery secret. Handlers never read the cookie directly;
// they receive a RequestContext built once per request by the middleware.
package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"anoa.com/warbler/internal/entity"
	"anoa.com/warbler/pkg/apperror"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

const (
	userKey = "curr_user"
	csrfKey = "csrf_nonce"

	contextKey = "request_context"

	CSRFHeader    = "X-CSRF-Token"
	CSRFFormField = "csrf_token"
)

// RequestContext is the explicit per-request state handed to handlers.
type RequestContext struct {
	User      *entity.User
	CSRFToken string
}

func (rc *RequestContext) IsAuthenticated() bool {
	return rc != nil && rc.User != nil
}

type Manager struct {
	store      sessions.Store
	name       string
	signingKey []byte
	csrfTTL    time.Duration
}

type Options struct {
	Secret  string
	Name    string
	CSRFTTL time.Duration
	Secure  bool
}

func NewManager(opts Options) *Manager {
	store := sessions.NewCookieStore(deriveKey(opts.Secret, "session-hash"), deriveKey(opts.Secret, "session-block")[:32])
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}

	ttl := opts.CSRFTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}

	return &Manager{
		store:      store,
		name:       opts.Name,
		signingKey: deriveKey(opts.Secret, "csrf"),
		csrfTTL:    ttl,
	}
}

// get never fails: an undecodable cookie yields a fresh session.
func (m *Manager) get(c *gin.Context) *sessions.Session {
	sess, err := m.store.Get(c.Request, m.name)
	if err != nil {
		sess, _ = m.store.New(c.Request, m.name)
	}
	return sess
}

// UserID returns the id stored by Login, if any.
func (m *Manager) UserID(c *gin.Context) (uint, bool) {
	id, ok := m.get(c).Values[userKey].(uint)
	return id, ok && id != 0
}

func (m *Manager) Login(c *gin.Context, userID uint) error {
	sess := m.get(c)
	sess.Values[userKey] = userID
	return sess.Save(c.Request, c.Writer)
}

// Logout forgets the user but keeps the anti-forgery secret, so a token
// issued before logout still works for the next login form.
func (m *Manager) Logout(c *gin.Context) error {
	sess := m.get(c)
	if _, ok := sess.Values[userKey]; !ok {
		return nil
	}
	delete(sess.Values, userKey)
	return sess.Save(c.Request, c.Writer)
}

// IssueCSRF returns a signed token bound to this session's secret,
// creating the secret on first use.
func (m *Manager) IssueCSRF(c *gin.Context) (string, error) {
	sess := m.get(c)
	nonce, _ := sess.Values[csrfKey].(string)
	if nonce == "" {
		raw := securecookie.GenerateRandomKey(32)
		if raw == nil {
			return "", errors.New("failed to generate anti-forgery secret")
		}
		nonce = base64.RawURLEncoding.EncodeToString(raw)
		sess.Values[csrfKey] = nonce
		if err := sess.Save(c.Request, c.Writer); err != nil {
			return "", fmt.Errorf("failed to save session: %w", err)
		}
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   nonce,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.csrfTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.signingKey)
}

// ValidateCSRF checks signature, expiry and that the token belongs to this session.
func (m *Manager) ValidateCSRF(c *gin.Context, token string) error {
	if token == "" {
		return apperror.ErrForgery
	}

	nonce, _ := m.get(c).Values[csrfKey].(string)
	if nonce == "" {
		return apperror.ErrForgery
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return m.signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return apperror.ErrForgery
	}

	if subtle.ConstantTimeCompare([]byte(claims.Subject), []byte(nonce)) != 1 {
		return apperror.ErrForgery
	}
	return nil
}

// SubmittedCSRF reads the token from the header, falling back to the form field.
func SubmittedCSRF(c *gin.Context) string {
	if token := c.GetHeader(CSRFHeader); token != "" {
		return token
	}
	if c.Request.Method == http.MethodGet {
		return ""
	}
	return c.PostForm(CSRFFormField)
}

func Attach(c *gin.Context, rc *RequestContext) {
	c.Set(contextKey, rc)
}

// FromGin returns the request context, or an anonymous one if the session
// middleware did not run.
func FromGin(c *gin.Context) *RequestContext {
	if v, ok := c.Get(contextKey); ok {
		if rc, ok := v.(*RequestContext); ok {
			return rc
		}
	}
	return &RequestContext{}
}

func RequireLogin(rc *RequestContext) (*entity.User, error) {
	if !rc.IsAuthenticated() {
		return nil, apperror.ErrUnauthorized
	}
	return rc.User, nil
}

func RequireOwner(rc *RequestContext, ownerID uint) (*entity.User, error) {
	user, err := RequireLogin(rc)
	if err != nil {
		return nil, err
	}
	if user.ID != ownerID {
		return nil, apperror.ErrUnauthorized
	}
	return user, nil
}

func deriveKey(secret, purpose string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(purpose))
	return mac.Sum(nil)
}
