package middleware

import (
	"context"
	"errors"
	"net/http"

	"anoa.com/warbler/internal/entity"
	"anoa.com/warbler/internal/session"
	"anoa.com/warbler/pkg/apperror"
	"anoa.com/warbler/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type UserFinder interface {
	FindByID(ctx context.Context, id uint) (*entity.User, error)
}

type AuthMiddleware struct {
	sessions *session.Manager
	users    UserFinder
}

func NewAuthMiddleware(sessions *session.Manager, users UserFinder) *AuthMiddleware {
	return &AuthMiddleware{
		sessions: sessions,
		users:    users,
	}
}

// LoadSession resolves the session's user id to a live user and attaches the
// RequestContext. A dangling id (deleted user) is cleared and the request
// continues anonymously.
func (m *AuthMiddleware) LoadSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		rc := &session.RequestContext{CSRFToken: session.SubmittedCSRF(c)}

		if userID, ok := m.sessions.UserID(c); ok {
			user, err := m.users.FindByID(c.Request.Context(), userID)
			switch {
			case err == nil:
				rc.User = user
			case errors.Is(err, apperror.ErrNotFound):
				logrus.WithField("user_id", userID).Info("clearing session of deleted user")
				if err := m.sessions.Logout(c); err != nil {
					logrus.WithError(err).Warn("failed to clear stale session")
				}
			default:
				response.Error(c, err)
				return
			}
		}

		session.Attach(c, rc)
		c.Next()
	}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := session.RequireLogin(session.FromGin(c)); err != nil {
			response.Error(c, err)
			return
		}
		c.Next()
	}
}

// RequireCSRF guards state-changing methods. Safe methods pass through.
func (m *AuthMiddleware) RequireCSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		if err := m.sessions.ValidateCSRF(c, session.FromGin(c).CSRFToken); err != nil {
			logrus.WithFields(logrus.Fields{
				"request_id": c.GetString(RequestIDKey),
				"path":       c.Request.URL.Path,
			}).Warn("anti-forgery check failed")
			response.Error(c, err)
			return
		}
		c.Next()
	}
}
