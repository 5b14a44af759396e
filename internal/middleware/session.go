package middleware

import (
	"context"
	"errors"

	"blog_service/internal/apperr"
	"blog_service/internal/auth"
	"blog_service/internal/session"
	"blog_service/internal/user"
	"blog_service/internal/web"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const MsgLoginRequired = "Please log in to access this page."

type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*session.Session, error)
}

type UserLookup interface {
	GetUserByID(ctx context.Context, id int) (*user.User, error)
}

// LoadIdentity turns the session cookie into an auth.Identity on the context.
// Requests without a valid session continue anonymously.
func LoadIdentity(sessions SessionResolver, users UserLookup, cookie session.Cookie) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := cookie.Read(c)
		if token == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()

		sess, err := sessions.Resolve(ctx, token)
		if err != nil {
			if isStaleSession(err) {
				cookie.Clear(c)
			} else {
				logrus.WithError(err).Warn("Failed to resolve session")
			}
			c.Next()
			return
		}

		u, err := users.GetUserByID(ctx, sess.UserID)
		if err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				cookie.Clear(c)
			} else {
				logrus.WithError(err).WithField("user_id", sess.UserID).Warn("Failed to load session user")
			}
			c.Next()
			return
		}

		auth.SetIdentity(c, &auth.Identity{
			UserID:    u.ID,
			Username:  u.Username,
			SessionID: sess.ID,
		})
		c.Next()
	}
}

// RequireAuthenticated sends anonymous requests to the login page instead of
// running the handler.
func RequireAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")

		if _, ok := auth.GetIdentity(c); !ok {
			web.AddFlash(c, web.Info, MsgLoginRequired)
			web.Redirect(c, "/login")
			c.Abort()
			return
		}

		c.Next()
	}
}

func isStaleSession(err error) bool {
	return errors.Is(err, session.ErrSessionNotFound) ||
		errors.Is(err, auth.ErrInvalidToken) ||
		errors.Is(err, auth.ErrExpiredToken)
}
