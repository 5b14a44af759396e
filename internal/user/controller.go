package user

import (
	"context"
	"net/http"
	"time"

	"blog_service/internal/apperr"
	"blog_service/internal/auth"
	"blog_service/internal/observability"
	"blog_service/internal/session"
	"blog_service/internal/web"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SessionManager is the part of session.Manager the auth handlers need.
type SessionManager interface {
	Start(ctx context.Context, userID int) (string, *session.Session, error)
	End(ctx context.Context, token string) error
	TTL() time.Duration
}

type UserController struct {
	userService UserServiceInterface
	sessions    SessionManager
	cookie      session.Cookie
	metrics     *observability.Metrics
}

func NewUserController(userService UserServiceInterface, sessions SessionManager, cookie session.Cookie, metrics *observability.Metrics) *UserController {
	return &UserController{
		userService: userService,
		sessions:    sessions,
		cookie:      cookie,
		metrics:     metrics,
	}
}

// ShowRegister renders the registration form
func (a *UserController) ShowRegister(c *gin.Context) {
	if _, ok := auth.GetIdentity(c); ok {
		web.Redirect(c, "/")
		return
	}
	web.Render(c, http.StatusOK, "register.html", gin.H{"Title": "Register", "Form": RegisterInput{}})
}

// Register handles user registration
func (a *UserController) Register(c *gin.Context) {
	var req RegisterInput
	if err := c.ShouldBind(&req); err != nil {
		a.metrics.RecordRegistration(apperr.KindValidation.String())
		web.AddFlash(c, web.Danger, MsgFieldsRequired)
		web.Render(c, http.StatusBadRequest, "register.html", gin.H{"Title": "Register", "Form": RegisterInput{}})
		return
	}

	user, err := a.userService.Register(c.Request.Context(), req)
	if err != nil {
		a.metrics.RecordRegistration(apperr.KindOf(err).String())
		if apperr.Is(err, apperr.KindStorage) {
			logrus.WithError(err).Error("Registration failed")
		}

		req.Password = ""
		web.AddFlash(c, web.Danger, apperr.Message(err))
		web.Render(c, apperr.HTTPStatus(err), "register.html", gin.H{"Title": "Register", "Form": req})
		return
	}

	a.metrics.RecordRegistration("success")
	logrus.WithField("user_id", user.ID).Info("User registered")

	web.AddFlash(c, web.Success, "User registered successfully!")
	web.Redirect(c, "/login")
}

// ShowLogin renders the login form
func (a *UserController) ShowLogin(c *gin.Context) {
	if _, ok := auth.GetIdentity(c); ok {
		web.Redirect(c, "/")
		return
	}
	web.Render(c, http.StatusOK, "login.html", gin.H{"Title": "Log in", "Form": LoginInput{}})
}

// Login checks credentials and opens a session
func (a *UserController) Login(c *gin.Context) {
	var req LoginInput
	_ = c.ShouldBind(&req)

	user, err := a.userService.Authenticate(c.Request.Context(), req)
	if err != nil {
		a.metrics.RecordAuthAttempt(apperr.KindOf(err).String())
		if apperr.Is(err, apperr.KindStorage) {
			logrus.WithError(err).Error("Login failed")
		}

		web.AddFlash(c, web.Danger, apperr.Message(err))
		web.Render(c, apperr.HTTPStatus(err), "login.html", gin.H{"Title": "Log in", "Form": LoginInput{Email: req.Email}})
		return
	}

	// Drop any session the browser still carries before binding a new one.
	if old := a.cookie.Read(c); old != "" {
		if err := a.sessions.End(c.Request.Context(), old); err != nil {
			logrus.WithError(err).Warn("Failed to end previous session")
		}
	}

	token, _, err := a.sessions.Start(c.Request.Context(), user.ID)
	if err != nil {
		a.metrics.RecordAuthAttempt(apperr.KindStorage.String())
		web.RenderError(c, apperr.Storage("Could not log in. Please try again.", err))
		return
	}

	a.metrics.RecordAuthAttempt("success")
	a.cookie.Write(c, token, a.sessions.TTL())

	web.AddFlash(c, web.Success, "You've logged in successfully!")
	web.Redirect(c, "/")
}

// Logout ends the session, if any. Safe to call when already logged out.
func (a *UserController) Logout(c *gin.Context) {
	if token := a.cookie.Read(c); token != "" {
		if err := a.sessions.End(c.Request.Context(), token); err != nil {
			logrus.WithError(err).Warn("Failed to delete session on logout")
		}
	}
	a.cookie.Clear(c)

	web.AddFlash(c, web.Success, "You have been logged out.")
	web.Redirect(c, "/")
}
