package session

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Cookie describes the browser cookie that carries the signed session token.
type Cookie struct {
	Name   string
	Secure bool
}

func (ck Cookie) Read(c *gin.Context) string {
	value, err := c.Cookie(ck.Name)
	if err != nil {
		return ""
	}
	return value
}

func (ck Cookie) Write(c *gin.Context, token string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(ck.Name, token, int(ttl.Seconds()), "/", "", ck.Secure, true)
}

func (ck Cookie) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(ck.Name, "", -1, "/", "", ck.Secure, true)
}
