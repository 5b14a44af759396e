package web

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Category string

const (
	Info    Category = "info"
	Success Category = "success"
	Danger  Category = "danger"
)

const (
	flashesKey  = "flashes"
	FlashCookie = "blog_flash"
)

type Flash struct {
	Category Category `json:"c"`
	Message  string   `json:"m"`
}

// LoadFlashes moves flashes carried over from the previous redirect into the
// request context and expires the cookie that held them.
func LoadFlashes() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, err := c.Cookie(FlashCookie); err == nil && raw != "" {
			if flashes, err := decodeFlashes(raw); err == nil {
				c.Set(flashesKey, flashes)
			} else {
				logrus.WithError(err).Debug("Discarding malformed flash cookie")
			}
			c.SetCookie(FlashCookie, "", -1, "/", "", false, true)
		}
		c.Next()
	}
}

func AddFlash(c *gin.Context, category Category, message string) {
	flashes := pendingFlashes(c)
	c.Set(flashesKey, append(flashes, Flash{Category: category, Message: message}))
}

// TakeFlashes returns the pending flashes and clears them.
func TakeFlashes(c *gin.Context) []Flash {
	flashes := pendingFlashes(c)
	c.Set(flashesKey, []Flash(nil))
	return flashes
}

// Redirect persists pending flashes for the next request and answers 303.
func Redirect(c *gin.Context, location string) {
	if flashes := TakeFlashes(c); len(flashes) > 0 {
		if raw, err := encodeFlashes(flashes); err == nil {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(FlashCookie, raw, 60, "/", "", false, true)
		}
	}
	c.Redirect(http.StatusSeeOther, location)
}

func pendingFlashes(c *gin.Context) []Flash {
	if value, ok := c.Get(flashesKey); ok {
		if flashes, ok := value.([]Flash); ok {
			return flashes
		}
	}
	return nil
}

func encodeFlashes(flashes []Flash) (string, error) {
	data, err := json.Marshal(flashes)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

func decodeFlashes(raw string) ([]Flash, error) {
	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil, err
	}
	var flashes []Flash
	if err := json.Unmarshal(data, &flashes); err != nil {
		return nil, err
	}
	return flashes, nil
}
