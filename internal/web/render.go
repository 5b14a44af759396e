package web

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"blog_service/internal/apperr"
	"blog_service/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

//go:embed templates/*.html
var templateFS embed.FS

var functions = template.FuncMap{
	"formatDate": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("02 Jan 2006, 15:04")
	},
}

// Templates parses every embedded page; pass the result to gin's SetHTMLTemplate.
func Templates() *template.Template {
	return template.Must(template.New("").Funcs(functions).ParseFS(templateFS, "templates/*.html"))
}

// Render executes page with data plus the request identity and pending flashes.
func Render(c *gin.Context, status int, page string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}

	identity, _ := auth.GetIdentity(c)
	data["Identity"] = identity
	data["Flashes"] = TakeFlashes(c)
	data["Path"] = c.Request.URL.Path

	c.HTML(status, page, data)
}

// RenderError maps err onto a status and the error page. Internal causes are logged,
// never shown.
func RenderError(c *gin.Context, err error) {
	if apperr.Is(err, apperr.KindUnauthenticated) {
		AddFlash(c, Info, apperr.Message(err))
		Redirect(c, "/login")
		return
	}

	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logrus.WithError(err).WithField("path", c.Request.URL.Path).Error("Request failed")
	}

	Render(c, status, "error.html", gin.H{
		"Title":   http.StatusText(status),
		"Status":  status,
		"Message": apperr.Message(err),
	})
}

func NotFound(c *gin.Context) {
	RenderError(c, apperr.NotFound("Page not found."))
}

func MethodNotAllowed(c *gin.Context) {
	Render(c, http.StatusMethodNotAllowed, "error.html", gin.H{
		"Title":   http.StatusText(http.StatusMethodNotAllowed),
		"Status":  http.StatusMethodNotAllowed,
		"Message": "Method not allowed.",
	})
}
