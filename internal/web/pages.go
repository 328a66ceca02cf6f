// Package web renders the browser-facing shell: the index page with its
// visit counter, the htmx form fragments, and the stylesheet.
package web

import (
	"html/template" // Escaped HTML rendering
	"net/http"      // HTTP status codes
	"strings"       // Template output buffer

	"money_service/internal/auth"   // Authenticated subject lookup
	"money_service/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// RegisterFormHTML is the signup form fragment; errors during
// registration are rendered above it so the user can resubmit.
const RegisterFormHTML template.HTML = `<form hx-post="/register" hx-swap="outerHTML">
<label>Display Name:</label>
<input type="text" name="display_name"></input>
<br/>
<label>Username:</label>
<input type="text" name="username"></input>
<button>Submit</button>
</form>`

// LoginFormHTML is the login form fragment.
const LoginFormHTML template.HTML = `<form hx-post="/login" hx-swap="outerHTML">
<label>Username: </label>
<input type="text" name="username"></input>
<br/>
<label>PassCode: </label>
<input type="number" name="otp"></input>
<button>Submit</button>
</form>`

var registerSuccessTmpl = template.Must(template.New("register_success").Parse(
	`<div><img src="data:image/png;base64,{{.QR}}" alt="QR Code"/><p>OTP Secret: {{.Secret}}</p></div>`))

var loginGreetingTmpl = template.Must(template.New("login_greeting").Parse(
	`<p>Hi {{.}}</p>`))

var indexTmpl = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<script type="text/javascript" src="https://unpkg.com/htmx.org@1.9.4"></script>
<meta charset="UTF-8"></meta>
<meta name="viewport" content="width=device-width, initial-scale=1.0"></meta>
<link href="/css" rel="stylesheet"></link>
</head>
<body>
{{if .DisplayName}}<h1>Hello {{.DisplayName}}</h1>{{end}}
<button hx-post="/register_form" hx-swap="outerHTML" class="border-4">Signup</button>
<button hx-post="/login_form" hx-swap="outerHTML" class="border-4">Login</button>
<button hx-post="/logout" hx-swap="afterend" class="border-4">Logout</button>
<footer>Visits: {{.Visits}}</footer>
</body>
</html>`))

// stylesheet is the static CSS served at /css.
const stylesheet = `.text-red-600{color:#dc2626}
.border-4{border-width:4px;border-style:solid;margin:4px}`

// RegisterSuccessFragment renders the registration artifact: the QR
// provisioning image plus the base32 secret.
func RegisterSuccessFragment(qrBase64, secret string) template.HTML {
	var b strings.Builder
	_ = registerSuccessTmpl.Execute(&b, struct{ QR, Secret string }{qrBase64, secret})
	return template.HTML(b.String())
}

// LoginGreetingFragment renders the post-login greeting.
func LoginGreetingFragment(displayName string) template.HTML {
	var b strings.Builder
	_ = loginGreetingTmpl.Execute(&b, displayName)
	return template.HTML(b.String())
}

// RegisterFormHandler serves the signup form fragment for htmx swaps.
func RegisterFormHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(RegisterFormHTML))
	}
}

// LoginFormHandler serves the login form fragment for htmx swaps.
func LoginFormHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(LoginFormHTML))
	}
}

// CSSHandler serves the static stylesheet.
func CSSHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Data(http.StatusOK, "text/css", []byte(stylesheet))
	}
}

// IndexHandler renders the landing page: a greeting when the request
// carries a valid session, and the bumped visit counter.
func IndexHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// The counter must move on every view, so no caching here
		if err := db.Model(&domain.SystemCounter{}).
			Where("`key` = ?", 0).
			UpdateColumn("visits", gorm.Expr("visits + ?", 1)).Error; err != nil {
			logrus.WithField("error", err.Error()).Error("Failed to bump visit counter")
		}
		var counter domain.SystemCounter
		if err := db.Where("`key` = ?", 0).First(&counter).Error; err != nil {
			c.String(http.StatusInternalServerError, "counter missing")
			return
		}
		var displayName string
		if username, _, ok := auth.CurrentUser(c); ok {
			var user domain.User
			if err := db.Where("username = ?", username).First(&user).Error; err == nil {
				displayName = user.DisplayName
			}
		}
		var b strings.Builder
		if err := indexTmpl.Execute(&b, struct {
			DisplayName string
			Visits      int64
		}{displayName, counter.Visits}); err != nil {
			c.String(http.StatusInternalServerError, "render failed")
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(b.String()))
	}
}
