package negotiate

import (
	"html/template" // HTML escaping for error fragments
	"net/http"      // HTTP status codes
	"strings"       // Accept header matching

	"github.com/gin-gonic/gin" // Gin web framework
)

// RequestType is the negotiated representation of a request: structured
// JSON (API clients) or URL-encoded form / HTML fragments (browser clients).
type RequestType int

// The two request classes; everything else is rejected up front.
const (
	JSON RequestType = iota // Structured JSON body, header auth transport
	HTML                    // Form body, cookie auth transport, markup errors
)

// HXRequestHeader is set to "true" by htmx partial-render requests.
const HXRequestHeader = "HX-Request"

// wsAcceptMarker is the private media marker websocket clients put into
// Accept so that upgrade requests ride the API-side code paths.
const wsAcceptMarker = "custom/ws"

// contextKey stores the resolved RequestType on the gin context.
const contextKey = "requestType"

// Classify resolves the request class from the Accept header and the
// partial-render marker. The order of the checks is significant:
// application/json and the websocket marker win over text/html, and a
// bare */* counts as HTML only for partial-render requests.
func Classify(accept, hxRequest string) (RequestType, bool) {
	switch {
	case strings.Contains(accept, "application/json"):
		return JSON, true
	case strings.Contains(accept, wsAcceptMarker):
		return JSON, true
	case strings.Contains(accept, "text/html"):
		return HTML, true
	case accept == "*/*" && hxRequest == "true":
		return HTML, true
	}
	return 0, false
}

// Middleware classifies every inbound request exactly once and aborts
// unclassifiable requests with 415 before any body decoding happens.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqType, ok := Classify(c.GetHeader("Accept"), c.GetHeader(HXRequestHeader))
		if !ok {
			// Nothing sensible to render for an unknown representation
			c.AbortWithStatus(http.StatusUnsupportedMediaType)
			return
		}
		c.Set(contextKey, reqType) // Thread the resolved type to downstream handlers
		c.Next()
	}
}

// FromContext returns the RequestType resolved by Middleware.
func FromContext(c *gin.Context) RequestType {
	if v, ok := c.Get(contextKey); ok {
		if t, ok := v.(RequestType); ok {
			return t
		}
	}
	return JSON // Routes without the middleware behave as API routes
}

// Bind decodes the request body with the strategy matching the
// negotiated type: JSON for API clients, URL-encoded form for browsers.
func Bind(c *gin.Context, obj any) error {
	if FromContext(c) == HTML {
		return c.ShouldBind(obj) // Form binding
	}
	return c.ShouldBindJSON(obj) // JSON binding
}

// Error renders a failure in the negotiated representation. JSON clients
// get a structured error object; HTML clients get an inline red fragment,
// optionally followed by the originating form so they can resubmit
// without navigating away.
func Error(c *gin.Context, status int, msg string, form template.HTML) {
	if FromContext(c) == HTML {
		body := `<div class="text-red-600">` + template.HTMLEscapeString(msg) + `</div>`
		if form != "" {
			body += "\n" + string(form)
		}
		c.Data(status, "text/html; charset=utf-8", []byte(body))
		return
	}
	c.JSON(status, gin.H{"error": msg})
}
