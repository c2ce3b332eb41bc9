package studio

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/studio/views"
)

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

// renderErrorPage answers a failed page request. Only 404 and 5xx get a
// full page; other statuses are short enough for plain text.
func renderErrorPage(c echo.Context, code int, msg string) error {
	if c.Request().Method == http.MethodHead {
		return c.NoContent(code)
	}
	switch {
	case code == http.StatusNotFound:
		return RenderStatus(c, code, views.NotFound())
	case code >= http.StatusInternalServerError:
		return RenderStatus(c, code, views.ServerError())
	}
	return c.String(code, msg)
}
