package studio

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/studio/blog"
	"github.com/eringen/studio/errs"
	"github.com/eringen/studio/gallery"
)

const listingCacheControl = "public, max-age=600"

func handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// isFresh reports whether the request asked to bypass the caches. Any
// fresh parameter counts, whatever its value.
func isFresh(c echo.Context) bool {
	_, ok := c.QueryParams()["fresh"]
	return ok
}

func setListingCache(c echo.Context, fresh bool) {
	if fresh {
		c.Response().Header().Set("Cache-Control", "no-store")
		return
	}
	c.Response().Header().Set("Cache-Control", listingCacheControl)
}

func queryLimit(c echo.Context) (int, error) {
	raw := strings.TrimSpace(c.QueryParam("limit"))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errs.Invalid("limit", "must be a non-negative integer")
	}
	return n, nil
}

func (a *App) handleListBlogs(c echo.Context) error {
	limit, err := queryLimit(c)
	if err != nil {
		return err
	}
	fresh := isFresh(c)
	posts, err := a.Blog.List(blog.Filter{
		Category: strings.TrimSpace(c.QueryParam("category")),
		Tag:      strings.TrimSpace(c.QueryParam("tag")),
		Status:   strings.ToLower(strings.TrimSpace(c.QueryParam("status"))),
		Limit:    limit,
	}, fresh)
	if err != nil {
		return err
	}
	setListingCache(c, fresh)
	return c.JSON(http.StatusOK, posts)
}

func (a *App) handleGetBlog(c echo.Context) error {
	fresh := isFresh(c)
	post, err := a.Blog.Get(c.Param("slug"), fresh)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Blog post not found")
		}
		return err
	}
	setListingCache(c, fresh)
	return c.JSON(http.StatusOK, post)
}

func (a *App) handleBlogTags(c echo.Context) error {
	tags, err := a.Blog.Tags()
	if err != nil {
		return err
	}
	setListingCache(c, false)
	return c.JSON(http.StatusOK, tags)
}

func (a *App) handleRelatedBlogs(c echo.Context) error {
	limit, err := queryLimit(c)
	if err != nil {
		return err
	}
	if limit == 0 {
		limit = 3
	}
	posts, err := a.Blog.Related(c.Param("slug"), limit)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Blog post not found")
		}
		return err
	}
	setListingCache(c, false)
	return c.JSON(http.StatusOK, posts)
}

func (a *App) handleInvalidateBlogs(c echo.Context) error {
	a.Blog.Invalidate()
	return c.JSON(http.StatusOK, successResponse{Success: true})
}

func (a *App) handlePortfolio(c echo.Context) error {
	var only gallery.Category
	if name := c.QueryParam("category"); name != "" {
		cat, err := gallery.ParseCategory(name)
		if err != nil {
			return err
		}
		if !isPortfolio(cat) {
			return errs.Invalid("category", cat.Name()+" is not a portfolio category")
		}
		only = cat
	}
	fresh := isFresh(c)
	items, err := a.Gallery.Portfolio(only, fresh)
	if err != nil {
		return err
	}
	setListingCache(c, fresh)
	return c.JSON(http.StatusOK, items)
}

func isPortfolio(cat gallery.Category) bool {
	for _, p := range gallery.Portfolio {
		if p == cat {
			return true
		}
	}
	return false
}

func (a *App) handleLogos(c echo.Context) error {
	fresh := isFresh(c)
	items, err := a.Gallery.Logos(fresh)
	if err != nil {
		return err
	}
	setListingCache(c, fresh)
	return c.JSON(http.StatusOK, items)
}

func (a *App) handleHomepageImages(c echo.Context) error {
	fresh := isFresh(c)
	items, err := a.Gallery.Homepage(fresh)
	if err != nil {
		return err
	}
	setListingCache(c, fresh)
	return c.JSON(http.StatusOK, items)
}

func (a *App) handleImagesByPath(c echo.Context) error {
	fresh := isFresh(c)
	items, err := a.Gallery.ListPath(c.QueryParam("path"), fresh)
	if err != nil {
		return err
	}
	setListingCache(c, fresh)
	return c.JSON(http.StatusOK, items)
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.Blog.List(blog.Filter{}, false)
	if err != nil {
		return err
	}
	return a.renderSitemap(c, posts)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Blog.List(blog.Filter{Limit: 50}, false)
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

// statusFor maps a handler error to an HTTP status and client message.
func statusFor(err error) (int, errorResponse) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok && s != "" {
			msg = s
		}
		return he.Code, errorResponse{Error: msg}
	}
	var ve errs.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, errorResponse{Error: ve.Error(), Details: ve.Items}
	case errors.Is(err, errs.ErrInvalid):
		return http.StatusBadRequest, errorResponse{Error: err.Error()}
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound, errorResponse{Error: err.Error()}
	case errors.Is(err, errs.ErrConflict):
		return http.StatusConflict, errorResponse{Error: err.Error()}
	}
	return http.StatusInternalServerError, errorResponse{Error: "Internal server error"}
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code, body := statusFor(err)
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
	}

	path := c.Request().URL.Path
	if strings.HasPrefix(path, "/api/") {
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
		return
	}
	_ = renderErrorPage(c, code, body.Error)
}
