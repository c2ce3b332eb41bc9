package studio

import (
	"bytes"
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/studio/blog"
	"github.com/eringen/studio/errs"
	"github.com/eringen/studio/gallery"
	"github.com/eringen/studio/imaging"
	"github.com/eringen/studio/markdown"
	"github.com/eringen/studio/views"
)

const tooManyAttempts = "Too many login attempts. Try again later."

// checkPassword applies the per-IP limiter around the password comparison.
func (a *App) checkPassword(c echo.Context, pass string) (ok, limited bool) {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return false, true
	}
	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) != 1 {
		a.loginLimiter.Record(ip)
		return false, false
	}
	a.loginLimiter.Reset(ip)
	return true, false
}

func (a *App) handleAPILogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return errs.Invalid("password", "is required")
	}
	ok, limited := a.checkPassword(c, req.Password)
	if limited {
		return echo.NewHTTPError(http.StatusTooManyRequests, tooManyAttempts)
	}
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid password")
	}
	if err := setAdminSession(c); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, successResponse{Success: true})
}

func handleAPILogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, successResponse{Success: true})
}

func (a *App) handleAdmin(c echo.Context) error {
	if !IsAdmin(c) {
		return Render(c, views.AdminLogin(false, CsrfToken(c)))
	}
	return a.renderAdminDashboard(c, c.QueryParam("msg"))
}

func (a *App) handleAdminLogin(c echo.Context) error {
	ok, limited := a.checkPassword(c, c.FormValue("password"))
	if limited {
		return c.String(http.StatusTooManyRequests, tooManyAttempts)
	}
	if !ok {
		return RenderStatus(c, http.StatusUnauthorized, views.AdminLogin(true, CsrfToken(c)))
	}
	if err := setAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func (a *App) handleAdminResolve(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.Redirect(http.StatusSeeOther, "/admin/?msg=Unknown+entry")
	}
	if err := a.Ledger.Resolve(c.Request().Context(), id); err != nil && !errors.Is(err, errs.ErrNotFound) {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/?msg=Resolved")
}

func (a *App) renderAdminDashboard(c echo.Context, msg string) error {
	posts, err := a.Blog.Store().List()
	if err != nil {
		return err
	}
	entries, err := a.Ledger.List(c.Request().Context(), 50, false)
	if err != nil {
		return err
	}
	counts := make([]views.CategoryCount, 0, len(gallery.All))
	for _, cat := range gallery.All {
		items, err := a.Gallery.Store().List(cat)
		if err != nil {
			return err
		}
		counts = append(counts, views.CategoryCount{Label: cat.Label(), Dir: cat.Dir(), Count: len(items)})
	}
	return Render(c, views.AdminDashboard(views.Dashboard{
		SiteName:  a.Config.Name,
		Message:   msg,
		CSRFToken: CsrfToken(c),
		Posts:     posts,
		Images:    counts,
		Cleanup:   entries,
	}))
}

func (a *App) handleAdminBlogs(c echo.Context) error {
	posts, err := a.Blog.Store().List()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, posts)
}

// formValue returns a submitted form field and whether it was present.
func formValue(c echo.Context, key string) (string, bool, error) {
	params, err := c.FormParams()
	if err != nil {
		return "", false, errs.Invalid("body", "must be a form")
	}
	v, ok := params[key]
	if !ok || len(v) == 0 {
		return "", false, nil
	}
	return v[0], true, nil
}

// contentHTML converts submitted content to the stored HTML form.
func contentHTML(c echo.Context, content string) (string, error) {
	format := strings.ToLower(strings.TrimSpace(c.FormValue("format")))
	switch format {
	case "", markdown.FormatHTML, markdown.FormatMarkdown:
	default:
		return "", errs.Invalid("format", "must be 'html' or 'markdown'")
	}
	return markdown.ToHTML(content, format)
}

// blogImage re-encodes an uploaded featured image. A missing file returns
// nil.
func blogImage(c echo.Context) (*blog.Image, error) {
	data, _, err := readUpload(c, "file")
	if err != nil || data == nil {
		return nil, err
	}
	full, thumb, err := imaging.ProcessVariants(bytes.NewReader(data), imaging.Full, imaging.Thumb)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupported) {
			return nil, errs.Invalid("file", err.Error())
		}
		return nil, err
	}
	return &blog.Image{Data: full.Data, Thumb: thumb.Data, Ext: imaging.Ext}, nil
}

func (a *App) mirrorPostImages(c echo.Context, p blog.Post, img *blog.Image) []errs.CleanupFailure {
	ctx := c.Request().Context()
	failures := a.mirrorPut(ctx, p.FeaturedImage, img.Data)
	if p.FeaturedThumb != "" {
		failures = append(failures, a.mirrorPut(ctx, p.FeaturedThumb, img.Thumb)...)
	}
	return failures
}

func (a *App) handleUploadBlog(c echo.Context) error {
	img, err := blogImage(c)
	if err != nil {
		return err
	}
	content, err := contentHTML(c, c.FormValue("content"))
	if err != nil {
		return err
	}
	author := strings.TrimSpace(c.FormValue("author"))
	if author == "" {
		author = a.Config.Author
	}
	fields := blog.Fields{
		Title:    c.FormValue("title"),
		Summary:  c.FormValue("summary"),
		Content:  content,
		Author:   author,
		Category: c.FormValue("category"),
		Tags:     blog.SplitTags(c.FormValue("tags")),
		Status:   blog.ParseStatus(c.FormValue("status")),
	}
	var image blog.Image
	if img != nil {
		image = *img
	}

	out, err := a.Blog.Create(fields, image)
	failures := out.Cleanup
	if err != nil {
		a.reportCleanup(c, "uploadBlog", failures)
		return err
	}
	failures = append(failures, a.mirrorPostImages(c, out.Post, img)...)
	return c.JSON(http.StatusOK, postResponse{
		Success:       true,
		Post:          out.Post,
		CleanupErrors: a.reportCleanup(c, "uploadBlog", failures),
	})
}

func (a *App) handleUpdateBlog(c echo.Context) error {
	var ve errs.ValidationError
	id, _, err := formValue(c, "id")
	if err != nil {
		return err
	}
	file, _, _ := formValue(c, "metadataFilename")
	if strings.TrimSpace(id) == "" {
		ve.Add("id", "is required")
	}
	if strings.TrimSpace(file) == "" {
		ve.Add("metadataFilename", "is required")
	}
	if ve.HasAny() {
		return ve
	}

	var patch blog.Patch
	for key, dst := range map[string]**string{
		"title":    &patch.Title,
		"summary":  &patch.Summary,
		"author":   &patch.Author,
		"category": &patch.Category,
	} {
		if v, ok, _ := formValue(c, key); ok {
			v := v
			*dst = &v
		}
	}
	if v, ok, _ := formValue(c, "content"); ok {
		html, err := contentHTML(c, v)
		if err != nil {
			return err
		}
		patch.Content = &html
	}
	if v, ok, _ := formValue(c, "tags"); ok {
		tags := blog.SplitTags(v)
		patch.Tags = &tags
	}
	if v, ok, _ := formValue(c, "status"); ok {
		status := blog.ParseStatus(v)
		patch.Status = &status
	}

	img, err := blogImage(c)
	if err != nil {
		return err
	}
	out, err := a.Blog.Update(id, file, patch, img)
	if err != nil {
		return err
	}
	failures := out.Cleanup
	if img != nil {
		failures = append(failures, a.mirrorPostImages(c, out.Post, img)...)
		failures = append(failures, a.mirrorDelete(c.Request().Context(), out.Removed...)...)
	}
	return c.JSON(http.StatusOK, postResponse{
		Success:       true,
		Post:          out.Post,
		CleanupErrors: a.reportCleanup(c, "updateBlog", failures),
	})
}

func (a *App) handleDeleteBlog(c echo.Context) error {
	var req deleteBlogRequest
	if err := c.Bind(&req); err != nil {
		return errs.Invalid("body", "must be JSON with metadataFilename and slug")
	}
	if strings.TrimSpace(req.MetadataFilename) == "" && strings.TrimSpace(req.Slug) == "" {
		return errs.Invalid("metadataFilename", "is required")
	}
	out, err := a.Blog.Delete(req.MetadataFilename, req.Slug)
	if err != nil {
		a.reportCleanup(c, "deleteBlog", out.Cleanup)
		return err
	}
	failures := append(out.Cleanup, a.mirrorDelete(c.Request().Context(), out.Removed...)...)
	return c.JSON(http.StatusOK, deleteBlogResponse{
		Success:       true,
		CleanupErrors: a.reportCleanup(c, "deleteBlog", failures),
	})
}

func (a *App) handleListCleanup(c echo.Context) error {
	limit, err := queryLimit(c)
	if err != nil {
		return err
	}
	all, _ := strconv.ParseBool(c.QueryParam("all"))
	entries, err := a.Ledger.List(c.Request().Context(), limit, all)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entries)
}

func (a *App) handleResolveCleanup(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errs.Invalid("id", "must be an integer")
	}
	if err := a.Ledger.Resolve(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, successResponse{Success: true})
}
