package studio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/studio/errs"
	"github.com/eringen/studio/gallery"
	"github.com/eringen/studio/imaging"
)

const maxUploadSize = 10 << 20 // 10MB

// readUpload returns the bytes and client file name of the multipart file
// field. A missing field yields nil data and no error.
func readUpload(c echo.Context, field string) ([]byte, string, error) {
	file, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, "", nil
		}
		return nil, "", errs.Invalid(field, "could not be read")
	}
	if file.Size > maxUploadSize {
		return nil, "", errs.Invalid(field, "is larger than 10MB")
	}
	src, err := file.Open()
	if err != nil {
		return nil, "", err
	}
	defer src.Close()
	data, err := io.ReadAll(io.LimitReader(src, maxUploadSize+1))
	if err != nil {
		return nil, "", err
	}
	if len(data) > maxUploadSize {
		return nil, "", errs.Invalid(field, "is larger than 10MB")
	}
	return data, file.Filename, nil
}

// mirrorPut copies a stored file to the mirror, returning the failure as
// cleanup data.
func (a *App) mirrorPut(ctx context.Context, publicPath string, data []byte) []errs.CleanupFailure {
	if err := a.Mirror.Put(ctx, publicPath, imaging.ContentType, data); err != nil {
		return []errs.CleanupFailure{errs.Cleanup("mirror put", publicPath, err)}
	}
	return nil
}

func (a *App) mirrorDelete(ctx context.Context, publicPaths ...string) []errs.CleanupFailure {
	var failures []errs.CleanupFailure
	for _, p := range publicPaths {
		if p == "" {
			continue
		}
		if err := a.Mirror.Delete(ctx, p); err != nil {
			failures = append(failures, errs.Cleanup("mirror delete", p, err))
		}
	}
	return failures
}

// reportCleanup logs failures and records them in the ledger. It returns
// failures for the response body.
func (a *App) reportCleanup(c echo.Context, source string, failures []errs.CleanupFailure) []errs.CleanupFailure {
	if len(failures) == 0 {
		return nil
	}
	for _, f := range failures {
		c.Logger().Warnf("%s: cleanup failed: %v", source, f)
	}
	if err := a.Ledger.Record(c.Request().Context(), source, failures...); err != nil {
		c.Logger().Errorf("%s: record cleanup failures: %v", source, err)
	}
	return failures
}

func (a *App) handleUploadImage(c echo.Context) error {
	cat, err := gallery.ParseCategory(c.FormValue("category"))
	if err != nil {
		return err
	}
	data, name, err := readUpload(c, "file")
	if err != nil {
		return err
	}
	if data == nil {
		return errs.Invalid("file", "is required")
	}

	path, err := a.Gallery.Create(bytes.NewReader(data), name, cat)
	if err != nil {
		return err
	}

	var failures []errs.CleanupFailure
	stored, err := a.Gallery.Store().ReadFile(path)
	if err != nil {
		failures = append(failures, errs.Cleanup("mirror put", path, err))
	} else {
		failures = a.mirrorPut(c.Request().Context(), path, stored)
	}
	return c.JSON(http.StatusOK, uploadImageResponse{
		Success:       true,
		Path:          path,
		CleanupErrors: a.reportCleanup(c, "uploadImage", failures),
	})
}

func (a *App) handleDeleteImage(c echo.Context) error {
	var req deleteImageRequest
	if err := c.Bind(&req); err != nil {
		return errs.Invalid("body", "must be JSON with a path")
	}
	res, err := a.Gallery.Delete(req.Path)
	if err != nil {
		return err
	}
	resp := deleteImageResponse{
		Success:     true,
		FileDeleted: res.FileDeleted,
		Message:     "Image deleted",
	}
	if res.FileDeleted {
		resp.CleanupErrors = a.reportCleanup(c, "deleteImage", a.mirrorDelete(c.Request().Context(), res.Path))
	} else {
		resp.Message = "Image was already absent"
	}
	return c.JSON(http.StatusOK, resp)
}
