package studio

import (
	"github.com/eringen/studio/blog"
	"github.com/eringen/studio/errs"
)

// errorResponse is the body of every failed API request.
type errorResponse struct {
	Error   string            `json:"error"`
	Details []errs.FieldError `json:"details,omitempty"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type postResponse struct {
	Success       bool                  `json:"success"`
	Post          blog.Post             `json:"post"`
	CleanupErrors []errs.CleanupFailure `json:"cleanupErrors,omitempty"`
}

type deleteBlogRequest struct {
	MetadataFilename string `json:"metadataFilename" form:"metadataFilename"`
	Slug             string `json:"slug" form:"slug"`
}

type deleteBlogResponse struct {
	Success       bool                  `json:"success"`
	CleanupErrors []errs.CleanupFailure `json:"cleanupErrors,omitempty"`
}

type uploadImageResponse struct {
	Success       bool                  `json:"success"`
	Path          string                `json:"path"`
	CleanupErrors []errs.CleanupFailure `json:"cleanupErrors,omitempty"`
}

type deleteImageRequest struct {
	Path string `json:"path" form:"path"`
}

type deleteImageResponse struct {
	Success       bool                  `json:"success"`
	FileDeleted   bool                  `json:"fileDeleted"`
	Message       string                `json:"message"`
	CleanupErrors []errs.CleanupFailure `json:"cleanupErrors,omitempty"`
}

type loginRequest struct {
	Password string `json:"password" form:"password"`
}
