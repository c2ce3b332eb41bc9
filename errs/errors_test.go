package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationErrorIsInvalid(t *testing.T) {
	var ve ValidationError
	ve.Add("title", "is required")
	ve.Add("image", "is required")

	if !ve.HasAny() {
		t.Fatal("expected HasAny to be true")
	}
	wrapped := fmt.Errorf("create post: %w", ve)
	if !errors.Is(wrapped, ErrInvalid) {
		t.Fatalf("expected wrapped validation error to match ErrInvalid")
	}
	if errors.Is(wrapped, ErrNotFound) {
		t.Fatalf("validation error must not match ErrNotFound")
	}
	want := "validation failed: title: is required; image: is required"
	if ve.Error() != want {
		t.Errorf("Error() = %q, want %q", ve.Error(), want)
	}
}

func TestEmptyValidationError(t *testing.T) {
	var ve ValidationError
	if ve.HasAny() {
		t.Fatal("expected empty validation error")
	}
	if ve.Error() != "validation failed" {
		t.Errorf("Error() = %q", ve.Error())
	}
}

func TestCleanupFailure(t *testing.T) {
	f := Cleanup("remove image", "/images/blog/a.jpg", errors.New("permission denied"))
	if f.Error() != "remove image /images/blog/a.jpg: permission denied" {
		t.Errorf("Error() = %q", f.Error())
	}
}
