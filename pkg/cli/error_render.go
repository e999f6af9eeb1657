package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/admin"
	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/content"
)

// renderUserError shortens well-known errors to the part a user acts on.
// Debug logging shows the full chain.
func renderUserError(err error, deps *Deps) string {
	if err == nil {
		return ""
	}
	if isDebugLogLevel(deps) {
		return err.Error()
	}

	var (
		itemErr     *content.ItemNotFoundError
		catErr      *content.CategoryNotFoundError
		mediaErr    *content.MediaTypeNotFoundError
		refErr      *content.RefNotFoundError
		mismatchErr *content.MediaTypeMismatchError
		fieldErr    *content.FieldError
		catalogErr  *content.CatalogError
		backendErr  *content.BackendError
	)
	switch {
	case errors.As(err, &itemErr):
		return itemErr.Error()
	case errors.As(err, &catErr):
		return catErr.Error()
	case errors.As(err, &mediaErr):
		return mediaErr.Error()
	case errors.As(err, &refErr):
		return refErr.Error()
	case errors.As(err, &mismatchErr):
		return mismatchErr.Error()
	case errors.As(err, &fieldErr):
		return fieldErr.Error()
	case errors.As(err, &catalogErr):
		return catalogErr.Error()
	case admin.IsUsageError(err):
		return strings.TrimPrefix(err.Error(), "usage: ")
	case errors.As(err, &backendErr) && errors.Is(err, content.ErrCorruptDocument):
		return fmt.Sprintf("%s could not be parsed and was left unchanged; fix it by hand "+
			"(or run \"portfolio migrate\" if it holds unconverted category data), then run \"portfolio check\"",
			backendErr.Path)
	case errors.As(err, &backendErr) && errors.Is(err, content.ErrLockTimeout):
		return fmt.Sprintf("%s is held by another process; if none is running, clear it with \"portfolio unlock\"",
			backendErr.Path)
	case errors.As(err, &backendErr):
		return fmt.Sprintf("%s storage error: %v (run with --log-level debug for details)", backendErr.Backend, backendErr.Cause)
	}
	return err.Error()
}

func isDebugLogLevel(deps *Deps) bool {
	if deps == nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(deps.LogLevel), "debug")
}
