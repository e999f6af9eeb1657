package content

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/assets"
)

// Sentinel errors used for simple equality-style checks.
var (
	ErrInvalid  = os.ErrInvalid  // invalid argument
	ErrNotExist = os.ErrNotExist // item, category or ref does not exist

	// ErrLockTimeout indicates acquiring a document lock timed out or was
	// canceled.
	ErrLockTimeout = errors.New("lock acquire timeout")
)

// ItemNotFoundError reports an item id that no partition holds.
type ItemNotFoundError struct {
	ID string
}

func (e *ItemNotFoundError) Error() string { return fmt.Sprintf("item %s not found", e.ID) }
func (e *ItemNotFoundError) Unwrap() error { return ErrNotExist }

// CategoryNotFoundError reports a category id missing from the catalog.
type CategoryNotFoundError struct {
	ID string
}

func (e *CategoryNotFoundError) Error() string {
	return fmt.Sprintf("category %q is not configured", e.ID)
}
func (e *CategoryNotFoundError) Unwrap() error { return ErrNotExist }

// MediaTypeNotFoundError reports a media type missing from the catalog.
type MediaTypeNotFoundError struct {
	ID string
}

func (e *MediaTypeNotFoundError) Error() string {
	return fmt.Sprintf("media type %q is not configured", e.ID)
}
func (e *MediaTypeNotFoundError) Unwrap() error { return ErrNotExist }

// RefNotFoundError reports an item id absent from a category's ref list.
type RefNotFoundError struct {
	ID       string
	Category string
}

func (e *RefNotFoundError) Error() string {
	return fmt.Sprintf("item %s is not in category %s", e.ID, e.Category)
}
func (e *RefNotFoundError) Unwrap() error { return ErrNotExist }

// MediaTypeMismatchError is returned when moving an item between categories
// that hold different media types.
type MediaTypeMismatchError struct {
	ID       string
	From     string
	To       string
	FromType string
	ToType   string
}

func (e *MediaTypeMismatchError) Error() string {
	return fmt.Sprintf("cannot move %s from %s (%s) to %s (%s): media types differ",
		e.ID, e.From, e.FromType, e.To, e.ToType)
}
func (e *MediaTypeMismatchError) Unwrap() error { return ErrInvalid }

// FieldError reports a rejected field value.
type FieldError struct {
	Field string
	Msg   string
}

func (e *FieldError) Error() string { return fmt.Sprintf("field %s: %s", e.Field, e.Msg) }
func (e *FieldError) Unwrap() error { return ErrInvalid }

// CatalogError collects every problem found while validating a catalog.
type CatalogError struct {
	Problems []string
}

func (e *CatalogError) Error() string {
	return "invalid catalog: " + strings.Join(e.Problems, "; ")
}
func (e *CatalogError) Unwrap() error { return ErrInvalid }

// BackendError wraps failures coming from the storage backend (filesystem or
// database). It never represents a missing item.
type BackendError struct {
	Backend string // "fs" or "sql"
	Op      string
	Path    string // document path or table, when known
	Cause   error
}

func (e *BackendError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s %s: %v", e.Backend, e.Op, e.Path, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Backend, e.Op, e.Cause)
}

// Unwrap returns the wrapped cause.
func (e *BackendError) Unwrap() error { return e.Cause }

func newBackendError(backend, op, path string, cause error) error {
	return &BackendError{Backend: backend, Op: op, Path: path, Cause: cause}
}

// CleanupWarning describes assets left behind after an item was deleted.
// The deletion itself succeeded.
type CleanupWarning struct {
	Failed []assets.Failure
}

func (w *CleanupWarning) Error() string {
	urls := make([]string, 0, len(w.Failed))
	for _, f := range w.Failed {
		urls = append(urls, f.URL)
	}
	return fmt.Sprintf("item deleted but %d asset(s) could not be removed: %s",
		len(w.Failed), strings.Join(urls, ", "))
}

// IsNotFound reports whether err is (or wraps) a not-found condition.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotExist)
}

// IsValidation reports whether err is (or wraps) a validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalid)
}

// IsBackendError reports whether err is (or wraps) a BackendError.
func IsBackendError(err error) bool {
	if err == nil {
		return false
	}
	var be *BackendError
	return errors.As(err, &be)
}
