package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrProviderFailure marks a failed provider adapter call. The fan-out
	// orchestrator recovers these to empty results.
	ErrProviderFailure = errors.New("provider failure")
	// ErrCatalog marks a failed catalog request.
	ErrCatalog = errors.New("catalog failure")
	// ErrUnknownMediaType is fatal: the media type is outside the two known kinds.
	ErrUnknownMediaType = errors.New("unknown media type")
	ErrNotFound         = errors.New("not found")
	ErrConfiguration    = errors.New("configuration error")
	ErrValidation       = errors.New("validation error")
	ErrTransient        = errors.New("transient failure")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Recoverable reports whether the error can be tolerated by a call site that
// accepts absence (provider and catalog failures). Unknown media types and
// configuration errors are never recoverable.
func Recoverable(err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, ErrUnknownMediaType), errors.Is(err, ErrConfiguration):
		return false
	case errors.Is(err, ErrProviderFailure), errors.Is(err, ErrCatalog), errors.Is(err, ErrNotFound), errors.Is(err, ErrTransient):
		return true
	default:
		return false
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
