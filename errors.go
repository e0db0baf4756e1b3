package menusync

import (
	"fmt"
	"strings"
)

// InvalidateError reports the cache operations that failed while applying one
// invalidation plan. Keys holds exact keys, Patterns holds pattern deletes.
type InvalidateError struct {
	Entity   string
	Keys     map[string]error
	Patterns map[string]error
}

func (e *InvalidateError) Error() string {
	parts := make([]string, 0, len(e.Keys)+len(e.Patterns))
	for k, err := range e.Keys {
		parts = append(parts, fmt.Sprintf("key %q: %v", k, err))
	}
	for p, err := range e.Patterns {
		parts = append(parts, fmt.Sprintf("pattern %q: %v", p, err))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("invalidate %s: unknown error", e.Entity)
	}
	return fmt.Sprintf("invalidate %s: %s", e.Entity, strings.Join(parts, "; "))
}

func (e *InvalidateError) Unwrap() []error {
	errs := make([]error, 0, len(e.Keys)+len(e.Patterns))
	for _, err := range e.Keys {
		errs = append(errs, err)
	}
	for _, err := range e.Patterns {
		errs = append(errs, err)
	}
	return errs
}

// Empty reports whether no cache operation failed.
func (e *InvalidateError) Empty() bool {
	return e == nil || len(e.Keys)+len(e.Patterns) == 0
}
