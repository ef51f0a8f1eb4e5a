package client

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnauthorized means the session could not be established or repaired;
	// the client has already discarded its cached state when this surfaces.
	ErrUnauthorized = errors.New("unauthorized")

	ErrNotFound = errors.New("not found")

	// ErrUnavailable covers server-side failures (5xx). Transport errors such
	// as timeouts are returned as-is, not mapped onto this.
	ErrUnavailable = errors.New("service unavailable")
)

// ValidationError reports every violated field of a rejected payload.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, f := range names {
		parts = append(parts, f+": "+e.Fields[f])
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(parts, "; "))
}
