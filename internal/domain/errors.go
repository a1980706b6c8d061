package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by point lookups for absent rows.
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists reports a unique-constraint conflict on an insert
// that is not an upsert, e.g. double-favoriting.
var ErrAlreadyExists = errors.New("already exists")

// UpstreamError reports a non-2xx or undecodable response from a source
// platform. It fails the whole source for the current cycle, never the
// cycle itself.
type UpstreamError struct {
	Source     string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: upstream status %d", e.Source, e.StatusCode)
	}
	return fmt.Sprintf("%s: upstream: %v", e.Source, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// MappingError reports a single malformed upstream item. The item is
// skipped; the rest of the batch proceeds.
type MappingError struct {
	Source     string
	ExternalID string
	Err        error
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("%s: map item %s: %v", e.Source, e.ExternalID, e.Err)
}

func (e *MappingError) Unwrap() error { return e.Err }

// ConfigurationError reports a missing credential or setting. Fatal for
// the source or feature that needs it, not for the rest of the system.
type ConfigurationError struct {
	Setting string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing configuration: %s", e.Setting)
}
