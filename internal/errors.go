package internal

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoUsableSource is returned when every source in a resolver chain,
// including the static fallback, failed. The static fallback makes this
// unreachable unless the resolver was built without one.
var ErrNoUsableSource = errors.New("no usable source")

// ParseErrorKind classifies table parse failures.
type ParseErrorKind int

const (
	// MissingColumn means a required logical column could not be resolved.
	MissingColumn ParseErrorKind = iota
	// EmptyResult means the table parsed but no valid rows remained.
	EmptyResult
	// Malformed means the text could not be split into rows at all.
	Malformed
)

func (k ParseErrorKind) String() string {
	switch k {
	case MissingColumn:
		return "missing column"
	case EmptyResult:
		return "empty result"
	case Malformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// ParseError represents errors parsing a table
type ParseError struct {
	Kind    ParseErrorKind
	Columns []string // headers found, for MissingColumn
	Missing []string // logical columns that could not be resolved
	Err     error
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case MissingColumn:
		return fmt.Sprintf("parse error [%s]: need %s, found headers: %s",
			e.Kind, strings.Join(e.Missing, ", "), strings.Join(e.Columns, ", "))
	case EmptyResult:
		return fmt.Sprintf("parse error [%s]: no valid rows", e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("parse error [%s]: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("parse error [%s]", e.Kind)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsParseError reports whether err is a ParseError of the given kind.
func IsParseError(err error, kind ParseErrorKind) bool {
	var pe *ParseError
	return errors.As(err, &pe) && pe.Kind == kind
}

// FetchError represents a failed attempt to retrieve raw table text
type FetchError struct {
	Source string
	URL    string
	Status int // HTTP status, 0 for transport errors
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch error [%s] %s: HTTP %d", e.Source, e.URL, e.Status)
	}
	return fmt.Sprintf("fetch error [%s] %s: %v", e.Source, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// StorageError represents errors accessing the key-value store
type StorageError struct {
	Key string
	Op  string // "get", "set", "delete", "open"
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ExportError represents errors during export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
