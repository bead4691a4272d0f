// Package engineerr defines the engine-wide error taxonomy (spec §7).
//
// Every component wraps failures into one of these seven kinds instead of
// inventing its own per-package sentinel set, so callers can dispatch on
// Kind() regardless of which component produced the error.
package engineerr

import (
	"errors"
	"fmt"
)

// Kind is one of the seven abstract error categories the engine recognises.
type Kind int

const (
	// KindNotFound means the named game, mod, correlation, or archive is absent.
	KindNotFound Kind = iota
	// KindAlreadyExists means a duplicate create was attempted (often idempotent, not surfaced).
	KindAlreadyExists
	// KindInvalidInput means the caller supplied something structurally wrong
	// (unsupported extension, FOMOD archive routed to the direct installer,
	// malformed rename).
	KindInvalidInput
	// KindFormatError means a file could not be parsed (unreadable archive,
	// truncated RED archive, bad FOMOD XML, invalid modlist entry).
	KindFormatError
	// KindExternalFailure means the catalog or web-search collaborator failed.
	// Recovered locally — never propagates as fatal to a scan.
	KindExternalFailure
	// KindPremiumRequired signals the caller to surface an out-of-band download flow.
	KindPremiumRequired
	// KindFilesystemError means extraction, rename, or delete failed. The
	// installer's Toggle and the load-order rename path roll back the renames
	// already made; Uninstall stops at the first failed path and returns this
	// error without reporting which paths were already removed.
	KindFilesystemError
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindAlreadyExists:
		return "already_exists"
	case KindInvalidInput:
		return "invalid_input"
	case KindFormatError:
		return "format_error"
	case KindExternalFailure:
		return "external_failure"
	case KindPremiumRequired:
		return "premium_required"
	case KindFilesystemError:
		return "filesystem_error"
	default:
		return "unknown"
	}
}

// Error wraps an underlying error with one of the seven kinds.
type Error struct {
	kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.msg)
}

func (e *Error) Unwrap() error { return e.err }

// Kind returns the error's category.
func (e *Error) Kind() Kind { return e.kind }

// New builds an Error of the given kind with a message and no wrapped cause.
func New(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

// Wrap builds an Error of the given kind, wrapping cause.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{kind: kind, msg: msg, err: cause}
}

// Is reports whether err carries the given Kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	var e *Error
	for errors.As(err, &e) {
		if e.kind == kind {
			return true
		}
		err = e.err
	}
	return false
}

func NotFound(msg string) *Error         { return New(KindNotFound, msg) }
func AlreadyExists(msg string) *Error    { return New(KindAlreadyExists, msg) }
func InvalidInput(msg string) *Error     { return New(KindInvalidInput, msg) }
func FormatErr(msg string, err error) *Error {
	return Wrap(KindFormatError, msg, err)
}
func ExternalFailure(msg string, err error) *Error {
	return Wrap(KindExternalFailure, msg, err)
}
func PremiumRequired(msg string) *Error { return New(KindPremiumRequired, msg) }
func FilesystemErr(msg string, err error) *Error {
	return Wrap(KindFilesystemError, msg, err)
}
