package grf

import "fmt"

// Code identifies the class of failure reported by an Error.
type Code string

const (
	// InvalidMagic means the archive signature did not match. Fatal.
	InvalidMagic Code = "invalid_magic"
	// UnsupportedVersion means the header version was neither 0x200 nor 0x300. Fatal.
	UnsupportedVersion Code = "unsupported_version"
	// NotLoaded means an API was called before Load succeeded. Recoverable.
	NotLoaded Code = "not_loaded"
	// FileNotFound means the resolver found no match. Recoverable.
	FileNotFound Code = "file_not_found"
	// AmbiguousPath means the resolver found multiple candidates. Recoverable.
	AmbiguousPath Code = "ambiguous_path"
	// DecompressFail means inflate failed or produced the wrong length. Recoverable, per-entry.
	DecompressFail Code = "decompress_fail"
	// CorruptTable means the central directory could not be parsed. Fatal.
	CorruptTable Code = "corrupt_table"
	// LimitExceeded means the declared entry count exceeded MaxEntries. Fatal.
	LimitExceeded Code = "limit_exceeded"
	// InvalidOffset means an entry's offset and length exceed the source length. Recoverable, per-entry.
	InvalidOffset Code = "invalid_offset"
	// DecryptRequired is reserved for archives with unsupported custom encryption.
	DecryptRequired Code = "decrypt_required"
)

// Error is a coded, contextual failure raised by the grf package.
type Error struct {
	Code    Code
	Message string
	Context map[string]any
	cause   error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("grf: %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func newError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func (e *Error) withContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any, 1)
	}
	e.Context[key] = value
	return e
}

func (e *Error) wrap(cause error) *Error {
	e.cause = cause
	return e
}

// AmbiguousPathError returns an AmbiguousPath error listing up to five
// candidate exact names for the query.
func AmbiguousPathError(query string, candidates []string) *Error {
	shown := candidates
	if len(shown) > 5 {
		shown = shown[:5]
	}
	err := newError(AmbiguousPath, fmt.Sprintf("%q resolves to %d entries", query, len(candidates)))
	err.withContext("query", query)
	err.withContext("candidates", shown)
	return err
}
