package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrKind is used to map scan errors to process exit codes consistently.
type ErrKind string

const (
	KindValidation ErrKind = "validation" // exit 1, raised before any connection
	KindConnection ErrKind = "connection" // exit 2
	KindFetch      ErrKind = "fetch"      // exit 2
	KindInternal   ErrKind = "internal"   // exit 2
)

// Error is a structured scan error.
// - Kind: high-level category for exit-code mapping
// - Code: stable machine code (do not change casually)
// - Message: short human summary
// - Meta: optional details (flag, value, etc.)
// - Cause: wrapped underlying error
type Error struct {
	Kind    ErrKind
	Code    string
	Message string
	Meta    map[string]string
	Cause   error
}

// Error renders "<code>: <message> [k=v ...]: <cause>". Meta keys are sorted.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Code)
	b.WriteString(": ")
	b.WriteString(e.Message)

	if len(e.Meta) > 0 {
		keys := make([]string, 0, len(e.Meta))
		for k := range e.Meta {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString(" [")
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%s=%q", k, e.Meta[k])
		}
		b.WriteByte(']')
	}

	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

func New(kind ErrKind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

func Wrap(kind ErrKind, code, msg string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: msg, Cause: cause}
}

func WithMeta(err *Error, meta map[string]string) *Error {
	err.Meta = meta
	return err
}

func Is(err error, code string) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// KindOf returns the kind of the first *Error in err's chain,
// or KindInternal when err carries none.
func KindOf(err error) ErrKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// ----------------------
// Validation errors (exit 1)
// ----------------------

func ErrInvalidArgument(arg, reason string) *Error {
	return WithMeta(New(KindValidation, "invalid_argument", "invalid argument"), map[string]string{
		"argument": arg,
		"reason":   reason,
	})
}

func ErrInvalidTimeframe(value string) *Error {
	return WithMeta(New(KindValidation, "invalid_timeframe", "invalid timeframe, expected <number><s|m|h|d|w>"), map[string]string{
		"value": value,
	})
}

func ErrUnsupportedOption(cause error) *Error {
	return Wrap(KindValidation, "unsupported_option", "unsupported option", cause)
}

func ErrInvalidField(field, reason string) *Error {
	return WithMeta(New(KindValidation, "invalid_field", "invalid field"), map[string]string{
		"field":  field,
		"reason": reason,
	})
}

// ----------------------
// Connection errors (exit 2)
// ----------------------

func ErrRedisUnavailable(cause error) *Error {
	return Wrap(KindConnection, "redis_unavailable", "redis unavailable", cause)
}

func ErrScanFailed(cause error) *Error {
	return Wrap(KindConnection, "scan_failed", "key enumeration failed", cause)
}

// ----------------------
// Fetch / internal errors (exit 2)
// ----------------------

func ErrFetchFailed(cause error) *Error {
	return Wrap(KindFetch, "fetch_failed", "batched metadata request failed", cause)
}

func ErrEmitFailed(cause error) *Error {
	return Wrap(KindInternal, "emit_failed", "record emission failed", cause)
}

func ErrInterrupted(cause error) *Error {
	return Wrap(KindInternal, "interrupted", "scan interrupted", cause)
}
