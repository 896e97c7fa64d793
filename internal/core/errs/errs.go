package errs

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"syscall"
)

// Kind classifies a failure for retry and criticality decisions.
type Kind int

const (
	KindUnknown Kind = iota
	// KindTransient covers connectivity and timeout failures that may succeed on retry.
	KindTransient
	// KindValidation marks a malformed input record.
	KindValidation
	// KindConstraint marks a store-level uniqueness, foreign-key or check violation.
	KindConstraint
	// KindStore marks any other store failure (rollback, bad SQL, driver error).
	KindStore
	// KindStage marks a generic stage failure.
	KindStage
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindValidation:
		return "validation"
	case KindConstraint:
		return "constraint"
	case KindStore:
		return "store"
	case KindStage:
		return "stage"
	default:
		return "unknown"
	}
}

// Error is a classified failure. Op names the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func Transient(op string, err error) error  { return newError(KindTransient, op, err) }
func Validation(op string, err error) error { return newError(KindValidation, op, err) }
func Constraint(op string, err error) error { return newError(KindConstraint, op, err) }
func Store(op string, err error) error      { return newError(KindStore, op, err) }
func Stage(op string, err error) error      { return newError(KindStage, op, err) }

// Validationf builds a validation error from a message.
func Validationf(op string, format string, args ...any) error {
	return Validation(op, fmt.Errorf(format, args...))
}

// KindOf returns the kind of the outermost classified error in the chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	// A classified error keeps its kind even when it wraps a network failure.
	if k := KindOf(err); k != KindUnknown {
		return k == KindTransient
	}
	return isNetworkFailure(err)
}

// FromNetwork classifies connectivity failures as transient and leaves other
// errors as store failures.
func FromNetwork(op string, err error) error {
	if err == nil {
		return nil
	}
	if isNetworkFailure(err) {
		return Transient(op, err)
	}
	return Store(op, err)
}

func isNetworkFailure(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	var oe *net.OpError
	return errors.As(err, &oe)
}

// Wrap adds context and preserves the error chain (errors.Is/As works).
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf adds formatted context and preserves the error chain.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	args = append(args, err)
	return fmt.Errorf(format+": %w", args...)
}

type loggable struct{ err error }

// Loggable makes slog encode the error as structured fields.
// Usage: slog.Any("error", errs.Loggable(err))
func Loggable(err error) slog.LogValuer { return loggable{err: err} }

func (l loggable) LogValue() slog.Value {
	if l.err == nil {
		return slog.GroupValue()
	}

	attrs := []slog.Attr{
		slog.String("message", l.err.Error()),
		slog.String("kind", KindOf(l.err).String()),
	}
	if chain := ErrorChainStrings(l.err); len(chain) > 1 {
		attrs = append(attrs, slog.Any("chain", chain))
	}
	return slog.GroupValue(attrs...)
}

// ErrorChainStrings returns the unwrap chain as strings (outer -> inner).
func ErrorChainStrings(err error) []string {
	if err == nil {
		return nil
	}

	out := make([]string, 0, 8)
	for e := err; e != nil; e = errors.Unwrap(e) {
		out = append(out, e.Error())
	}
	return out
}
