// Package errs centralizes the sentinel errors and wrapping helpers used
// across dvcodec, built on github.com/cockroachdb/errors for wrapping
// and assertions, the error-handling library used by a storage-engine
// codebase this module draws on (darshanime-pebble).
package errs

import "github.com/cockroachdb/errors"

// Sentinel errors returned by the writer. Callers should compare with
// errors.Is since Wrap/Wrapf preserve the underlying sentinel.
var (
	// ErrFieldAlreadyStarted is returned when a field encoder is asked
	// to start a field while another is still open.
	ErrFieldAlreadyStarted = errors.New("dvcodec: field already started")
	// ErrNoFieldStarted is returned when End is called without a
	// matching Start.
	ErrNoFieldStarted = errors.New("dvcodec: no field started")
	// ErrWriterClosed is returned when a write is attempted after Close.
	ErrWriterClosed = errors.New("dvcodec: writer already closed")
	// ErrInvalidFieldNumber is returned for a negative field number.
	ErrInvalidFieldNumber = errors.New("dvcodec: invalid field number")
	// ErrNonIncreasingTerm is returned when the term cursor yields a
	// term that does not strictly increase over the previous one
	// (front-coding requires strictly increasing, distinct terms).
	ErrNonIncreasingTerm = errors.New("dvcodec: term cursor not strictly increasing")
	// ErrDocCountMismatch is returned when a document id falls outside
	// [0, maxDoc) for the segment being written.
	ErrDocCountMismatch = errors.New("dvcodec: doc id exceeds maxDoc")
)

// Wrap annotates err with a message if err is non-nil, otherwise returns
// nil. Thin wrapper over errors.Wrap kept for call-site brevity, routed
// through cockroachdb/errors so stack traces survive across the
// writer/closer boundary.
func Wrap(err error, msg string) error {
	return errors.Wrap(err, msg)
}

// Wrapf is the formatted form of Wrap.
func Wrapf(err error, format string, args ...any) error {
	return errors.Wrapf(err, format, args...)
}

// AssertInvariant panics with an assertion-failure error when cond is
// false. Used for the programmer-invariant violations spec.md §4.2 and
// §7 declare fatal: a caller bug that must never occur for well-formed
// input (e.g. a non-zero min on an ordinal stream).
func AssertInvariant(cond bool, format string, args ...any) {
	if !cond {
		panic(errors.AssertionFailedf(format, args...))
	}
}
