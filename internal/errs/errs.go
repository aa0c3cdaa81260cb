// Package errs defines the unified "fatal decode error" kind used across
// bitio, huffman, deflate, and png (spec §7): every fatal condition gets a
// categorical Code for diagnostics, wrapped in a github.com/cockroachdb/errors
// chain rather than asserted away, so the caller always gets a real error
// with a stack and an identifiable tag instead of a partially-written
// output and a panic.
package errs

import "github.com/cockroachdb/errors"

// Code tags why a decode failed. There is only one error kind at the API
// boundary ("fatal"); Code exists purely for diagnostics and for callers
// that want to branch on failure category (e.g. treat CrcMismatch as a
// warning).
type Code int

const (
	_ Code = iota
	MalformedSignature
	UnsupportedFormat
	OversubscribedHuffman
	InvalidSymbol
	BackReferenceOutOfRange
	OutputOverflow
	InputTruncated
	ChunkOrderViolation
	CrcMismatch
	FilterCodeInvalid
)

func (c Code) String() string {
	switch c {
	case MalformedSignature:
		return "malformed signature"
	case UnsupportedFormat:
		return "unsupported format"
	case OversubscribedHuffman:
		return "oversubscribed huffman code"
	case InvalidSymbol:
		return "invalid symbol"
	case BackReferenceOutOfRange:
		return "back-reference out of range"
	case OutputOverflow:
		return "output overflow"
	case InputTruncated:
		return "input truncated"
	case ChunkOrderViolation:
		return "chunk order violation"
	case CrcMismatch:
		return "crc mismatch"
	case FilterCodeInvalid:
		return "filter code invalid"
	default:
		return "unknown"
	}
}

// mark is the cockroachdb/errors identity used to tag an error chain with
// a Code, so errors.Is keeps working across errors.Wrap boundaries added
// by callers above this package.
type mark struct{ code Code }

func (m mark) Error() string { return m.code.String() }

// New builds a fatal error tagged with code.
func New(code Code, msg string) error {
	err := errors.Newf("%s: %s", code, msg)
	return errors.Mark(err, mark{code})
}

// Newf is New with fmt-style formatting.
func Newf(code Code, format string, args ...interface{}) error {
	err := errors.Newf("%s: "+format, append([]interface{}{code}, args...)...)
	return errors.Mark(err, mark{code})
}

// Wrap tags an existing error with code, preserving its chain.
func Wrap(code Code, err error, msg string) error {
	if err == nil {
		return nil
	}
	wrapped := errors.Wrapf(err, "%s: %s", code, msg)
	return errors.Mark(wrapped, mark{code})
}

// allCodes enumerates every Code for CodeOf's errors.Is scan.
var allCodes = []Code{
	MalformedSignature,
	UnsupportedFormat,
	OversubscribedHuffman,
	InvalidSymbol,
	BackReferenceOutOfRange,
	OutputOverflow,
	InputTruncated,
	ChunkOrderViolation,
	CrcMismatch,
	FilterCodeInvalid,
}

// CodeOf recovers the Code tag from an error produced by New/Newf/Wrap, if
// any is present on its chain.
func CodeOf(err error) (code Code, ok bool) {
	for _, c := range allCodes {
		if errors.Is(err, mark{c}) {
			return c, true
		}
	}
	return 0, false
}
