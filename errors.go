package degulate

import "github.com/tzneal/degulate/internal/errs"

// Code is the categorical tag spec §7 attaches to every fatal condition
// the decoder can hit. It exists for diagnostics only — at the API
// boundary there is a single error kind: decoding failed and any partial
// output is undefined.
type Code = errs.Code

// The full set of diagnostic tags named in spec §7.
const (
	CodeMalformedSignature      = errs.MalformedSignature
	CodeUnsupportedFormat       = errs.UnsupportedFormat
	CodeOversubscribedHuffman   = errs.OversubscribedHuffman
	CodeInvalidSymbol           = errs.InvalidSymbol
	CodeBackReferenceOutOfRange = errs.BackReferenceOutOfRange
	CodeOutputOverflow          = errs.OutputOverflow
	CodeInputTruncated          = errs.InputTruncated
	CodeChunkOrderViolation     = errs.ChunkOrderViolation
	CodeCrcMismatch             = errs.CrcMismatch
	CodeFilterCodeInvalid       = errs.FilterCodeInvalid
)

// CodeOf recovers the Code tag from an error returned by this module, if
// any is present on its chain. It works through any number of
// errors.Wrap/fmt.Errorf(%w) layers a caller might add.
func CodeOf(err error) (code Code, ok bool) {
	return errs.CodeOf(err)
}
