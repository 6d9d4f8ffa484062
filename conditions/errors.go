package conditions

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CC_ERR_NULL_INPUT       ErrorCode = "CC_ERR_NULL_INPUT"
	CC_ERR_DECODE           ErrorCode = "CC_ERR_DECODE"
	CC_ERR_UNSUPPORTED_TYPE ErrorCode = "CC_ERR_UNSUPPORTED_TYPE"
	CC_ERR_TYPE_MISMATCH    ErrorCode = "CC_ERR_TYPE_MISMATCH"
	CC_ERR_STRUCTURAL       ErrorCode = "CC_ERR_STRUCTURAL"
	CC_ERR_PARAM            ErrorCode = "CC_ERR_PARAM"
	CC_ERR_DEPTH            ErrorCode = "CC_ERR_DEPTH"
)

// CondError is the single error type returned by this package.
// Offset is the absolute byte position of a decode failure, or -1.
type CondError struct {
	Code   ErrorCode
	Msg    string
	Offset int
}

func (e *CondError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := string(e.Code)
	if e.Msg != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Msg)
	}
	if e.Offset >= 0 {
		msg = fmt.Sprintf("%s (offset %d)", msg, e.Offset)
	}
	return msg
}

func conderr(code ErrorCode, msg string) error {
	return &CondError{Code: code, Msg: msg, Offset: -1}
}

func decodeErr(offset int, msg string) error {
	return &CondError{Code: CC_ERR_DECODE, Msg: msg, Offset: offset}
}

// ErrorCodeOf extracts the code of a *CondError anywhere in err's chain.
func ErrorCodeOf(err error) (ErrorCode, bool) {
	var ce *CondError
	if errors.As(err, &ce) {
		return ce.Code, true
	}
	return "", false
}

// IsDecodeError reports whether err rejects malformed or non-canonical bytes.
// Unknown mandatory fulfillment types count as decode failures.
func IsDecodeError(err error) bool {
	code, ok := ErrorCodeOf(err)
	return ok && (code == CC_ERR_DECODE || code == CC_ERR_UNSUPPORTED_TYPE)
}
