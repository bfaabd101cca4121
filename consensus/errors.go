package consensus

import "fmt"

// ErrorCode identifies a class of codec or validation failure. Codes are
// themselves errors so callers can match with errors.Is(err, ERR_PARSE).
type ErrorCode string

const (
	ERR_UNEXPECTED_EOF    ErrorCode = "ERR_UNEXPECTED_EOF"
	ERR_ENCODING_OVERFLOW ErrorCode = "ERR_ENCODING_OVERFLOW"
	ERR_VARINT_MALFORMED  ErrorCode = "ERR_VARINT_MALFORMED"
	ERR_PARSE             ErrorCode = "ERR_PARSE"

	BLOCK_ERR_POW_INVALID     ErrorCode = "BLOCK_ERR_POW_INVALID"
	BLOCK_ERR_LINKAGE_INVALID ErrorCode = "BLOCK_ERR_LINKAGE_INVALID"
	BLOCK_ERR_MERKLE_INVALID  ErrorCode = "BLOCK_ERR_MERKLE_INVALID"
	BLOCK_ERR_HASH_MISMATCH   ErrorCode = "BLOCK_ERR_HASH_MISMATCH"

	TX_ERR_INPUT_INDEX ErrorCode = "TX_ERR_INPUT_INDEX"
	TX_ERR_SCRIPT      ErrorCode = "TX_ERR_SCRIPT"
)

func (c ErrorCode) Error() string { return string(c) }

type Error struct {
	Code ErrorCode
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Msg == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the bare ErrorCode as well as another *Error with the same code.
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case ErrorCode:
		return e.Code == t
	case *Error:
		return t != nil && e.Code == t.Code
	}
	return false
}

func cerr(code ErrorCode, msg string) error {
	return &Error{Code: code, Msg: msg}
}

func cerrf(code ErrorCode, format string, args ...any) error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

func cwrap(code ErrorCode, err error, format string, args ...any) error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...) + ": " + err.Error(), Err: err}
}
