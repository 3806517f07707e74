package aggregates

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode classifies a failed course import or aggregate write.
type ErrorCode string

const (
	CodeMissingManifest      ErrorCode = "missing_manifest"
	CodeEmptyCourse          ErrorCode = "empty_course"
	CodeNotOwner             ErrorCode = "not_owner"
	CodeStaleVersion         ErrorCode = "stale_version"
	CodeMalformedQuizPayload ErrorCode = "malformed_quiz_payload"
	CodeArchiveLayoutInvalid ErrorCode = "archive_layout_invalid"
	CodeMalformedManifest    ErrorCode = "malformed_manifest"

	CodeValidation         ErrorCode = "validation"
	CodeNotFound           ErrorCode = "not_found"
	CodeConflict           ErrorCode = "conflict"
	CodePreconditionFailed ErrorCode = "precondition_failed"
	CodeRetryable          ErrorCode = "retryable"
	CodeInternal           ErrorCode = "internal"
)

// Error is the canonical error wrapper.
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s (%s)", op, msg, e.Code)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Code)
	case msg != "":
		return fmt.Sprintf("%s (%s)", msg, e.Code)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches any *Error carrying the same code, so the sentinels below work
// with errors.Is regardless of Op or Message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

var (
	ErrMissingManifest      = &Error{Code: CodeMissingManifest, Message: "archive does not contain a module.xml"}
	ErrEmptyCourse          = &Error{Code: CodeEmptyCourse, Message: "course has no sections"}
	ErrNotOwner             = &Error{Code: CodeNotOwner, Message: "only the original owner may update this course"}
	ErrStaleVersion         = &Error{Code: CodeStaleVersion, Message: "a newer or equal version of this course already exists"}
	ErrMalformedQuizPayload = &Error{Code: CodeMalformedQuizPayload, Message: "quiz payload is malformed"}
	ErrArchiveLayoutInvalid = &Error{Code: CodeArchiveLayoutInvalid, Message: "invalid course archive layout"}
	ErrMalformedManifest    = &Error{Code: CodeMalformedManifest, Message: "module.xml is malformed"}
)

// NewError builds an error with explicit code + operation.
func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

// Wrap annotates an existing error with a code.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(code, op, err.Error(), err)
}

// IsCode checks whether err (or a wrapped err) carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// CodeOf extracts the code when available.
func CodeOf(err error) ErrorCode {
	var aggErr *Error
	if !errors.As(err, &aggErr) {
		return ""
	}
	return aggErr.Code
}
