package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an AppError. Handlers turn it into an HTTP status and
// clients receive it verbatim in the error body.
type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeValidation      Code = "VALIDATION_FAILED"
	CodeUnauthorized    Code = "UNAUTHORIZED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeUnavailable     Code = "UNAVAILABLE"
	CodeTimeout         Code = "TIMEOUT"
	CodeInternal        Code = "INTERNAL"
)

var statusByCode = map[Code]int{
	CodeInvalidArgument: http.StatusBadRequest,
	CodeValidation:      http.StatusUnprocessableEntity,
	CodeUnauthorized:    http.StatusUnauthorized,
	CodeForbidden:       http.StatusForbidden,
	CodeNotFound:        http.StatusNotFound,
	CodeConflict:        http.StatusConflict,
	CodeUnavailable:     http.StatusServiceUnavailable,
	CodeTimeout:         http.StatusGatewayTimeout,
}

// AppError is what services return. Message is shown to API clients; Err
// stays server side and only reaches the logs.
type AppError struct {
	Code    Code
	Op      string // e.g. "DocumentService.Verify"
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e == nil {
		return "<nil>"
	}
	s := e.Message
	if e.Err != nil {
		if s == "" {
			s = e.Err.Error()
		} else {
			s = fmt.Sprintf("%s: %v", s, e.Err)
		}
	}
	if s == "" {
		s = "error"
	}
	if e.Op != "" {
		return e.Op + ": " + s
	}
	return s
}

func (e *AppError) Unwrap() error { return e.Err }

func E(code Code, op, msg string, err error) error {
	return &AppError{Code: code, Op: op, Message: msg, Err: err}
}

// Invalid reports a typed domain error as VALIDATION_FAILED with the
// error's own text as the client message.
func Invalid(op string, err error) error {
	return &AppError{Code: CodeValidation, Op: op, Message: err.Error(), Err: err}
}

func IsCode(err error, code Code) bool {
	var ae *AppError
	return errors.As(err, &ae) && ae.Code == code
}

// HTTPStatus maps err onto a response status. Anything that is not an
// AppError is a 500 unless it wraps ErrNotFound.
func HTTPStatus(err error) int {
	var ae *AppError
	if errors.As(err, &ae) {
		if st, ok := statusByCode[ae.Code]; ok {
			return st
		}
		return http.StatusInternalServerError
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// Repository sentinels. Store code translates driver errors into these.
var (
	ErrNotFound   = errors.New("not found")
	ErrDuplicate  = errors.New("duplicate key")
	ErrForeignKey = errors.New("foreign key violation")
)
