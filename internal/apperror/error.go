// Package apperror provides coded application errors that carry an HTTP
// status, a display message and an optional cause.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"
)

// AppError is an error with a stable code.
type AppError struct {
	Code       Code
	Message    string
	StatusCode int
	Context    string
	TraceID    string
	Timestamp  time.Time
	cause      error
	stack      []uintptr
}

func (e *AppError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Context)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// Is matches another AppError by code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithTraceID sets the id echoed back to API clients.
func (e *AppError) WithTraceID(traceID string) *AppError {
	e.TraceID = traceID
	return e
}

// ErrorBody is the JSON error payload of the HTTP API.
type ErrorBody struct {
	Code      Code   `json:"code"`
	Message   string `json:"message"`
	Context   string `json:"context,omitempty"`
	TraceID   string `json:"traceId,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Response wraps ErrorBody under "error".
type Response struct {
	Error ErrorBody `json:"error"`
}

// ToResponse returns the client-facing payload. The cause is not exposed.
func (e *AppError) ToResponse() Response {
	return Response{Error: ErrorBody{
		Code:      e.Code,
		Message:   e.Message,
		Context:   e.Context,
		TraceID:   e.TraceID,
		Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
	}}
}

// LogAttrs returns key/value pairs for structured logging, including the
// cause and the creation stack.
func (e *AppError) LogAttrs() []any {
	attrs := []any{"code", string(e.Code), "status", e.StatusCode}
	if e.Context != "" {
		attrs = append(attrs, "context", e.Context)
	}
	if e.cause != nil {
		attrs = append(attrs, "cause", e.cause.Error())
	}
	if len(e.stack) > 0 {
		attrs = append(attrs, "stack", e.formatStack())
	}
	return attrs
}

func (e *AppError) formatStack() string {
	var sb strings.Builder
	frames := runtime.CallersFrames(e.stack)
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			fmt.Fprintf(&sb, "\n\t%s:%d %s", frame.File, frame.Line, frame.Function)
		}
		if !more {
			break
		}
	}
	return sb.String()
}

func captureStack() []uintptr {
	var pcs [32]uintptr
	n := runtime.Callers(3, pcs[:])
	return pcs[:n]
}

// New creates an AppError. The message defaults to the code's registered
// message and the status to one derived from the code.
func New(code Code, opts ...Option) *AppError {
	e := &AppError{
		Code:       code,
		Message:    messages[code],
		StatusCode: defaultStatus(code),
		Timestamp:  time.Now(),
		stack:      captureStack(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.Message == "" {
		e.Message = string(code)
	}
	return e
}

// Option configures an AppError.
type Option func(*AppError)

func WithMessage(message string) Option {
	return func(e *AppError) { e.Message = message }
}

func WithContext(context string) Option {
	return func(e *AppError) { e.Context = context }
}

func WithStatusCode(statusCode int) Option {
	return func(e *AppError) { e.StatusCode = statusCode }
}

func WithCause(cause error) Option {
	return func(e *AppError) { e.cause = cause }
}

// NotFound is a 404 error.
func NotFound(code Code, context string) *AppError {
	return New(code, WithContext(context), WithStatusCode(http.StatusNotFound))
}

// Validation is a 400 error.
func Validation(code Code, context string) *AppError {
	return New(code, WithContext(context), WithStatusCode(http.StatusBadRequest))
}

// Internal is a 500 error.
func Internal(code Code, context string, cause error) *AppError {
	return New(code, WithContext(context), WithCause(cause), WithStatusCode(http.StatusInternalServerError))
}

// External is a 502 error for a failed upstream call.
func External(code Code, context string, cause error) *AppError {
	return New(code, WithContext(context), WithCause(cause), WithStatusCode(http.StatusBadGateway))
}

// Unavailable is a 503 error for an upstream that could not be reached.
func Unavailable(code Code, context string, cause error) *AppError {
	return New(code, WithContext(context), WithCause(cause), WithStatusCode(http.StatusServiceUnavailable))
}

// Wrap returns the AppError in err's chain, or an Internal error wrapping err.
func Wrap(err error, code Code, context string) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		if context != "" && appErr.Context == "" {
			appErr.Context = context
		}
		return appErr
	}
	return Internal(code, context, err)
}

// GetCode returns the code of the first AppError in err's chain.
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknownError
}

// StatusCode returns the HTTP status associated with err.
func StatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

func defaultStatus(code Code) int {
	switch code {
	case CodeLedgerPaginationLimit, CodePositionUnresolved, CodeProtocolUnavailable,
		CodeLedgerUnavailable, CodeExternalServiceError, CodePriceMissing:
		return http.StatusBadGateway
	case CodePriceTableUnavailable, CodeServiceUnavailable, CodeServiceTimeout, CodeCircuitOpen:
		return http.StatusServiceUnavailable
	case CodeMalformedNFTData, CodeManifestInvalid, CodeLedgerPreviewFailed:
		return http.StatusUnprocessableEntity
	case CodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case CodeConfigurationError, CodeInternalError, CodeUnknownError, CodeCacheError:
		return http.StatusInternalServerError
	}

	s := string(code)
	switch {
	case strings.Contains(s, "NOT_FOUND"):
		return http.StatusNotFound
	case strings.Contains(s, "INVALID"), strings.HasPrefix(s, "REQUIRED"), code == CodeValidationError:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
