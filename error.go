package bweb

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Code is an error code that mirrors the http status codes. Handlers and middleware return an [*Error] carrying
// a code to have the dispatcher answer with that status instead of a 500.
type Code int

const (
	CodeUnknown                      Code = 0
	CodeBadRequest                   Code = http.StatusBadRequest                   // RFC 9110, 15.5.1
	CodeUnauthorized                 Code = http.StatusUnauthorized                 // RFC 9110, 15.5.2
	CodePaymentRequired              Code = http.StatusPaymentRequired              // RFC 9110, 15.5.3
	CodeForbidden                    Code = http.StatusForbidden                    // RFC 9110, 15.5.4
	CodeNotFound                     Code = http.StatusNotFound                     // RFC 9110, 15.5.5
	CodeMethodNotAllowed             Code = http.StatusMethodNotAllowed             // RFC 9110, 15.5.6
	CodeNotAcceptable                Code = http.StatusNotAcceptable                // RFC 9110, 15.5.7
	CodeProxyAuthRequired            Code = http.StatusProxyAuthRequired            // RFC 9110, 15.5.8
	CodeRequestTimeout               Code = http.StatusRequestTimeout               // RFC 9110, 15.5.9
	CodeConflict                     Code = http.StatusConflict                     // RFC 9110, 15.5.10
	CodeGone                         Code = http.StatusGone                         // RFC 9110, 15.5.11
	CodeLengthRequired               Code = http.StatusLengthRequired               // RFC 9110, 15.5.12
	CodePreconditionFailed           Code = http.StatusPreconditionFailed           // RFC 9110, 15.5.13
	CodeRequestEntityTooLarge        Code = http.StatusRequestEntityTooLarge        // RFC 9110, 15.5.14
	CodeRequestURITooLong            Code = http.StatusRequestURITooLong            // RFC 9110, 15.5.15
	CodeUnsupportedMediaType         Code = http.StatusUnsupportedMediaType         // RFC 9110, 15.5.16
	CodeRequestedRangeNotSatisfiable Code = http.StatusRequestedRangeNotSatisfiable // RFC 9110, 15.5.17
	CodeExpectationFailed            Code = http.StatusExpectationFailed            // RFC 9110, 15.5.18
	CodeTeapot                       Code = http.StatusTeapot                       // RFC 9110, 15.5.19 (Unused)
	CodeMisdirectedRequest           Code = http.StatusMisdirectedRequest           // RFC 9110, 15.5.20
	CodeUnprocessableEntity          Code = http.StatusUnprocessableEntity          // RFC 9110, 15.5.21
	CodeLocked                       Code = http.StatusLocked                       // RFC 4918, 11.3
	CodeFailedDependency             Code = http.StatusFailedDependency             // RFC 4918, 11.4
	CodeTooEarly                     Code = http.StatusTooEarly                     // RFC 8470, 5.2.
	CodeUpgradeRequired              Code = http.StatusUpgradeRequired              // RFC 9110, 15.5.22
	CodePreconditionRequired         Code = http.StatusPreconditionRequired         // RFC 6585, 3
	CodeTooManyRequests              Code = http.StatusTooManyRequests              // RFC 6585, 4
	CodeRequestHeaderFieldsTooLarge  Code = http.StatusRequestHeaderFieldsTooLarge  // RFC 6585, 5
	CodeUnavailableForLegalReasons   Code = http.StatusUnavailableForLegalReasons   // RFC 7725, 3

	CodeInternalServerError           Code = http.StatusInternalServerError           // RFC 9110, 15.6.1
	CodeNotImplemented                Code = http.StatusNotImplemented                // RFC 9110, 15.6.2
	CodeBadGateway                    Code = http.StatusBadGateway                    // RFC 9110, 15.6.3
	CodeServiceUnavailable            Code = http.StatusServiceUnavailable            // RFC 9110, 15.6.4
	CodeGatewayTimeout                Code = http.StatusGatewayTimeout                // RFC 9110, 15.6.5
	CodeHTTPVersionNotSupported       Code = http.StatusHTTPVersionNotSupported       // RFC 9110, 15.6.6
	CodeVariantAlsoNegotiates         Code = http.StatusVariantAlsoNegotiates         // RFC 2295, 8.1
	CodeInsufficientStorage           Code = http.StatusInsufficientStorage           // RFC 4918, 11.5
	CodeLoopDetected                  Code = http.StatusLoopDetected                  // RFC 5842, 7.2
	CodeNotExtended                   Code = http.StatusNotExtended                   // RFC 2774, 7
	CodeNetworkAuthenticationRequired Code = http.StatusNetworkAuthenticationRequired // RFC 6585, 6
)

var (
	// ErrRouteConflict is returned by [App.Build] when two registrations make matching ambiguous.
	ErrRouteConflict = errors.New("route conflict")
	// ErrNextCalledTwice is returned when a middleware invokes its continuation more than once for the
	// same request.
	ErrNextCalledTwice = errors.New("continuation invoked more than once")
	// ErrStreamWrite is returned from a stream's emit function once writing to the client has failed.
	ErrStreamWrite = errors.New("stream write failed")
)

// withSentinel returns err with sentinel added to its unwrap chain, so both the standard library's
// errors.Is and errors.As see the sentinel and whatever err wraps.
func withSentinel(sentinel, err error) error {
	return fmt.Errorf("%w: %w", sentinel, err)
}

// StreamWriteError wraps a failed write to the client so that it matches [ErrStreamWrite].
func StreamWriteError(err error, op string) error {
	return withSentinel(ErrStreamWrite, errors.Wrap(err, op))
}

// Error describes an http error.
type Error struct {
	code Code
	err  error
}

// NewError inits a new error given the error code.
func NewError(c Code, underlying error) *Error {
	return &Error{c, underlying}
}

func (e *Error) Code() Code    { return e.code }
func (e *Error) Unwrap() error { return e.err }
func (e *Error) Error() string {
	status := http.StatusText(int(e.Code()))
	if status == "" {
		status = "Unknown"
	}

	return fmt.Sprintf("%s: %s", status, e.err.Error())
}

// Message is the text sent to the client, without the status prefix.
func (e *Error) Message() string { return e.err.Error() }

// BadRequest returns a 400 error with the given message.
func BadRequest(msg string) *Error { return NewError(CodeBadRequest, errors.New(msg)) }

// Unauthorized returns a 401 error with the given message.
func Unauthorized(msg string) *Error { return NewError(CodeUnauthorized, errors.New(msg)) }

// Forbidden returns a 403 error with the given message.
func Forbidden(msg string) *Error { return NewError(CodeForbidden, errors.New(msg)) }

// NotFound returns a 404 error with the given message.
func NotFound(msg string) *Error { return NewError(CodeNotFound, errors.New(msg)) }

// Unprocessable returns a 422 error with the given message.
func Unprocessable(msg string) *Error { return NewError(CodeUnprocessableEntity, errors.New(msg)) }

// Internal returns a 500 error with the given message. Unlike an arbitrary error, the message is
// shown to the client.
func Internal(msg string) *Error { return NewError(CodeInternalServerError, errors.New(msg)) }

// Unavailable returns a 503 error with the given message.
func Unavailable(msg string) *Error { return NewError(CodeServiceUnavailable, errors.New(msg)) }

// CodeOf returns the error's status code if it is or wraps an [*Error] and
// [CodeUnknown] otherwise.
func CodeOf(err error) Code {
	if herr, ok := asError(err); ok {
		return herr.Code()
	}
	return CodeUnknown
}

// asError uses errors.As to unwrap any error and look for an *Error.
func asError(err error) (*Error, bool) {
	var herr *Error
	ok := errors.As(err, &herr)
	return herr, ok
}

// PanicError is a recovered panic turned into an error.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }

// errorResponse renders err the way the dispatcher answers it: an [*Error] keeps its code and
// message as a JSON body, everything else becomes a plain 500.
func errorResponse(err error) *Response {
	herr, ok := asError(err)
	if !ok || herr.Code() < 400 || herr.Code() > 599 {
		return Text(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}

	return JSON(int(herr.Code()), map[string]string{"error": herr.Message()})
}
