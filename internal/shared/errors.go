package shared

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalid      = errors.New("invalid argument")
	ErrUnavailable  = errors.New("upstream unavailable")
)

type APIError struct {
	Code    string `json:"code" example:"invalid_request"`
	Message string `json:"message" example:"Invalid request body"`
	Details any    `json:"details,omitempty" swaggertype:"object"`
}

func NewAPIError(code, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
	}
}

func (e *APIError) WithDetails(details any) *APIError {
	e.Details = details
	return e
}

func (e *APIError) ToHTTP(status int) *echo.HTTPError {
	return echo.NewHTTPError(status, e)
}

func BadRequest(code, message string) *echo.HTTPError {
	return NewAPIError(code, message).ToHTTP(http.StatusBadRequest)
}

func Unauthorized(code, message string) *echo.HTTPError {
	return NewAPIError(code, message).ToHTTP(http.StatusUnauthorized)
}

func Forbidden(code, message string) *echo.HTTPError {
	return NewAPIError(code, message).ToHTTP(http.StatusForbidden)
}

func NotFound(code, message string) *echo.HTTPError {
	return NewAPIError(code, message).ToHTTP(http.StatusNotFound)
}

func InternalError(code, message string) *echo.HTTPError {
	return NewAPIError(code, message).ToHTTP(http.StatusInternalServerError)
}

// Unavailable maps upstream store failures to 503 so the dashboard can render
// a retryable "unavailable" state instead of zeroes.
func Unavailable(code, message string) *echo.HTTPError {
	return NewAPIError(code, message).ToHTTP(http.StatusServiceUnavailable)
}

// FromError translates the service-level sentinel wrapped in err into the
// matching HTTP error. Unknown errors surface as 500.
func FromError(err error, code string) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrNotFound):
		return NotFound(code, err.Error())
	case errors.Is(err, ErrUnauthorized):
		return Unauthorized(code, err.Error())
	case errors.Is(err, ErrForbidden):
		return Forbidden(code, err.Error())
	case errors.Is(err, ErrInvalid):
		return BadRequest(code, err.Error())
	case errors.Is(err, ErrUnavailable):
		return Unavailable(code, err.Error())
	default:
		return InternalError(code, "internal error")
	}
}
