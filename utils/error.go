package utils

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Error codes returned across the trust boundary. Messages attached to
// NotFound and Unauthorized responses stay generic so callers cannot probe
// token validity or internal state.
const (
	CodeValidation      = "validation_error"
	CodeUnauthorized    = "unauthorized"
	CodeNotFound        = "not_found"
	CodeExternalService = "external_service_error"
	CodeTimeout         = "timeout"
	CodeInternal        = "internal_error"
)

// AppError is the typed error carried between services and handlers.
type AppError struct {
	Code           string
	Message        string
	UpstreamStatus int // set for external-service errors where known
	Err            error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

func NewValidationError(msg string) *AppError {
	return &AppError{Code: CodeValidation, Message: msg}
}

func NewUnauthorizedError() *AppError {
	return &AppError{Code: CodeUnauthorized, Message: "unauthorized"}
}

// NewNotFoundError always carries the same generic message regardless of
// whether the record, the token, or the evidence was missing.
func NewNotFoundError() *AppError {
	return &AppError{Code: CodeNotFound, Message: "not found"}
}

func NewExternalServiceError(msg string, upstreamStatus int, err error) *AppError {
	return &AppError{Code: CodeExternalService, Message: msg, UpstreamStatus: upstreamStatus, Err: err}
}

func NewTimeoutError(err error) *AppError {
	return &AppError{Code: CodeTimeout, Message: "operation exceeded its time budget", Err: err}
}

func NewInternalError(msg string, err error) *AppError {
	return &AppError{Code: CodeInternal, Message: msg, Err: err}
}

// IsNotFound reports whether err is (or wraps) a not-found AppError.
func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == CodeNotFound
}

// ErrorResponse defines the structure of error responses.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorHandler is a middleware that catches panics and returns structured errors.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				GetLogger().Error("Unhandled panic", zap.Any("error", rec))
				c.JSON(http.StatusInternalServerError, ErrorResponse{
					Code:    CodeInternal,
					Message: "An unexpected error occurred. Please try again later.",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// RespondError maps a typed error onto an HTTP response. Internal details are
// logged, never echoed to the caller.
func RespondError(c *gin.Context, err error) {
	logger := GetLogger()

	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = NewInternalError("unexpected error", err)
	}

	status := http.StatusInternalServerError
	switch appErr.Code {
	case CodeValidation:
		status = http.StatusBadRequest
	case CodeUnauthorized:
		status = http.StatusUnauthorized
	case CodeNotFound:
		status = http.StatusNotFound
	case CodeExternalService:
		status = http.StatusBadGateway
	case CodeTimeout:
		status = http.StatusGatewayTimeout
	}

	logger.Warn("request failed",
		zap.String("code", appErr.Code),
		zap.Int("status", status),
		zap.Error(appErr),
	)
	c.JSON(status, ErrorResponse{Code: appErr.Code, Message: appErr.Message})
}
