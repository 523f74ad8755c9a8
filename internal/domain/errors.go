package domain

import (
	"fmt"
	"net/http"
)

// Error codes for categorization.
const (
	ErrCodeValidation  = "VALIDATION_ERROR"
	ErrCodeNotFound    = "NOT_FOUND"
	ErrCodeBadRequest  = "BAD_REQUEST"
	ErrCodeForbidden   = "FORBIDDEN"
	ErrCodeUnreachable = "TARGET_UNREACHABLE"
	ErrCodeExternalAPI = "EXTERNAL_API_ERROR"
	ErrCodeGeneration  = "GENERATION_FAILED"
	ErrCodeDeployment  = "DEPLOYMENT_FAILED"
	ErrCodeInternal    = "INTERNAL_ERROR"
)

// AppError is the base error type for all application errors.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Cause      error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is by comparing codes.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause attaches the underlying cause.
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// ValidationError rejects malformed input before any network call.
func ValidationError(message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message, HTTPStatus: http.StatusBadRequest}
}

// NotFoundError reports a missing resource.
func NotFoundError(message string) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: message, HTTPStatus: http.StatusNotFound}
}

// ForbiddenError reports a disallowed operation.
func ForbiddenError(message string) *AppError {
	return &AppError{Code: ErrCodeForbidden, Message: message, HTTPStatus: http.StatusForbidden}
}

// ExternalAPIError reports a failure from a remote collaborator.
func ExternalAPIError(message string, cause error) *AppError {
	return &AppError{Code: ErrCodeExternalAPI, Message: message, HTTPStatus: http.StatusBadGateway, Cause: cause}
}

// GenerationError reports a fatal generation-pipeline failure, the only
// pipeline error surfaced to end users.
func GenerationError(cause error) *AppError {
	return &AppError{
		Code:       ErrCodeGeneration,
		Message:    "Something went wrong building your website. Please try again.",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// DeploymentError reports a fatal hosting-API failure, surfaced as retryable.
func DeploymentError(cause error) *AppError {
	return &AppError{
		Code:       ErrCodeDeployment,
		Message:    "Something went wrong deploying your website. Please try again.",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}
