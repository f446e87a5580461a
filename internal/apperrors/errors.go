// Package apperrors holds the sentinel errors shared by the persistence,
// workflow and HTTP layers, and maps them to HTTP responses.
package apperrors

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

var (
	ErrPhotoNotFound   = errors.New("photo not found")
	ErrNotEligible     = errors.New("photo not found or not approved")
	ErrDuplicateID     = errors.New("photo id already exists")
	ErrNotPending      = errors.New("photo is not pending review")
	ErrAlreadyLiked    = errors.New("you have already liked this photo")
	ErrNotLiked        = errors.New("you have not liked this photo")
	ErrAlreadyReported = errors.New("you have already reported this photo")
	ErrInvalidImage    = errors.New("invalid image")
	ErrUploadsDisabled = errors.New("uploads are currently disabled")
	ErrCaptchaFailed   = errors.New("captcha verification failed")
	ErrSettingNotFound = errors.New("setting not found")
	ErrInvalidInput    = errors.New("invalid input")

	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
)

// Response codes returned to clients alongside the message.
const (
	CodeNotFound           = "NOT_FOUND"
	CodeNotEligible        = "NOT_ELIGIBLE"
	CodeNotPending         = "NOT_PENDING"
	CodeAlreadyLiked       = "ALREADY_LIKED"
	CodeNotLiked           = "NOT_LIKED"
	CodeAlreadyReported    = "ALREADY_REPORTED"
	CodeInvalidImage       = "INVALID_IMAGE"
	CodeUploadsDisabled    = "UPLOADS_DISABLED"
	CodeCaptchaFailed      = "CAPTCHA_FAILED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInvalidRefresh     = "INVALID_REFRESH_TOKEN"
	CodeValidation         = "VALIDATION_ERROR"
	CodeConflict           = "CONFLICT"
	CodeInternal           = "INTERNAL_ERROR"

	CodeNoToken          = "NO_TOKEN"
	CodeTokenRevoked     = "TOKEN_REVOKED"
	CodeTokenExpired     = "TOKEN_EXPIRED"
	CodeMalformedToken   = "MALFORMED_TOKEN"
	CodeInvalidToken     = "INVALID_TOKEN"
	CodeInvalidTokenType = "INVALID_TOKEN_TYPE"
	CodeInsufficientRole = "INSUFFICIENT_PRIVILEGES"

	CodeRateLimited    = "RATE_LIMITED"
	CodeAPIKeyRequired = "API_KEY_REQUIRED"
	CodeInvalidAPIKey  = "INVALID_API_KEY"
)

type mapping struct {
	target error
	status int
	code   string
}

var mappings = []mapping{
	{ErrPhotoNotFound, fiber.StatusNotFound, CodeNotFound},
	{ErrSettingNotFound, fiber.StatusNotFound, CodeNotFound},
	{ErrNotEligible, fiber.StatusNotFound, CodeNotEligible},
	{ErrNotPending, fiber.StatusConflict, CodeNotPending},
	{ErrAlreadyLiked, fiber.StatusConflict, CodeAlreadyLiked},
	{ErrNotLiked, fiber.StatusConflict, CodeNotLiked},
	{ErrAlreadyReported, fiber.StatusConflict, CodeAlreadyReported},
	{ErrDuplicateID, fiber.StatusConflict, CodeConflict},
	{ErrInvalidImage, fiber.StatusBadRequest, CodeInvalidImage},
	{ErrInvalidInput, fiber.StatusBadRequest, CodeValidation},
	{ErrCaptchaFailed, fiber.StatusBadRequest, CodeCaptchaFailed},
	{ErrUploadsDisabled, fiber.StatusServiceUnavailable, CodeUploadsDisabled},
	{ErrInvalidCredentials, fiber.StatusUnauthorized, CodeInvalidCredentials},
	{ErrInvalidRefreshToken, fiber.StatusUnauthorized, CodeInvalidRefresh},
}

// HTTP maps err to a status, a client code and a client-safe message.
// Unknown errors become a generic 500. Input errors keep their detail.
func HTTP(err error) (status int, code, message string) {
	for _, m := range mappings {
		if errors.Is(err, m.target) {
			message = m.target.Error()
			if m.target == ErrInvalidInput || m.target == ErrInvalidImage {
				message = err.Error()
			}
			return m.status, m.code, message
		}
	}
	return fiber.StatusInternalServerError, CodeInternal, "Internal server error"
}

// IsConflict reports whether err is an expected duplicate-action outcome.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyLiked) ||
		errors.Is(err, ErrNotLiked) ||
		errors.Is(err, ErrAlreadyReported) ||
		errors.Is(err, ErrNotPending)
}
