package handlers

import (
	"errors"
	"log/slog"
	"regexp"

	"github.com/ahmetcoskunkizilkaya/photowall/internal/apperrors"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/dto"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/validation"
	"github.com/gofiber/fiber/v2"
)

var photoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// respondError writes the client-facing form of err. Conflicts are expected
// outcomes and only logged at debug.
func respondError(c *fiber.Ctx, err error) error {
	status, code, message := apperrors.HTTP(err)
	switch {
	case apperrors.IsConflict(err):
		slog.DebugContext(c.UserContext(), "request conflict", "path", c.Path(), "code", code)
	case status >= fiber.StatusInternalServerError:
		slog.ErrorContext(c.UserContext(), "request failed", "path", c.Path(), "method", c.Method(), "error", err)
	}
	return c.Status(status).JSON(dto.ErrorResponse{
		Error:   true,
		Message: message,
		Code:    code,
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error:   true,
		Message: message,
		Code:    apperrors.CodeValidation,
	})
}

// bind parses the JSON body into out and validates it. A non-nil result is
// the response to send. An empty body is treated as {} when allowEmpty.
func bind(c *fiber.Ctx, out any, allowEmpty bool) *dto.ValidationErrorResponse {
	if !(allowEmpty && len(c.Body()) == 0) {
		if err := c.BodyParser(out); err != nil {
			return &dto.ValidationErrorResponse{
				Error:   true,
				Message: "Invalid request body",
				Code:    apperrors.CodeValidation,
				Details: []dto.FieldError{{Field: "body", Message: "must be valid JSON"}},
			}
		}
	}
	if details := validation.Struct(out); details != nil {
		return &dto.ValidationErrorResponse{
			Error:   true,
			Message: "Validation failed",
			Code:    apperrors.CodeValidation,
			Details: details,
		}
	}
	return nil
}

func validationFailed(c *fiber.Ctx, resp *dto.ValidationErrorResponse) error {
	return c.Status(fiber.StatusBadRequest).JSON(resp)
}

// photoID returns the :id route parameter when it is well formed.
func photoID(c *fiber.Ctx) (string, bool) {
	id := c.Params("id")
	return id, photoIDPattern.MatchString(id)
}

// ErrorHandler is the fiber error handler. Details of 5xx errors are logged
// and never returned.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	if code >= fiber.StatusInternalServerError {
		slog.ErrorContext(c.UserContext(), "unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(dto.ErrorResponse{
		Error:   true,
		Message: message,
		Code:    errorCode(code),
	})
}

func errorCode(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return apperrors.CodeNotFound
	case fiber.StatusRequestEntityTooLarge, fiber.StatusBadRequest:
		return apperrors.CodeValidation
	}
	if status >= fiber.StatusInternalServerError {
		return apperrors.CodeInternal
	}
	return ""
}
