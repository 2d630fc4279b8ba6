package api

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error is the JSON error envelope returned by the query API. ErrorType and
// Detail are only populated when debug error exposure is enabled.
type Error struct {
	Code      int    `json:"-"`
	Message   string `json:"error"`
	ErrorType string `json:"error_type,omitempty"`
	Detail    string `json:"message,omitempty"`
}

func (e Error) Error() string {
	return e.Message
}

func NewError(code int, msg string) Error {
	return Error{
		Code:    code,
		Message: msg,
	}
}

func ErrQuestionRequired() Error {
	return NewError(fiber.StatusBadRequest, "question required")
}

const maxDebugDetail = 500

// NewErrorHandler converts anything that escapes a handler into a
// structured response. Unexpected failures become a generic 500; diagnostic
// detail is attached only when debugErrors is on, never by default.
func NewErrorHandler(debugErrors bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var apiErr Error
		if errors.As(err, &apiErr) {
			return c.Status(apiErr.Code).JSON(apiErr)
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(NewError(fiberErr.Code, fiberErr.Message))
		}

		internal := NewError(fiber.StatusInternalServerError, "internal_error")
		if debugErrors {
			internal.ErrorType = fmt.Sprintf("%T", err)
			detail := err.Error()
			if len(detail) > maxDebugDetail {
				detail = detail[:maxDebugDetail]
			}
			internal.Detail = detail
		}
		return c.Status(internal.Code).JSON(internal)
	}
}
