package api

import (
	"errors"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// APIError is an error with an HTTP status. Handlers return it and the
// error handler renders it.
type APIError struct {
	Status  int
	Code    string
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

func badRequest(message string) *APIError {
	return &APIError{Status: fiber.StatusBadRequest, Code: "bad_request", Message: message}
}

func validationFailed(fields map[string]string) *APIError {
	return &APIError{
		Status:  fiber.StatusBadRequest,
		Code:    "validation_error",
		Message: "Validation failed",
		Fields:  fields,
	}
}

func fieldError(field, message string) *APIError {
	return validationFailed(map[string]string{field: message})
}

func unauthenticated(message string) *APIError {
	return &APIError{Status: fiber.StatusUnauthorized, Code: "unauthenticated", Message: message}
}

func forbidden() *APIError {
	return &APIError{Status: fiber.StatusForbidden, Code: "forbidden", Message: "You do not have permission to perform this action"}
}

func notFound(what string) *APIError {
	return &APIError{Status: fiber.StatusNotFound, Code: "not_found", Message: what + " not found"}
}

// errorHandler renders APIError and fiber.Error values. Anything else is
// logged and reported as a generic 500.
func errorHandler(c *fiber.Ctx, err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return c.Status(apiErr.Status).JSON(ErrorResponse{
			Error:   apiErr.Code,
			Message: apiErr.Message,
			Errors:  apiErr.Fields,
		})
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(ErrorResponse{
			Error:   "http_error",
			Message: fiberErr.Message,
		})
	}

	log.Printf("[api] %s %s failed: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
