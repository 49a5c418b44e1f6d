package http

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse provides a consistent error structure for API responses.
type ErrorResponse struct {
	// Stable error code, either a ledger domain code or an HTTP status.
	Code string `json:"code"`
	// Error type identifier.
	Title string `json:"title"`
	// Human-readable error message.
	Message string `json:"message"`
}

// Error allows ErrorResponse to satisfy the error interface.
func (e ErrorResponse) Error() string {
	return e.Message
}

// OK sends an HTTP 200 OK response with a custom body.
func OK(c *fiber.Ctx, s any) error {
	return c.Status(http.StatusOK).JSON(s)
}

// Created sends an HTTP 201 Created response with a custom body.
func Created(c *fiber.Ctx, s any) error {
	return c.Status(http.StatusCreated).JSON(s)
}

// RespondError writes a structured error response using the ErrorResponse
// schema. This is the canonical way to write error responses and keeps the
// failure contract identical across all handlers.
func RespondError(c *fiber.Ctx, status int, code, title, message string) error {
	return c.Status(status).JSON(ErrorResponse{
		Code:    code,
		Title:   title,
		Message: message,
	})
}

// InternalServerError writes a 500 response with a generic message to avoid
// leaking internal details.
func InternalServerError(c *fiber.Ctx) error {
	return RespondError(c, fiber.StatusInternalServerError, "500", "internal_error", "internal server error")
}
