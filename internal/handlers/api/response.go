package api

import (
	"github.com/gofiber/fiber/v3"
)

// jsonSuccess returns a 200 response with data wrapped in the standard envelope.
func jsonSuccess(c fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"data":   data,
	})
}

// jsonError returns an error response with the given HTTP status code.
func jsonError(c fiber.Ctx, status int, message string) error {
	return jsonErrorData(c, status, message, nil)
}

// jsonErrorData is jsonError with a data payload, for failures that still
// have partial results to report. A nil data omits the field.
func jsonErrorData(c fiber.Ctx, status int, message string, data any) error {
	body := fiber.Map{
		"status": "error",
		"error":  message,
	}
	if data != nil {
		body["data"] = data
	}
	return c.Status(status).JSON(body)
}
