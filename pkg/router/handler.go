package router

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// HttpErrorHandler turns unhandled route errors into envelope responses.
func HttpErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	}
	return responseError(c, code, message)
}
