package router

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/zapkit/zapctl/pkg/log"
)

// Envelope mirrors the gateway's response shape so sink replies parse the
// same way gateway replies do.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

type ErrorBody struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Print returns a request-scoped log entry carrying the remote ip, method,
// and URI. Passing nil yields a bare entry.
func Print(c *fiber.Ctx) *logrus.Entry {
	if c == nil {
		return log.Print()
	}
	remoteIP := c.IP()
	if v := c.Locals("remote_ip"); v != nil {
		if ip, ok := v.(string); ok && ip != "" {
			remoteIP = ip
		}
	}
	return log.Logger().WithFields(logrus.Fields{
		"remote_ip": remoteIP,
		"method":    c.Method(),
		"uri":       c.OriginalURL(),
	})
}

func logSuccess(c *fiber.Ctx, code int, message string) {
	statusMessage := http.StatusText(code)

	if statusMessage == message {
		Print(c).Info(fmt.Sprintf("%d %v", code, statusMessage))
	} else {
		Print(c).Info(fmt.Sprintf("%d %v", code, message))
	}
}

func logError(c *fiber.Ctx, code int, message string) {
	statusMessage := http.StatusText(code)

	if statusMessage == message {
		Print(c).Error(fmt.Sprintf("%d %v", code, statusMessage))
	} else {
		Print(c).Error(fmt.Sprintf("%d %v", code, message))
	}
}

func ResponseSuccess(c *fiber.Ctx, message string) error {
	if strings.TrimSpace(message) == "" {
		message = http.StatusText(http.StatusOK)
	}
	logSuccess(c, http.StatusOK, message)
	return c.Status(http.StatusOK).JSON(Envelope{
		Success: true,
		Message: message,
	})
}

func ResponseSuccessWithData(c *fiber.Ctx, message string, data interface{}) error {
	if strings.TrimSpace(message) == "" {
		message = http.StatusText(http.StatusOK)
	}
	logSuccess(c, http.StatusOK, message)
	return c.Status(http.StatusOK).JSON(Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func ResponseCreatedWithData(c *fiber.Ctx, message string, data interface{}) error {
	if strings.TrimSpace(message) == "" {
		message = http.StatusText(http.StatusCreated)
	}
	logSuccess(c, http.StatusCreated, message)
	return c.Status(http.StatusCreated).JSON(Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func responseError(c *fiber.Ctx, code int, message string) error {
	if strings.TrimSpace(message) == "" {
		message = http.StatusText(code)
	}
	logError(c, code, message)
	return c.Status(code).JSON(Envelope{
		Success: false,
		Message: message,
		Error:   &ErrorBody{Message: message},
	})
}

func ResponseNotFound(c *fiber.Ctx, message string) error {
	return responseError(c, http.StatusNotFound, message)
}

func ResponseUnauthorized(c *fiber.Ctx, message string) error {
	return responseError(c, http.StatusUnauthorized, message)
}

func ResponseBadRequest(c *fiber.Ctx, message string) error {
	return responseError(c, http.StatusBadRequest, message)
}
