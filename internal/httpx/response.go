package httpx

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const MsgInternal = "Something went wrong"

// Fail writes a {"failure": msg} body with the given status.
func Fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"failure": msg})
}

// Invalid writes a 400 failure carrying per-field validation messages.
func Invalid(c *fiber.Ctx, errs map[string]string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"failure": "Validation failed",
		"errors":  errs,
	})
}

// Internal logs err and answers with the generic 500 failure.
func Internal(c *fiber.Ctx, log *zap.Logger, err error) error {
	log.Error("request failed",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return Fail(c, fiber.StatusInternalServerError, MsgInternal)
}

// OK writes {"status": 200} merged with the given fields.
func OK(c *fiber.Ctx, fields fiber.Map) error {
	body := fiber.Map{"status": fiber.StatusOK}
	for k, v := range fields {
		body[k] = v
	}
	return c.Status(fiber.StatusOK).JSON(body)
}

// ParamID parses a positive integer route parameter.
func ParamID(c *fiber.Ctx, name string) (int, bool) {
	id, err := strconv.Atoi(c.Params(name))
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}
