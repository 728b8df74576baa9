package api

import (
	"github.com/gofiber/fiber/v2"
)

func jsonOK(ctx *fiber.Ctx, data fiber.Map) error {
	payload := fiber.Map{"success": true}
	for key, value := range data {
		payload[key] = value
	}
	return ctx.JSON(payload)
}

func jsonError(ctx *fiber.Ctx, status int, message string) error {
	return ctx.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}
