package http

import (
	"github.com/gofiber/fiber/v2"

	"deviceauth/internal/modules/auth/service"
)

func LogoutHandler(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid, _ := c.Locals("session_id").(string)
		if sid == "" {
			return fail(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "Требуется авторизация")
		}

		ctx, cancel := reqCtx(c)
		defer cancel()

		if err := svc.Logout(ctx, sid); err != nil {
			return failErr(c, err)
		}
		return c.JSON(fiber.Map{"message": "Сессия завершена"})
	}
}

func LogoutAllHandler(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, _ := c.Locals("user_id").(string)
		if uid == "" {
			return fail(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "Требуется авторизация")
		}

		ctx, cancel := reqCtx(c)
		defer cancel()

		count, err := svc.LogoutAll(ctx, uid)
		if err != nil {
			return failErr(c, err)
		}
		return c.JSON(fiber.Map{
			"message":       "Все сессии завершены",
			"revoked_count": count,
		})
	}
}
