package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"deviceauth/internal/modules/auth/service"
)

func GetProfileHandler(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, _ := c.Locals("user_id").(string)
		if uid == "" {
			return fail(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "Требуется авторизация")
		}

		ctx, cancel := reqCtx(c)
		defer cancel()

		u, err := svc.GetUser(ctx, uid)
		if err != nil {
			return failErr(c, err)
		}
		return c.JSON(fiber.Map{
			"user_id":    u.ID,
			"email":      u.Email,
			"first_name": u.FirstName,
			"last_name":  u.LastName,
			"created_at": u.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
}
