package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"deviceauth/internal/modules/auth/service"
)

// AuthRequired — валидатор на каждом защищённом вызове: подпись и сроки JWT,
// затем живость сессии, пользователя и устройства по хранилищу. Наличие
// валидной подписи само по себе ничего не даёт — отозванная сессия режется
// здесь же.
func AuthRequired(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		h := c.Get("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			return fail(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "Требуется авторизация")
		}
		tokenStr := strings.TrimPrefix(h, "Bearer ")

		ctx, cancel := reqCtx(c)
		defer cancel()

		p, err := svc.ValidateAccess(ctx, tokenStr, c.Get(HeaderDeviceID))
		if err != nil {
			return failErr(c, err)
		}

		c.Locals("user_id", p.UserID)
		c.Locals("session_id", p.SessionID)
		c.Locals("device_id", p.DeviceID)
		return c.Next()
	}
}
