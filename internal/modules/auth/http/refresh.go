package http

import (
	"github.com/gofiber/fiber/v2"

	"deviceauth/internal/modules/auth/service"
)

type refreshReq struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshHandler — ротация: каждый refresh-токен одноразовый. Повтор уже
// ротированного токена отдаёт REFRESH_REUSE_DETECTED, сессии устройства к
// этому моменту уже отозваны.
func RefreshHandler(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req refreshReq
		if err := c.BodyParser(&req); err != nil || req.RefreshToken == "" {
			return fail(c, fiber.StatusBadRequest, "INVALID_FIELDS", "Некорректный запрос")
		}

		ctx, cancel := reqCtx(c)
		defer cancel()

		pair, err := svc.Refresh(ctx, req.RefreshToken)
		if err != nil {
			return failErr(c, err)
		}
		return c.JSON(pairResp(pair))
	}
}
