package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"deviceauth/internal/modules/auth/service"
)

type deviceDTO struct {
	ID         string  `json:"id"`
	Name       *string `json:"name"`
	IsActive   bool    `json:"is_active"`
	LastActive string  `json:"last_active"`
	IsCurrent  bool    `json:"is_current"`
}

func ListDevicesHandler(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, _ := c.Locals("user_id").(string)
		current, _ := c.Locals("device_id").(string)
		if uid == "" {
			return fail(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "Требуется авторизация")
		}

		ctx, cancel := reqCtx(c)
		defer cancel()

		items, err := svc.ListDevices(ctx, uid)
		if err != nil {
			return failErr(c, err)
		}

		out := make([]deviceDTO, 0, len(items))
		for _, d := range items {
			out = append(out, deviceDTO{
				ID:         d.ID,
				Name:       d.Name,
				IsActive:   d.IsActive,
				LastActive: d.LastActiveAt.UTC().Format(time.RFC3339),
				IsCurrent:  d.ID == current,
			})
		}
		return c.JSON(fiber.Map{"devices": out, "total": len(out)})
	}
}

// RevokeDeviceHandler отзывает устройство: гасит все его сессии и помечает
// устройство неактивным. Текущее устройство так убить нельзя — для этого logout.
func RevokeDeviceHandler(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, _ := c.Locals("user_id").(string)
		current, _ := c.Locals("device_id").(string)
		if uid == "" {
			return fail(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "Требуется авторизация")
		}

		deviceID := c.Params("device_id")
		if deviceID == "" {
			return fail(c, fiber.StatusBadRequest, "INVALID_FIELDS", "Нужно указать device_id")
		}

		ctx, cancel := reqCtx(c)
		defer cancel()

		if err := svc.RevokeDevice(ctx, uid, deviceID, current); err != nil {
			return failErr(c, err)
		}
		return c.JSON(fiber.Map{"message": "Устройство отозвано"})
	}
}
