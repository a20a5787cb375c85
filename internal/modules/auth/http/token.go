package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"deviceauth/internal/modules/auth/service"
)

// HeaderDeviceID — заголовок с id устройства; обязателен на обмене кода,
// на остальных защищённых ручках — опционален, но при наличии сверяется.
const HeaderDeviceID = "X-Device-Id"

type deviceTokenReq struct {
	Code       string `json:"code" validate:"required,min=12,max=64"`
	DeviceName string `json:"device_name" validate:"omitempty,max=100"`
}

type tokenPairResp struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	ExpiresAt        string `json:"expires_at"`
	RefreshExpiresAt string `json:"refresh_expires_at"`
}

func pairResp(p service.TokenPair) tokenPairResp {
	return tokenPairResp{
		AccessToken:      p.AccessToken,
		RefreshToken:     p.RefreshToken,
		ExpiresAt:        p.ExpiresAt.UTC().Format(time.RFC3339),
		RefreshExpiresAt: p.RefreshExpiresAt.UTC().Format(time.RFC3339),
	}
}

// DeviceTokenHandler — device-нога: одноразовый обмен handoff-кода на пару
// токенов. Код сгорает даже при гонке двух обменов: выигрывает один.
func DeviceTokenHandler(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		deviceID := c.Get(HeaderDeviceID)
		if deviceID == "" {
			return fail(c, fiber.StatusBadRequest, "INVALID_FIELDS", "Нужен заголовок X-Device-Id")
		}

		var req deviceTokenReq
		if err := c.BodyParser(&req); err != nil {
			return fail(c, fiber.StatusBadRequest, "INVALID_FIELDS", "Некорректные данные")
		}
		if err := validate.Struct(req); err != nil {
			return fail(c, fiber.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		}

		ctx, cancel := reqCtx(c)
		defer cancel()

		ip := c.IP()
		ua := c.Get("User-Agent")
		pair, u, err := svc.ExchangeCode(ctx, req.Code, deviceID, service.ClientMeta{
			DeviceName: strPtr(req.DeviceName),
			IPAddress:  strPtr(ip),
			UserAgent:  strPtr(ua),
		})
		if err != nil {
			return failErr(c, err)
		}

		resp := pairResp(pair)
		return c.JSON(fiber.Map{
			"access_token":       resp.AccessToken,
			"refresh_token":      resp.RefreshToken,
			"expires_at":         resp.ExpiresAt,
			"refresh_expires_at": resp.RefreshExpiresAt,
			"user": fiber.Map{
				"user_id":    u.ID,
				"email":      u.Email,
				"first_name": u.FirstName,
				"last_name":  u.LastName,
			},
		})
	}
}
