package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"deviceauth/internal/modules/auth/identity"
	"deviceauth/internal/modules/auth/service"
)

type initiateReq struct {
	DeviceID string `json:"device_id" validate:"required,min=8,max=128"`
}

func InitiateHandler(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req initiateReq
		if err := c.BodyParser(&req); err != nil {
			return fail(c, fiber.StatusBadRequest, "INVALID_FIELDS", "Некорректные данные")
		}
		if err := validate.Struct(req); err != nil {
			return fail(c, fiber.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		}

		ctx, cancel := reqCtx(c)
		defer cancel()

		res, err := svc.Initiate(ctx, req.DeviceID)
		if err != nil {
			return failErr(c, err)
		}
		return c.JSON(fiber.Map{
			"auth_url":   res.AuthURL,
			"device_id":  req.DeviceID,
			"poll_token": res.PollToken,
			"expires_at": res.ExpiresAt.UTC().Format(time.RFC3339),
		})
	}
}

func PollHandler(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		deviceID := c.Query("device_id")
		if deviceID == "" {
			return fail(c, fiber.StatusBadRequest, "INVALID_FIELDS", "Нужно указать device_id")
		}

		ctx, cancel := reqCtx(c)
		defer cancel()

		res, err := svc.Poll(ctx, deviceID, c.Query("poll_token"))
		if err != nil {
			return failErr(c, err)
		}

		out := fiber.Map{"status": string(res.Status)}
		if res.Status == service.PollReady {
			out["code"] = res.Code
			out["expires_at"] = res.ExpiresAt.UTC().Format(time.RFC3339)
		}
		return c.JSON(out)
	}
}

type callbackReq struct {
	DeviceID      string `json:"device_id" validate:"required,min=8,max=128"`
	ProviderToken string `json:"provider_token" validate:"required"`
	// Способ входа: social (по умолчанию), sso, magic_link.
	Method       string `json:"method" validate:"omitempty,oneof=social sso magic_link"`
	Provider     string `json:"provider"`
	ConnectionID string `json:"connection_id"`
}

func (r callbackReq) authMethod() identity.AuthMethod {
	switch r.Method {
	case "sso":
		return identity.SSOConnection(r.ConnectionID)
	case "magic_link":
		return identity.MagicLink()
	default:
		return identity.Social(r.Provider)
	}
}

// CallbackHandler — браузерная нога: после логина у провайдера выдаёт
// одноразовый код и deep link для передачи на устройство.
func CallbackHandler(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req callbackReq
		if err := c.BodyParser(&req); err != nil {
			return fail(c, fiber.StatusBadRequest, "INVALID_FIELDS", "Некорректные данные")
		}
		if err := validate.Struct(req); err != nil {
			return fail(c, fiber.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		}

		ctx, cancel := reqCtx(c)
		defer cancel()

		issued, err := svc.IssueCode(ctx, req.DeviceID, req.ProviderToken, req.authMethod())
		if err != nil {
			return failErr(c, err)
		}
		return c.JSON(fiber.Map{
			"code":       issued.Code,
			"deep_link":  issued.DeepLink,
			"expires_at": issued.ExpiresAt.UTC().Format(time.RFC3339),
		})
	}
}
