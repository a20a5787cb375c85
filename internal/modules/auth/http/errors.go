package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"deviceauth/internal/modules/auth/domain"
	"deviceauth/internal/modules/auth/identity"
)

func fail(c *fiber.Ctx, status int, code, msg string) error {
	return c.Status(status).JSON(fiber.Map{
		"error_code": code,
		"message":    msg,
	})
}

// failErr — единая раскладка доменных ошибок в ответ. Коды стабильные,
// клиент матчится по error_code, не по message.
func failErr(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrCodeUsed):
		return fail(c, fiber.StatusConflict, "CODE_ALREADY_USED", "Код уже использован")
	case errors.Is(err, domain.ErrCodeExpired):
		return fail(c, fiber.StatusBadRequest, "CODE_EXPIRED", "Срок действия кода истёк")
	case errors.Is(err, domain.ErrDeviceMismatch):
		return fail(c, fiber.StatusForbidden, "DEVICE_MISMATCH", "Код выдан другому устройству")
	case errors.Is(err, domain.ErrTokenExpired):
		return fail(c, fiber.StatusUnauthorized, "TOKEN_EXPIRED", "Access-токен истёк")
	case errors.Is(err, domain.ErrTokenInvalid):
		return fail(c, fiber.StatusUnauthorized, "TOKEN_INVALID", "Невалидный токен")
	case errors.Is(err, domain.ErrSessionInvalid):
		return fail(c, fiber.StatusUnauthorized, "SESSION_INVALID", "Сессия отозвана или истекла")
	case errors.Is(err, domain.ErrRefreshExpired):
		return fail(c, fiber.StatusUnauthorized, "REFRESH_EXPIRED", "Срок refresh-токена истёк")
	case errors.Is(err, domain.ErrRefreshReuse):
		return fail(c, fiber.StatusUnauthorized, "REFRESH_REUSE_DETECTED", "Повторное использование refresh-токена")
	case errors.Is(err, domain.ErrUserNotFound):
		return fail(c, fiber.StatusUnauthorized, "USER_NOT_FOUND", "Пользователь не найден")
	case errors.Is(err, domain.ErrDeviceInvalid):
		return fail(c, fiber.StatusUnauthorized, "DEVICE_INVALID", "Устройство отозвано")
	case errors.Is(err, domain.ErrCurrentDevice):
		return fail(c, fiber.StatusBadRequest, "CANNOT_REVOKE_CURRENT_DEVICE", "Нельзя отозвать текущее устройство")
	case errors.Is(err, domain.ErrNotFound):
		return fail(c, fiber.StatusNotFound, "NOT_FOUND", "Не найдено")
	case errors.Is(err, identity.ErrInvalidProviderSession):
		return fail(c, fiber.StatusUnauthorized, "INVALID_PROVIDER_SESSION", "Провайдер не подтвердил токен")
	case errors.Is(err, domain.ErrUnavailable):
		return fail(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Хранилище недоступно, повторите запрос")
	default:
		return fail(c, fiber.StatusInternalServerError, "SERVER_ERROR", "Внутренняя ошибка")
	}
}
