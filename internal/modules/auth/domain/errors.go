package domain

import "errors"

// Единый набор доменных ошибок. Хендлеры маппят их на error_code,
// внутри модуля сравниваем через errors.Is.
var (
	ErrNotFound       = errors.New("not_found")
	ErrCodeUsed       = errors.New("code_used")
	ErrCodeExpired    = errors.New("code_expired")
	ErrDeviceMismatch = errors.New("device_mismatch")

	ErrTokenInvalid   = errors.New("token_invalid")
	ErrTokenExpired   = errors.New("token_expired")
	ErrSessionInvalid = errors.New("session_invalid")
	ErrRefreshExpired = errors.New("refresh_expired")

	// ErrRefreshReuse — повторное предъявление уже ротированного refresh-токена.
	// Это сигнал компрометации: все сессии устройства отзываются до возврата ошибки.
	ErrRefreshReuse = errors.New("refresh_reuse_detected")

	ErrUserNotFound  = errors.New("user_not_found")
	ErrDeviceInvalid = errors.New("device_invalid")
	ErrCurrentDevice = errors.New("cannot_revoke_current_device")

	ErrUnavailable = errors.New("service_unavailable")
)
