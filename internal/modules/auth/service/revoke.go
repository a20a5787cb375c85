package service

import (
	"context"
	"errors"
	"time"

	"deviceauth/internal/modules/auth/domain"
)

// Logout гасит одну сессию. Идемпотентен: повторный вызов — no-op.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Revoke(ctx, sessionID, time.Now())
}

// LogoutAll гасит все живые сессии пользователя.
func (s *Service) LogoutAll(ctx context.Context, userID string) (int, error) {
	n, err := s.sessions.RevokeAllForUser(ctx, userID, time.Now())
	if err != nil {
		return 0, err
	}
	s.log.Info("all sessions revoked", "user_id", userID, "count", n)
	return n, nil
}

// RevokeDevice отзывает устройство целиком: все его сессии плюс сама строка
// устройства. Устройство текущего запроса отозвать нельзя — для этого logout.
func (s *Service) RevokeDevice(ctx context.Context, userID, deviceID, currentDeviceID string) error {
	if deviceID == currentDeviceID {
		return domain.ErrCurrentDevice
	}

	dev, err := s.devices.GetByID(ctx, deviceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return err
	}
	if dev.UserID != userID {
		// Чужие устройства не раскрываем.
		return domain.ErrNotFound
	}

	now := time.Now()
	if _, err := s.sessions.RevokeAllForDevice(ctx, deviceID, now); err != nil {
		return err
	}
	if err := s.devices.Revoke(ctx, deviceID, now); err != nil {
		return err
	}
	s.log.Warn("device revoked", "device_id", deviceID, "user_id", userID)
	return nil
}

// ListDevices — устройства пользователя для экрана "мои устройства".
func (s *Service) ListDevices(ctx context.Context, userID string) ([]domain.Device, error) {
	return s.devices.ListByUser(ctx, userID)
}
