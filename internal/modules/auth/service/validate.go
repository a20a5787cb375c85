package service

import (
	"context"
	"errors"
	"time"

	"deviceauth/internal/modules/auth/domain"
	"deviceauth/internal/platform/security"
)

// Principal — результат валидации: кто и с какого устройства пришёл.
type Principal struct {
	UserID    string
	SessionID string
	DeviceID  string
}

// touchDebounce — чаще last_active_at не пишем: отметка advisory,
// на корректность не влияет.
const touchDebounce = time.Minute

// ValidateAccess — проверка на каждом защищённом вызове: подпись и сроки
// JWT, затем server-authoritative проверка сессии, пользователя и устройства.
// deviceHeader — необязательный X-Device-Id; если передан, обязан совпасть
// с клеймом did.
func (s *Service) ValidateAccess(ctx context.Context, token, deviceHeader string) (Principal, error) {
	claims, err := s.jwt.VerifyAccess(token)
	if err != nil {
		if errors.Is(err, security.ErrTokenExpired) {
			return Principal{}, domain.ErrTokenExpired
		}
		return Principal{}, domain.ErrTokenInvalid
	}

	now := time.Now()

	sess, err := s.sessions.GetByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Principal{}, domain.ErrSessionInvalid
		}
		return Principal{}, err
	}
	if sess.Revoked() || now.After(sess.ExpiresAt) || sess.UserID != claims.UserID {
		return Principal{}, domain.ErrSessionInvalid
	}

	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Principal{}, domain.ErrUserNotFound
		}
		// Недоступное хранилище — не повод выкидывать клиента из сессии.
		return Principal{}, err
	}
	if u.Deleted() {
		return Principal{}, domain.ErrUserNotFound
	}

	dev, err := s.devices.GetByID(ctx, claims.DeviceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Principal{}, domain.ErrDeviceInvalid
		}
		return Principal{}, err
	}
	if !dev.Valid() {
		return Principal{}, domain.ErrDeviceInvalid
	}

	if deviceHeader != "" && deviceHeader != claims.DeviceID {
		return Principal{}, domain.ErrDeviceMismatch
	}

	// Best-effort touch с дебаунсом.
	if now.Sub(sess.LastActiveAt) > touchDebounce {
		if err := s.sessions.Touch(ctx, sess.ID, now); err != nil {
			s.log.Debug("session touch failed", "session_id", sess.ID, "err", err)
		}
		if err := s.devices.Touch(ctx, dev.ID, now); err != nil {
			s.log.Debug("device touch failed", "device_id", dev.ID, "err", err)
		}
	}

	return Principal{UserID: claims.UserID, SessionID: claims.SessionID, DeviceID: claims.DeviceID}, nil
}
