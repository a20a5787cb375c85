package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"deviceauth/internal/modules/auth/domain"
	"deviceauth/internal/platform/security"
)

// Refresh — ротация refresh-токена с детектом повторного использования.
//
// Нормальный путь — один атомарный CAS в репе: текущий хеш уезжает в
// previous, новый встаёт на его место. Из двух конкурентных запросов с одним
// токеном CAS выигрывает ровно один; проигравший не находит текущего хеша и
// проваливается в ветку детекта.
//
// Предъявление уже ротированного токена (найден по previous-хешу) — сигнал
// кражи: отзываем все сессии устройства и возвращаем ErrRefreshReuse.
// Отзыв происходит до возврата ошибки, безусловно.
func (s *Service) Refresh(ctx context.Context, refreshPlain string) (TokenPair, error) {
	refreshPlain = strings.TrimSpace(refreshPlain)
	if refreshPlain == "" || len(refreshPlain) > 4096 {
		return TokenPair{}, domain.ErrTokenInvalid
	}

	h := security.HashToken(refreshPlain)

	newPlain, newHash, err := security.IssueRefresh()
	if err != nil {
		return TokenPair{}, err
	}

	now := time.Now()
	rotated, err := s.sessions.Rotate(ctx, h, newHash,
		now.Add(s.cfg.AccessTTL), now.Add(s.cfg.RefreshTTL))
	if err == nil {
		accessToken, accessExp, err := s.jwt.IssueAccess(rotated.UserID, rotated.ID, rotated.DeviceID)
		if err != nil {
			return TokenPair{}, err
		}
		s.metrics.IncRotations()
		return TokenPair{
			SessionID:        rotated.ID,
			AccessToken:      accessToken,
			RefreshToken:     newPlain,
			ExpiresAt:        accessExp,
			RefreshExpiresAt: rotated.RefreshExpiresAt,
		}, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return TokenPair{}, err
	}

	// CAS не сработал. Либо хеш числится текущим, но горизонт сессии вышел,
	// либо токен уже ротирован, либо он нам вообще не известен.
	cur, err := s.sessions.FindByRefreshHash(ctx, h)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return TokenPair{}, err
	}
	if err == nil && !cur.Revoked() {
		if now.After(cur.RefreshExpiresAt) {
			return TokenPair{}, domain.ErrRefreshExpired
		}
		// Хеш уехал между CAS и lookup — конкурент успел первым.
		return TokenPair{}, domain.ErrTokenInvalid
	}

	prev, err := s.sessions.FindByPreviousHash(ctx, h)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return TokenPair{}, err
	}
	if err == nil && !prev.Revoked() {
		n, rerr := s.sessions.RevokeAllForDevice(ctx, prev.DeviceID, now)
		if rerr != nil {
			// Отзыв обязателен; не смогли — наружу уходит ошибка стора,
			// а не "мягкий" отказ.
			return TokenPair{}, rerr
		}
		s.metrics.IncReuseDetected()
		s.log.Warn("refresh token reuse detected",
			"session_id", prev.ID, "device_id", prev.DeviceID, "sessions_revoked", n)
		return TokenPair{}, domain.ErrRefreshReuse
	}

	return TokenPair{}, domain.ErrTokenInvalid
}
