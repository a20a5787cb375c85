package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"deviceauth/internal/modules/auth/domain"
	"deviceauth/internal/platform/security"
)

// IssueSession создаёт сессию для пары (user, device) и подписывает пару
// токенов. Действующая сессия устройства при этом гасится — активной
// остаётся ровно одна.
func (s *Service) IssueSession(ctx context.Context, userID, deviceID string, meta ClientMeta) (TokenPair, *domain.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return TokenPair{}, nil, domain.ErrUserNotFound
		}
		return TokenPair{}, nil, err
	}
	if u.Deleted() {
		return TokenPair{}, nil, domain.ErrUserNotFound
	}

	if _, err := s.devices.Upsert(ctx, domain.UpsertDeviceParams{
		ID:        deviceID,
		UserID:    userID,
		Name:      meta.DeviceName,
		UserAgent: meta.UserAgent,
	}); err != nil {
		return TokenPair{}, nil, err
	}

	now := time.Now()
	if _, err := s.sessions.RevokeForUserDevice(ctx, userID, deviceID, now); err != nil {
		return TokenPair{}, nil, err
	}

	refreshPlain, refreshHash, err := security.IssueRefresh()
	if err != nil {
		return TokenPair{}, nil, err
	}

	sess := domain.Session{
		ID:               uuid.New().String(),
		UserID:           userID,
		DeviceID:         deviceID,
		RefreshTokenHash: refreshHash,
		ExpiresAt:        now.Add(s.cfg.AccessTTL),
		RefreshExpiresAt: now.Add(s.cfg.RefreshTTL),
		IPAddress:        meta.IPAddress,
		UserAgent:        meta.UserAgent,
	}
	created, err := s.sessions.Create(ctx, sess)
	if err != nil {
		return TokenPair{}, nil, err
	}

	accessToken, accessExp, err := s.jwt.IssueAccess(userID, created.ID, deviceID)
	if err != nil {
		return TokenPair{}, nil, err
	}

	s.metrics.IncSessionsIssued()
	s.log.Info("session issued", "session_id", created.ID, "user_id", userID, "device_id", deviceID)

	return TokenPair{
		SessionID:        created.ID,
		AccessToken:      accessToken,
		RefreshToken:     refreshPlain,
		ExpiresAt:        accessExp,
		RefreshExpiresAt: created.RefreshExpiresAt,
	}, u, nil
}

// ExchangeCode — device-нога: одноразовое потребление handoff-кода и выпуск
// пары токенов привязанной личности.
func (s *Service) ExchangeCode(ctx context.Context, code, deviceID string, meta ClientMeta) (TokenPair, *domain.User, error) {
	h, err := s.codes.Consume(ctx, code, deviceID, time.Now())
	if err != nil {
		return TokenPair{}, nil, err
	}
	if h.UserID == nil {
		// Потребить можно только выданный код; пустая попытка сюда не попадает.
		return TokenPair{}, nil, domain.ErrNotFound
	}
	s.metrics.IncCodesConsumed()

	pair, u, err := s.IssueSession(ctx, *h.UserID, deviceID, meta)
	if err != nil {
		return TokenPair{}, nil, err
	}
	return pair, u, nil
}

// GetUser — профиль для защищённых ручек.
func (s *Service) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	if u.Deleted() {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}
