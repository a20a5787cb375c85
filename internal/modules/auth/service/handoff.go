package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"deviceauth/internal/modules/auth/domain"
	"deviceauth/internal/modules/auth/identity"
	"deviceauth/internal/platform/security"
)

// InitiateResult — ответ на старт попытки: URL для браузера и poll-токен,
// который устройство обязано сохранить и предъявлять при поллинге.
type InitiateResult struct {
	AuthURL   string
	PollToken string
	ExpiresAt time.Time
}

func (s *Service) Initiate(ctx context.Context, deviceID string) (InitiateResult, error) {
	// Попутная уборка: таблица минутных TTL, шедулер не нужен.
	if n, err := s.codes.PurgeExpired(ctx, time.Now().Add(-24*time.Hour)); err == nil && n > 0 {
		s.log.Debug("purged expired handoff codes", "count", n)
	}

	pollToken, err := security.RandomSecret(24)
	if err != nil {
		return InitiateResult{}, err
	}
	pollHash, err := security.HashPollToken(pollToken)
	if err != nil {
		return InitiateResult{}, err
	}

	exp := time.Now().Add(s.cfg.AttemptTTL)
	_, err = s.codes.StartAttempt(ctx, domain.HandoffCode{
		ID:            uuid.New().String(),
		DeviceID:      deviceID,
		PollTokenHash: pollHash,
		ExpiresAt:     exp,
	})
	if err != nil {
		return InitiateResult{}, err
	}

	q := url.Values{"device_id": {deviceID}}
	return InitiateResult{
		AuthURL:   fmt.Sprintf("%s/device/connect?%s", s.cfg.AuthBaseURL, q.Encode()),
		PollToken: pollToken,
		ExpiresAt: exp,
	}, nil
}

// IssuedCode — код и deep link, которые браузер показывает/открывает
// после успешного логина у провайдера.
type IssuedCode struct {
	Code      string
	DeepLink  string
	ExpiresAt time.Time
}

// IssueCode вызывается браузерной ногой: резолвим личность, генерируем код и
// дописываем его в ожидающую попытку устройства.
func (s *Service) IssueCode(ctx context.Context, deviceID, providerToken string, method identity.AuthMethod) (IssuedCode, error) {
	u, ident, err := s.resolver.Resolve(ctx, providerToken, method)
	if err != nil {
		return IssuedCode{}, err
	}

	code, err := security.RandomCode(16)
	if err != nil {
		return IssuedCode{}, err
	}

	exp := time.Now().Add(s.cfg.CodeTTL)
	if _, err := s.codes.Attach(ctx, domain.AttachCodeParams{
		DeviceID:          deviceID,
		Code:              code,
		UserID:            u.ID,
		ProviderSessionID: ident.SessionID,
		ExpiresAt:         exp,
	}); err != nil {
		return IssuedCode{}, err
	}
	s.metrics.IncCodesIssued()

	q := url.Values{"code": {code}}
	return IssuedCode{
		Code:      code,
		DeepLink:  fmt.Sprintf("%s://auth/handoff?%s", s.cfg.DeepLinkScheme, q.Encode()),
		ExpiresAt: exp,
	}, nil
}

type PollStatus string

const (
	PollPending PollStatus = "pending"
	PollReady   PollStatus = "ready"
	PollExpired PollStatus = "expired"
)

type PollResult struct {
	Status    PollStatus
	Code      string
	ExpiresAt time.Time
}

// Poll — read-only: статус попытки устройства. Без валидного poll-токена
// ответ неотличим от pending, чтобы коды нельзя было перебирать по device_id.
func (s *Service) Poll(ctx context.Context, deviceID, pollToken string) (PollResult, error) {
	h, err := s.codes.Latest(ctx, deviceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return PollResult{Status: PollPending}, nil
		}
		return PollResult{}, err
	}

	if pollToken == "" {
		return PollResult{Status: PollPending}, nil
	}
	ok, err := security.CheckPollToken(h.PollTokenHash, pollToken)
	if err != nil || !ok {
		return PollResult{Status: PollPending}, nil
	}

	if h.Used || !h.Ready() {
		return PollResult{Status: PollPending}, nil
	}
	if time.Now().After(h.ExpiresAt) {
		return PollResult{Status: PollExpired}, nil
	}
	return PollResult{Status: PollReady, Code: *h.Code, ExpiresAt: h.ExpiresAt}, nil
}
