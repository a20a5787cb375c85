package domain

import (
	"context"
	"time"
)

// HandoffCode — одна попытка входа с одного устройства.
// Строка создаётся на initiate (код ещё пуст, есть только poll-токен),
// браузерная нога после проверки у провайдера дописывает код и владельца.
// Потреблённая строка остаётся лежать до реапера — только для аудита.
type HandoffCode struct {
	ID                string
	DeviceID          string
	PollTokenHash     string
	Code              *string
	UserID            *string
	ProviderSessionID *string
	ExpiresAt         time.Time
	Used              bool
	UsedAt            *time.Time
	CreatedAt         time.Time
}

func (h *HandoffCode) Ready() bool { return h.Code != nil && h.UserID != nil }

type AttachCodeParams struct {
	DeviceID          string
	Code              string
	UserID            string
	ProviderSessionID *string
	ExpiresAt         time.Time
}

type HandoffRepo interface {
	// StartAttempt удаляет прежние непотреблённые попытки устройства и
	// вставляет новую — невыполненных попыток на device_id всегда максимум одна.
	StartAttempt(ctx context.Context, h HandoffCode) (*HandoffCode, error)

	// Attach дописывает сгенерированный код и личность в ожидающую попытку.
	// ErrNotFound, если попытки нет или она уже истекла/потреблена.
	Attach(ctx context.Context, p AttachCodeParams) (*HandoffCode, error)

	// Latest возвращает непотреблённую попытку устройства (для поллинга).
	// Поллинг никогда не пишет.
	Latest(ctx context.Context, deviceID string) (*HandoffCode, error)

	// Consume — единственный мутатор used: атомарный check-and-set.
	// ErrNotFound / ErrCodeUsed / ErrCodeExpired / ErrDeviceMismatch.
	Consume(ctx context.Context, code, deviceID string, at time.Time) (*HandoffCode, error)

	PurgeExpired(ctx context.Context, before time.Time) (int, error)
}
