package domain

import (
	"context"
	"time"
)

// Device — долговременная идентичность установки приложения. Живёт дольше
// любой сессии; is_active/revoked_at не зависят от судьбы конкретной сессии.
type Device struct {
	ID           string // opaque id, который выбирает клиент при установке
	UserID       string
	Name         *string
	UserAgent    *string
	IsActive     bool
	RevokedAt    *time.Time
	LastActiveAt time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (d *Device) Valid() bool { return d.IsActive && d.RevokedAt == nil }

type UpsertDeviceParams struct {
	ID        string
	UserID    string
	Name      *string
	UserAgent *string
}

type DeviceRepo interface {
	// Upsert создаёт устройство либо дописывает метаданные и реактивирует
	// ранее отозванное. Владелец всегда ровно один — user_id перезаписывается.
	Upsert(ctx context.Context, p UpsertDeviceParams) (*Device, error)
	GetByID(ctx context.Context, id string) (*Device, error)
	ListByUser(ctx context.Context, userID string) ([]Device, error)
	Revoke(ctx context.Context, deviceID string, at time.Time) error
	Touch(ctx context.Context, deviceID string, at time.Time) error
}
