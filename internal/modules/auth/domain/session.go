package domain

import (
	"context"
	"time"
)

// Session — одна аутентифицированная привязка устройства.
// RefreshTokenHash хранит только хеш текущего секрета; PreviousRefreshTokenHash
// держим ровно один шаг назад — исключительно для детекта повторного
// использования после ротации.
type Session struct {
	ID                       string
	UserID                   string
	DeviceID                 string
	RefreshTokenHash         string
	PreviousRefreshTokenHash *string
	ExpiresAt                time.Time // горизонт access-токена
	RefreshExpiresAt         time.Time // абсолютный горизонт сессии
	RevokedAt                *time.Time
	LastActiveAt             time.Time
	IPAddress                *string
	UserAgent                *string
	CreatedAt                time.Time
}

func (s *Session) Revoked() bool { return s.RevokedAt != nil }

type SessionRepo interface {
	// Create вставляет новую сессию. Уникальный индекс по refresh_token_hash
	// отбрасывает дубликаты секретов.
	Create(ctx context.Context, s Session) (*Session, error)
	GetByID(ctx context.Context, id string) (*Session, error)

	// Rotate — атомарный compare-and-set: находит неотозванную сессию с
	// текущим хешем oldHash, переносит его в previous, ставит newHash и
	// продлевает горизонты. Проигравший конкурентный вызов получает
	// ErrNotFound (хеш уже уехал) и уходит в ветку детекта reuse.
	Rotate(ctx context.Context, oldHash, newHash string, expiresAt, refreshExpiresAt time.Time) (*Session, error)

	FindByRefreshHash(ctx context.Context, hash string) (*Session, error)
	FindByPreviousHash(ctx context.Context, hash string) (*Session, error)

	Revoke(ctx context.Context, sessionID string, at time.Time) error
	RevokeAllForUser(ctx context.Context, userID string, at time.Time) (int, error)
	RevokeAllForDevice(ctx context.Context, deviceID string, at time.Time) (int, error)
	// RevokeForUserDevice гасит действующую сессию пары (user, device)
	// перед выпуском новой: активной может быть максимум одна.
	RevokeForUserDevice(ctx context.Context, userID, deviceID string, at time.Time) (int, error)

	Touch(ctx context.Context, sessionID string, at time.Time) error
}
