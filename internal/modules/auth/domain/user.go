package domain

import (
	"context"
	"time"
)

type User struct {
	ID         string
	ProviderID string
	Email      string
	FirstName  string
	LastName   string
	DeletedAt  *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (u *User) Deleted() bool { return u.DeletedAt != nil }

type CreateUserParams struct {
	ProviderID string
	Email      string
	FirstName  string
	LastName   string
}

// UserRepo — справочник пользователей. Внешний каталог (Clerk/WorkOS webhooks)
// пишет в те же строки асинхронно, поэтому нужны идемпотентный upsert и
// lookup с учётом soft-delete.
type UserRepo interface {
	Create(ctx context.Context, p CreateUserParams) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByProviderID(ctx context.Context, providerID string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// Restore снимает soft-delete и привязывает provider_id к найденной по
	// email строке (гонка с webhook-синхронизацией).
	Restore(ctx context.Context, id, providerID string) (*User, error)
}
