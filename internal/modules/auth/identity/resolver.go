package identity

import (
	"context"
	"strings"

	"deviceauth/internal/modules/auth/domain"
)

// Resolver превращает проверенный провайдерский токен в локального пользователя.
type Resolver struct {
	idp   Provider
	users domain.UserRepo
}

func NewResolver(idp Provider, users domain.UserRepo) *Resolver {
	return &Resolver{idp: idp, users: users}
}

// Resolve: verify → lookup по subject id → fallback по email → create.
// Цепочка идемпотентна: повторные вызовы с тем же токеном сходятся на одном
// пользователе независимо от того, успел ли отработать webhook-синк.
func (r *Resolver) Resolve(ctx context.Context, providerToken string, method AuthMethod) (*domain.User, Identity, error) {
	ident, err := r.idp.VerifyProviderToken(ctx, providerToken, method)
	if err != nil {
		return nil, Identity{}, err
	}

	u, err := r.users.GetByProviderID(ctx, ident.SubjectID)
	if err == nil {
		if u.Deleted() {
			if u, err = r.users.Restore(ctx, u.ID, ident.SubjectID); err != nil {
				return nil, Identity{}, err
			}
		}
		return u, ident, nil
	}

	// Webhook мог создать строку раньше нас, но без provider_id —
	// доискиваем по primary email и усыновляем.
	email := strings.ToLower(strings.TrimSpace(ident.Email))
	if email != "" {
		if u, err := r.users.GetByEmail(ctx, email); err == nil {
			u, err = r.users.Restore(ctx, u.ID, ident.SubjectID)
			if err != nil {
				return nil, Identity{}, err
			}
			return u, ident, nil
		}
	}

	u, err = r.users.Create(ctx, domain.CreateUserParams{
		ProviderID: ident.SubjectID,
		Email:      email,
		FirstName:  ident.FirstName,
		LastName:   ident.LastName,
	})
	if err != nil {
		return nil, Identity{}, err
	}
	return u, ident, nil
}
