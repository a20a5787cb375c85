package identity

import (
	"context"
	"errors"
)

// ErrInvalidProviderSession — провайдер не подтвердил токен.
var ErrInvalidProviderSession = errors.New("invalid_provider_session")

type MethodKind string

const (
	MethodSocial    MethodKind = "social"
	MethodSSO       MethodKind = "sso"
	MethodMagicLink MethodKind = "magic_link"
)

// AuthMethod — tagged-вариант способа входа. Диспетчеризуется один раз на
// границе резолва личности; ядро сессий/handoff провайдеров не различает.
type AuthMethod struct {
	Kind MethodKind
	// Provider заполнен для social (google, microsoft, apple).
	Provider string
	// ConnectionID заполнен для sso.
	ConnectionID string
}

func Social(provider string) AuthMethod { return AuthMethod{Kind: MethodSocial, Provider: provider} }
func SSOConnection(id string) AuthMethod {
	return AuthMethod{Kind: MethodSSO, ConnectionID: id}
}
func MagicLink() AuthMethod { return AuthMethod{Kind: MethodMagicLink} }

// Identity — то немногое, что ядру нужно от внешнего IdP.
type Identity struct {
	SubjectID string
	SessionID *string
	Email     string
	FirstName string
	LastName  string
}

// Provider — внешний IdP как непрозрачный оракул. Конструируется и
// инжектится явно, чтобы тесты подменяли фейком.
type Provider interface {
	VerifyProviderToken(ctx context.Context, token string, method AuthMethod) (Identity, error)
}
