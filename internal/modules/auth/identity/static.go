package identity

import (
	"context"
	"fmt"
	"strings"
)

// StaticProvider — заглушка для dev-окружения и тестов: принимает токены
// вида "sub:email" и возвращает их как есть. В проде сюда встаёт клиент
// Clerk/WorkOS.
type StaticProvider struct{}

func NewStaticProvider() *StaticProvider { return &StaticProvider{} }

func (p *StaticProvider) VerifyProviderToken(_ context.Context, token string, method AuthMethod) (Identity, error) {
	if token == "" {
		return Identity{}, ErrInvalidProviderSession
	}
	sub, email, ok := strings.Cut(token, ":")
	if !ok || sub == "" {
		return Identity{}, ErrInvalidProviderSession
	}
	sid := fmt.Sprintf("psess_%s", sub)
	return Identity{
		SubjectID: sub,
		SessionID: &sid,
		Email:     email,
		FirstName: string(method.Kind),
		LastName:  "user",
	}, nil
}
