package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"deviceauth/internal/modules/auth/domain"
	"deviceauth/internal/modules/auth/identity"
	"deviceauth/internal/modules/auth/infra"
	"deviceauth/internal/platform/security"
)

const testDevice = "device-0001-aaaa"

type fixture struct {
	svc      *Service
	users    *infra.MemUserRepo
	sessions *infra.MemSessionRepo
	devices  *infra.MemDeviceRepo
	codes    *infra.MemHandoffRepo
	jwt      *security.JWTManager
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	users := infra.NewMemUserRepo()
	sessions := infra.NewMemSessionRepo()
	devices := infra.NewMemDeviceRepo()
	codes := infra.NewMemHandoffRepo()
	jwt := security.NewJWTManager("test-secret", "deviceauth", "deviceauth-api", cfg.AccessTTL)

	svc := New(cfg, Deps{
		Users:    users,
		Sessions: sessions,
		Devices:  devices,
		Codes:    codes,
		JWT:      jwt,
		Resolver: identity.NewResolver(identity.NewStaticProvider(), users),
	})
	return &fixture{svc: svc, users: users, sessions: sessions, devices: devices, codes: codes, jwt: jwt}
}

// completeLogin проходит браузерную ногу за пользователя providerToken
// ("sub:email" для StaticProvider) и возвращает выданный код и poll-токен.
func (f *fixture) completeLogin(t *testing.T, deviceID, providerToken string) (code, pollToken string) {
	t.Helper()
	ctx := context.Background()

	init, err := f.svc.Initiate(ctx, deviceID)
	require.NoError(t, err)

	issued, err := f.svc.IssueCode(ctx, deviceID, providerToken, identity.Social("google"))
	require.NoError(t, err)
	require.NotEmpty(t, issued.Code)
	return issued.Code, init.PollToken
}

// login проходит весь handoff до пары токенов.
func (f *fixture) login(t *testing.T, deviceID, providerToken string) TokenPair {
	t.Helper()
	code, _ := f.completeLogin(t, deviceID, providerToken)
	pair, _, err := f.svc.ExchangeCode(context.Background(), code, deviceID, ClientMeta{})
	require.NoError(t, err)
	return pair
}

// flaky*-обёртки имитируют недоступное хранилище на отдельных вызовах:
// пока fail=true, обёрнутый метод отвечает ErrUnavailable.

type flakyUserRepo struct {
	domain.UserRepo
	fail bool
}

func (r *flakyUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if r.fail {
		return nil, domain.ErrUnavailable
	}
	return r.UserRepo.GetByID(ctx, id)
}

type flakyDeviceRepo struct {
	domain.DeviceRepo
	fail bool
}

func (r *flakyDeviceRepo) GetByID(ctx context.Context, id string) (*domain.Device, error) {
	if r.fail {
		return nil, domain.ErrUnavailable
	}
	return r.DeviceRepo.GetByID(ctx, id)
}

type flakySessionRepo struct {
	domain.SessionRepo
	fail bool
}

func (r *flakySessionRepo) FindByRefreshHash(ctx context.Context, hash string) (*domain.Session, error) {
	if r.fail {
		return nil, domain.ErrUnavailable
	}
	return r.SessionRepo.FindByRefreshHash(ctx, hash)
}

func (r *flakySessionRepo) FindByPreviousHash(ctx context.Context, hash string) (*domain.Session, error) {
	if r.fail {
		return nil, domain.ErrUnavailable
	}
	return r.SessionRepo.FindByPreviousHash(ctx, hash)
}

func defaultCfg() Config {
	return Config{
		AccessTTL:   15 * time.Minute,
		RefreshTTL:  30 * 24 * time.Hour,
		CodeTTL:     5 * time.Minute,
		AttemptTTL:  15 * time.Minute,
		AuthBaseURL: "http://localhost:8080",
	}
}
