package http

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/jackc/pgx/v5/pgxpool"

	"deviceauth/internal/modules/auth/identity"
	"deviceauth/internal/modules/auth/infra"
	pgrepo "deviceauth/internal/modules/auth/infra/pg"
	"deviceauth/internal/modules/auth/service"
	"deviceauth/internal/platform/metrics"
	"deviceauth/internal/platform/security"
)

// Module wires up dependencies for the device-auth HTTP module.
type Module struct {
	svc *service.Service
}

func NewModule(svc *service.Service) *Module { return &Module{svc: svc} }

// NewModulePG собирает модуль на Postgres-репах.
func NewModulePG(db *pgxpool.Pool, idp identity.Provider, jwt *security.JWTManager,
	cfg service.Config, m *metrics.Metrics, log *slog.Logger) *Module {

	users := pgrepo.NewUserRepo(db)
	svc := service.New(cfg, service.Deps{
		Users:    users,
		Sessions: pgrepo.NewSessionRepo(db),
		Devices:  pgrepo.NewDeviceRepo(db),
		Codes:    pgrepo.NewHandoffRepo(db),
		JWT:      jwt,
		Resolver: identity.NewResolver(idp, users),
		Metrics:  m,
		Log:      log,
	})
	return &Module{svc: svc}
}

// NewModuleMemory — in-memory вариант для локальной разработки и тестов.
func NewModuleMemory(idp identity.Provider, jwt *security.JWTManager, cfg service.Config) *Module {
	users := infra.NewMemUserRepo()
	svc := service.New(cfg, service.Deps{
		Users:    users,
		Sessions: infra.NewMemSessionRepo(),
		Devices:  infra.NewMemDeviceRepo(),
		Codes:    infra.NewMemHandoffRepo(),
		JWT:      jwt,
		Resolver: identity.NewResolver(idp, users),
	})
	return &Module{svc: svc}
}

// Service — доступ к ядру для тестов и смежных модулей.
func (m *Module) Service() *service.Service { return m.svc }

func (m *Module) Register(r fiber.Router) {
	// поллинг и обмен кода — единственные ручки, по которым можно что-то
	// перебирать, поэтому per-IP лимит
	pollLimit := limiter.New(limiter.Config{Max: 60, Expiration: time.Minute})
	exchangeLimit := limiter.New(limiter.Config{Max: 20, Expiration: time.Minute})

	// -------- public --------
	device := r.Group("/device")
	device.Post("/initiate", InitiateHandler(m.svc))
	device.Get("/poll", pollLimit, PollHandler(m.svc))
	device.Post("/callback", CallbackHandler(m.svc))
	device.Post("/token", exchangeLimit, DeviceTokenHandler(m.svc))

	r.Post("/refresh", RefreshHandler(m.svc))

	// -------- protected --------
	protected := r.Group("", AuthRequired(m.svc))
	protected.Post("/logout", LogoutHandler(m.svc))
	protected.Post("/logout-all", LogoutAllHandler(m.svc))
	protected.Get("/user", GetProfileHandler(m.svc))
	protected.Get("/user/devices", ListDevicesHandler(m.svc))
	protected.Delete("/user/devices/:device_id", RevokeDeviceHandler(m.svc))
}
