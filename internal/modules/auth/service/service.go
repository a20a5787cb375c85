package service

import (
	"log/slog"
	"time"

	"deviceauth/internal/modules/auth/domain"
	"deviceauth/internal/modules/auth/identity"
	"deviceauth/internal/platform/metrics"
	"deviceauth/internal/platform/security"
)

type Config struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// CodeTTL — срок handoff-кода после выдачи браузерной ногой.
	CodeTTL time.Duration
	// AttemptTTL — сколько живёт ожидающая попытка до завершения логина.
	AttemptTTL time.Duration

	AuthBaseURL    string
	DeepLinkScheme string
}

func (c Config) withDefaults() Config {
	if c.AccessTTL == 0 {
		c.AccessTTL = 15 * time.Minute
	}
	if c.RefreshTTL == 0 {
		c.RefreshTTL = 30 * 24 * time.Hour
	}
	if c.CodeTTL == 0 {
		c.CodeTTL = 5 * time.Minute
	}
	if c.AttemptTTL == 0 {
		c.AttemptTTL = 15 * time.Minute
	}
	if c.DeepLinkScheme == "" {
		c.DeepLinkScheme = "deviceauth"
	}
	return c
}

// Service — ядро протокола: handoff-коды, выпуск сессий, ротация refresh,
// валидация и отзыв. Все зависимости инжектятся, состояние только в репах.
type Service struct {
	cfg      Config
	users    domain.UserRepo
	sessions domain.SessionRepo
	devices  domain.DeviceRepo
	codes    domain.HandoffRepo
	jwt      *security.JWTManager
	resolver *identity.Resolver
	metrics  *metrics.Metrics
	log      *slog.Logger
}

type Deps struct {
	Users    domain.UserRepo
	Sessions domain.SessionRepo
	Devices  domain.DeviceRepo
	Codes    domain.HandoffRepo
	JWT      *security.JWTManager
	Resolver *identity.Resolver
	Metrics  *metrics.Metrics // допускается nil
	Log      *slog.Logger     // допускается nil
}

func New(cfg Config, d Deps) *Service {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		cfg:      cfg.withDefaults(),
		users:    d.Users,
		sessions: d.Sessions,
		devices:  d.Devices,
		codes:    d.Codes,
		jwt:      d.JWT,
		resolver: d.Resolver,
		metrics:  d.Metrics,
		log:      log,
	}
}

// TokenPair — результат выпуска или ротации.
type TokenPair struct {
	SessionID        string
	AccessToken      string
	RefreshToken     string
	ExpiresAt        time.Time
	RefreshExpiresAt time.Time
}

// ClientMeta — метаданные запроса, попадающие в сессию и устройство.
type ClientMeta struct {
	DeviceName *string
	IPAddress  *string
	UserAgent  *string
}
