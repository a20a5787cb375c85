package main

import (
	"context"
	"log/slog"
	"os"

	"deviceauth/internal/db"
	"deviceauth/internal/modules/auth/identity"
	"deviceauth/internal/platform/config"
	phttp "deviceauth/internal/platform/http"
	"deviceauth/internal/platform/metrics"
	"deviceauth/internal/platform/security"

	authhttp "deviceauth/internal/modules/auth/http"
	"deviceauth/internal/modules/auth/service"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config", "err", err)
		os.Exit(1)
	}

	if err := db.Migrate(cfg.PGDSN); err != nil {
		log.Error("migrate", "err", err)
		os.Exit(1)
	}
	dbpool := db.MustOpen(context.Background(), cfg.PGDSN)
	defer dbpool.Close()

	jwtMgr := security.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL)

	// TODO: заменить StaticProvider на клиент Clerk, когда появятся ключи окружения
	idp := identity.NewStaticProvider()

	m := metrics.New()
	authModule := authhttp.NewModulePG(dbpool, idp, jwtMgr, service.Config{
		AccessTTL:      cfg.AccessTTL,
		RefreshTTL:     cfg.RefreshTTL,
		CodeTTL:        cfg.CodeTTL,
		AttemptTTL:     cfg.AttemptTTL,
		AuthBaseURL:    cfg.AuthBaseURL,
		DeepLinkScheme: cfg.DeepLinkScheme,
	}, m, log)

	app := phttp.NewServer(phttp.Options{AppName: "device-auth", MetricsHandler: m.Handler()}, authModule)

	log.Info("listening", "addr", cfg.HTTPAddr)
	if err := app.Listen(cfg.HTTPAddr); err != nil {
		log.Error("listen", "err", err)
		os.Exit(1)
	}
}
