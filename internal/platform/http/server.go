package http

import (
	nethttp "net/http"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// Module — точка подключения предметного модуля: сервер отдаёт ему
// версионированную группу, модуль сам вешает на неё свои маршруты.
type Module interface {
	Register(r fiber.Router)
}

type Options struct {
	AppName string
	// MetricsHandler, если задан, вешается на GET /metrics.
	MetricsHandler nethttp.Handler
}

func NewServer(opts Options, modules ...Module) *fiber.App {
	app := fiber.New(fiber.Config{AppName: opts.AppName})

	app.Use(requestid.New())
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))

	api := app.Group("/api")
	v1 := api.Group("/v1")

	for _, m := range modules {
		m.Register(v1)
	}

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"status": "ok"}) })
	if opts.MetricsHandler != nil {
		app.Get("/metrics", adaptor.HTTPHandler(opts.MetricsHandler))
	}
	return app
}
