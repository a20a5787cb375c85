package http

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// storeTimeout — потолок на поход в хранилище из одного запроса.
const storeTimeout = 3 * time.Second

func reqCtx(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), storeTimeout)
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
