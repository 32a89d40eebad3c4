package server

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/incuhub/incuhub/internal/auth"
	"github.com/incuhub/incuhub/internal/mirror"
	"github.com/incuhub/incuhub/internal/storage"
)

// AppOptions controls how the Fiber application should be assembled.
type AppOptions struct {
	Logger     *logrus.Logger
	Registry   *mirror.Registry
	Auth       *auth.Service
	Store      *storage.Store
	AssetPath  string
	ListenPort int
}

const contextKeyRequestID = "_incuhub_request_id"

// NewApp builds the Fiber application with the full API route table and
// structured error handling.
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Registry == nil {
		return nil, errors.New("mirror registry is required")
	}
	if opts.Auth == nil {
		return nil, errors.New("auth service is required")
	}
	if opts.Store == nil {
		return nil, errors.New("storage is required")
	}
	if opts.ListenPort <= 0 {
		return nil, fmt.Errorf("invalid listen port: %d", opts.ListenPort)
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
	})

	app.Use(recover.New())
	app.Use(requestIDMiddleware())

	registerRoutes(app, opts)

	// 未匹配的 /api 路径统一返回 JSON 404。
	app.Use(func(c fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"detail": "API endpoint not found",
		})
	})

	return app, nil
}

// requestIDMiddleware 为每个请求生成 UUID，写入响应头并留存于上下文。
func requestIDMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)
		return c.Next()
	}
}

// RequestID returns the request identifier stored by the router middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}
