// internal/api/server.go
package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
)

type Options struct {
	MCP     bool
	Version string
}

// New builds the HTTP surface over reg.
func New(reg Registry, opts Options, log zerolog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "ups-replicator",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		IdleTimeout:           120 * time.Second,
	})

	app.Use(recover.New())
	app.Use(requestLogger(log))

	Register(app, reg)

	if opts.MCP {
		mcpServer := NewMCPServer(reg, opts.Version)
		app.All("/mcp", adaptor.HTTPHandler(server.NewStreamableHTTPServer(mcpServer)))
	}

	return app
}

// requestLogger logs every request at debug level.
func requestLogger(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		log.Debug().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", c.Response().StatusCode()).
			Dur("took", time.Since(start)).
			Msg("http request")
		return err
	}
}
