package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/insightdelivered/statement-extractor/internal/config"
)

// ServerOptions configures NewApp.
type ServerOptions struct {
	Server config.ServerConfig
	// Gatherer, when set, is served on /metrics.
	Gatherer prometheus.Gatherer
}

// NewApp builds the fiber application with every route registered.
func NewApp(h *Handler, opts ServerOptions) *fiber.App {
	bodyLimit := opts.Server.BodyLimitMB
	if bodyLimit <= 0 {
		bodyLimit = 50
	}
	app := fiber.New(fiber.Config{
		AppName:      "statement-extractor " + Version,
		BodyLimit:    bodyLimit << 20,
		ReadTimeout:  opts.Server.ReadTimeout,
		WriteTimeout: opts.Server.WriteTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			status := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
			return writeError(c, status, err.Error())
		},
	})

	// A panic while parsing returns 500 instead of taking the server down.
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e any) {
			h.logger().Error("recovered from panic", zap.String("path", c.Path()), zap.Any("panic", e))
		},
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type",
	}))
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		h.logger().Debug("request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("duration", time.Since(start)))
		return err
	})

	api := app.Group("/api")
	api.Get("/health", HandleHealth)
	api.Post("/extract", h.HandleExtract)
	api.Get("/statements", h.HandleListStatements)
	api.Get("/statements/:id", h.HandleGetStatement)

	if opts.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	// Serve the web front end, falling back to index.html for client routes.
	if dir := opts.Server.StaticDir; dir != "" {
		app.Static("/", dir, fiber.Static{Index: "index.html"})
		app.Get("/*", func(c *fiber.Ctx) error {
			return c.SendFile(dir + "/index.html")
		})
	}
	return app
}
