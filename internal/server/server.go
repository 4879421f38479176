// Package server contains the HTTP and WebSocket handlers for the board API.
package server

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"pepeboard/internal/cache"
	"pepeboard/internal/config"
	"pepeboard/internal/middleware"
	"pepeboard/internal/models"
	"pepeboard/internal/notifications"
	"pepeboard/internal/repository"
	"pepeboard/internal/service"
	"pepeboard/internal/store"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	store          store.Store
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	rateLimiter    *middleware.RateLimiter
	notifier       *notifications.Notifier
	hub            *notifications.Hub
	broadcaster    *notifications.Broadcaster
	postService    *service.PostService
}

// NewServer connects Redis (when configured) and opens the configured store,
// then builds the server on top of them.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	// Redis is optional unless it backs the store; store.Open reports that case.
	redisClient := cache.ConnectOptional(ctx, cfg.RedisURL)

	st, err := store.Open(ctx, cfg, redisClient, middleware.Logger)
	if err != nil {
		if redisClient != nil {
			_ = redisClient.Close()
		}
		return nil, fmt.Errorf("store open failed: %w", err)
	}

	return NewServerWithDeps(cfg, st, redisClient)
}

// NewServerWithDeps creates a Server using an already-opened store and an
// optional Redis client. The broadcaster starts immediately; when
// BROADCAST_VIA_REDIS is set the hub is subscribed before this returns, so
// no event published afterwards can be missed locally.
func NewServerWithDeps(cfg *config.Config, st store.Store, redisClient *redis.Client) (*Server, error) {
	if st == nil {
		return nil, fmt.Errorf("server requires a store")
	}

	ctx, cancel := context.WithCancel(context.Background())

	server := &Server{
		config:         cfg,
		store:          st,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("pepeboard"),
		shutdownCtx:    ctx,
		shutdownFn:     cancel,
		rateLimiter:    middleware.NewRateLimiter(redisClient, cfg.Env),
		hub:            notifications.NewHub(cfg.MaxWSConnections),
	}

	if cfg.BroadcastViaRedis && redisClient != nil {
		n := notifications.NewNotifier(redisClient, "")
		if err := server.hub.StartWiring(ctx, n); err != nil {
			log.Printf("failed to start %s wiring, broadcasting locally: %v", server.hub.Name(), err)
		} else {
			server.notifier = n
		}
	}

	server.broadcaster = notifications.NewBroadcaster(server.hub, server.notifier, cfg.BroadcastBuffer, middleware.Logger)
	go server.broadcaster.Run(ctx)

	server.postService = service.NewPostService(st, repository.NewPostRepository(nil), newBoardEvents(server.broadcaster))

	server.app = fiber.New(fiber.Config{
		AppName:      "pepeboard",
		ErrorHandler: errorHandler,
	})
	server.SetupMiddleware(server.app)
	server.SetupRoutes(server.app)

	return server, nil
}

// App returns the configured Fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Span per request; must run before ContextMiddleware picks up the trace ID
	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and Trace ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := strings.TrimSpace(s.config.AllowedOrigins)
	if origins == "" {
		origins = "http://localhost:3000,http://localhost:8080"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Admin-Token, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowCredentials: origins != "*",
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting per IP
	if s.config.GlobalRateLimitMax > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        s.config.GlobalRateLimitMax,
			Expiration: 1 * time.Minute,
			// Never rate-limit preflight requests; they should be handled by CORS.
			Next: func(c *fiber.Ctx) bool {
				return c.Method() == fiber.MethodOptions
			},
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"error": "Too many requests, please try again later.",
				})
			},
		}))
	}
}

// SetupRoutes configures all routes for the application. The board routes
// are served both at the root and under /api.
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	s.registerBoardRoutes(app)
	s.registerBoardRoutes(app.Group("/api"))
}

func (s *Server) registerBoardRoutes(r fiber.Router) {
	window := time.Duration(s.config.RateLimitWindowSeconds) * time.Second

	posts := r.Group("/posts")
	posts.Get("/", s.GetPosts)
	posts.Post("/", s.rateLimiter.Handler("create_post", s.config.RateLimitMax, window, middleware.FailOpen), s.CreatePost)
	// Define specific /:id/:resource routes BEFORE generic /:id route
	posts.Get("/:id/comments", s.GetComments)
	posts.Post("/:id/comments", s.rateLimiter.Handler("add_comment", s.config.RateLimitMax, window, middleware.FailOpen), s.AddComment)
	posts.Post("/:id/like", s.LikePost)
	posts.Post("/:postId/comments/date/:commentDate/like", s.LikeCommentByDate)
	posts.Post("/:postId/comments/:commentId/like", s.LikeCommentByID)
	// Generic /:id routes
	posts.Get("/:id", s.GetPost)
	posts.Delete("/:id", middleware.SharedSecret(s.config.AdminToken, s.config.AdminTokenHash), s.DeletePost)

	r.Get("/ws", s.WebsocketHandler())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	storeStatus := "healthy"
	if p, ok := s.store.(store.Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			storeStatus = "unhealthy"
		}
	}

	// Redis is optional unless it backs the store.
	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if storeStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"store":   storeStatus,
			"backend": s.store.Name(),
			"redis":   redisStatus,
		},
		"websocket_clients": s.hub.Count(),
		"time":              time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	log.Printf("Server starting on port %s...", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server. Queued events are flushed to
// connected clients before their connections are closed.
func (s *Server) Shutdown(ctx context.Context) error {
	// Stop accepting requests first so no new events are queued.
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	// Cancel the server-scoped context to stop the broadcaster and wiring
	if s.shutdownFn != nil {
		s.shutdownFn()
	}
	if s.broadcaster != nil {
		select {
		case <-s.broadcaster.Done():
		case <-ctx.Done():
			log.Printf("broadcaster did not drain before shutdown deadline")
		}
	}

	// Close WebSocket connections gracefully
	if err := s.hub.Shutdown(ctx); err != nil {
		log.Printf("error shutting down %s: %v", s.hub.Name(), err)
	}

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("error closing store: %v", err)
		}
	}

	// Close Redis connection
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}

// errorHandler reports errors no handler answered itself.
func errorHandler(c *fiber.Ctx, err error) error {
	status := models.StatusCode(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "unhandled error",
			"path", c.Path(), "error", err.Error())
		return models.RespondWithError(c, status, models.NewInternalError(err))
	}
	return models.RespondWithError(c, status, err)
}
