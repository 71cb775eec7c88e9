// Package server contains the HTTP and WebSocket handlers of the API.
package server

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "mundotango/docs" // swagger docs
	"mundotango/internal/cache"
	"mundotango/internal/config"
	"mundotango/internal/database"
	"mundotango/internal/media"
	"mundotango/internal/middleware"
	"mundotango/internal/models"
	"mundotango/internal/notifications"
	"mundotango/internal/observability"
	"mundotango/internal/queue"
	"mundotango/internal/repository"
	"mundotango/internal/resource"
	"mundotango/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// httpMetrics registers the request collectors on the default registry once
// per process; every Server shares them.
var httpMetrics = sync.OnceValue(func() *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New("mundotango-api")
})

// Options carries the optional backends a bootstrap layer may provide.
type Options struct {
	// Store receives finished uploads. Nil stores them on local disk under
	// UPLOAD_DIR/media and serves them at /media.
	Store media.Store
	// Events receives domain events. Nil drops them.
	Events queue.Publisher
}

// Server holds all dependencies and provides handlers
type Server struct {
	config      *config.Config
	db          *gorm.DB
	redis       *redis.Client
	app         *fiber.App
	prom        *fiberprometheus.FiberPrometheus
	shutdownCtx context.Context
	shutdownFn  context.CancelFunc

	auth    *middleware.Authenticator
	limiter *middleware.RateLimiter
	users   repository.UserRepository
	hub     *notifications.Hub
	// notifier fans frames out through Redis, or locally without it.
	notifier *notifications.Notifier
	events   queue.Publisher
	version  *cache.Version

	authService         *service.AuthService
	mentions            *service.MentionCache
	notificationService *service.NotificationService
	chatService         *service.ChatService
	uploader            *media.Uploader
	fileStore           *media.FileStore

	restModels *service.RestModels
	messages   repository.RestRepository[models.ChatMessage]
}

// NewServer connects every backend named in cfg. Redis, RabbitMQ and MinIO
// are optional; without them the server runs on local fallbacks.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	log := observability.Logger
	rdb, err := cache.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Warn("redis unavailable, running without cache and cross-instance fan-out", "error", err)
		rdb = nil
	}

	var opts Options
	if cfg.AMQPURL != "" {
		pub, err := queue.NewAMQPPublisher(cfg.AMQPURL)
		if err != nil {
			log.Warn("amqp unavailable, domain events are dropped", "error", err)
		} else {
			opts.Events = pub
		}
	}
	if cfg.MinioEndpoint != "" {
		store, err := media.NewMinioStore(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			return nil, fmt.Errorf("media store: %w", err)
		}
		opts.Store = store
	}

	return NewServerWithDeps(cfg, db, rdb, opts)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Tests use it with SQLite and an optional miniredis client.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, rdb *redis.Client, opts Options) (*Server, error) {
	s := &Server{
		config:  cfg,
		db:      db,
		redis:   rdb,
		prom:    httpMetrics(),
		auth:    middleware.NewAuthenticator(cfg.JWTSecret, rdb),
		limiter: middleware.NewRateLimiter(rdb, cfg.Env),
		users:   repository.NewUserRepository(db, rdb),
		hub:     notifications.NewHub(),
		events:  opts.Events,
		version: cache.NewVersion(rdb),
	}
	if s.events == nil {
		s.events = queue.NopPublisher{}
	}
	models.HideErrorDetails(cfg.IsProduction())
	s.notifier = notifications.NewNotifier(rdb, s.hub)

	store := opts.Store
	if store == nil {
		fs, err := media.NewFileStore(filepath.Join(cfg.UploadDir, "media"))
		if err != nil {
			return nil, err
		}
		s.fileStore = fs
		store = fs
	}
	chunks, err := media.NewChunks(cfg.UploadDir, cfg.MaxUploadMB)
	if err != nil {
		return nil, err
	}
	s.uploader = media.NewUploader(store, chunks, s.mediaURL())

	s.authService = service.NewAuthService(s.users, s.auth)
	s.mentions = service.NewMentionCache(rdb, s.users, time.Duration(cfg.MentionCacheTTLSeconds)*time.Second)
	s.notificationService = service.NewNotificationService(repository.NewNotificationRepository(db), s.notifier, rdb, cfg.MediaBaseURL)
	s.chatService = service.NewChatService(repository.NewChatRepository(db), s.notifier, cfg.MediaBaseURL)
	s.restModels = service.NewRestModels(service.Deps{
		Users:         s.users,
		Friends:       repository.NewFriendRepository(db),
		Chat:          s.chatService,
		Mentions:      s.mentions,
		Notifications: s.notificationService,
		Push:          s.notifier,
		Events:        s.events,
		MediaBaseURL:  cfg.MediaBaseURL,
	})
	s.messages = repository.NewRestRepository(db, s.restModels.ChatMessage)
	return s, nil
}

// mediaURL is where locally stored uploads are served from.
func (s *Server) mediaURL() string {
	if s.fileStore == nil {
		return strings.TrimRight(s.config.MediaBaseURL, "/")
	}
	return strings.TrimRight(s.config.MediaBaseURL, "/") + "/media"
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())
	app.Use(s.prom.Middleware)
	app.Use(helmet.New(helmet.Config{CrossOriginResourcePolicy: "cross-origin"}))
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	app.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.AllowedOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
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

// guarded prefixes h with the API token check and authentication.
func (s *Server) guarded(h ...fiber.Handler) []fiber.Handler {
	return append([]fiber.Handler{middleware.CheckAPIToken(), s.auth.APIAuthentication()}, h...)
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health", s.ReadinessCheck)
	app.Get("/health/live", s.LivenessCheck)
	s.prom.RegisterAt(app, "/metrics")
	app.Get("/swagger/*", swagger.HandlerDefault)
	if s.fileStore != nil {
		app.Static("/media", s.fileStore.Root(), fiber.Static{MaxAge: 86400})
	}
	app.Get("/ws", s.WebSocketUpgrade, s.WebsocketHandler())

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", s.limiter.Limit("register", 5, 10*time.Minute, middleware.FailOpen), s.Register)
	auth.Post("/login", s.limiter.Limit("login", 10, 5*time.Minute, middleware.FailOpen), s.Login)
	auth.Post("/logout", s.guarded(s.Logout)...)
	auth.Get("/me", s.guarded(s.Me)...)

	// Specific routes come before the generic resource routes of the same prefix.
	api.Get("/user/mentions", s.guarded(s.limiter.Limit("mentions", 60, time.Minute, middleware.FailOpen), s.Mentions)...)
	api.Get("/notification/unread-count", s.guarded(s.UnreadCount)...)
	api.Post("/notification/read-all", s.guarded(s.MarkAllRead)...)
	api.Post("/notification/read/:id", s.guarded(s.MarkRead)...)

	api.Get("/cache-version", s.CacheVersion)
	api.Post("/cache-version/bump", s.guarded(s.AdminRequired(), s.BumpCacheVersion)...)

	upload := api.Group("/upload")
	upload.Post("/chunk", s.guarded(s.limiter.Limit("upload_chunk", 600, time.Minute, middleware.FailOpen), s.UploadChunk)...)
	upload.Post("/complete", s.guarded(s.CompleteUpload)...)

	m := s.restModels
	registerResource(s, api, "activity", repository.NewRestRepository(s.db, m.Activity), resource.Activities)
	registerResource(s, api, "faq", repository.NewRestRepository(s.db, m.Faq), resource.Faqs)
	registerResource(s, api, "user", repository.NewRestRepository(s.db, m.User), resource.Users)
	registerResource(s, api, "post", repository.NewRestRepository(s.db, m.Post), resource.Posts)
	registerResource(s, api, "comment", repository.NewRestRepository(s.db, m.Comment), resource.Comments)
	registerResource(s, api, "event", repository.NewRestRepository(s.db, m.Event), resource.Events)
	registerResource(s, api, "event-participant", repository.NewRestRepository(s.db, m.EventParticipant), resource.EventParticipants)
	registerResource(s, api, "group", repository.NewRestRepository(s.db, m.Group), resource.Groups)
	registerResource(s, api, "group-member", repository.NewRestRepository(s.db, m.GroupMember), resource.GroupMembers)
	registerResource(s, api, "friend", repository.NewRestRepository(s.db, m.Friend), resource.Friends)
	registerResource(s, api, "chat-room", repository.NewRestRepository(s.db, m.ChatRoom), resource.ChatRooms)
	registerResource(s, api, "chat-message", s.messages, resource.ChatMessages)
	registerResource(s, api, "notification", repository.NewRestRepository(s.db, m.Notification), resource.Notifications)
	registerResource(s, api, "subscription", repository.NewRestRepository(s.db, m.Subscription), resource.Subscriptions)
	registerResource(s, api, "dance-experience", repository.NewRestRepository(s.db, m.DanceExperience), resource.DanceExperiences)
	registerResource(s, api, "organizer-experience", repository.NewRestRepository(s.db, m.OrganizerExperience), resource.OrganizerExperiences)
	registerResource(s, api, "teacher-experience", repository.NewRestRepository(s.db, m.TeacherExperience), resource.TeacherExperiences)
}

// App builds the Fiber app with middleware and routes.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName:   "Mundo Tango API",
		BodyLimit: int(s.maxBodyBytes()),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			observability.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

func (s *Server) maxBodyBytes() int64 {
	mb := int64(s.config.MaxUploadMB)
	if mb <= 0 {
		mb = media.DefaultMaxUploadMB
	}
	// A chunk never exceeds the whole upload; leave room for the form envelope.
	return mb*1024*1024 + 1024*1024
}

// Start serves until the app is shut down.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := s.App()
	go func() {
		if err := s.notifier.Start(s.shutdownCtx); err != nil {
			observability.Logger.Error("notifier stopped", "error", err)
		}
	}()

	observability.Logger.Info("server starting", "port", s.config.Port, "env", s.config.Env)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log := observability.Logger
	if s.shutdownFn != nil {
		s.shutdownFn()
	}
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Error("error shutting down HTTP server", "error", err)
		}
	}
	if err := s.hub.Shutdown(ctx); err != nil {
		log.Error("error shutting down websocket hub", "error", err)
	}
	if err := s.events.Close(); err != nil {
		log.Error("error closing event publisher", "error", err)
	}
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Error("error closing sql DB", "error", cerr)
		}
	}
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Error("error closing redis", "error", rerr)
		}
	}
	log.Info("server shutdown complete")
	return nil
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "up", "time": time.Now()})
}

// ReadinessCheck reports database and Redis health. Redis is optional, so
// its absence does not fail readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if sqlDB, err := s.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		dbStatus = "unhealthy"
	}
	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status, overall := fiber.StatusOK, "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status, overall = fiber.StatusServiceUnavailable, "unhealthy"
	}
	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{"database": dbStatus, "redis": redisStatus},
		"online": s.hub.Count(),
		"time":   time.Now(),
	})
}

// AdminRequired rejects non-admin users with 403. It must follow the auth chain.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := s.actor(c)
		if err != nil {
			return models.RespondWithAppError(c, err)
		}
		if !actor.IsAdmin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}
