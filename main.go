package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/storage/memory/v2"
	"github.com/gofiber/storage/redis/v3"
	"github.com/jobers/backend/internal/audit"
	"github.com/jobers/backend/internal/common"
	"github.com/jobers/backend/internal/config"
	"github.com/jobers/backend/internal/geoip"
	"github.com/jobers/backend/internal/handlers/api"
	"github.com/jobers/backend/internal/mail"
	"github.com/jobers/backend/internal/middlewares"
	websessions "github.com/jobers/backend/internal/middlewares/sessions"
	"github.com/jobers/backend/internal/sessions"
	"github.com/jobers/backend/internal/tenants"
	"github.com/jobers/backend/internal/users"
	"github.com/jobers/backend/model"
	"github.com/jobers/backend/params"
	"github.com/urfave/cli/v2"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var (
	app       *cli.App
	gitCommit string
	gitDate   string
)

var (
	configFileFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "YAML config file",
		Value: "config.yaml",
	}
	debugFlag = &cli.BoolFlag{
		Name:  "debug",
		Usage: "Enable debug logging",
	}
)

func init() {
	app = cli.NewApp()
	app.EnableBashCompletion = true
	app.Usage = "jobers-backend - multi tenant inventory and catalog backend"
	app.Flags = []cli.Flag{
		configFileFlag,
		debugFlag,
	}
	app.Commands = []*cli.Command{
		{
			Name: "version",
			Action: func(ctx *cli.Context) error {
				fmt.Println(params.VersionWithCommit(gitCommit, gitDate))
				return nil
			},
		},
	}
	app.Action = run
}

func mustInitLogger(debug bool) {
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))
}

func mustInitDatabase(cfg *config.Config) (*gorm.DB, *tenants.Registry) {
	db, err := gorm.Open(mysql.Open(cfg.MySQL.Dsn), &gorm.Config{})
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	registry, err := tenants.NewRegistry(db, cfg.Tenants)
	if err != nil {
		slog.Error("Failed to register tenant databases", "error", err)
		os.Exit(1)
	}

	if err := db.AutoMigrate(model.Models...); err != nil {
		slog.Error("Database migration failed", "error", err)
		os.Exit(1)
	}
	return db, registry
}

func mustInitMailSender(mailCfg config.MailConfig) mail.MailSender {
	if mailCfg.Backend == "" {
		log.Fatal("Missing mail sender backend")
	}
	if mailCfg.Backend == "smtp" {
		from := mailCfg.From
		if from == "" {
			from = mailCfg.SMTP.From
		}
		return mail.NewSMTPMailSender(mail.SMTPConfig{
			Host:     mailCfg.SMTP.Host,
			Port:     mailCfg.SMTP.Port,
			Username: mailCfg.SMTP.Username,
			Password: mailCfg.SMTP.Password,
		}, from)
	}
	log.Fatalf("Unsupported mail sender backend %s", mailCfg.Backend)
	return nil
}

func mustInitRedisStorage(redisCfg config.RedisConfig) *redis.Storage {
	return redis.New(redis.Config{
		URL:           redisCfg.URL,
		PoolSize:      redisCfg.PoolSize,
		IsClusterMode: redisCfg.ClusterMode,
	})
}

func setupAPIRoutes(
	router fiber.Router,
	sessionConfig websessions.Config,
	guard *middlewares.AuthGuard,
	userService *users.UserService,
	sessionRegistry *sessions.Registry,
	auditor *audit.Recorder,
	geoResolver *geoip.Resolver,
	mailSender mail.MailSender,
	siteName string,
	baseURL string) {

	// handlers
	var (
		authHandler     = api.NewAuthHandler(userService, sessionRegistry, auditor, geoResolver)
		sessionHandler  = api.NewSessionHandler(sessionRegistry, auditor)
		auditHandler    = api.NewAuditHandler(auditor)
		registerHandler = api.NewRegisterHandler(userService, auditor, mailSender, siteName, baseURL)
		apiKeyHandler   = api.NewApiKeyHandler(userService, auditor)
	)

	// routes
	router.Use(websessions.New(sessionConfig))
	router.Post("/api/login", authHandler.PostLogin)
	router.Post("/api/register", registerHandler.PostRegister)
	router.Get("/api/register/verify", registerHandler.GetVerifyEmail)

	authed := router.Group("", guard.LoginRequired)
	authed.Post("/api/logout", authHandler.PostLogout)
	authed.Get("/api/current-user", authHandler.GetCurrentUser)
	authed.Post("/api/change-password", middlewares.CSRFProtect, authHandler.PostChangePassword)

	authed.Get("/api/api-keys", apiKeyHandler.GetApiKeys)
	authed.Post("/api/api-keys", middlewares.CSRFProtect, apiKeyHandler.PostApiKey)
	authed.Delete("/api/api-keys/:id", middlewares.CSRFProtect, apiKeyHandler.DeleteApiKey)

	admin := authed.Group("", guard.AdminRequired)
	admin.Get("/api/sesiones", sessionHandler.GetSessions)
	admin.Get("/api/sesiones/count", sessionHandler.GetSessionCount)
	admin.Delete("/api/sesiones/todas-excepto-actual", middlewares.CSRFProtect, sessionHandler.DeleteAllExceptCurrent)
	admin.Delete("/api/sesiones/usuario/:userID", sessionHandler.DeleteUserSessions)
	admin.Delete("/api/sesiones/:id", sessionHandler.DeleteSession)

	admin.Get("/api/audit-logs", auditHandler.GetAuditLogs)
	admin.Get("/api/audit-logs/summary", auditHandler.GetSummary)
	admin.Get("/api/audit-logs/actions", auditHandler.GetActions)
	admin.Delete("/api/audit-logs/cleanup", middlewares.CSRFProtect, auditHandler.DeleteOldLogs)
}

func run(ctx *cli.Context) error {
	cfg, err := config.LoadConfig(ctx.String(configFileFlag.Name))
	if err != nil {
		slog.Error("Could not load config file.", "error", err)
		return err
	}

	mustInitLogger(cfg.Debug || ctx.IsSet(debugFlag.Name))

	mailSender := mustInitMailSender(cfg.Mail)
	db, tenantRegistry := mustInitDatabase(cfg)
	redisStorage := mustInitRedisStorage(cfg.Redis)
	geoCache := memory.New(memory.Config{GCInterval: params.GeoIPCacheTTL})

	// repositories
	var (
		userRepo        = users.NewUserRepository(tenantRegistry)
		pendingUserRepo = users.NewPendingUserRepository(tenantRegistry)
		apiKeyRepo      = users.NewApiKeyRepository(tenantRegistry)
	)

	// services
	var (
		userService     = users.NewUserService(userRepo, pendingUserRepo, apiKeyRepo, cfg.MasterKey)
		sessionRegistry = sessions.NewRegistry(tenantRegistry, cfg.Session.RoleTimeouts)
		auditor         = audit.NewRecorder(tenantRegistry)
		geoResolver     = geoip.NewResolver(geoCache, geoip.WithTTL(params.GeoIPCacheTTL))
		guard           = middlewares.NewAuthGuard(sessionRegistry, userService)
	)

	router := fiber.New(fiber.Config{
		Prefork:       false,
		CaseSensitive: true,
		BodyLimit:     params.ServerBodyLimit,
		IdleTimeout:   params.ServerIdleTimeout,
		ReadTimeout:   params.ServerReadTimeout,
		WriteTimeout:  params.ServerWriteTimeout,
		ErrorHandler:  middlewares.ErrorHandler,
	})

	router.Use(recover.New())
	router.Use(logger.New())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowOrigins, ", "),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-CSRF-Token, X-API-Key",
		AllowCredentials: true,
	}))

	setupAPIRoutes(
		router,
		websessions.Config{
			Storage:        redisStorage,
			SessionMaxAge:  cfg.Session.SessionMaxAge,
			CookieSecure:   cfg.Session.CookieSecure,
			CookieHttpOnly: cfg.Session.CookieHttpOnly,
			CookieName:     cfg.Session.CookieName,
		},
		guard,
		userService,
		sessionRegistry,
		auditor,
		geoResolver,
		mailSender,
		cfg.SiteName,
		cfg.BaseURL,
	)

	healthCheckCtx, term := context.WithCancel(ctx.Context)
	done := make(chan struct{})
	go common.StartHealthCheckServer(healthCheckCtx, done, redisStorage.Conn(), db)
	defer func() {
		term()
		<-done
	}()
	return router.Listen(cfg.ListenAddr)
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
