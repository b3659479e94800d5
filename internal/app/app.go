package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"metalhub_backend/database"
	"metalhub_backend/internal/auth"
	"metalhub_backend/internal/cache"
	"metalhub_backend/internal/config"
	"metalhub_backend/internal/email"
	"metalhub_backend/internal/handlers"
	"metalhub_backend/internal/logger"
	"metalhub_backend/internal/metrics"
	"metalhub_backend/internal/middleware"
	"metalhub_backend/internal/models"
	"metalhub_backend/internal/payment"
	"metalhub_backend/internal/repositories"
	"metalhub_backend/internal/routes"
	"metalhub_backend/internal/services"
	"metalhub_backend/internal/sms"
	"metalhub_backend/internal/validator"
	"metalhub_backend/internal/workers"
	"metalhub_backend/pkg/apperrors"
	"metalhub_backend/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Application is the wired API: services, router and background loops.
type Application struct {
	cfg       *config.Config
	db        *gorm.DB
	cache     cache.Cache
	repos     repositoryContainer
	services  *services.ServiceContainer
	wsManager *ws.WebSocketManager
	burst     *middleware.BurstLimiter
	Router    *gin.Engine
}

type repositoryContainer struct {
	users       repositories.UserRepository
	profiles    repositories.ProfileRepository
	activity    repositories.LoginActivityRepository
	memberships repositories.MembershipRepository
	listings    repositories.ListingRepository
	offers      repositories.OfferRepository
	chats       repositories.ChatRepository
	payments    repositories.PaymentRepository
	adminLogs   repositories.AdminLogRepository
}

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)
	apperrors.SetDebug(!cfg.IsProduction())
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Connecting to database...")
	gormDB, err := database.Connect(cfg.Database.DSN, cfg.IsProduction())
	if err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(gormDB); err != nil {
			logger.Fatal("Migration failed", "error", err)
		}
	}

	kv, err := initializeCache(ctx, cfg)
	if err != nil {
		logger.Fatal("Cache unavailable", "error", err)
	}

	application, err := New(cfg, gormDB, kv)
	if err != nil {
		logger.Fatal("Failed to build application", "error", err)
	}

	if err := application.seedFirstAdmin(ctx); err != nil {
		logger.Fatal("Failed to seed first admin user", "error", err)
	}

	if err := application.Serve(ctx); err != nil {
		logger.Fatal("Server error", "error", err)
	}
}

// New wires repositories, services, handlers and routes. It performs no I/O.
func New(cfg *config.Config, db *gorm.DB, kv cache.Cache) (*Application, error) {
	templates, err := email.NewDefaultTemplateManager()
	if err != nil {
		return nil, fmt.Errorf("email templates: %w", err)
	}

	a := &Application{
		cfg:       cfg,
		db:        db,
		cache:     kv,
		wsManager: ws.NewWebSocketManager(),
		burst:     middleware.NewBurstLimiter(cfg.RateLimit.AuthRPS, cfg.RateLimit.AuthBurst),
		repos: repositoryContainer{
			users:       repositories.NewUserRepository(),
			profiles:    repositories.NewProfileRepository(),
			activity:    repositories.NewLoginActivityRepository(),
			memberships: repositories.NewMembershipRepository(),
			listings:    repositories.NewListingRepository(),
			offers:      repositories.NewOfferRepository(),
			chats:       repositories.NewChatRepository(),
			payments:    repositories.NewPaymentRepository(),
			adminLogs:   repositories.NewAdminLogRepository(),
		},
	}

	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.TokenTTL())
	store := cache.NewStore(kv)
	a.services = a.initializeServices(store, tokens, emailProvider(cfg, templates))

	appHandlers := initializeHandlers(a.services, db, kv)
	wsHandler := ws.NewWebSocketHandler(a.wsManager, cfg.Server.CORSOrigins)

	a.Router = initializeGinRouter(cfg, db)
	routes.RegisterRoutes(a.Router, appHandlers, wsHandler, routes.Guards{
		Auth:      middleware.AuthMiddleware(tokens, a.services.AuthService),
		AuthBurst: a.burst.Handler(),
		RateLimit: middleware.RateLimitMiddleware(store, cfg.RateLimit.MaxRequests, cfg.RateLimitWindow()),
	})
	return a, nil
}

func initializeCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	if cfg.Redis.URL == "" {
		logger.Warn("REDIS_URL not set, using in-process cache; limits and sessions are per instance")
		return cache.NewMemoryCache(), nil
	}
	rc, err := cache.NewRedisCache(ctx, cfg.Redis.URL)
	if err != nil {
		return nil, err
	}
	logger.Info("Redis connected")
	return rc, nil
}

func emailProvider(cfg *config.Config, templates *email.TemplateManager) email.Provider {
	smtp := &email.SMTPConfig{
		Host:      cfg.Email.SMTPHost,
		Port:      cfg.Email.SMTPPort,
		Username:  cfg.Email.SMTPUser,
		Password:  cfg.Email.SMTPPassword,
		FromEmail: cfg.Email.FromEmail,
		FromName:  cfg.Email.FromName,
	}
	if !smtp.Enabled() {
		logger.Warn("SMTP not configured, emails are logged only")
		return email.NewLogProvider(templates)
	}
	return email.NewGomailProvider(smtp, templates)
}

func smsSender(cfg *config.Config) sms.Sender {
	if cfg.SMS.AccountSID == "" || cfg.SMS.AuthToken == "" {
		logger.Warn("Twilio not configured, OTP messages are logged only")
		return sms.LogSender{}
	}
	return sms.NewTwilioSender(sms.TwilioConfig{
		AccountSID: cfg.SMS.AccountSID,
		AuthToken:  cfg.SMS.AuthToken,
		From:       cfg.SMS.From,
		BaseURL:    cfg.SMS.BaseURL,
	})
}

func paymentGateway(cfg *config.Config) payment.Gateway {
	if cfg.Payment.KeyID == "" || cfg.Payment.KeySecret == "" {
		if cfg.IsProduction() {
			logger.Error("Razorpay keys missing in production, falling back to sandbox orders")
		} else {
			logger.Warn("Razorpay not configured, using sandbox gateway")
		}
		return payment.SandboxGateway{}
	}
	return payment.NewRazorpayGateway(payment.RazorpayConfig{
		KeyID:     cfg.Payment.KeyID,
		KeySecret: cfg.Payment.KeySecret,
		BaseURL:   cfg.Payment.BaseURL,
	})
}

func (a *Application) initializeServices(store *cache.Store, tokens *auth.TokenManager, provider email.Provider) *services.ServiceContainer {
	cfg := a.cfg
	r := a.repos
	notifier := services.NewEmailService(provider)

	membershipService := services.NewMembershipService(r.memberships, r.users)
	listingService := services.NewListingService(r.listings, r.offers, r.chats, membershipService)

	authService := services.NewAuthService(
		r.users, r.profiles, r.activity, membershipService, store, tokens, smsSender(cfg),
		services.AuthOptions{
			BcryptCost:         cfg.Auth.BcryptCost,
			MaxLoginAttempts:   cfg.Auth.MaxLoginAttempts,
			LoginAttemptWindow: time.Duration(cfg.Auth.LoginAttemptWindow) * time.Minute,
			OTPExpiry:          time.Duration(cfg.Auth.OTPExpiryMinutes) * time.Minute,
			TrialDays:          cfg.Auth.TrialDays,
			Production:         cfg.IsProduction(),
		},
	)

	return &services.ServiceContainer{
		AuthService:       authService,
		UserService:       services.NewUserService(r.users, r.profiles, membershipService),
		MembershipService: membershipService,
		ListingService:    listingService,
		OfferService:      services.NewOfferService(r.offers, r.listings, r.users, notifier),
		ChatService:       services.NewChatService(r.chats, r.listings, a.wsManager),
		PaymentService: services.NewPaymentService(r.payments, membershipService, paymentGateway(cfg), services.PaymentOptions{
			KeyID:         cfg.Payment.KeyID,
			WebhookSecret: cfg.Payment.WebhookSecret,
			Currency:      cfg.Payment.Currency,
			PeriodDays:    cfg.Payment.PeriodDays,
		}),
		AdminService: services.NewAdminService(r.users, r.listings, r.memberships, r.payments, r.adminLogs, listingService, notifier),
		Notifier:     notifier,
	}
}

func initializeHandlers(svc *services.ServiceContainer, db *gorm.DB, kv cache.Cache) *handlers.AppHandlers {
	baseHandler := handlers.NewBaseHandler(validator.New())

	return &handlers.AppHandlers{
		AuthHandler:       handlers.NewAuthHandler(baseHandler, svc.AuthService),
		UserHandler:       handlers.NewUserHandler(baseHandler, svc.UserService),
		MembershipHandler: handlers.NewMembershipHandler(baseHandler, svc.MembershipService),
		ListingHandler:    handlers.NewListingHandler(baseHandler, svc.ListingService),
		OfferHandler:      handlers.NewOfferHandler(baseHandler, svc.OfferService),
		ChatHandler:       handlers.NewChatHandler(baseHandler, svc.ChatService),
		PaymentHandler:    handlers.NewPaymentHandler(baseHandler, svc.PaymentService),
		AdminHandler:      handlers.NewAdminHandler(baseHandler, svc.AdminService),
		HealthHandler:     handlers.NewHealthHandler(db, kv),
	}
}

func initializeGinRouter(cfg *config.Config, db *gorm.DB) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(metrics.Middleware())
	router.Use(middleware.CORSMiddleware(cfg.Server.CORSOrigins))
	router.Use(middleware.DBMiddleware(db))
	return router
}

// Serve runs the HTTP server and background loops until ctx is cancelled,
// then drains in-flight requests.
func (a *Application) Serve(ctx context.Context) error {
	bgCtx, cancelBg := context.WithCancel(context.Background())
	defer cancelBg()

	go a.wsManager.Run(bgCtx)
	go a.burst.Run(bgCtx, time.Minute)
	workers.NewFeaturedWorker(a.db, a.repos.listings, time.Hour).Start(bgCtx)
	workers.NewMembershipWorker(a.db, a.repos.memberships, a.services.MembershipService, 6*time.Hour).Start(bgCtx)
	if mc, ok := a.cache.(*cache.MemoryCache); ok {
		go sweepMemoryCache(bgCtx, mc, time.Minute)
	}

	address := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
	srv := &http.Server{
		Addr:              address,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "address", address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	timeout := time.Duration(a.cfg.Server.ShutdownTimeout) * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	cancelBg()

	if cerr := a.cache.Close(); cerr != nil {
		logger.Warn("Cache close failed", "error", cerr)
	}
	if sqlDB, derr := a.db.DB(); derr == nil {
		_ = sqlDB.Close()
	}
	logger.Info("Server stopped")
	return err
}

func sweepMemoryCache(ctx context.Context, mc *cache.MemoryCache, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := mc.Sweep(); n > 0 {
				logger.Debug("memory cache swept", "expired", n)
			}
		}
	}
}

// seedFirstAdmin creates the admin account named by FIRST_ADMIN_EMAIL with
// its profile and membership. An existing account is left untouched.
func (a *Application) seedFirstAdmin(ctx context.Context) error {
	adminEmail := a.cfg.FirstAdminEmail
	adminPassword := a.cfg.FirstAdminPassword

	if adminEmail == "" || adminPassword == "" {
		logger.Warn("FIRST_ADMIN_EMAIL or FIRST_ADMIN_PASSWORD is not set. Skipping admin seeding.")
		return nil
	}

	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := a.repos.users.FindByEmail(tx, adminEmail)
		if err == nil {
			logger.Info("Admin user already exists. Skipping creation.", "email", adminEmail)
			return nil
		}
		if !errors.Is(err, repositories.ErrUserNotFound) {
			return fmt.Errorf("failed to check for admin user: %w", err)
		}

		logger.Warn("No admin user found with specified email. Creating first admin...", "email", adminEmail)

		hash, err := auth.HashPassword(adminPassword, a.cfg.Auth.BcryptCost)
		if err != nil {
			return fmt.Errorf("failed to hash admin password: %w", err)
		}

		admin := &models.User{
			Email:         &adminEmail,
			PasswordHash:  &hash,
			Role:          models.UserRoleAdmin,
			Status:        models.UserStatusActive,
			EmailVerified: true,
			PhoneVerified: true,
		}
		if err := a.repos.users.Create(tx, admin); err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}

		profile := &models.Profile{
			UserID:      admin.ID,
			FullName:    "Administrator",
			CompanyName: "MetalHub",
		}
		if err := a.repos.profiles.Create(tx, profile); err != nil {
			return fmt.Errorf("failed to create admin profile: %w", err)
		}

		if _, err := a.services.MembershipService.StartMembership(ctx, tx, admin.ID, models.PlanFree, nil); err != nil {
			return fmt.Errorf("failed to create admin membership: %w", err)
		}

		logger.Info("Created first admin user", "email", adminEmail)
		return nil
	})
}
