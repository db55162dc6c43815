package main

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/MayankVir/alonie-backend/internal/api/handlers"
	"github.com/MayankVir/alonie-backend/internal/api/middleware"
	"github.com/MayankVir/alonie-backend/internal/config"
	"github.com/MayankVir/alonie-backend/internal/database"
	"github.com/MayankVir/alonie-backend/internal/identity"
	"github.com/MayankVir/alonie-backend/internal/llm"
	"github.com/MayankVir/alonie-backend/internal/logging"
	"github.com/MayankVir/alonie-backend/internal/repository"
	"github.com/MayankVir/alonie-backend/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	logger, err := logging.New(cfg.IsProduction())
	if err != nil {
		log.Fatal("Failed to build logger: ", err)
	}
	defer logger.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database connections
	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	redisClient := database.InitRedis(cfg, logger)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	companionRepo := repository.NewCompanionRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	messageCache := repository.NewMessageCache(redisClient)

	// Services
	jwtService := service.NewJWTService(cfg.JWTSecret)
	seeder := service.NewSeeder(companionRepo)
	authService := service.NewAuthService(userRepo, jwtService, seeder, logger)
	userService := service.NewUserService(userRepo)
	companionService := service.NewCompanionService(companionRepo)
	conversationService := service.NewConversationService(conversationRepo, companionRepo, messageRepo, messageCache, logger)
	identityService := service.NewIdentityService(userRepo, seeder, logger)
	chatService := service.NewChatService(companionRepo, conversationRepo, messageRepo,
		messageCache, buildProviders(cfg, logger), logger)

	handler := handlers.NewHandler(authService, userService, companionService,
		conversationService, chatService, identityService, cfg.IdentityWebhookSecret, logger)

	// The guard for application routes depends on the configured auth mode:
	// locally signed tokens, or tokens verified by the identity provider.
	guard := middleware.NewAuthMiddleware(jwtService, userService).RequireAuth()
	if cfg.AuthMode == config.AuthModeIdentity {
		identityClient := identity.NewClient(cfg.IdentityAPIURL, cfg.IdentitySecretKey)
		guard = middleware.NewIdentityMiddleware(identityClient, identityService).RequireAuth()
	}

	// Setup and run the server
	r := setupRouter(handler, guard, cfg)
	port := cfg.ServerPort

	logger.Info("server starting", zap.String("port", port), zap.String("authMode", cfg.AuthMode))
	if err := r.Run(":" + port); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}

// buildProviders wires one chat-completion client per configured API key.
// A provider with no key is simply absent; the chat service reports that as
// a configuration error when it is selected.
func buildProviders(cfg *config.Config, logger *zap.Logger) map[string]llm.Provider {
	providers := make(map[string]llm.Provider)
	if cfg.OpenAIAPIKey != "" {
		providers[llm.ProviderOpenAI] = llm.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel, logger)
	}
	if cfg.GeminiAPIKey != "" {
		providers[llm.ProviderGemini] = llm.NewGemini(cfg.GeminiAPIKey, cfg.GeminiModel, logger)
	}
	return providers
}

func setupRouter(handler *handlers.Handler, guard gin.HandlerFunc, cfg *config.Config) *gin.Engine {
	r := gin.Default()

	// Configure CORS middleware
	headers := cors.DefaultConfig()
	if cfg.FrontendURL != "" {
		headers.AllowOrigins = []string{cfg.FrontendURL}
	} else {
		headers.AllowAllOrigins = true
	}
	headers.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	headers.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", handlers.SignatureHeader}
	headers.ExposeHeaders = []string{"Content-Length"}
	headers.AllowCredentials = cfg.FrontendURL != ""
	r.Use(cors.New(headers))

	// Health check and metrics
	r.GET("/health", handler.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := r.Group("/api")
	{
		// Auth routes
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", handler.Register)
			authGroup.POST("/login", handler.Login)
			authGroup.GET("/me", guard, handler.Me)
		}

		// User routes
		users := api.Group("/users", guard)
		{
			users.PUT("/me", handler.UpdateMe)
			users.GET("", middleware.RequireAdmin(), handler.ListUsers)
			users.DELETE("/:id", middleware.RequireAdmin(), handler.DeactivateUser)
		}

		// Companion routes
		companions := api.Group("/companions", guard)
		{
			companions.GET("", handler.ListCompanions)
			companions.POST("", handler.CreateCompanion)
			companions.GET("/:id", handler.GetCompanion)
			companions.PUT("/:id", handler.UpdateCompanion)
			companions.DELETE("/:id", handler.DeleteCompanion)
		}

		// Chat routes
		chat := api.Group("/chat", guard)
		{
			chat.POST("", handler.Chat)
			chat.GET("/conversations", handler.ListConversations)
			chat.GET("/:companionId/messages", handler.GetMessages)
		}

		// Identity provider sync webhooks, authenticated by signature
		api.POST("/webhooks/identity", handler.IdentityWebhook)
	}

	return r
}
