package routes

import (
	"time"

	"github.com/apigate/apigate-backend/internal/config"
	"github.com/apigate/apigate-backend/internal/handlers"
	"github.com/apigate/apigate-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	planHandler *handlers.PlanHandler,
	subscriptionHandler *handlers.SubscriptionHandler,
	endpointHandler *handlers.EndpointHandler,
	proxyHandler *handlers.ProxyHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Auth — public, with a stricter rate limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Get("/verify/:token", authHandler.Verify)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)
	api.Post("/auth/logout", middleware.JWTProtected(cfg), authHandler.Logout)

	// Plan catalog — public reads
	api.Get("/plans", planHandler.ListPlans)
	api.Get("/plans/:id", planHandler.GetPlan)

	// Subscriptions and entitlements (JWT required)
	api.Post("/subscribe", middleware.JWTProtected(cfg), subscriptionHandler.Subscribe)
	api.Get("/subscription", middleware.JWTProtected(cfg), subscriptionHandler.GetSubscription)
	api.Delete("/subscription", middleware.JWTProtected(cfg), subscriptionHandler.CancelSubscription)
	api.Get("/endpoints", middleware.JWTProtected(cfg), endpointHandler.ListEndpoints)

	// Execution proxy (JWT required; the upstream bearer token travels in the
	// request body, supplied fresh per call)
	api.Post("/execute-api", middleware.JWTProtected(cfg), proxyHandler.ExecuteAPI)

	// Admin
	adminProtected := []fiber.Handler{middleware.JWTProtected(cfg), middleware.AdminRequired(db, cfg)}
	admin := api.Group("/admin", adminProtected...)
	admin.Post("/plans", planHandler.CreatePlan)
	admin.Put("/plans/:id", planHandler.UpdatePlan)
	admin.Delete("/plans/:id", planHandler.DeletePlan)

	api.Put("/users/:userId/subscriptions/:subscriptionId",
		append(adminProtected, subscriptionHandler.AdminTransition)...)
	api.Post("/users/:userId/generate-token",
		append(adminProtected, subscriptionHandler.GenerateToken)...)
}
