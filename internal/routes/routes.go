package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"grubgo/internal/handlers"
	"grubgo/internal/middleware"
	"grubgo/internal/services"
)

func SetupRoutes(
	r *gin.Engine,
	tokens services.TokenParser,
	limiter middleware.Allower, // nil disables throttling
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	foodHandler *handlers.FoodHandler,
	orderHandler *handlers.OrderHandler,
) *gin.Engine {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	requireAuth := middleware.AuthMiddleware(tokens)
	throttle := middleware.RateLimit(limiter)

	api := r.Group("/api")

	// ---- auth (public, throttled)
	auth := api.Group("/auth", throttle)
	{
		auth.POST("/verify-email-otp", authHandler.VerifyEmailOTP)
		auth.POST("/verify-2fa-otp", authHandler.Verify2FAOTP)
		auth.POST("/request-password-reset-otp", authHandler.RequestPasswordResetOTP)
		auth.POST("/verify-password-reset-otp", authHandler.VerifyPasswordResetOTP)
		auth.POST("/reset-password", authHandler.ResetPassword)
		auth.POST("/resend-otp", authHandler.ResendOTP)
	}

	// USERS
	users := api.Group("/users")
	{
		users.POST("/signup", throttle, userHandler.Signup)
		users.POST("/login", throttle, userHandler.Login)
		users.GET("", requireAuth, userHandler.ListUsers)
		users.DELETE("/:id", requireAuth, middleware.RequireSelf("id"), userHandler.DeleteUser)
		users.PUT("/cart/:id", requireAuth, middleware.RequireSelf("id"), userHandler.UpdateCart)
	}

	// FOODS
	foods := api.Group("/foods")
	{
		foods.GET("", foodHandler.ListFoods)
		foods.GET("/:id", foodHandler.GetFood)
		foods.POST("", requireAuth, foodHandler.CreateFood)
		foods.PUT("/:id", requireAuth, foodHandler.UpdateFood)
		foods.DELETE("/:id", requireAuth, foodHandler.DeleteFood)
	}

	// ORDERS
	orders := api.Group("/orders", requireAuth)
	{
		orders.GET("/receipt/:orderId", orderHandler.Receipt)
		orders.POST("/:id", middleware.RequireSelf("id"), orderHandler.PlaceOrder)
		orders.GET("/:id", middleware.RequireSelf("id"), orderHandler.ListOrders)
	}

	return r
}
