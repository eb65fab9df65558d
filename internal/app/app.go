package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "grubgo/docs"
	"grubgo/internal/config"
	"grubgo/internal/db"
	"grubgo/internal/handlers"
	"grubgo/internal/middleware"
	"grubgo/internal/pdf"
	"grubgo/internal/ratelimit"
	"grubgo/internal/repositories"
	"grubgo/internal/repositories/memory"
	"grubgo/internal/routes"
	"grubgo/internal/services"
)

type repos struct {
	users  repositories.UserRepository
	foods  repositories.FoodRepository
	orders repositories.OrderRepository
	otps   repositories.OTPRepository
}

func Run() {
	cfg := config.LoadConfig()

	// === Storage ===
	var (
		r    repos
		conn *sql.DB
	)
	switch cfg.Database.Driver {
	case "memory":
		log.Printf("[app] using in-memory storage; data is lost on exit")
		store := memory.NewStore()
		r = repos{users: store.Users(), foods: store.Foods(), orders: store.Orders(), otps: store.OTPs()}
	default:
		var err error
		conn, err = db.Open(cfg.Database.DSN)
		if err != nil {
			log.Fatal("database: ", err)
		}
		defer func() {
			if err := conn.Close(); err != nil {
				log.Printf("[app] close db: %v", err)
			}
		}()
		if err := db.Migrate(conn); err != nil {
			log.Fatal("migrations: ", err)
		}
		r = repos{
			users:  repositories.NewUserRepository(conn),
			foods:  repositories.NewFoodRepository(conn),
			orders: repositories.NewOrderRepository(conn),
			otps:   repositories.NewOTPRepository(conn),
		}
	}

	// === Services ===
	authService := services.NewAuthService(cfg.JWT.Secret, cfg.OTP.BcryptCost, cfg.JWT.AccessTTL)
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
		cfg.Email.FromName,
		cfg.Email.DryRun,
	)
	notifier := services.NewOrderNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)

	verificationService := services.NewVerificationService(r.otps, r.users, emailService, authService)
	resetService := services.NewPasswordResetService(r.users, verificationService, authService)
	userService := services.NewUserService(r.users, verificationService, authService)
	foodService := services.NewFoodService(r.foods)
	orderService := services.NewOrderService(r.users, r.foods, r.orders, emailService, notifier)

	sweeper, err := services.NewOTPSweeper(r.otps, cfg.OTP.SweepSchedule)
	if err != nil {
		log.Fatal("otp sweeper: ", err)
	}
	sweeper.Start()

	// === Rate limiting ===
	var limiter middleware.Allower
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Printf("[app] redis ping failed, limiter will fail open: %v", err)
		}
		cancel()
		limiter = ratelimit.New(rdb, "grubgo:rl:", cfg.Redis.Limit, cfg.Redis.Window)
	} else {
		log.Printf("[app] redis.addr empty; request throttling disabled")
	}

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(verificationService, resetService)
	userHandler := handlers.NewUserHandler(userService)
	foodHandler := handlers.NewFoodHandler(foodService)
	orderHandler := handlers.NewOrderHandler(orderService, foodService, userService, pdf.NewDocumentGenerator(cfg.Files.FontPath))

	// === Gin ===
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(router, authService, limiter, authHandler, userHandler, foodHandler, orderHandler)

	// === Run ===
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("[app] listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server: ", err)
		}
	}()

	<-ctx.Done()
	log.Printf("[app] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[app] shutdown: %v", err)
	}
	sweeper.Stop(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, Idempotency-Key")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
