package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/random"
	"github.com/segmentio/kafka-go"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/labstack/echo/v4"

	"salonbook/internal/caching"
	"salonbook/internal/handlers"
	"salonbook/internal/jobs"
	"salonbook/internal/jobs/background"
	"salonbook/internal/middleware"
	"salonbook/internal/payments"
	"salonbook/internal/repositories"
	"salonbook/internal/services"
	"salonbook/pkg/database"
)

const version = "1.0.0"

func main() {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := database.NewPool(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// JWT configuration
	jwtSecret := os.Getenv("JWT_SECRET")
	jwksURL := os.Getenv("JWKS_URL")
	if jwtSecret == "" && jwksURL == "" {
		jwtSecret = random.String(32) // Generate random secret for development
		log.Printf("WARNING: Using generated JWT secret: %s", jwtSecret)
	}

	// Redis configuration
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		if db, err := strconv.Atoi(raw); err == nil {
			redisDB = db
		}
	}

	// MinIO configuration (optional; image upload is disabled without it)
	var mediaSvc services.MediaService
	if minioEndpoint := os.Getenv("MINIO_ENDPOINT"); minioEndpoint != "" {
		minioBucket := os.Getenv("MINIO_BUCKET")
		if minioBucket == "" {
			minioBucket = "salonbook-media"
		}
		mediaSvc, err = services.NewMinioMediaService(
			minioEndpoint,
			os.Getenv("MINIO_ACCESS_KEY"),
			os.Getenv("MINIO_SECRET_KEY"),
			minioBucket,
			os.Getenv("MINIO_USE_SSL") == "true",
		)
		if err != nil {
			log.Fatalf("Failed to initialize MinIO service: %v", err)
		}
		if err := mediaSvc.EnsureBucketExists(context.Background()); err != nil {
			log.Printf("WARN: Could not ensure MinIO bucket: %v", err)
		}
	}

	// Kafka publisher (optional; notifications stay pending without it
	// and the retry job keeps trying)
	var publisher services.NotificationPublisher
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		topic := os.Getenv("KAFKA_NOTIFICATIONS_TOPIC")
		if topic == "" {
			topic = "salonbook.notifications"
		}
		writer := &kafka.Writer{
			Addr:     kafka.TCP(brokers),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		}
		defer writer.Close()
		publisher = writer
	}

	// Repositories
	tenantRepo := repositories.NewTenantRepo(pool)
	userRepo := repositories.NewUserRepo(pool)
	staffRepo := repositories.NewStaffRepo(pool)
	serviceRepo := repositories.NewServiceRepo(pool)
	appointmentRepo := repositories.NewAppointmentRepo(pool)
	idempotencyRepo := repositories.NewIdempotencyRepo(pool)
	notificationRepo := repositories.NewNotificationRepo(pool)

	// Cache service
	cacheSvc := caching.NewRedisCacheService(redisAddr, redisPassword, redisDB)

	// Business hours for availability
	openHour, closeHour := 9, 17
	if raw := os.Getenv("OPEN_HOUR"); raw != "" {
		if h, err := strconv.Atoi(raw); err == nil {
			openHour = h
		}
	}
	if raw := os.Getenv("CLOSE_HOUR"); raw != "" {
		if h, err := strconv.Atoi(raw); err == nil {
			closeHour = h
		}
	}

	// Services
	tenantSvc := services.NewTenantService(tenantRepo, cacheSvc)
	staffSvc := services.NewStaffService(staffRepo)
	catalogSvc := services.NewCatalogService(serviceRepo, cacheSvc)
	notificationSvc := services.NewNotificationService(notificationRepo, userRepo, publisher)
	availabilitySvc := services.NewAvailabilityService(appointmentRepo, serviceRepo, staffRepo, cacheSvc, openHour, closeHour)
	bookingSvc := services.NewBookingService(appointmentRepo, serviceRepo, staffRepo, idempotencyRepo, notificationSvc, availabilitySvc)

	// Payment gateways
	registry := payments.NewRegistry(
		payments.NewPayFastGateway(
			os.Getenv("PAYFAST_MERCHANT_ID"),
			os.Getenv("PAYFAST_MERCHANT_KEY"),
			os.Getenv("PAYFAST_PASSPHRASE"),
			os.Getenv("PAYFAST_SANDBOX") == "true",
		),
		payments.NewPaystackGateway(os.Getenv("PAYSTACK_SECRET_KEY")),
		payments.NewStripeGateway(
			os.Getenv("STRIPE_SECRET_KEY"),
			os.Getenv("STRIPE_WEBHOOK_SECRET"),
		),
	)

	// Handlers
	tenantHandlers := handlers.NewTenantHandlers(tenantSvc)
	staffHandlers := handlers.NewStaffHandlers(staffSvc)
	serviceHandlers := handlers.NewServiceHandlers(catalogSvc, mediaSvc)
	bookingHandlers := handlers.NewBookingHandlers(bookingSvc, userRepo)
	availabilityHandlers := handlers.NewAvailabilityHandlers(availabilitySvc)
	paymentHandlers := handlers.NewPaymentHandlers(registry, bookingSvc, catalogSvc)
	healthHandlers := handlers.NewHealthHandlers(pool)

	// Middleware
	jwtMiddleware, err := middleware.JWTMiddleware(middleware.JWTConfig{
		Secret:  jwtSecret,
		JWKSURL: jwksURL,
	})
	if err != nil {
		log.Fatalf("Failed to initialize JWT middleware: %v", err)
	}
	tenantMiddleware := middleware.TenantMiddleware(tenantSvc)

	// Echo
	e := echo.New()
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Pre(echoMiddleware.RemoveTrailingSlash())

	// Health and docs (no tenant resolution)
	e.GET("/health/live", healthHandlers.Liveness)
	e.GET("/health/ready", healthHandlers.Readiness)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Gateway webhooks: unauthenticated, signature-verified per adapter
	e.POST("/webhooks/payments/:gateway", paymentHandlers.HandleGatewayWebhook)

	// Salon signup (no tenant yet)
	e.POST("/v1/tenants", tenantHandlers.CreateTenant)

	// Tenant-scoped API
	v1 := e.Group("/v1", tenantMiddleware)

	// Public booking-page routes
	v1.GET("/services", serviceHandlers.ListServices)
	v1.GET("/staff", staffHandlers.ListStaff)
	v1.GET("/availability", availabilityHandlers.GetAvailability)
	v1.POST("/appointments", bookingHandlers.CreateAppointment)
	v1.POST("/appointments/:id/deposit", paymentHandlers.CreateDeposit)

	// Authenticated routes
	protected := v1.Group("", jwtMiddleware)
	protected.GET("/tenant", tenantHandlers.GetCurrentTenant)
	protected.GET("/appointments", bookingHandlers.ListAppointments)
	protected.GET("/appointments/:id", bookingHandlers.GetAppointment)
	protected.PATCH("/appointments/:id", bookingHandlers.UpdateAppointment)
	protected.POST("/appointments/:id/cancel", bookingHandlers.CancelAppointment)

	// Admin routes
	admin := protected.Group("", middleware.RequireRole("admin", "owner"))
	admin.PATCH("/tenant", tenantHandlers.UpdateCurrentTenant)
	admin.POST("/staff", staffHandlers.CreateStaff)
	admin.GET("/staff/:id", staffHandlers.GetStaff)
	admin.PATCH("/staff/:id", staffHandlers.UpdateStaff)
	admin.DELETE("/staff/:id", staffHandlers.DeactivateStaff)
	admin.POST("/services", serviceHandlers.CreateService)
	admin.GET("/services/:id", serviceHandlers.GetService)
	admin.PATCH("/services/:id", serviceHandlers.UpdateService)
	admin.DELETE("/services/:id", serviceHandlers.DeactivateService)
	admin.POST("/services/:id/image", serviceHandlers.UploadServiceImage)

	// Background jobs
	sweep := jobs.NewCompletionSweep(appointmentRepo, 200)
	scheduler := background.NewJobScheduler(sweep, notificationSvc)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start job scheduler: %v", err)
	}
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Printf("Failed to stop job scheduler: %v", err)
		}
	}()

	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		log.Fatalf("Invalid port %s: %v", portStr, err)
	}

	log.Printf("Salonbook server v%s starting on port %d", version, port)

	e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", port)))
}
