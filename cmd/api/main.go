package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fleet-ops/internal/api"
	"fleet-ops/internal/config"
	"fleet-ops/internal/models"
	"fleet-ops/internal/modules/assignments"
	"fleet-ops/internal/modules/dashboard"
	"fleet-ops/internal/modules/deliveries"
	"fleet-ops/internal/modules/employees"
	"fleet-ops/internal/modules/inventory"
	"fleet-ops/internal/modules/leaves"
	"fleet-ops/internal/modules/routing"
	"fleet-ops/internal/modules/vehicles"
	"fleet-ops/pkg/email"
	"fleet-ops/pkg/maps"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	// Database.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to parse database url: %v", err)
	}
	dbPool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatalf("failed to create connection pool: %v", err)
	}
	defer dbPool.Close()
	if err := dbPool.Ping(ctx); err != nil {
		log.Fatalf("failed to ping database: %v", err)
	}
	log.Println("Database connection established.")

	// Redis backs the per-operator route optimization sessions.
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to ping redis: %v", err)
	}
	defer redisClient.Close()

	// Geocoding and route optimization clients.
	var geocoder maps.Geocoder
	if cfg.GoogleMapsAPIKey != "" {
		g, err := maps.NewGoogleGeocoder(cfg.GoogleMapsAPIKey)
		if err != nil {
			log.Fatalf("failed to create geocoder: %v", err)
		}
		geocoder = g
	} else {
		log.Println("GOOGLE_MAPS_API_KEY not set; geocoding disabled.")
	}
	optimizer := maps.NewRouteOptimizer(cfg.OptimizerURL, cfg.OptimizerAPIKey, geocoder)

	depot := models.StartLocation{
		Latitude:  cfg.DepotLatitude,
		Longitude: cfg.DepotLongitude,
		Address:   cfg.DepotAddress,
	}

	// Email notifications (leave decisions, welcome mail). Optional: the
	// services treat a nil sender as "don't notify".
	var emailSender email.ServiceInterface
	if cfg.EmailFrom != "" {
		sender, err := email.NewSESV2Sender(ctx, cfg.AWSRegion, cfg.EmailFrom)
		if err != nil {
			log.Fatalf("failed to create email sender: %v", err)
		}
		emailSender = sender
	} else {
		log.Println("EMAIL_FROM not set; email notifications disabled.")
	}
	templateManager, err := email.NewTemplateManager()
	if err != nil {
		log.Fatalf("failed to parse email templates: %v", err)
	}

	var googleOAuthConfig *oauth2.Config
	if cfg.GoogleOAuthClientID != "" {
		googleOAuthConfig = &oauth2.Config{
			ClientID:     cfg.GoogleOAuthClientID,
			ClientSecret: cfg.GoogleOAuthClientSecret,
			RedirectURL:  cfg.GoogleOAuthRedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		}
	}

	// Repositories.
	employeeRepo := employees.NewRepository(dbPool)
	deliveryRepo := deliveries.NewRepository(dbPool)
	assignmentRepo := assignments.NewRepository(dbPool)
	vehicleRepo := vehicles.NewRepository(dbPool)
	inventoryRepo := inventory.NewRepository(dbPool)
	leaveRepo := leaves.NewRepository(dbPool)
	dashboardRepo := dashboard.NewRepository(dbPool)

	// Services.
	employeeSvc := employees.NewService(employeeRepo, emailSender, templateManager,
		cfg.JWTSecret, cfg.ClientOrigin, googleOAuthConfig)
	deliverySvc := deliveries.NewService(deliveryRepo)
	assignmentSvc := assignments.NewService(assignmentRepo, deliveryRepo, employeeRepo, optimizer, depot)
	sessionStore := routing.NewRedisSessionStore(redisClient, 30*time.Minute)
	routingSvc := routing.NewService(sessionStore, deliveryRepo, optimizer, depot)
	vehicleSvc := vehicles.NewService(vehicleRepo)
	inventorySvc := inventory.NewService(inventoryRepo)
	leaveSvc := leaves.NewService(leaveRepo, employeeRepo, emailSender, templateManager)
	dashboardSvc := dashboard.NewService(dashboardRepo)

	// Echo server.
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{cfg.ClientOrigin},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	api.SetupRoutes(e, api.Handlers{
		Employees:   employees.NewHandler(employeeSvc),
		Deliveries:  deliveries.NewHandler(deliverySvc),
		Assignments: assignments.NewHandler(assignmentSvc),
		Routing:     routing.NewHandler(routingSvc),
		Vehicles:    vehicles.NewHandler(vehicleSvc),
		Inventory:   inventory.NewHandler(inventorySvc),
		Leaves:      leaves.NewHandler(leaveSvc),
		Dashboard:   dashboard.NewHandler(dashboardSvc),
	}, cfg.JWTSecret)

	// Start server with graceful shutdown.
	go func() {
		if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal("shutting down the server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		e.Logger.Fatal(err)
	}
}
