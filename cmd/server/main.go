// Package main is the entry point for the API server.
// It initializes the databases, wires the routes and runs the
// background reserve sweep alongside the HTTP listener.
package main

import (
	"context"
	"log"
	"time"

	"github.com/mourinha112/zucropay-sub000/internal/config"
	"github.com/mourinha112/zucropay-sub000/internal/repositories"
	"github.com/mourinha112/zucropay-sub000/internal/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	config.LoadEnv()

	if err := repositories.InitDB(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	sqlDB, err := repositories.DB.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}
	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Println("Connected to database")

	defer func() {
		if err := sqlDB.Close(); err != nil {
			log.Printf("Failed to close database connection: %v", err)
		}
		if repositories.CacheService != nil {
			if err := repositories.CacheService.Close(); err != nil {
				log.Printf("Failed to close redis connection: %v", err)
			}
		}
	}()

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins:     config.GetEnv("CORS_ORIGINS", "http://localhost:5173"),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowCredentials: true,
	}))

	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	for _, path := range []string{"/api/register", "/api/login"} {
		app.Use(path, limiter.New(limiter.Config{
			Max:        5,
			Expiration: 1 * time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"error": "Too many requests. Please try again later.",
				})
			},
		}))
	}

	services := routes.SetupRoutes(app)

	// Matured reserves are released on a fixed interval. The sweep is
	// idempotent, so overlap with the standalone sweeper binary or an
	// admin-triggered run is harmless.
	sweepInterval := time.Duration(config.GetIntEnv("RESERVE_SWEEP_MINUTES", 60)) * time.Minute
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for range ticker.C {
			result := services.Tracker.ReleaseMatured(context.Background(), time.Now())
			if result.ReleasedCount > 0 || len(result.Errors) > 0 {
				log.Printf("reserve sweep: released %d reserves totalling %.2f, %d errors",
					result.ReleasedCount, result.TotalReleased, len(result.Errors))
			}
		}
	}()

	log.Fatal(app.Listen(":" + config.GetEnv("PORT", "3000")))
}
