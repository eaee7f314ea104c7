package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"

	"github.com/proofboard/proofboard/app/controllers"
	"github.com/proofboard/proofboard/internal/pkg/checkout"
	"github.com/proofboard/proofboard/internal/pkg/env"
	"github.com/proofboard/proofboard/internal/pkg/payments"
	"github.com/proofboard/proofboard/internal/pkg/recordstore"
	"github.com/proofboard/proofboard/internal/pkg/router"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "3000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()

	// Define possible base paths
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/proofboard to project root
		"../../../", // Fallback
	}

	// Find the correct base path
	basePath := ""
	for _, path := range basePaths {
		if _, err := os.Stat(path + "views"); !os.IsNotExist(err) {
			basePath = path
			break
		}
	}

	if basePath == "" {
		panic("Could not find project root directory")
	}

	// Payment pipeline: bounded local store, optional durable record store
	// with an async best-effort writer behind it.
	recent := payments.NewRecentStore(payments.MaxRecentPayments)
	store := recordstore.FromEnv()
	writer := payments.NewWriter(store)
	writer.Start()

	resolver := payments.NewPlanResolverFromEnv(env.GetEnv("PLAN_PRICE_MAP", ""))
	svc := payments.NewService(recent, store, writer, resolver)

	// init fiber app
	app := fiber.New(fiber.Config{
		Views: html.New(basePath+"views", ".html"),
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "admin"),
		},
	}), monitor.New())

	// ROUTER
	router.InstallRouter(app, router.Deps{
		Payments: controllers.NewPaymentController(svc, checkout.NewClientFromEnv()),
		Diag:     controllers.NewDiagController(svc),
	})

	app.Hooks().OnShutdown(func() error {
		writer.Stop()
		return nil
	})

	return app
}
