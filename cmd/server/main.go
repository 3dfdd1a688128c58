package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/folderdrop/backend/internal/config"
	"github.com/folderdrop/backend/internal/database"
	"github.com/folderdrop/backend/internal/handlers"
	"github.com/folderdrop/backend/internal/middleware"
	"github.com/folderdrop/backend/internal/services"
	"github.com/folderdrop/backend/internal/storage"
	"github.com/folderdrop/backend/pkg/logger"
	"github.com/folderdrop/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	logger.Init()

	cfg := config.Load()
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationHours)

	db, err := database.Connect(cfg.DB, cfg.Server.SeedAdminUser)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	storageClient, err := storage.NewMinIOClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("minio initialization failed: %v", err)
	}
	if err := storageClient.EnsureBucket(context.Background()); err != nil {
		log.Fatalf("failed ensuring minio bucket: %v", err)
	}

	cascadeService := services.NewCascadeService(db, storageClient)
	auditService := services.NewAuditService(db)

	authHandler := handlers.NewAuthHandler(db, auditService)
	foldersHandler := handlers.NewFoldersHandler(db, cascadeService, auditService)
	imagesHandler := handlers.NewImagesHandler(db, storageClient, auditService)
	codesHandler := handlers.NewCodesHandler(db, auditService)
	adminHandler := handlers.NewAdminHandler(db, cascadeService, auditService)

	authMiddleware := middleware.NewAuthMiddleware(db)

	app := fiber.New(fiber.Config{BodyLimit: cfg.Server.BodyLimitMB * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS())
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", authHandler.Register)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Get("/me", authMiddleware.RequireAuth, authHandler.Me)

	folderRoutes := api.Group("/folders")
	folderRoutes.Get("/", authMiddleware.OptionalAuth, foldersHandler.List)
	folderRoutes.Post("/", authMiddleware.RequireAuth, foldersHandler.Create)
	folderRoutes.Get("/:id", authMiddleware.OptionalAuth, foldersHandler.Get)
	folderRoutes.Post("/:id/verify", authMiddleware.OptionalAuth, foldersHandler.Verify)
	folderRoutes.Delete("/:id", authMiddleware.RequireAuth, foldersHandler.Delete)
	folderRoutes.Get("/:id/images", foldersHandler.ListImages)
	folderRoutes.Get("/:id/codes", foldersHandler.ListCodes)

	imageRoutes := api.Group("/images")
	imageRoutes.Post("/upload", authMiddleware.RequireAuth, imagesHandler.Upload)
	imageRoutes.Get("/:id/url", imagesHandler.DownloadURL)
	imageRoutes.Delete("/:id", authMiddleware.RequireAuth, imagesHandler.Delete)

	codeRoutes := api.Group("/codes")
	codeRoutes.Post("/", authMiddleware.RequireAuth, codesHandler.Create)
	codeRoutes.Get("/:id", codesHandler.Get)
	codeRoutes.Delete("/:id", authMiddleware.RequireAuth, codesHandler.Delete)

	adminRoutes := api.Group("/admin", authMiddleware.RequireAuth, middleware.AdminOnly)
	adminRoutes.Get("/status", adminHandler.Status)
	adminRoutes.Put("/users/:id", adminHandler.PromoteUser)
	adminRoutes.Delete("/users/:id", adminHandler.DeleteUser)

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":    cfg.Server.Port,
		"address": listenAddr,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(10 * time.Second):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	}
}
