package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"boutique-store/internal/cache"
	"boutique-store/internal/config"
	"boutique-store/internal/handler"
	"boutique-store/internal/logger"
	"boutique-store/internal/middleware"
	"boutique-store/internal/repository"
	"boutique-store/internal/scheduler"
	"boutique-store/internal/service"
	"boutique-store/pkg/database"
	"boutique-store/pkg/export"
	"boutique-store/pkg/jwt"
	"boutique-store/pkg/mailer"
	"boutique-store/pkg/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// 1. Config & logger
	cfg := config.Load()

	zlog, err := logger.New(cfg.Server.Env)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer zlog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Setup Database
	db, err := database.ConnectDB(cfg.Database, zlog)
	if err != nil {
		zlog.Fatal("Database unavailable", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		zlog.Fatal("Migration failed", zap.Error(err))
	}
	if err := database.SeedReferenceData(db); err != nil {
		zlog.Fatal("Seeding reference data failed", zap.Error(err))
	}

	// 3. Collaborators
	files, err := storage.NewLocalStore(cfg.Storage.UploadDir, cfg.Storage.PublicBaseURL+"/uploads/product")
	if err != nil {
		zlog.Fatal("Upload directory unavailable", zap.Error(err))
	}
	smtp := mailer.NewSMTPMailer(mailer.SMTPConfig{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.User,
		Password: cfg.Mail.Password,
		FromName: cfg.Mail.FromName,
	})
	tokens := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Expiry)

	var catalogCache service.CatalogCache
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		c := cache.NewCatalog(rdb, "boutique:", cfg.Redis.TTL, zlog.Named("cache"))
		if err := c.Ping(ctx); err != nil {
			zlog.Warn("Redis unreachable, catalog cache disabled", zap.Error(err))
			rdb.Close()
		} else {
			defer c.Close()
			catalogCache = c
		}
	}

	// 4. Dependency Injection (Wiring Layers)
	repos := repository.NewRepositories(db)

	authService := service.NewAuthService(repos.Admins, tokens, zlog)
	productService := service.NewProductService(db, repos, files, catalogCache, zlog)
	inventoryService := service.NewInventoryService(db, repos, files, catalogCache, zlog)
	saleService := service.NewSaleService(db, repos, files, smtp, cfg.Mail.To, catalogCache, zlog)
	reportService := service.NewReportService(db, repos, export.XLSXExporter{}, smtp, cfg.Mail.To, zlog)

	if err := authService.SeedAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password); err != nil {
		zlog.Fatal("Seeding admin failed", zap.Error(err))
	}

	// 5. Report & archival schedule
	sched := scheduler.New(zlog.Named("scheduler"))
	err = sched.Every("sales-report", cfg.Report.Schedule, func(ctx context.Context) error {
		_, err := reportService.GenerateSalesReport(ctx)
		return err
	}, cfg.Report.RunOnStart)
	if err != nil {
		zlog.Fatal("Invalid report schedule", zap.Error(err))
	}
	sched.Start(ctx)

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:   "Sweet Cuddles Boutique API",
		BodyLimit: 10 * 1024 * 1024,
	})

	app.Use(fiberlogger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	app.Static("/uploads/product", files.Dir())

	handler.Register(app, handler.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		Product: handler.NewProductHandler(productService, inventoryService, files, zlog),
		Sale:    handler.NewSaleHandler(saleService),
		Report:  handler.NewReportHandler(reportService),
	}, middleware.RequireAdmin(tokens))

	// 7. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			zlog.Panic("Server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()

	zlog.Info("Shutting down server...")
	sched.Stop()
	if err := app.Shutdown(); err != nil {
		zlog.Fatal("Server forced to shutdown", zap.Error(err))
	}
	saleService.Close()

	zlog.Info("Server exited")
}
