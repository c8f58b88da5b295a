package main

import (
	"context"
	"flag"
	"log"

	"boutique-store/internal/config"
	"boutique-store/internal/logger"
	"boutique-store/internal/repository"
	"boutique-store/internal/service"
	"boutique-store/pkg/database"
	"boutique-store/pkg/jwt"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	username := flag.String("username", cfg.Admin.Username, "admin account to reset")
	password := flag.String("password", "", "new password (at least 6 characters)")
	flag.Parse()

	zlog, err := logger.New(cfg.Server.Env)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer zlog.Sync()

	if *password == "" {
		zlog.Fatal("-password is required")
	}

	db, err := database.ConnectDB(cfg.Database, zlog)
	if err != nil {
		zlog.Fatal("Database unavailable", zap.Error(err))
	}

	auth := service.NewAuthService(repository.NewAdminRepo(db), jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Expiry), zlog)
	if err := auth.ResetPassword(context.Background(), *username, *password); err != nil {
		zlog.Fatal("Failed to reset password", zap.String("username", *username), zap.Error(err))
	}

	zlog.Info("Password has been reset", zap.String("username", *username))
}
