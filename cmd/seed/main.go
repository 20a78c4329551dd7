package main

import (
	"context"
	"log"

	"github.com/Baaaki/yamdb/internal/config"
	"github.com/Baaaki/yamdb/internal/database"
	"github.com/Baaaki/yamdb/internal/repository"
	"github.com/Baaaki/yamdb/internal/service"
	"github.com/Baaaki/yamdb/pkg/logger"
)

func main() {
	cfg := config.Load()
	if err := logger.Init(!cfg.IsProduction()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if cfg.AdminUsername == "" || cfg.AdminEmail == "" {
		log.Fatal("Missing environment variables: ADMIN_USERNAME, ADMIN_EMAIL")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	users := service.NewUserService(repository.NewUserRepository(db))
	admin, created, err := users.EnsureSuperuser(context.Background(), cfg.AdminUsername, cfg.AdminEmail)
	if err != nil {
		log.Fatalf("Failed to create superuser: %v", err)
	}

	if !created {
		log.Println("Superuser already exists:", admin.Username)
		return
	}
	log.Println("Superuser created successfully")
	log.Println("   Username:", admin.Username)
	log.Println("   Email:", admin.Email)
	log.Println("   Request a token through POST /v1/auth/signup/ with the same pair")
}
