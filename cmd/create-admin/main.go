package main

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/sparkserve/bookingapi/internal/config"
	"github.com/sparkserve/bookingapi/internal/domain"
	"github.com/sparkserve/bookingapi/internal/repository/postgres"
	"go.uber.org/zap"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: go run cmd/create-admin/main.go <admin-name> <api-key>")
		fmt.Println("Example: go run cmd/create-admin/main.go \"Ops Dashboard\" \"ops-api-key-12345\"")
		os.Exit(1)
	}

	adminName := os.Args[1]
	apiKey := os.Args[2]

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	// Connect to database
	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// Hash the API key
	apiKeyHash, err := bcrypt.GenerateFromPassword([]byte(apiKey), 10)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to hash API key: %v\n", err)
		os.Exit(1)
	}

	// Create repositories
	repos := postgres.NewRepositories(db, logger)

	// Create admin key
	key := &domain.AdminKey{
		Name:       adminName,
		APIKeyHash: string(apiKeyHash),
		IsActive:   true,
	}

	err = repos.AdminKeys.Create(context.Background(), key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create admin key: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Admin key created successfully!\n\n")
	fmt.Printf("Key ID: %s\n", key.ID.String())
	fmt.Printf("Key Name: %s\n", key.Name)
	fmt.Printf("API Key: %s\n", apiKey)
	fmt.Printf("\n⚠️  IMPORTANT: Save this API key securely! You won't be able to see it again.\n")
	fmt.Printf("\nUse this API key in the X-API-Key header:\n")
	fmt.Printf("X-API-Key: %s\n", apiKey)
}
