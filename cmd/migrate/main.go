// Command migrate manages the shoewatch database schema via goose.
//
// Usage:
//
//	go run ./cmd/migrate up                  # Apply all pending migrations
//	go run ./cmd/migrate down                # Roll back the last migration
//	go run ./cmd/migrate status              # Show migration status
//	go run ./cmd/migrate version             # Show current schema version
//	go run ./cmd/migrate create <name> sql   # Scaffold a new migration file
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

const migrationsDir = "migrations"

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: migrate <command>")
		fmt.Println("Commands: up, down, status, version, create <name> sql, up-to <version>, down-to <version>")
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	// create only touches the migrations directory, no database needed.
	if command == "create" {
		if err := goose.RunContext(context.Background(), command, nil, migrationsDir, args...); err != nil {
			log.Fatalf("Migration create failed: %v", err)
		}
		return
	}

	// Pick up DATABASE_URL from .env in local development.
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := goose.RunContext(context.Background(), command, db, migrationsDir, args...); err != nil {
		log.Fatalf("Migration %s failed: %v", command, err)
	}
}
