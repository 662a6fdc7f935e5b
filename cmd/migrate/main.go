package main

import (
	"errors"
	"flag"
	"io/fs"
	"log"
	"os"

	"companion-backend/internal/database"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("Failed to read .env: %v", err)
	}

	url := flag.String("url", os.Getenv("DATABASE_URL"), "Postgres connection URL (defaults to $DATABASE_URL)")
	direction := flag.String("direction", "up", "Migration direction (up/down/version)")
	flag.Parse()

	if *url == "" {
		log.Fatal("No database URL: pass -url or set DATABASE_URL")
	}

	db, err := database.Init(*url, database.Options{MaxOpenConns: 1})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	switch *direction {
	case "up":
		if err := database.Migrate(db); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Schema is up to date")
	case "down":
		if err := database.Rollback(db); err != nil {
			log.Fatalf("Rollback failed: %v", err)
		}
		log.Println("Rolled back one migration")
	case "version":
	default:
		log.Fatalf("Invalid direction: %s (must be 'up', 'down' or 'version')", *direction)
	}

	version, dirty, err := database.Version(db)
	if err != nil {
		log.Fatalf("Failed to read schema version: %v", err)
	}
	log.Printf("Schema version: %d (dirty=%t)", version, dirty)
}
