package main

import (
	"log"
	"os"

	"timetrack/backend/internal/config"
	"timetrack/backend/internal/db"
)

func main() {
	cfg, err := config.Load(os.Getenv("TIMETRACK_CONFIG"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsDir); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	log.Println("migrations applied successfully")
}
