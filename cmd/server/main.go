package main

import (
	"log"
	"os"

	"timetrack/backend/internal/config"
	"timetrack/backend/internal/db"
	"timetrack/backend/internal/handler"
	"timetrack/backend/internal/repository"
	"timetrack/backend/internal/router"
	"timetrack/backend/internal/service"
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

	userRepo := repository.NewUserRepository(database)
	activityRepo := repository.NewActivityRepository(database)
	stateRepo := repository.NewStateRepository(database)

	settings := cfg.PomodoroSettings()
	authService := service.NewAuthService(userRepo, stateRepo, settings, cfg.JWTSecret, cfg.TokenTTL())
	trackerService := service.NewTrackerService(activityRepo, stateRepo)
	pomodoroService := service.NewPomodoroService(stateRepo, activityRepo, trackerService, settings, service.LogNotifier{})

	authHandler := handler.NewAuthHandler(authService)
	activityHandler := handler.NewActivityHandler(trackerService)
	pomodoroHandler := handler.NewPomodoroHandler(pomodoroService)
	analyticsHandler := handler.NewAnalyticsHandler(trackerService)

	engine := router.New(authService, authHandler, activityHandler, pomodoroHandler, analyticsHandler, cfg.CORSOrigins)
	log.Printf("backend listening on :%s", cfg.Port)
	if err := engine.Run(":" + cfg.Port); err != nil {
		log.Fatalf("run server: %v", err)
	}
}
