package main

import (
	"log"

	"mistral-thing-be/internal/config"
	"mistral-thing-be/internal/model"
	"mistral-thing-be/pkg/database"

	"github.com/fatih/color"
)

func main() {
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		color.Red("Error: DB_CONNECTION_STRING is not set")
		log.Fatal("missing database connection string")
	}

	db, err := database.Open(cfg.Database.Driver, cfg.Database.Connection)
	if err != nil {
		color.Red("Error: Failed to connect to database: %v", err)
		log.Fatal(err)
	}

	color.Cyan("Running AutoMigrate (%s)...", cfg.Database.Driver)
	models := model.All()
	if err := db.AutoMigrate(models...); err != nil {
		color.Red("Error: AutoMigrate failed: %v", err)
		log.Fatal(err)
	}

	color.Green("Success: migrated %d tables.", len(models))
}
