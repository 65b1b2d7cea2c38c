package main

import (
	"context"
	"flag"
	"log"

	"github.com/joho/godotenv"

	"github.com/schoolpay/backend/pkg/config"
	"github.com/schoolpay/backend/pkg/db"
	"github.com/schoolpay/backend/pkg/logger"
	"github.com/schoolpay/backend/pkg/migrate"
)

func main() {
	direction := flag.String("direction", "up", "migration direction: up or down")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logg := logger.New(logger.Options{
		ServiceName: "schoolpay-migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
	})

	ctx := context.Background()

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		log.Fatalf("connecting to database: %v", err)
	}
	defer client.Close()

	sqlDB, err := client.DB().DB()
	if err != nil {
		log.Fatalf("acquiring sql connection: %v", err)
	}

	if err := migrate.Run(ctx, sqlDB, *direction); err != nil {
		log.Fatalf("running migrations %s: %v", *direction, err)
	}

	logg.Info(ctx, "migrations applied: "+*direction)
}
