package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"leave_portal/internal/platform/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

var DB *pgxpool.Pool

func Connect() {
	poolCfg, err := pgxpool.ParseConfig(config.AppConfig.DBConnStr)
	if err != nil {
		log.Fatalf("Error parsing database config: %v", err)
	}
	poolCfg.MaxConns = 25
	poolCfg.MaxConnLifetime = 5 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	DB, err = pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}

	// Verify connection
	if err = DB.Ping(ctx); err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}

	fmt.Println("Successfully connected to PostgreSQL database!")
}

func Close() {
	if DB != nil {
		DB.Close()
		fmt.Println("Database connection closed.")
	}
}
