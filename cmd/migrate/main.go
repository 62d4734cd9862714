package main

import (
	"context"
	"flag"
	"log"

	"github.com/joho/godotenv"

	"autovalue/internal/config"
	"autovalue/internal/db"
)

func main() {
	ctx := context.Background()
	_ = godotenv.Load()

	flag.Parse()
	command := flag.Arg(0)
	if command == "" {
		command = "up"
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Fatalf("db pool: %v", err)
	}
	defer pool.Close()

	if err := db.Ping(ctx, pool); err != nil {
		log.Fatalf("db ping: %v", err)
	}

	if err := db.Migrate(ctx, pool, command); err != nil {
		log.Fatalf("migrate %s: %v", command, err)
	}
	log.Printf("migrate %s: ok", command)
}
