// Command migrate manages the PostgreSQL schema for Qarzhy Learning Hub.
//
// Usage:
//
//	migrate up       apply all pending migrations
//	migrate down     roll back the most recent migration
//	migrate status   show applied and pending migrations
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/infrastructure/persistence/postgres"
)

func main() {
	flag.Parse()

	cmd := flag.Arg(0)
	if cmd == "" {
		cmd = "status"
	}

	if err := run(cmd); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd string) error {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	conn, err := postgres.NewConnectionFromURL(ctx, url)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	migrator := postgres.NewMigrator(conn)

	switch cmd {
	case "up":
		if err := migrator.Migrate(ctx); err != nil {
			return err
		}
		fmt.Println("migrations applied")
		return nil

	case "down":
		if err := migrator.Rollback(ctx); err != nil {
			return err
		}
		fmt.Println("last migration rolled back")
		return nil

	case "status":
		statuses, err := migrator.Status(ctx)
		if err != nil {
			return err
		}
		for _, s := range statuses {
			state := "pending"
			if s.IsApplied {
				state = "applied"
			}
			fmt.Printf("%3d  %-30s %s\n", s.Version, s.Name, state)
		}
		return nil

	default:
		return fmt.Errorf("unknown command %q (expected up, down, or status)", cmd)
	}
}
