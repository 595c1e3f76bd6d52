package main

import (
	"flag"
	"log"
	"os"

	migrate "github.com/rubenv/sql-migrate"

	"github.com/johnquangdev/meeting-session/internal/infrastructure/database"
	"github.com/johnquangdev/meeting-session/pkg/config"
)

// migrate applies or rolls back the embedded schema migrations.
//
//	migrate up|down|status [-max N]
func main() {
	max := flag.Int("max", 0, "maximum number of migrations to apply, 0 for all (down defaults to 1)")
	flag.Parse()

	command := flag.Arg(0)
	if command == "" {
		command = "up"
	}

	cfg, err := config.LoadDatabase()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database connection: %v", err)
	}

	source := database.Migrations()

	switch command {
	case "up":
		log.Println("🔄 Applying migrations...")
		n, err := migrate.ExecMax(sqlDB, "postgres", source, migrate.Up, *max)
		if err != nil {
			log.Fatalf("Failed to apply migrations: %v", err)
		}
		log.Printf("✅ Successfully applied %d migration(s)!\n", n)

	case "down":
		limit := *max
		if limit == 0 {
			limit = 1
		}
		log.Printf("🔄 Rolling back %d migration(s)...", limit)
		n, err := migrate.ExecMax(sqlDB, "postgres", source, migrate.Down, limit)
		if err != nil {
			log.Fatalf("Failed to roll back migrations: %v", err)
		}
		log.Printf("✅ Rolled back %d migration(s)\n", n)

	case "status":
		records, err := migrate.GetMigrationRecords(sqlDB, "postgres")
		if err != nil {
			log.Fatalf("Failed to read migration records: %v", err)
		}
		applied := make(map[string]bool, len(records))
		for _, r := range records {
			applied[r.Id] = true
			log.Printf("✅ %s applied at %s", r.Id, r.AppliedAt.Format("2006-01-02 15:04:05"))
		}

		migrations, err := source.FindMigrations()
		if err != nil {
			log.Fatalf("Failed to list migrations: %v", err)
		}
		for _, m := range migrations {
			if !applied[m.Id] {
				log.Printf("⏳ %s pending", m.Id)
			}
		}

	default:
		log.Printf("unknown command %q, expected up, down or status", command)
		os.Exit(2)
	}
}
