package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"quickpoll/config"
	"quickpoll/internal/domain/poll"
	"quickpoll/internal/domain/user"
	"quickpoll/internal/repository"
	"quickpoll/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

const usage = `
QuickPoll - Database CLI Tool

Usage:
  migrate [command] [flags]

Commands:
  up          Run all SQL migrations
  status      Show database connection status
  seed        Seed the database with a demo user and poll

Flags:
  -migrations string   Path to migrations directory (default "migrations")
  -admin-email string  Admin email for seeding (default "admin@quickpoll.app")
  -admin-pass string   Admin password for seeding (default "Admin@123!")

Examples:
  go run cmd/migrate/main.go up
  go run cmd/migrate/main.go status
  go run cmd/migrate/main.go seed
`

func main() {
	migrationsDir := flag.String("migrations", "migrations", "Path to migrations directory")
	adminEmail := flag.String("admin-email", "admin@quickpoll.app", "Admin email for seeding")
	adminPass := flag.String("admin-pass", "Admin@123!", "Admin password for seeding")

	flag.Usage = func() {
		fmt.Print(usage)
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	command := flag.Arg(0)

	ctx := context.Background()
	cfg := config.LoadConfig()
	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ Database connection failed: %v", err)
	}
	defer pool.Close()

	switch command {
	case "up":
		runMigrationsUp(ctx, pool, *migrationsDir)
	case "status":
		showStatus(ctx, pool)
	case "seed":
		runSeed(ctx, pool, *adminEmail, *adminPass)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}

func runMigrationsUp(ctx context.Context, pool *pgxpool.Pool, migrationsDir string) {
	log.Println("🚀 Running migrations UP...")

	if err := database.ApplyMigrations(ctx, pool, migrationsDir); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	log.Println("✅ Migrations completed successfully!")
}

func showStatus(ctx context.Context, pool *pgxpool.Pool) {
	log.Println("🔍 Checking database status...")

	if err := database.HealthCheck(ctx, pool); err != nil {
		log.Fatalf("❌ Database connection failed: %v", err)
	}
	log.Println("✅ Database connection: OK")

	tables := []string{"users", "devices", "polls", "options", "votes"}
	for _, table := range tables {
		exists, err := database.TableExists(ctx, pool, table)
		if err != nil {
			log.Printf("⚠️  Error checking table %s: %v", table, err)
			continue
		}
		if !exists {
			log.Printf("⚠️  Table %s: missing", table)
			continue
		}
		count, err := database.TableCount(ctx, pool, table)
		if err != nil {
			log.Printf("⚠️  Error counting table %s: %v", table, err)
			continue
		}
		log.Printf("✅ Table %s: %d rows", table, count)
	}
}

func runSeed(ctx context.Context, pool *pgxpool.Pool, adminEmail, adminPass string) {
	log.Println("🌱 Seeding database...")

	users := repository.NewUserRepository(pool)
	polls := repository.NewPollRepository(pool)

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPass), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("❌ Seed failed: %v", err)
	}

	admin := &user.User{
		ID:           uuid.New(),
		Email:        adminEmail,
		PasswordHash: string(hash),
		DisplayName:  "Admin",
		CreatedAt:    time.Now(),
	}
	if err := users.Create(ctx, admin); err != nil {
		log.Fatalf("❌ Seed failed: %v", err)
	}
	log.Printf("✅ Created admin user %s", adminEmail)

	demo := poll.Poll{
		ID:             uuid.New(),
		OwnerID:        admin.ID,
		Title:          "What should we have for lunch?",
		QuestionType:   poll.QuestionSingleChoice,
		ShowResults:    true,
		MaxChoices:     1,
		RatingScaleMax: 5,
		CreatedAt:      time.Now(),
	}
	options := []poll.Option{
		{ID: uuid.New(), PollID: demo.ID, Text: "Pizza", Position: 0},
		{ID: uuid.New(), PollID: demo.ID, Text: "Sushi", Position: 1},
		{ID: uuid.New(), PollID: demo.ID, Text: "Tacos", Position: 2},
	}
	if err := polls.Create(ctx, &demo, options); err != nil {
		log.Fatalf("❌ Seed failed: %v", err)
	}
	log.Printf("✅ Created demo poll %s", demo.ID)

	log.Println("✅ Seeding completed successfully!")
}
