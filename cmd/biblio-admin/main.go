// Package main is the entry point for the Biblio admin CLI.
// It provides bootstrap commands that bypass the HTTP API, such as
// creating the first administrator account.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/prn-tf/biblio/internal/config"
	"github.com/prn-tf/biblio/internal/domain"
	"github.com/prn-tf/biblio/internal/pkg/secrets"
	"github.com/prn-tf/biblio/internal/repository"
	"github.com/prn-tf/biblio/internal/repository/postgres"
	"github.com/prn-tf/biblio/internal/repository/sqlite"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const generatedPasswordLength = 16

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "create-admin":
		if err := createAdmin(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "gen-secret":
		secret, err := secrets.GenerateJWTSecret()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(secret)

	case "version":
		fmt.Printf("Biblio Admin CLI\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func createAdmin(args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	name := fs.String("name", "Administrator", "display name")
	email := fs.String("email", "", "login email (required)")
	password := fs.String("password", "", "password (generated when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		return fmt.Errorf("--email is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	ctx := context.Background()
	users, closeStore, err := openUserStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	generated := false
	if *password == "" {
		*password, err = secrets.GeneratePassword(generatedPasswordLength)
		if err != nil {
			return err
		}
		generated = true
	}
	if len(*password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := domain.NewUser(*name, *email, string(hash), domain.RoleAdmin)
	if err := users.Create(ctx, user); err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	fmt.Printf("Admin account created\n")
	fmt.Printf("  ID:    %d\n", user.ID)
	fmt.Printf("  Email: %s\n", user.Email)
	if generated {
		fmt.Printf("  Password: %s\n", *password)
	}
	return nil
}

// openUserStore connects to the configured database and returns the
// user repository with a close function.
func openUserStore(ctx context.Context, cfg *config.Config) (repository.UserRepository, func(), error) {
	logger := zerolog.Nop()

	if cfg.Database.Driver == "postgres" {
		db, err := postgres.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return postgres.NewUserRepository(db), func() { db.Close() }, nil
	}

	db, err := sqlite.NewDB(ctx, sqlite.DefaultConfig(cfg.Database.Path), logger)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return sqlite.NewUserRepository(db), func() { _ = db.Close() }, nil
}

func printUsage() {
	fmt.Println(`Biblio Admin CLI

Usage:
  biblio-admin <command> [arguments]

Commands:
  create-admin  Create an administrator account directly in the store
  gen-secret    Generate a JWT signing secret for auth.jwt_secret
  version       Print version information
  help          Show this help message

Examples:
  biblio-admin create-admin --email admin@example.com --name "Head Librarian"
  biblio-admin create-admin --config ./configs/config.yaml --email admin@example.com
  biblio-admin gen-secret`)
}
