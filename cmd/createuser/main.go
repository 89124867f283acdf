package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/evanshaw/shopd/internal"
	"github.com/evanshaw/shopd/internal/postgres"
	"github.com/evanshaw/shopd/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
)

// createuser provisions an account from the command line. Staff
// accounts created here can manage products through the API.
func run() error {
	username := flag.String("username", "", "username for the new account")
	password := flag.String("password", "", "password for the new account")
	staff := flag.Bool("staff", false, "grant staff permissions")
	flag.Parse()

	if *username == "" || *password == "" {
		flag.Usage()
		return fmt.Errorf("both -username and -password are required")
	}

	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	users := service.NewUserService(postgres.NewUserStore(pool))

	user, err := users.CreateUser(ctx, *username, *password, *staff)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	logger.Info("User created", "id", user.ID, "username", user.Username, "staff", user.IsStaff)
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
