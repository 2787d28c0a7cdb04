package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"blockfund/internal/adapter/repo"
	"blockfund/internal/domain"
	"blockfund/internal/infra"
)

func main() {
	_ = godotenv.Load()

	var (
		idFlag      string
		emailFlag   string
		creatorFlag string
		adminFlag   string
	)

	flag.StringVar(&idFlag, "id", "", "profile ID to update (UUID)")
	flag.StringVar(&emailFlag, "email", "", "profile email to update")
	flag.StringVar(&creatorFlag, "creator", "", "grant (true) or revoke (false) verified creator status")
	flag.StringVar(&adminFlag, "admin", "", "grant (true) or revoke (false) admin status")
	flag.Parse()

	profileID := strings.TrimSpace(idFlag)
	email := strings.TrimSpace(emailFlag)
	if profileID == "" && email == "" {
		exitWithError(errors.New("either -id or -email must be provided"))
	}
	creator, err := parseOptionalBool("creator", creatorFlag)
	if err != nil {
		exitWithError(err)
	}
	admin, err := parseOptionalBool("admin", adminFlag)
	if err != nil {
		exitWithError(err)
	}
	if creator == nil && admin == nil {
		exitWithError(errors.New("nothing to change: pass -creator and/or -admin"))
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "creator").Logger()
	profiles := repo.NewProfileRepository(infra.NewSQLRunner(pool, logger))

	var profile *domain.Profile
	if profileID != "" {
		profile, err = profiles.GetByID(ctx, profileID)
	} else {
		profile, err = profiles.GetByEmail(ctx, email)
	}
	if err != nil {
		exitWithError(fmt.Errorf("failed to load profile: %w", err))
	}

	updated, err := profiles.SetFlags(ctx, profile.ID, creator, admin)
	if err != nil {
		exitWithError(fmt.Errorf("failed to update profile: %w", err))
	}

	fmt.Printf("Profile %s (%s) updated\n", updated.ID, updated.Email)
	fmt.Printf("is_verified_creator=%t\n", updated.IsVerifiedCreator)
	fmt.Printf("is_admin=%t\n", updated.IsAdmin)
}

func parseOptionalBool(name, raw string) (*bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("-%s must be true or false", name)
	}
	return &v, nil
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
