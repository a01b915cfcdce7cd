// CLI tool to create a member with a body profile and print a signed bearer
// token for local testing. Production tokens come from the auth service.
// Usage: go run ./cmd/create-member
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type config struct {
	DBURL     string        `envconfig:"DB_URL" required:"true"`
	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	TokenTTL  time.Duration `envconfig:"DEV_TOKEN_TTL" default:"720h"`
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
		os.Exit(1)
	}
	var cfg config
	if err := envconfig.Process("", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(2)
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, cfg.DBURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close(ctx)

	reader := bufio.NewReader(os.Stdin)
	username := prompt(reader, "Username: ")
	sex := optional(prompt(reader, "Sex (male/female, blank to skip): "))
	height := optionalFloat(prompt(reader, "Height cm (blank to skip): "))
	weight := optionalFloat(prompt(reader, "Weight kg (blank to skip): "))

	var memberID int
	err = conn.QueryRow(ctx,
		`INSERT INTO members (username, sex, height_cm, weight_kg)
		 VALUES (@username, @sex, @heightCM, @weightKG) RETURNING id`,
		pgx.NamedArgs{"username": username, "sex": sex, "heightCM": height, "weightKG": weight},
	).Scan(&memberID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating member: %v\n", err)
		os.Exit(1)
	}

	now := time.Now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   strconv.Itoa(memberID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TokenTTL)),
	}).SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error signing token: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nMember created successfully!\n")
	fmt.Printf("  ID:       %d\n", memberID)
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Token:    %s\n", token)
}

func prompt(r *bufio.Reader, label string) string {
	fmt.Print(label)
	s, _ := r.ReadString('\n')
	return strings.TrimSpace(s)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optionalFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ignoring %q: not a number\n", s)
		return nil
	}
	return &f
}
