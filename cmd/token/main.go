package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/noah-isme/sma-roster-api/internal/models"
	"github.com/noah-isme/sma-roster-api/internal/service"
	"github.com/noah-isme/sma-roster-api/pkg/config"
)

// token prints a signed access token for calling write routes with AUTH_ENABLED=true.
// With -hash it prints a bcrypt hash for an AUTH_OPERATORS entry instead.
func main() {
	subject := flag.String("sub", "admin", "user id placed in the token")
	role := flag.String("role", string(models.RoleAdmin), "role claim")
	email := flag.String("email", "", "email claim")
	hash := flag.String("hash", "", "password to hash for AUTH_OPERATORS")
	flag.Parse()

	if *hash != "" {
		hashed, err := service.HashPassword(*hash)
		if err != nil {
			log.Fatalf("failed to hash password: %v", err)
		}
		fmt.Println(hashed)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if cfg.JWT.Secret == "" {
		log.Fatal("JWT_SECRET is required to sign tokens")
	}
	tokens := service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer, Expiry: cfg.JWT.Expiry})
	token, expiresAt, err := tokens.IssueToken(*subject, models.UserRole(strings.ToUpper(*role)), *email, *subject)
	if err != nil {
		log.Fatalf("failed to issue token: %v", err)
	}
	fmt.Println(token)
	log.Printf("expires at %s", expiresAt.Format("2006-01-02T15:04:05Z07:00"))
}
