// Command tokengen mints bearer tokens for local development.
//
//	tokengen -account alice -role guest -ttl 24h
//
// The signing secret and issuer are read from the same JWT_SECRET and
// JWT_ISSUER variables the server uses (.env is honored).
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/kirinyoku/stayledger/internal/auth"
	"github.com/kirinyoku/stayledger/internal/domain"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	account := flag.String("account", "", "account id placed in the sub claim")
	role := flag.String("role", auth.RoleGuest, "role claim: guest, host or admin")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if *account == "" {
		logger.Error("missing -account")
		flag.Usage()
		os.Exit(2)
	}

	switch *role {
	case auth.RoleGuest, auth.RoleHost, auth.RoleAdmin:
	default:
		logger.Error("unknown role", "role", *role)
		os.Exit(2)
	}

	_ = godotenv.Load()

	issuer := os.Getenv("JWT_ISSUER")
	if issuer == "" {
		issuer = "stayledger"
	}

	authn, err := auth.NewAuthenticator(os.Getenv("JWT_SECRET"), issuer)
	if err != nil {
		logger.Error("failed to create authenticator", "error", err)
		os.Exit(1)
	}

	token, err := authn.Issue(domain.AccountID(*account), *role, *ttl)
	if err != nil {
		logger.Error("failed to issue token", "error", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
