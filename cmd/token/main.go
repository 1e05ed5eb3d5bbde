// Command token mints a development bearer token for the carpool API.
// Real deployments put an identity provider in front of the API; this tool
// exists so the API can be exercised locally with curl.
//
//	token -user 6f1c... -roles passenger,driver -ttl 1h
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/carpool/internal/domain"
	"github.com/pkordes/carpool/internal/middleware"
)

func main() {
	secret := flag.String("secret", os.Getenv("JWT_SECRET"), "HS256 signing key (defaults to $JWT_SECRET)")
	user := flag.String("user", "", "user UUID placed in the sub claim")
	roles := flag.String("roles", "passenger", "comma-separated roles: passenger, driver, admin")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	token, err := mint(*secret, *user, *roles, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "token:", err)
		os.Exit(2)
	}
	fmt.Println(token)
}

func mint(secret, user, roles string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("-secret or JWT_SECRET is required")
	}
	id, err := uuid.Parse(user)
	if err != nil {
		return "", fmt.Errorf("-user must be a UUID: %w", err)
	}
	rs, err := domain.ParseRoles(strings.Split(roles, ","))
	if err != nil {
		return "", err
	}
	return middleware.NewAuthenticator([]byte(secret)).Issue(domain.Principal{UserID: id, Roles: rs}, ttl)
}
