// Command admintoken prints a signed bearer token for the admin API.
//
//	admintoken -sub praxis@example.de -role admin -ttl 24h
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	httpmiddleware "github.com/wolfman30/selaro-receptionist/internal/http/middleware"
)

func main() {
	_ = godotenv.Load()

	subject := flag.String("sub", "admin", "token subject")
	role := flag.String("role", httpmiddleware.RoleAdmin, "admin or staff")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("ADMIN_JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "ADMIN_JWT_SECRET is required")
		os.Exit(1)
	}
	token, err := httpmiddleware.IssueAdminToken(secret, *subject, *role, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "admintoken:", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
