// Command token mints a bearer token accepted by the wol-server API.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/micro-ha/wol-server/internal/http/auth"
)

func main() {
	id := flag.String("id", "admin", "principal id stored in the token")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime; 0 disables expiry")
	secret := flag.String("secret", os.Getenv("JWT_SECRET"), "HMAC signing secret (defaults to $JWT_SECRET)")
	flag.Parse()

	if *secret == "" {
		fmt.Fprintln(os.Stderr, "token: a signing secret is required (-secret or JWT_SECRET)")
		os.Exit(2)
	}
	tok, err := auth.Mint(*secret, *id, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(tok)
}
