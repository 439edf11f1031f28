// Command gentoken signs a development bearer token for a shop.
// Usage: go run ./cmd/gentoken --shop <uuid> [--role manager] [--ttl 8h]
package main

import (
	"fmt"
	"os"
	"time"

	"tookio/internal/middleware"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "gentoken",
		Usage: "sign a development JWT",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "secret", EnvVars: []string{"JWT_SECRET"}, Required: true},
			&cli.StringFlag{Name: "shop", Required: true},
			&cli.StringFlag{Name: "user", Value: uuid.NewString()},
			&cli.StringFlag{Name: "role", Value: middleware.RoleManager},
			&cli.DurationFlag{Name: "ttl", Value: 8 * time.Hour},
		},
		Action: func(c *cli.Context) error {
			if _, err := uuid.Parse(c.String("shop")); err != nil {
				return cli.Exit("invalid --shop: "+err.Error(), 2)
			}
			switch c.String("role") {
			case middleware.RoleStaff, middleware.RoleManager, middleware.RoleOwner:
			default:
				return cli.Exit("role must be staff, manager or owner", 2)
			}

			now := time.Now()
			claims := middleware.JWTClaims{
				UserID: c.String("user"),
				ShopID: c.String("shop"),
				Role:   c.String("role"),
				RegisteredClaims: jwt.RegisteredClaims{
					IssuedAt:  jwt.NewNumericDate(now),
					ExpiresAt: jwt.NewNumericDate(now.Add(c.Duration("ttl"))),
				},
			}
			signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(c.String("secret")))
			if err != nil {
				return err
			}
			fmt.Println(signed)
			return nil
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
