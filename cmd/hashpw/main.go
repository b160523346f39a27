// cmd/hashpw/main.go prints a bcrypt hash for seeding accounts by hand.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
)

func main() {
	if len(os.Args) < 2 {
		logrus.Fatal("usage: hashpw <password>")
	}

	cfg := config.FromEnv()
	passwords := auth.NewPasswordManager(cfg.Security.BcryptCost)

	hash, err := passwords.HashPassword(os.Args[1])
	if err != nil {
		logrus.WithError(err).Fatal("password rejected")
	}
	if !passwords.VerifyPassword(os.Args[1], hash) {
		logrus.Fatal("hash verification failed")
	}

	fmt.Println(hash)
}
