package main

import (
	"fmt"
	"os"

	"github.com/saturnino-fabrica-de-software/sorria/internal/domain"
	"github.com/saturnino-fabrica-de-software/sorria/internal/service"
)

// Prints a new application client secret and the bcrypt hash to store in
// applications.client_secret_hash
func main() {
	secret, err := domain.GenerateClientSecret()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	hash, err := service.HashClientSecret(secret)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	fmt.Printf("CLIENT_SECRET=%s\nCLIENT_SECRET_HASH=%s\n", secret, hash)
}
