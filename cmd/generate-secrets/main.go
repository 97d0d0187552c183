package main

import (
	"fmt"
	"log"
	"os"

	"github.com/hospitalhub/profile-intake/internal/utils"
)

// Usage: generate-secrets [admin-password]
func main() {
	fmt.Println("===========================================")
	fmt.Println("Secret generator for the hospital intake service")
	fmt.Println("===========================================")
	fmt.Println()

	secret, err := utils.GenerateJWTSecret()
	if err != nil {
		log.Fatalf("Failed to generate secrets: %v", err)
	}

	fmt.Println("Add these to your .env file or deployment secrets:")
	fmt.Println()
	fmt.Printf("JWT_SECRET=%s\n", secret)

	if len(os.Args) > 1 {
		hash, err := utils.HashAdminPassword(os.Args[1])
		if err != nil {
			log.Fatalf("Failed to hash admin password: %v", err)
		}
		// single quotes keep the $ separators intact in shells and .env files
		fmt.Printf("ADMIN_PASSWORD_HASH='%s'\n", hash)
	} else {
		fmt.Println()
		fmt.Println("Pass the admin password as an argument to also print ADMIN_PASSWORD_HASH.")
	}

	fmt.Println()
	fmt.Println("IMPORTANT: Keep these secrets safe and never commit them to version control!")
	fmt.Println("===========================================")
}
