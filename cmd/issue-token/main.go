package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/quizdesk/quizdesk-backend/internal/config"
	"github.com/quizdesk/quizdesk-backend/internal/service"
)

// issue-token mints a signed user JWT for local development and operations.
// User provisioning is handled by the surrounding platform, so this is the
// only way to obtain a token from inside this repo.
func main() {
	var userID int
	flag.IntVar(&userID, "user", 0, "User ID to issue a token for")
	flag.Parse()

	if userID <= 0 {
		fmt.Fprintln(os.Stderr, "Usage: issue-token -user <id>")
		os.Exit(1)
	}

	cfg := config.Load()
	authService := service.NewAuthService(cfg)

	token, err := authService.GenerateUserToken(userID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to generate token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
