package main

import (
	"github.com/joho/godotenv"
	"github.com/pfrederiksen/that-schedule/internal/cli"
)

func main() {
	// Missing .env is fine; real environment variables still apply.
	_ = godotenv.Load()

	cli.Execute()
}
