package main

import (
	"github.com/joho/godotenv"

	"github.com/reposcope/reposcope/cmd"
)

func main() {
	// A missing .env file is fine; the environment alone may carry the token.
	_ = godotenv.Load()
	cmd.Execute()
}
