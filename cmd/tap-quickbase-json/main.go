package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/MainspringEnergy/tap-quickbase-json/internal/cli"
	"github.com/MainspringEnergy/tap-quickbase-json/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file found, using system environment")
	}

	rootCmd := cli.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
