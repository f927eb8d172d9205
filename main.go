package main

import (
	stdlog "log"

	"github.com/joho/godotenv"

	"conciliador/cmd"
	"conciliador/internal/config"
	"conciliador/internal/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		stdlog.Printf("Warning: Could not load .env file: %v", err)
	}

	if err := logger.Setup(config.LoggerConfigFromEnv()); err != nil {
		stdlog.Fatalf("Failed to initialize logger: %v", err)
	}

	cmd.Execute()
}
