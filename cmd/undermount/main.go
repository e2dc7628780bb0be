// Package main is the entry point for Undermount.
package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/halbard/undermount/internal/game"
	"github.com/halbard/undermount/internal/telemetry"
)

func main() {
	// Load .env for local development; env vars may also be set
	// directly, so a missing file is not fatal.
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: .env file not loaded: %v", err)
	}

	ctx := context.Background()

	// Telemetry is best effort: the game runs fine without a collector.
	shutdown, err := telemetry.Setup(ctx)
	if err != nil {
		log.Printf("Warning: telemetry setup failed: %v", err)
	} else {
		defer func() {
			if err := shutdown(ctx); err != nil {
				log.Printf("Error shutting down telemetry: %v", err)
			}
		}()
	}

	s, err := game.New(game.ConfigFromEnv())
	if err != nil {
		log.Fatalf("Failed to initialize game: %v", err)
	}
	defer s.Close()

	if err := s.Run(ctx); err != nil {
		s.Close()
		log.Fatalf("Game error: %v", err)
	}
}
