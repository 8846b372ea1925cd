package main

import (
	"errors"
	"io/fs"
	"log"
	"os"

	"github.com/joho/godotenv"

	"twikitmcp/internal/config"
	"twikitmcp/internal/server"
)

func main() {
	// stdout carries the MCP stdio protocol
	log.SetOutput(os.Stderr)

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Warning: Failed to read .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	s, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize server: %v", err)
	}

	if err := s.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
