package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type ConsoleConfig struct {
	APIBaseURL string
	UserID     string
	Name       string
	Timeout    time.Duration
}

func main() {
	cfg := &ConsoleConfig{Timeout: 3 * time.Minute}
	flag.StringVar(&cfg.APIBaseURL, "api", getEnv("API_BASE_URL", "http://localhost:8080"), "gm-engine API base URL")
	flag.StringVar(&cfg.UserID, "user", getEnv("GM_USER_ID", "console"), "user id that owns the character")
	flag.StringVar(&cfg.Name, "name", getEnv("GM_CHARACTER_NAME", "Adventurer"), "name for a new character")
	flag.Parse()

	client := &http.Client{Timeout: cfg.Timeout}

	if !testConnection(client, cfg.APIBaseURL) {
		fmt.Fprintf(os.Stderr, "Could not connect to API. Please ensure the API is running.\nTry: go run ./cmd/api\n")
		os.Exit(1)
	}

	cr, err := loadOrCreateCharacter(client, cfg.APIBaseURL, cfg.UserID, cfg.Name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load character: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(NewConsoleUI(cfg, client, cr),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
