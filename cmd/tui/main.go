package main

import (
	"log"
	"os"
	"os/user"
	"time"

	"engineer-alpha/internal/config"
	"engineer-alpha/internal/domain"
	"engineer-alpha/internal/provider"
	"engineer-alpha/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel"
)

func main() {
	godotenv.Load()
	cfg := config.Load()

	// keep the alt screen clean
	if f, err := tea.LogToFile("engineer-alpha-tui.log", "tui"); err == nil {
		defer f.Close()
	} else {
		log.SetOutput(os.Stderr)
	}

	analyzer := provider.NewAnalysisClient(otel.Tracer("engineer-alpha-tui"), cfg.AnalysisAPIURL,
		provider.WithTimeout(time.Duration(cfg.AnalysisTimeoutSecs)*time.Second))

	svc := tui.Services{
		Analyzer: analyzer,
		Defaults: tui.Defaults{Ticker: cfg.DefaultTicker, Years: cfg.DefaultYears, Mode: cfg.DefaultMode},
		Identity: localIdentity(),
	}

	p := tea.NewProgram(tui.NewAppModel(svc), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("tui exited with error: %v", err)
	}
}

func localIdentity() *domain.Identity {
	u, err := user.Current()
	if err != nil || u.Username == "" {
		return nil
	}
	return &domain.Identity{ID: u.Username}
}
