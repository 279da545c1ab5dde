package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"engineer-alpha/internal/analysis"
	"engineer-alpha/internal/config"
	"engineer-alpha/internal/domain"
	"engineer-alpha/internal/provider"
	"engineer-alpha/internal/tui"
	"engineer-alpha/pkg/tracing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	bm "github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/trace"
)

var (
	loadEnvFunc         = godotenv.Load
	loadConfigFunc      = config.Load
	initTracerFunc      = tracing.InitTracer
	newAnalysisClientFn = func(tracer trace.Tracer, cfg *config.Config) analysis.Analyzer {
		return provider.NewAnalysisClient(tracer, cfg.AnalysisAPIURL,
			provider.WithTimeout(time.Duration(cfg.AnalysisTimeoutSecs)*time.Second))
	}
	newSSHServerFunc    = newSSHServer
	startSSHServerFunc  = func(s *ssh.Server) error { return s.ListenAndServe() }
	shutdownSSHServerFn = func(s *ssh.Server, ctx context.Context) error { return s.Shutdown(ctx) }
	setupSignalNotify   = ossignal.Notify
	waitForSignalFunc   = func(quit <-chan os.Signal) { <-quit }
)

func main() {
	loadEnvFunc()
	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	analyzer := newAnalysisClientFn(tracer, cfg)
	srv, err := newSSHServerFunc(cfg, analyzer)
	if err != nil {
		log.Fatalf("failed to create ssh server: %v", err)
	}

	go func() {
		if err := startSSHServerFunc(srv); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			log.Fatalf("ssh server failed: %v", err)
		}
	}()
	log.Printf("SSH analyzer listening on %s", srv.Addr)

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down ssh server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownSSHServerFn(srv, shutdownCtx); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
		log.Fatal("ssh server forced to shutdown:", err)
	}
	log.Println("SSH server exiting")
}

func newSSHServer(cfg *config.Config, analyzer analysis.Analyzer) (*ssh.Server, error) {
	return wish.NewServer(
		wish.WithAddress(net.JoinHostPort(cfg.SSHBind, fmt.Sprintf("%d", cfg.SSHPort))),
		wish.WithHostKeyPath(cfg.SSHHostKeyPath),
		wish.WithMiddleware(
			bm.Middleware(sessionHandler(cfg, analyzer)),
			activeterm.Middleware(),
			logging.Middleware(),
		),
	)
}

// sessionHandler gives every SSH connection its own app model, and with it its own
// analysis session tagged with the SSH user.
func sessionHandler(cfg *config.Config, analyzer analysis.Analyzer) bm.Handler {
	return func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
		svc := tui.Services{
			Analyzer: analyzer,
			Defaults: tui.Defaults{Ticker: cfg.DefaultTicker, Years: cfg.DefaultYears, Mode: cfg.DefaultMode},
		}
		if user := s.User(); user != "" {
			svc.Identity = &domain.Identity{ID: "ssh:" + user}
		}

		m := tui.NewAppModel(svc)
		if pty, _, ok := s.Pty(); ok {
			m.SetSize(pty.Window.Width, pty.Window.Height)
		}
		return m, []tea.ProgramOption{tea.WithAltScreen()}
	}
}
