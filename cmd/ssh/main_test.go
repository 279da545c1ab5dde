package main

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"engineer-alpha/internal/analysis"
	"engineer-alpha/internal/config"
	"engineer-alpha/internal/domain"
	"engineer-alpha/internal/tui"

	"github.com/charmbracelet/ssh"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

type stubSession struct {
	ssh.Session
	user string
	pty  *ssh.Pty
}

func (s stubSession) User() string { return s.user }

func (s stubSession) Pty() (ssh.Pty, <-chan ssh.Window, bool) {
	if s.pty == nil {
		return ssh.Pty{}, nil, false
	}
	return *s.pty, nil, true
}

func testConfig() *config.Config {
	return &config.Config{
		SSHBind:        "127.0.0.1",
		SSHPort:        0,
		SSHHostKeyPath: "",
		DefaultTicker:  "COIN",
		DefaultYears:   5,
		DefaultMode:    domain.ModeAggressive,
	}
}

func TestSessionHandlerTagsIdentity(t *testing.T) {
	handler := sessionHandler(testConfig(), nil)

	model, opts := handler(stubSession{user: "alice", pty: &ssh.Pty{Window: ssh.Window{Width: 100, Height: 30}}})
	if len(opts) == 0 {
		t.Fatal("expected program options")
	}
	app, ok := model.(tui.AppModel)
	if !ok {
		t.Fatalf("expected tui.AppModel, got %T", model)
	}
	if id := app.Session().Identity(); id == nil || id.ID != "ssh:alice" {
		t.Fatalf("unexpected identity %+v", id)
	}
	view := app.View()
	if !strings.Contains(view, "ssh:alice") || !strings.Contains(view, "COIN") {
		t.Fatalf("expected user and default ticker in view, got:\n%s", view)
	}
}

func TestSessionHandlerSeparateSessions(t *testing.T) {
	handler := sessionHandler(testConfig(), nil)

	a, _ := handler(stubSession{user: "a"})
	b, _ := handler(stubSession{user: ""})
	if a.(tui.AppModel).Session() == b.(tui.AppModel).Session() {
		t.Fatal("expected one analysis session per connection")
	}
	if b.(tui.AppModel).Session().Identity() != nil {
		t.Fatal("expected anonymous session without a user")
	}
}

func TestMainSSHBootstrap(t *testing.T) {
	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origInitTracer := initTracerFunc
	origNewClient := newAnalysisClientFn
	origNewServer := newSSHServerFunc
	origStart := startSSHServerFunc
	origShutdown := shutdownSSHServerFn
	origNotify := setupSignalNotify
	origWait := waitForSignalFunc
	defer func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		initTracerFunc = origInitTracer
		newAnalysisClientFn = origNewClient
		newSSHServerFunc = origNewServer
		startSSHServerFunc = origStart
		shutdownSSHServerFn = origShutdown
		setupSignalNotify = origNotify
		waitForSignalFunc = origWait
	}()

	started := make(chan struct{})
	shutdown := false
	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = testConfig
	initTracerFunc = func(ctx context.Context) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	newAnalysisClientFn = func(trace.Tracer, *config.Config) analysis.Analyzer { return nil }
	newSSHServerFunc = func(*config.Config, analysis.Analyzer) (*ssh.Server, error) {
		return &ssh.Server{Addr: "127.0.0.1:0"}, nil
	}
	startSSHServerFunc = func(*ssh.Server) error {
		close(started)
		return ssh.ErrServerClosed
	}
	shutdownSSHServerFn = func(*ssh.Server, context.Context) error {
		shutdown = true
		return nil
	}
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) {
		select {
		case <-started:
		case <-time.After(time.Second):
		}
	}

	main()

	if !shutdown {
		t.Fatal("expected ssh server to be shut down")
	}
}
