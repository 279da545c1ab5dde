package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"engineer-alpha/internal/analysis"
	"engineer-alpha/internal/bot"
	"engineer-alpha/internal/cache"
	"engineer-alpha/internal/config"
	"engineer-alpha/internal/handler"
	"engineer-alpha/internal/provider"
	"engineer-alpha/pkg/tracing"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	_ "engineer-alpha/docs"
)

var (
	loadEnvFunc         = godotenv.Load
	loadConfigFunc      = config.Load
	initRedisFunc       = cache.InitRedis
	initTracerFunc      = tracing.InitTracer
	newAnalysisClientFn = func(tracer trace.Tracer, cfg *config.Config) analysis.Analyzer {
		return provider.NewAnalysisClient(tracer, cfg.AnalysisAPIURL,
			provider.WithTimeout(time.Duration(cfg.AnalysisTimeoutSecs)*time.Second))
	}
	startTelegramBotFunc   = bot.StartTelegramBot
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = ossignal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Engineer Alpha API
// @version         1.0
// @description     Buy-zone analysis gateway in front of the analysis service.

// @host      localhost:8080
// @BasePath  /
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	os.Setenv("REDIS_URL", cfg.RedisURL)
	initRedisFunc(ctx)

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
	limiter := cache.NewRateLimiter(cache.Client, cfg.RateLimitPerMin)

	os.Setenv("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	startTelegramBotFunc(analyzer, bot.Defaults{Years: cfg.DefaultYears, Mode: cfg.DefaultMode})

	h := newHandlerFunc(tracer, analyzer, limiter).WithDefaultYears(cfg.DefaultYears)

	r := newRouterFunc()
	r.Use(otelgin.Middleware(tracing.ServiceName()))
	r.Use(cors.New(corsConfig(cfg)))

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    httpAddr(cfg),
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()
	log.Printf("Gateway listening on %s (analysis service %s)", srv.Addr, cfg.AnalysisAPIURL)

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}

func httpAddr(cfg *config.Config) string {
	port := cfg.HTTPPort
	if port <= 0 {
		port = 8080
	}
	return fmt.Sprintf(":%d", port)
}

func corsConfig(cfg *config.Config) cors.Config {
	c := cors.DefaultConfig()
	c.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	c.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-User-ID"}
	if cfg.AllowAllOrigins() || len(cfg.AllowedOrigins) == 0 {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = cfg.AllowedOrigins
	return c
}
