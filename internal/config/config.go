package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"engineer-alpha/internal/domain"
)

type Config struct {
	AnalysisAPIURL      string
	AnalysisTimeoutSecs int

	RedisURL        string
	RateLimitPerMin int
	AllowedOrigins  []string
	HTTPPort        int

	SSHBind        string
	SSHPort        int
	SSHHostKeyPath string

	TelegramBotToken string

	MCPTransport          string
	MCPHTTPEnabled        bool
	MCPHTTPBind           string
	MCPHTTPPort           int
	MCPAuthToken          string
	MCPRequestTimeoutSecs int
	MCPRateLimitPerMin    int

	DefaultTicker string
	DefaultYears  int
	DefaultMode   domain.InvestmentMode
}

func Load() *Config {
	cfg := &Config{
		AnalysisAPIURL:   strings.TrimSpace(os.Getenv("ANALYSIS_API_URL")),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		RedisURL:         os.Getenv("REDIS_URL"),
		MCPAuthToken:     os.Getenv("MCP_AUTH_TOKEN"),
	}

	if cfg.AnalysisAPIURL == "" {
		log.Println("Warning: ANALYSIS_API_URL not set, defaulting to http://localhost:8000")
		cfg.AnalysisAPIURL = "http://localhost:8000"
	}
	cfg.AnalysisAPIURL = strings.TrimRight(cfg.AnalysisAPIURL, "/")

	cfg.AnalysisTimeoutSecs = 30
	if v := strings.TrimSpace(os.Getenv("ANALYSIS_TIMEOUT_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.AnalysisTimeoutSecs = n
		}
	}

	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}

	cfg.RateLimitPerMin = 30
	if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_PER_MIN")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RateLimitPerMin = n
		}
	}

	cfg.AllowedOrigins = parseOrigins(os.Getenv("ALLOWED_ORIGINS"))

	cfg.HTTPPort = 8080
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		if n, err := strconv.Atoi(strings.TrimPrefix(v, ":")); err == nil && n > 0 {
			cfg.HTTPPort = n
		}
	}

	cfg.SSHBind = strings.TrimSpace(os.Getenv("SSH_BIND"))
	if cfg.SSHBind == "" {
		cfg.SSHBind = "127.0.0.1"
	}

	cfg.SSHPort = 23234
	if v := strings.TrimSpace(os.Getenv("SSH_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SSHPort = n
		}
	}

	cfg.SSHHostKeyPath = strings.TrimSpace(os.Getenv("SSH_HOST_KEY_PATH"))
	if cfg.SSHHostKeyPath == "" {
		cfg.SSHHostKeyPath = ".ssh/id_ed25519"
	}

	cfg.MCPTransport = strings.ToLower(strings.TrimSpace(os.Getenv("MCP_TRANSPORT")))
	if cfg.MCPTransport == "" {
		cfg.MCPTransport = "stdio"
	}
	if cfg.MCPTransport != "stdio" && cfg.MCPTransport != "http" {
		log.Printf("Warning: unsupported MCP_TRANSPORT=%q, defaulting to stdio", cfg.MCPTransport)
		cfg.MCPTransport = "stdio"
	}

	cfg.MCPHTTPEnabled = strings.EqualFold(strings.TrimSpace(os.Getenv("MCP_HTTP_ENABLED")), "true")

	cfg.MCPHTTPBind = strings.TrimSpace(os.Getenv("MCP_HTTP_BIND"))
	if cfg.MCPHTTPBind == "" {
		cfg.MCPHTTPBind = "127.0.0.1"
	}

	cfg.MCPHTTPPort = 8090
	if v := strings.TrimSpace(os.Getenv("MCP_HTTP_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MCPHTTPPort = n
		}
	}

	// Analyses can take a while upstream, so the MCP default is longer than a plain lookup.
	cfg.MCPRequestTimeoutSecs = 45
	if v := strings.TrimSpace(os.Getenv("MCP_REQUEST_TIMEOUT_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MCPRequestTimeoutSecs = n
		}
	}

	cfg.MCPRateLimitPerMin = 60
	if v := strings.TrimSpace(os.Getenv("MCP_RATE_LIMIT_PER_MIN")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MCPRateLimitPerMin = n
		}
	}

	cfg.DefaultTicker = strings.ToUpper(strings.TrimSpace(os.Getenv("DEFAULT_TICKER")))
	if cfg.DefaultTicker == "" {
		cfg.DefaultTicker = "MSFT"
	}

	cfg.DefaultYears = domain.DefaultYears
	if v := strings.TrimSpace(os.Getenv("DEFAULT_YEARS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= domain.MinYears && n <= domain.MaxYears {
			cfg.DefaultYears = n
		}
	}

	cfg.DefaultMode = domain.DefaultMode
	if v := strings.TrimSpace(os.Getenv("DEFAULT_MODE")); v != "" {
		if mode, ok := domain.ParseInvestmentMode(v); ok {
			cfg.DefaultMode = mode
		} else {
			log.Printf("Warning: unsupported DEFAULT_MODE=%q, defaulting to %s", v, domain.DefaultMode)
		}
	}

	return cfg
}

func parseOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{"*"}
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		origin := strings.TrimRight(strings.TrimSpace(part), "/")
		if origin == "" {
			continue
		}
		if _, ok := seen[origin]; ok {
			continue
		}
		seen[origin] = struct{}{}
		out = append(out, origin)
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// AllowAllOrigins reports whether CORS should accept any origin.
func (c *Config) AllowAllOrigins() bool {
	for _, o := range c.AllowedOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}
