package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port        string
	DatabaseURL string
	RedisURI    string

	// Upstream collaborator base URLs.
	AuthAPIURL    string
	SurveyAPIURL  string
	PaymentAPIURL string
	GatewayURL    string
	GatewayAppKey string

	// ServiceURL is this service's externally reachable base URL; the
	// gateway callback is built from it. FrontendURL is where the browser
	// lands after the callback is processed.
	ServiceURL     string
	FrontendURL    string
	AllowedOrigins []string

	// PaymentStateSecret signs the state token carried through the gateway
	// redirect. PaymentStateTTL bounds how long a redirect may take.
	PaymentStateSecret string
	PaymentStateTTL    time.Duration

	// RoutePolicyPath points at the YAML route classification file. Empty
	// means compiled-in defaults.
	RoutePolicyPath string

	// OpsUser / OpsPasswordHash guard the operational endpoints. The hash is
	// a bcrypt hash, never a plaintext password.
	OpsUser         string
	OpsPasswordHash string

	Environment string
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	cfg := Config{
		Port:               fallback(os.Getenv("PORT"), "5050"),
		DatabaseURL:        strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RedisURI:           fallback(os.Getenv("REDIS_URI"), "redis://localhost:6379/0"),
		AuthAPIURL:         fallback(os.Getenv("AUTH_API_URL"), "http://localhost:6001"),
		SurveyAPIURL:       fallback(os.Getenv("SURVEY_API_URL"), "http://localhost:6002"),
		PaymentAPIURL:      fallback(os.Getenv("PAYMENT_API_URL"), "http://localhost:6003"),
		GatewayURL:         fallback(os.Getenv("GATEWAY_URL"), "http://localhost:6004"),
		GatewayAppKey:      strings.TrimSpace(os.Getenv("GATEWAY_APP_KEY")),
		ServiceURL:         fallback(os.Getenv("SERVICE_URL"), "http://localhost:5050"),
		FrontendURL:        fallback(os.Getenv("FRONTEND_URL"), "http://localhost:3000"),
		AllowedOrigins:     parseCSV(fallback(os.Getenv("ALLOWED_ORIGINS"), "http://localhost:3000")),
		PaymentStateSecret: strings.TrimSpace(os.Getenv("PAYMENT_STATE_SECRET")),
		PaymentStateTTL:    30 * time.Minute,
		RoutePolicyPath:    strings.TrimSpace(os.Getenv("ROUTE_POLICY_PATH")),
		OpsUser:            fallback(os.Getenv("OPS_USER"), "ops"),
		OpsPasswordHash:    strings.TrimSpace(os.Getenv("OPS_PASSWORD_HASH")),
		Environment:        strings.ToLower(fallback(os.Getenv("ENV"), "development")),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required")
	}
	if cfg.PaymentStateSecret == "" {
		return Config{}, errors.New("PAYMENT_STATE_SECRET is required")
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf("0.0.0.0:%s", c.Port)
}

// IsProduction reports whether ENV is set to "production".
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func parseCSV(input string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
