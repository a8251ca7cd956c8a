package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadPortsByService(t *testing.T) {
	tests := []struct {
		service     string
		httpPort    string
		metricsPort string
	}{
		{"bet-service", "8083", "9099"},
		{"odds-service", "8080", "9095"},
		{"settlement-notifier", "", "9097"},
		{"api-gateway", "8000", "9094"},
		{"", "8080", "9095"},
	}
	for _, tt := range tests {
		t.Run(tt.service, func(t *testing.T) {
			t.Setenv("SERVICE_NAME", tt.service)
			cfg := Load()
			if cfg.HTTPPort != tt.httpPort || cfg.MetricsPort != tt.metricsPort {
				t.Errorf("ports = %q/%q, want %q/%q", cfg.HTTPPort, cfg.MetricsPort, tt.httpPort, tt.metricsPort)
			}
		})
	}
}

func TestLoadResolverDefaults(t *testing.T) {
	cfg := Load()
	if cfg.ResolveIntervalMinutes != 1 {
		t.Errorf("ResolveIntervalMinutes = %d, want 1", cfg.ResolveIntervalMinutes)
	}
	if !cfg.ResolverAutostart {
		t.Error("ResolverAutostart should default to true")
	}
	if cfg.ScoreboardCacheTTL != 30*time.Second {
		t.Errorf("ScoreboardCacheTTL = %v", cfg.ScoreboardCacheTTL)
	}
}

func TestLoadParsesTypedValues(t *testing.T) {
	t.Setenv("RESOLVE_INTERVAL_MINUTES", "5")
	t.Setenv("RESOLVER_AUTOSTART", "false")
	t.Setenv("SCOREBOARD_CACHE_TTL", "45")
	t.Setenv("RESOLVER_LOCK_TTL", "90s")

	cfg := Load()
	if cfg.ResolveIntervalMinutes != 5 {
		t.Errorf("ResolveIntervalMinutes = %d", cfg.ResolveIntervalMinutes)
	}
	if cfg.ResolverAutostart {
		t.Error("ResolverAutostart should be false")
	}
	if cfg.ScoreboardCacheTTL != 45*time.Second {
		t.Errorf("ScoreboardCacheTTL = %v", cfg.ScoreboardCacheTTL)
	}
	if cfg.ResolverLockTTL != 90*time.Second {
		t.Errorf("ResolverLockTTL = %v", cfg.ResolverLockTTL)
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("RESOLVE_INTERVAL_MINUTES", "soon")
	t.Setenv("RESOLVER_AUTOSTART", "maybe")
	cfg := Load()
	if cfg.ResolveIntervalMinutes != 1 || !cfg.ResolverAutostart {
		t.Errorf("invalid values should fall back to defaults, got %d/%v", cfg.ResolveIntervalMinutes, cfg.ResolverAutostart)
	}
}

func TestBrokers(t *testing.T) {
	cfg := Config{KafkaBrokers: "a:9092, b:9092,,"}
	if got, want := cfg.Brokers(), []string{"a:9092", "b:9092"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Brokers() = %v, want %v", got, want)
	}
}

func TestLoadAllowedOrigins(t *testing.T) {
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, https://bets.example.com")
	cfg := Load()
	want := []string{"http://localhost:3000", "https://bets.example.com"}
	if !reflect.DeepEqual(cfg.AllowedOrigins, want) {
		t.Errorf("AllowedOrigins = %v, want %v", cfg.AllowedOrigins, want)
	}
	if cfg.OddsTimezone != "UTC" {
		t.Errorf("OddsTimezone = %q", cfg.OddsTimezone)
	}
}
