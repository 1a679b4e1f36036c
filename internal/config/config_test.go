package config

import (
	"testing"
	"time"

	"github.com/SeakMengs/AutoCard/pkg/autocard"
)

func TestGetConfigDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "QR_PROVIDER", "QR_SERVICE_URL", "EDITOR_SESSION_TTL", "UPSTREAM_BASE_URL", "RATE_LIMIT_TIME_FRAME", "SHUTDOWN_TIMEOUT"} {
		t.Setenv(key, "")
	}
	// t.Setenv cannot unset, empty values fall through to the parsers
	t.Setenv("PORT", "8080")
	t.Setenv("ENV", "development")
	t.Setenv("QR_SERVICE_URL", autocard.DefaultQRServiceURL)
	t.Setenv("UPSTREAM_BASE_URL", "http://localhost:8000/")

	cfg := GetConfig()
	if cfg.IsProduction() {
		t.Errorf("IsProduction() = true for development")
	}
	if cfg.Render.QRProvider != QRProviderLocal {
		t.Errorf("QRProvider = %q, want local for an unknown value", cfg.Render.QRProvider)
	}
	if cfg.Editor.SessionTTL != 30*time.Minute {
		t.Errorf("SessionTTL = %v, want 30m", cfg.Editor.SessionTTL)
	}
	if cfg.ShutdownTimeout != 2*time.Minute {
		t.Errorf("ShutdownTimeout = %v, want 2m", cfg.ShutdownTimeout)
	}
	if cfg.RateLimiter.TimeFrame != time.Minute {
		t.Errorf("TimeFrame = %v, want 1m", cfg.RateLimiter.TimeFrame)
	}
	if cfg.Upstream.BaseURL != "http://localhost:8000" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", cfg.Upstream.BaseURL)
	}
}

func TestGetConfigOverrides(t *testing.T) {
	t.Setenv("ENV", "Production")
	t.Setenv("QR_PROVIDER", "REMOTE")
	t.Setenv("BATCH_WORKERS", "3")
	t.Setenv("EDITOR_SESSION_TTL", "5m")
	t.Setenv("SHUTDOWN_TIMEOUT", "45s")
	t.Setenv("ASSET_ALLOWED_HOSTS", "cdn.school.test, images.school.test")

	cfg := GetConfig()
	if !cfg.IsProduction() {
		t.Errorf("IsProduction() = false, want true")
	}
	if cfg.Render.QRProvider != QRProviderRemote {
		t.Errorf("QRProvider = %q, want remote", cfg.Render.QRProvider)
	}
	if cfg.Render.BatchWorkers != 3 {
		t.Errorf("BatchWorkers = %d, want 3", cfg.Render.BatchWorkers)
	}
	if cfg.ShutdownTimeout != 45*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 45s", cfg.ShutdownTimeout)
	}
	if cfg.Editor.SessionTTL != 5*time.Minute {
		t.Errorf("SessionTTL = %v, want 5m", cfg.Editor.SessionTTL)
	}
	if got := cfg.Render.AssetHosts; len(got) != 2 || got[0] != "cdn.school.test" || got[1] != "images.school.test" {
		t.Errorf("AssetHosts = %q", got)
	}
}
