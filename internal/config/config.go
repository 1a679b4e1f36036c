package config

import (
	"strings"
	"time"

	"github.com/SeakMengs/AutoCard/internal/env"
	"github.com/SeakMengs/AutoCard/pkg/autocard"
)

type Config struct {
	Port        string
	ENV         string
	RateLimiter RateLimiterConfig
	Minio       MinioConfig
	Upstream    UpstreamConfig
	Render      RenderConfig
	Editor      EditorConfig
	// How long in-flight requests may run after a shutdown signal
	ShutdownTimeout time.Duration
}

type RateLimiterConfig struct {
	RequestsPerTimeFrame int
	TimeFrame            time.Duration
	Enabled              bool
}

type MinioConfig struct {
	ENDPOINT   string
	ACCESS_KEY string
	SECRET_KEY string
	BUCKET     string
	USE_SSL    bool
	// How long presigned download links of batch artifacts stay valid
	PresignExpiry time.Duration
}

// UpstreamConfig points at the school platform API that owns templates,
// students and certificates.
type UpstreamConfig struct {
	BaseURL string
	Timeout time.Duration
}

type QRProvider string

const (
	QRProviderLocal  QRProvider = "local"
	QRProviderRemote QRProvider = "remote"
)

type RenderConfig struct {
	FontMetadataPath string
	FontDir          string
	QRProvider       QRProvider
	QRServiceURL     string
	// Zero lets the batch generator pick from GOMAXPROCS
	BatchWorkers int
	TempDir      string
	// Hosts besides the upstream API that request-supplied image URLs may point at
	AssetHosts []string
}

type EditorConfig struct {
	SessionTTL time.Duration
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.ENV, "production")
}

func GetConfig() Config {
	qrProvider := QRProvider(strings.ToLower(env.GetString("QR_PROVIDER", string(QRProviderLocal))))
	if qrProvider != QRProviderRemote {
		qrProvider = QRProviderLocal
	}

	return Config{
		Port:            env.GetString("PORT", "8080"),
		ENV:             env.GetString("ENV", "development"),
		ShutdownTimeout: env.GetDuration("SHUTDOWN_TIMEOUT", 2*time.Minute),
		// By default if not specified, we allow 5000 requests per minute on all routes
		RateLimiter: RateLimiterConfig{
			RequestsPerTimeFrame: env.GetInt("RATE_LIMIT_REQUESTS_PER_TIME_FRAME", 5000),
			TimeFrame:            env.GetDuration("RATE_LIMIT_TIME_FRAME", time.Minute),
			Enabled:              env.GetBool("RATE_LIMIT_ENABLED", true),
		},
		Minio: MinioConfig{
			ENDPOINT:      env.GetString("MINIO_ENDPOINT", "127.0.0.1:9000"),
			ACCESS_KEY:    env.GetString("MINIO_ACCESS_KEY", ""),
			SECRET_KEY:    env.GetString("MINIO_SECRET_KEY", ""),
			BUCKET:        env.GetString("MINIO_BUCKET", "autocard"),
			USE_SSL:       env.GetBool("MINIO_USE_SSL", false),
			PresignExpiry: env.GetDuration("MINIO_PRESIGN_EXPIRY", time.Hour),
		},
		Upstream: UpstreamConfig{
			BaseURL: strings.TrimRight(env.GetString("UPSTREAM_BASE_URL", "http://localhost:8000"), "/"),
			Timeout: env.GetDuration("UPSTREAM_TIMEOUT", 15*time.Second),
		},
		Render: RenderConfig{
			FontMetadataPath: env.GetString("FONT_METADATA_PATH", "font_metadata.json"),
			FontDir:          env.GetString("FONT_DIR", ""),
			QRProvider:       qrProvider,
			QRServiceURL:     env.GetString("QR_SERVICE_URL", autocard.DefaultQRServiceURL),
			BatchWorkers:     env.GetInt("BATCH_WORKERS", 0),
			TempDir:          env.GetString("RENDER_TEMP_DIR", ""),
			AssetHosts:       env.GetStringSlice("ASSET_ALLOWED_HOSTS", nil),
		},
		Editor: EditorConfig{
			SessionTTL: env.GetDuration("EDITOR_SESSION_TTL", 30*time.Minute),
		},
	}
}
