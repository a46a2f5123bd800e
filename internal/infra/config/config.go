package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr         string `env:"HTTP_ADDR"           envDefault:":5000"`
	RateLimitPerHour int    `env:"RATE_LIMIT_PER_HOUR" envDefault:"50"`
	MaxUploadMB      int64  `env:"MAX_UPLOAD_MB"       envDefault:"512"`
	SettingsPath     string `env:"SETTINGS_PATH"       envDefault:"data/settings.json"`

	OutputRoot string `env:"OUTPUT_ROOT" envDefault:"output"`
	UploadDir  string `env:"UPLOAD_DIR"  envDefault:"uploads"`
	ZipDir     string `env:"ZIP_DIR"     envDefault:"zips"`

	ManifestTemplateURL string `env:"MANIFEST_TEMPLATE_URL" envDefault:"https://raw.githubusercontent.com/HEENAO9k/Sounds/main/manifest.json"`
	SoundBundleURL      string `env:"SOUND_BUNDLE_URL"      envDefault:"https://github.com/HEENAO9k/Sounds/raw/main/sounds.zip"`

	FetchTimeout              time.Duration `env:"FETCH_TIMEOUT"                 envDefault:"2m"`
	SoundBundleMaxMB          int64         `env:"SOUND_BUNDLE_MAX_MB"           envDefault:"256"`
	SoundBundleMaxExtractedMB int64         `env:"SOUND_BUNDLE_MAX_EXTRACTED_MB" envDefault:"1024"`

	FFmpegPath  string `env:"FFMPEG_PATH"  envDefault:"ffmpeg"`
	FFprobePath string `env:"FFPROBE_PATH" envDefault:"ffprobe"`
	MagickPath  string `env:"MAGICK_PATH"  envDefault:"magick"`
	YTDLPPath   string `env:"YTDLP_PATH"   envDefault:"yt-dlp"`

	// ToolConcurrency zero means runtime.NumCPU.
	ToolConcurrency       int           `env:"TOOL_CONCURRENCY"        envDefault:"0"`
	ToolTimeout           time.Duration `env:"TOOL_TIMEOUT"            envDefault:"10m"`
	MaxConcurrentSessions int           `env:"MAX_CONCURRENT_SESSIONS" envDefault:"3"`

	Retention       time.Duration `env:"RETENTION"        envDefault:"24h"`
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"1h"`

	RabbitMQURL             string `env:"RABBITMQ_URL"              envDefault:""`
	RabbitMQGenerationQueue string `env:"RABBITMQ_GENERATION_QUEUE" envDefault:"betmc.generation"`
	RabbitMQRoutingKey      string `env:"RABBITMQ_ROUTING_KEY"      envDefault:"betmc.generate"`
	RabbitMQStatusQueue     string `env:"RABBITMQ_STATUS_QUEUE"     envDefault:"betmc.status"`
	RabbitMQDLQ             string `env:"RABBITMQ_DLQ"              envDefault:"betmc.generation.dlq"`
	RabbitMQExchange        string `env:"RABBITMQ_EXCHANGE"         envDefault:"betmc"`
	RabbitMQPrefetch        int    `env:"RABBITMQ_PREFETCH"         envDefault:"3"`
	WorkerCount             int    `env:"WORKER_COUNT"              envDefault:"3"`

	MinIOEndpoint     string `env:"MINIO_ENDPOINT"      envDefault:""`
	MinIOAccessKey    string `env:"MINIO_ACCESS_KEY"    envDefault:"minioadmin"`
	MinIOSecretKey    string `env:"MINIO_SECRET_KEY"    envDefault:"minioadmin"`
	MinIOUseSSL       bool   `env:"MINIO_USE_SSL"       envDefault:"false"`
	MinIOUploadBucket string `env:"MINIO_UPLOAD_BUCKET" envDefault:"uploads"`
	MinIOZipBucket    string `env:"MINIO_ZIP_BUCKET"    envDefault:"zips"`

	// DatabaseURL empty keeps job records in memory.
	DatabaseURL string `env:"DATABASE_URL" envDefault:""`

	SMTPHost     string `env:"SMTP_HOST"     envDefault:""`
	SMTPPort     int    `env:"SMTP_PORT"     envDefault:"587"`
	SMTPFrom     string `env:"SMTP_FROM"     envDefault:"noreply@betmc.local"`
	SMTPUsername string `env:"SMTP_USERNAME" envDefault:""`
	SMTPPassword string `env:"SMTP_PASSWORD" envDefault:""`

	MetricsPort      int     `env:"METRICS_PORT"       envDefault:"8083"`
	JaegerEndpoint   string  `env:"JAEGER_ENDPOINT"    envDefault:""`
	TraceSampleRatio float64 `env:"TRACE_SAMPLE_RATIO" envDefault:"1"`
	LogLevel         string  `env:"LOG_LEVEL"          envDefault:"info"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
