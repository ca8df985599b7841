package config

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Env            string        `env:"ENV, default=prod"`
	ServerPort     int           `env:"SERVER_PORT, default=8080"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT, default=15s"`
	DebugErrors    bool          `env:"DEBUG_ERRORS, default=false"`
	MigrationsPath string        `env:"MIGRATIONS_PATH, default=internal/db/migrations"`

	Database DatabaseConfig
	Auth     AuthConfig
	CORS     CORSConfig
	Log      LogConfig
	Events   EventsConfig
	RabbitMQ RabbitMQConfig
	PubSub   PubSubConfig
	Storage  StorageConfig
	Minio    MinioConfig
	GCS      GCSConfig
}

type DatabaseConfig struct {
	Host     string `env:"DB_HOST, default=localhost"`
	Port     int    `env:"DB_PORT, default=5432"`
	User     string `env:"DB_USER, default=pennywise"`
	Password string `env:"DB_PASSWORD, default=password"`
	DBName   string `env:"DB_NAME, default=pennywise_db"`
	UseSSL   bool   `env:"DB_USE_SSL, default=false"`
}

type AuthConfig struct {
	JWTSecret  string        `env:"JWT_SECRET"`
	AccessTTL  time.Duration `env:"JWT_ACCESS_TTL, default=1h"`
	RefreshTTL time.Duration `env:"JWT_REFRESH_TTL, default=720h"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS, default=http://localhost:3000"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL, default=info"`
	Pretty bool   `env:"LOG_PRETTY, default=false"`
}

// EventsConfig selects the broker used for ledger change events.
// Backend is one of "none", "rabbitmq" or "pubsub".
type EventsConfig struct {
	Backend string `env:"EVENTS_BACKEND, default=none"`
	Channel string `env:"EVENTS_CHANNEL, default=ledger.events"`
}

type RabbitMQConfig struct {
	URL             string `env:"RABBITMQ_URL"`
	PrefetchCount   int    `env:"RABBITMQ_PREFETCH, default=10"`
	QueueDurable    bool   `env:"RABBITMQ_QUEUE_DURABLE, default=true"`
	QueueAutoDelete bool   `env:"RABBITMQ_QUEUE_AUTO_DELETE, default=false"`
}

type PubSubConfig struct {
	ProjectID          string `env:"PUBSUB_PROJECT_ID"`
	CredentialsFile    string `env:"PUBSUB_CREDENTIALS_FILE"`
	SubscriptionSuffix string `env:"PUBSUB_SUBSCRIPTION_SUFFIX, default=-sub"`
}

// StorageConfig selects the object store used for statement exports.
// Backend is one of "none", "minio" or "gcs".
type StorageConfig struct {
	Backend string `env:"STORAGE_BACKEND, default=none"`
}

type MinioConfig struct {
	Endpoint  string `env:"MINIO_ENDPOINT"`
	AccessKey string `env:"MINIO_ACCESS_KEY"`
	SecretKey string `env:"MINIO_SECRET_KEY"`
	Bucket    string `env:"MINIO_BUCKET, default=statements"`
	UseSSL    bool   `env:"MINIO_USE_SSL, default=false"`
}

type GCSConfig struct {
	Bucket          string `env:"GCS_BUCKET"`
	ProjectID       string `env:"GCS_PROJECT_ID"`
	CredentialsFile string `env:"GCS_CREDENTIALS_FILE"`
}

func LoadConfig() (Config, error) {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
