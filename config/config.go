package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// DefaultJWTSecret is the development fallback signing secret. It is
// unsafe for any production deployment; LoadConfig flags its use.
const DefaultJWTSecret = "voxai-secret-key-change-in-production"

// Backend selector values for storage and message-queue sections.
const (
	BackendMinio    = "minio"
	BackendGCS      = "gcs"
	BackendRabbitMQ = "rabbitmq"
	BackendPubSub   = "pubsub"
	BackendNone     = "none"
)

// Config is the immutable process configuration, built once at startup
// and passed by value into every component.
type Config struct {
	ServerPort int
	Database   DatabaseConfig

	// JWTSecret signs session tokens. Falls back to DefaultJWTSecret
	// when JWT_SECRET is unset.
	JWTSecret string
	// JWTSecretIsDefault is true when the fallback secret is in use.
	JWTSecretIsDefault bool

	Gateway GatewayConfig

	StorageBackend string
	Minio          MinioConfig
	GCS            GCSConfig

	MQBackend string
	RabbitMQ  RabbitMQConfig
	PubSub    PubSubConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

// GatewayConfig points at the OpenAI-compatible chat-completions
// service used by the voice-chat proxy.
type GatewayConfig struct {
	// BaseURL is the gateway root, e.g. "https://api.openai.com".
	BaseURL string
	// APIKey authorizes gateway calls. When empty the proxy answers
	// with a canned echo reply instead of calling out.
	APIKey string
	// Model is the chat model requested from the gateway.
	Model string
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type GCSConfig struct {
	ProjectID       string
	Bucket          string
	CredentialsFile string
}

type RabbitMQConfig struct {
	URL             string
	QueueDurable    bool
	QueueAutoDelete bool
}

type PubSubConfig struct {
	ProjectID       string
	CredentialsFile string
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	jwtSecret := getEnv("JWT_SECRET", "")
	jwtIsDefault := jwtSecret == ""
	if jwtIsDefault {
		jwtSecret = DefaultJWTSecret
	}

	return Config{
		ServerPort: getEnvInt("SERVER_PORT", 8080),
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "voxai"),
			Password: getEnv("DB_PASSWORD", "password"),
			DBName:   getEnv("DB_NAME", "voxai_db"),
			UseSSL:   getEnvBool("DB_USE_SSL", false),
		},
		JWTSecret:          jwtSecret,
		JWTSecretIsDefault: jwtIsDefault,
		Gateway: GatewayConfig{
			BaseURL: getEnv("AI_GATEWAY_URL", "https://api.openai.com"),
			APIKey:  getEnv("AI_GATEWAY_API_KEY", ""),
			Model:   getEnv("AI_GATEWAY_MODEL", "gpt-3.5-turbo"),
		},
		StorageBackend: getEnv("STORAGE_BACKEND", BackendNone),
		Minio: MinioConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "voxai-recordings"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		GCS: GCSConfig{
			ProjectID:       getEnv("GCS_PROJECT_ID", ""),
			Bucket:          getEnv("GCS_BUCKET", ""),
			CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
		},
		MQBackend: getEnv("MQ_BACKEND", BackendNone),
		RabbitMQ: RabbitMQConfig{
			URL:             getEnv("RABBITMQ_URL", ""),
			QueueDurable:    getEnvBool("RABBITMQ_QUEUE_DURABLE", true),
			QueueAutoDelete: getEnvBool("RABBITMQ_QUEUE_AUTO_DELETE", false),
		},
		PubSub: PubSubConfig{
			ProjectID:       getEnv("PUBSUB_PROJECT_ID", ""),
			CredentialsFile: getEnv("PUBSUB_CREDENTIALS_FILE", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		return valueStr == "1" || valueStr == "true" || valueStr == "yes"
	}
	return defaultValue
}
