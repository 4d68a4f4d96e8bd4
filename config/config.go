package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"

	StorageMemory = "memory"
	StorageMinio  = "minio"
	StorageGCS    = "gcs"

	EventsMemory   = "memory"
	EventsRabbitMQ = "rabbitmq"
	EventsPubSub   = "pubsub"
)

type Config struct {
	LogLevel    string
	ServerPort  int
	PublicURL   string
	StoreDriver string
	SQLitePath  string
	Database    DatabaseConfig
	Storage     StorageConfig
	Events      EventsConfig
	Client      ClientConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

type StorageConfig struct {
	Backend string
	Minio   MinioConfig
	GCS     GCSConfig
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type GCSConfig struct {
	Bucket          string
	ProjectID       string
	CredentialsFile string
}

type EventsConfig struct {
	Backend  string
	Channel  string
	RabbitMQ RabbitMQConfig
	PubSub   PubSubConfig
}

type RabbitMQConfig struct {
	URL             string
	QueueDurable    bool
	QueueAutoDelete bool
	PrefetchCount   int
}

type PubSubConfig struct {
	ProjectID          string
	CredentialsFile    string
	SubscriptionSuffix string
}

// ClientConfig holds the settings of the form screens.
type ClientConfig struct {
	APIURL  string
	Timeout time.Duration
	// Endpoints is keyed by collection name.
	Endpoints map[string]EndpointConfig
}

// EndpointConfig locates the records API of one screen.
type EndpointConfig struct {
	BaseURL  string
	ListPath string
}

// Endpoint returns the endpoint configured for the named collection.
func (c ClientConfig) Endpoint(name string) (EndpointConfig, bool) {
	ep, ok := c.Endpoints[name]
	return ep, ok
}

// WithAPIURL returns a copy of the client config whose endpoints point at
// apiURL. Endpoints overridden through their own variables are kept.
func (c ClientConfig) WithAPIURL(apiURL string) ClientConfig {
	out := ClientConfig{
		APIURL:    strings.TrimRight(apiURL, "/"),
		Timeout:   c.Timeout,
		Endpoints: make(map[string]EndpointConfig, len(c.Endpoints)),
	}
	for name, ep := range c.Endpoints {
		if strings.HasPrefix(ep.BaseURL, c.APIURL+"/") {
			ep.BaseURL = out.APIURL + strings.TrimPrefix(ep.BaseURL, c.APIURL)
		}
		out.Endpoints[name] = ep
	}
	return out
}

// endpointEnv maps collection names to their environment variable prefix
// and default API path segment.
var endpointEnv = []struct {
	name   string
	prefix string
	path   string
}{
	{name: "SingleImage", prefix: "SINGLE_IMAGE", path: "single"},
	{name: "MultipleImage", prefix: "MULTIPLE_IMAGE", path: "multiple"},
	{name: "MultipleImageContent", prefix: "MULTIPLE_IMAGE_CONTENT", path: "content"},
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	port := getEnvInt("SERVER_PORT", 8080)

	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "imageforms"),
		Password: getEnv("DB_PASSWORD", "password"),
		DBName:   getEnv("DB_NAME", "imageforms_db"),
		UseSSL:   getEnvBool("DB_SSL", false),
	}

	storageConfig := StorageConfig{
		Backend: strings.ToLower(getEnv("STORAGE_BACKEND", StorageMemory)),
		Minio: MinioConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "imageforms"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		GCS: GCSConfig{
			Bucket:          getEnv("GCS_BUCKET", ""),
			ProjectID:       getEnv("GCS_PROJECT_ID", ""),
			CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
		},
	}

	eventsConfig := EventsConfig{
		Backend: strings.ToLower(getEnv("EVENTS_BACKEND", "")),
		Channel: getEnv("EVENTS_CHANNEL", "imageforms.records"),
		RabbitMQ: RabbitMQConfig{
			URL:             getEnv("RABBITMQ_URL", ""),
			QueueDurable:    getEnvBool("RABBITMQ_QUEUE_DURABLE", true),
			QueueAutoDelete: getEnvBool("RABBITMQ_QUEUE_AUTO_DELETE", false),
			PrefetchCount:   getEnvInt("RABBITMQ_PREFETCH", 0),
		},
		PubSub: PubSubConfig{
			ProjectID:          getEnv("PUBSUB_PROJECT_ID", ""),
			CredentialsFile:    getEnv("PUBSUB_CREDENTIALS_FILE", ""),
			SubscriptionSuffix: getEnv("PUBSUB_SUBSCRIPTION_SUFFIX", "-sub"),
		},
	}

	return Config{
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		ServerPort:  port,
		PublicURL:   strings.TrimRight(getEnv("PUBLIC_URL", fmt.Sprintf("http://localhost:%d", port)), "/"),
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", StoreMemory)),
		SQLitePath:  getEnv("SQLITE_PATH", "imageforms.db"),
		Database:    dbConfig,
		Storage:     storageConfig,
		Events:      eventsConfig,
		Client:      loadClientConfig(),
	}
}

func loadClientConfig() ClientConfig {
	apiURL := strings.TrimRight(getEnv("API_URL", "http://localhost:8080"), "/")

	endpoints := make(map[string]EndpointConfig, len(endpointEnv))
	for _, e := range endpointEnv {
		endpoints[e.name] = EndpointConfig{
			BaseURL:  strings.TrimRight(getEnv(e.prefix+"_URL", apiURL+"/api/"+e.path), "/"),
			ListPath: getEnv(e.prefix+"_LIST_PATH", ""),
		}
	}

	return ClientConfig{
		APIURL:    apiURL,
		Timeout:   getEnvDuration("HTTP_TIMEOUT", 30*time.Second),
		Endpoints: endpoints,
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
		value, err := strconv.ParseBool(strings.TrimSpace(valueStr))
		if err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(key); exists {
		value, err := time.ParseDuration(strings.TrimSpace(valueStr))
		if err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}
