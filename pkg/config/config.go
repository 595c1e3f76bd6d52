package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Storage  StorageConfig
	LiveKit  LiveKitConfig
	Host     HostConfig
	Groq     GroqConfig
	Session  SessionConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string   `envconfig:"PORT" default:"8080"`
	Host            string   `envconfig:"HOST" default:"0.0.0.0"`
	Environment     string   `envconfig:"ENVIRONMENT" default:"development"`
	AllowedOrigins  []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	ShutdownTimeout int      `envconfig:"SHUTDOWN_TIMEOUT" default:"10"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host        string `envconfig:"DB_HOST" default:"localhost"`
	Port        string `envconfig:"DB_PORT" default:"5432"`
	User        string `envconfig:"DB_USER" default:"postgres"`
	Password    string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name        string `envconfig:"DB_NAME" default:"meeting_session"`
	SSLMode     string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns    int    `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns    int    `envconfig:"DB_MIN_CONNS" default:"5"`
	AutoMigrate bool   `envconfig:"DB_AUTO_MIGRATE" default:"true"`

	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnectTimeout  time.Duration `envconfig:"DB_CONNECT_TIMEOUT" default:"30s"`
	SlowQuery       time.Duration `envconfig:"DB_SLOW_QUERY" default:"200ms"`
}

// RedisConfig holds Redis configuration. An empty host selects the
// in-memory store.
type RedisConfig struct {
	Host     string        `envconfig:"REDIS_HOST"`
	Port     string        `envconfig:"REDIS_PORT" default:"6379"`
	Password string        `envconfig:"REDIS_PASSWORD"`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	TTL      time.Duration `envconfig:"REDIS_PREFERENCE_TTL" default:"720h"`
}

// StorageConfig holds storage configuration for the record archive.
// Archiving is disabled when Endpoint is empty.
type StorageConfig struct {
	Endpoint        string `envconfig:"STORAGE_ENDPOINT"`
	AccessKeyID     string `envconfig:"STORAGE_ACCESS_KEY" default:"minioadmin"`
	SecretAccessKey string `envconfig:"STORAGE_SECRET_KEY" default:"minioadmin"`
	BucketName      string `envconfig:"STORAGE_BUCKET" default:"meeting-records"`
	UseSSL          bool   `envconfig:"STORAGE_USE_SSL" default:"false"`
	PublicURL       string `envconfig:"STORAGE_PUBLIC_URL"`
}

// LiveKitConfig holds LiveKit configuration
type LiveKitConfig struct {
	URL       string `envconfig:"LIVEKIT_URL" default:"ws://localhost:7880"`
	APIKey    string `envconfig:"LIVEKIT_API_KEY"`
	APISecret string `envconfig:"LIVEKIT_API_SECRET"`
	Room      string `envconfig:"LIVEKIT_ROOM"`
	AgentName string `envconfig:"LIVEKIT_AGENT_NAME"`

	TokenTTL         time.Duration `envconfig:"LIVEKIT_TOKEN_TTL" default:"24h"`
	MaxParticipants  uint32        `envconfig:"LIVEKIT_MAX_PARTICIPANTS" default:"10"`
	EmptyTimeout     time.Duration `envconfig:"LIVEKIT_EMPTY_TIMEOUT" default:"5m"`
	DepartureTimeout time.Duration `envconfig:"LIVEKIT_DEPARTURE_TIMEOUT" default:"30s"`
}

// HostConfig holds the host-process bridge configuration. The bridge is
// unavailable when URL is empty.
type HostConfig struct {
	URL          string        `envconfig:"HOST_BRIDGE_URL"`
	Secret       string        `envconfig:"HOST_BRIDGE_SECRET"`
	DialTimeout  time.Duration `envconfig:"HOST_BRIDGE_DIAL_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HOST_BRIDGE_WRITE_TIMEOUT" default:"5s"`
}

// GroqConfig holds Groq configuration. Summaries are skipped when APIKey is empty.
type GroqConfig struct {
	APIKey      string        `envconfig:"GROQ_API_KEY"`
	BaseURL     string        `envconfig:"GROQ_BASE_URL" default:"https://api.groq.com/openai/v1"`
	Model       string        `envconfig:"GROQ_MODEL" default:"llama-3.3-70b-versatile"`
	Temperature float64       `envconfig:"GROQ_TEMPERATURE" default:"0.2"`
	MaxTokens   int           `envconfig:"GROQ_MAX_TOKENS" default:"1024"`
	Timeout     time.Duration `envconfig:"GROQ_TIMEOUT" default:"60s"`
}

// SessionConfig holds the settings of the local participant and the session loop
type SessionConfig struct {
	UserID              string        `envconfig:"SESSION_USER_ID"`
	DisplayName         string        `envconfig:"SESSION_DISPLAY_NAME"`
	LanguageTag         string        `envconfig:"SESSION_LANGUAGE" default:"ja"`
	Title               string        `envconfig:"SESSION_TITLE"`
	StartWithMicrophone bool          `envconfig:"SESSION_START_MIC" default:"true"`
	StartWithCamera     bool          `envconfig:"SESSION_START_CAMERA" default:"false"`
	CallTimeout         time.Duration `envconfig:"SESSION_CALL_TIMEOUT" default:"15s"`
	RecordTimeout       time.Duration `envconfig:"SESSION_RECORD_TIMEOUT" default:"2m"`
	RetryMaxAttempts    uint64        `envconfig:"SESSION_RECORD_RETRIES" default:"5"`
	DevRoot             string        `envconfig:"SESSION_DEV_ROOT" default:"/"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	config := &Config{}
	sections := map[string]interface{}{
		"server":   &config.Server,
		"database": &config.Database,
		"redis":    &config.Redis,
		"storage":  &config.Storage,
		"livekit":  &config.LiveKit,
		"host":     &config.Host,
		"groq":     &config.Groq,
		"session":  &config.Session,
	}
	if err := load(sections); err != nil {
		return nil, err
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadDatabase loads only the server and database sections, for tools that
// never join a room
func LoadDatabase() (*Config, error) {
	config := &Config{}
	if err := load(map[string]interface{}{
		"server":   &config.Server,
		"database": &config.Database,
	}); err != nil {
		return nil, err
	}
	return config, nil
}

func load(sections map[string]interface{}) error {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	// Sections are decoded one by one so the variables keep their flat names
	for name, section := range sections {
		if err := envconfig.Process("", section); err != nil {
			return fmt.Errorf("failed to load %s config: %w", name, err)
		}
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.LiveKit.APIKey == "" {
		return fmt.Errorf("LIVEKIT_API_KEY is required")
	}
	if c.LiveKit.APISecret == "" {
		return fmt.Errorf("LIVEKIT_API_SECRET is required")
	}
	if c.LiveKit.Room == "" {
		return fmt.Errorf("LIVEKIT_ROOM is required")
	}
	if c.Session.UserID == "" {
		return fmt.Errorf("SESSION_USER_ID is required")
	}
	if c.Session.LanguageTag != "ja" && c.Session.LanguageTag != "ko" {
		return fmt.Errorf("SESSION_LANGUAGE must be ja or ko, got %q", c.Session.LanguageTag)
	}
	if c.Host.URL != "" && c.Host.Secret == "" {
		return fmt.Errorf("HOST_BRIDGE_SECRET is required when HOST_BRIDGE_URL is set")
	}
	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// IsDevelopment reports whether the server runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}
