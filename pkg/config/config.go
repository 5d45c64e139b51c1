package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Scheduler     SchedulerConfig
	Agent         AgentConfig
	Capture       CaptureConfig
	Storage       StorageConfig
	Transcription TranscriptionConfig
}

// ServerConfig holds the status API server configuration
type ServerConfig struct {
	Port            string
	Host            string
	Environment     string
	ShutdownTimeout int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host        string
	Port        string
	User        string
	Password    string
	Name        string
	SSLMode     string
	MaxConns    int
	MinConns    int
	AutoMigrate bool
}

// RedisConfig holds Redis configuration; when disabled the in-memory
// status store is used instead
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

// SchedulerConfig holds dispatch scheduler configuration
type SchedulerConfig struct {
	TickInterval       time.Duration
	LateWindow         time.Duration
	EarlyWindow        time.Duration
	MaxConcurrentTicks int
	DispatchTimeout    time.Duration
	RetryOnJoinFailure bool
}

// AgentConfig holds remote session agent configuration
type AgentConfig struct {
	Headless         bool
	WindowWidth      int
	WindowHeight     int
	PageLoadRetries  int
	PageLoadBackoff  time.Duration
	NameFieldTimeout time.Duration
	ControlTimeout   time.Duration
	EndPollInterval  time.Duration
}

// CaptureConfig holds capture supervisor configuration
type CaptureConfig struct {
	AudioDevice      string
	RecordingsDir    string
	ScreenshotsDir   string
	SnapshotInterval time.Duration
	StopTimeout      time.Duration
}

// StorageConfig holds object storage configuration
type StorageConfig struct {
	Enabled         bool
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	UseSSL          bool
	URLExpiry       time.Duration
}

// TranscriptionConfig holds downstream transcription hand-off configuration
type TranscriptionConfig struct {
	Enabled      bool
	APIKey       string
	BaseURL      string
	PollInterval time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Host:            getEnv("HOST", "0.0.0.0"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			ShutdownTimeout: getEnvAsInt("SHUTDOWN_TIMEOUT", 10),
		},
		Database: DatabaseConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnv("DB_PORT", "5432"),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			Name:        getEnv("DB_NAME", "meeting_capture"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			MaxConns:    getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:    getEnvAsInt("DB_MIN_CONNS", 5),
			AutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", false),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Scheduler: SchedulerConfig{
			TickInterval:       getEnvAsDuration("SCHEDULER_TICK_INTERVAL", "1m"),
			LateWindow:         getEnvAsDuration("SCHEDULER_LATE_WINDOW", "5m"),
			EarlyWindow:        getEnvAsDuration("SCHEDULER_EARLY_WINDOW", "1m"),
			MaxConcurrentTicks: getEnvAsInt("SCHEDULER_MAX_CONCURRENT_TICKS", 3),
			DispatchTimeout:    getEnvAsDuration("SCHEDULER_DISPATCH_TIMEOUT", "4h"),
			RetryOnJoinFailure: getEnvAsBool("SCHEDULER_RETRY_ON_JOIN_FAILURE", false),
		},
		Agent: AgentConfig{
			Headless:         getEnvAsBool("AGENT_HEADLESS", true),
			WindowWidth:      getEnvAsInt("AGENT_WINDOW_WIDTH", 1920),
			WindowHeight:     getEnvAsInt("AGENT_WINDOW_HEIGHT", 1080),
			PageLoadRetries:  getEnvAsInt("AGENT_PAGE_LOAD_RETRIES", 3),
			PageLoadBackoff:  getEnvAsDuration("AGENT_PAGE_LOAD_BACKOFF", "2s"),
			NameFieldTimeout: getEnvAsDuration("AGENT_NAME_FIELD_TIMEOUT", "30s"),
			ControlTimeout:   getEnvAsDuration("AGENT_CONTROL_TIMEOUT", "30s"),
			EndPollInterval:  getEnvAsDuration("AGENT_END_POLL_INTERVAL", "30s"),
		},
		Capture: CaptureConfig{
			AudioDevice:      getEnv("CAPTURE_AUDIO_DEVICE", "alsa_output.pci-0000_00_1f.3.analog-stereo.monitor"),
			RecordingsDir:    getEnv("CAPTURE_RECORDINGS_DIR", "media/recordings"),
			ScreenshotsDir:   getEnv("CAPTURE_SCREENSHOTS_DIR", "media/screenshots"),
			SnapshotInterval: getEnvAsDuration("CAPTURE_SNAPSHOT_INTERVAL", "30s"),
			StopTimeout:      getEnvAsDuration("CAPTURE_STOP_TIMEOUT", "15s"),
		},
		Storage: StorageConfig{
			Enabled:         getEnvAsBool("STORAGE_ENABLED", false),
			Endpoint:        getEnv("STORAGE_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getEnv("STORAGE_ACCESS_KEY", "minioadmin"),
			SecretAccessKey: getEnv("STORAGE_SECRET_KEY", "minioadmin"),
			BucketName:      getEnv("STORAGE_BUCKET", "meeting-capture"),
			UseSSL:          getEnvAsBool("STORAGE_USE_SSL", false),
			URLExpiry:       getEnvAsDuration("STORAGE_URL_EXPIRY", "24h"),
		},
		Transcription: TranscriptionConfig{
			Enabled:      getEnvAsBool("TRANSCRIPTION_ENABLED", false),
			APIKey:       getEnv("TRANSCRIPTION_API_KEY", ""),
			BaseURL:      getEnv("TRANSCRIPTION_BASE_URL", "https://api.assemblyai.com"),
			PollInterval: getEnvAsDuration("TRANSCRIPTION_POLL_INTERVAL", "30s"),
		},
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Scheduler.TickInterval <= 0 {
		return fmt.Errorf("SCHEDULER_TICK_INTERVAL must be positive")
	}
	if c.Scheduler.MaxConcurrentTicks < 1 {
		return fmt.Errorf("SCHEDULER_MAX_CONCURRENT_TICKS must be at least 1")
	}
	if c.Scheduler.LateWindow < 0 || c.Scheduler.EarlyWindow < 0 {
		return fmt.Errorf("scheduler windows must not be negative")
	}
	if c.Capture.SnapshotInterval <= 0 {
		return fmt.Errorf("CAPTURE_SNAPSHOT_INTERVAL must be positive")
	}
	if c.Transcription.Enabled && c.Transcription.APIKey == "" {
		return fmt.Errorf("TRANSCRIPTION_API_KEY is required when transcription is enabled")
	}
	if c.Transcription.Enabled && !c.Storage.Enabled {
		return fmt.Errorf("STORAGE_ENABLED is required when transcription is enabled")
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

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}
