package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config file location.
const ConfigPath = "config.yaml"

// Session and asset backend names accepted in configuration.
const (
	SessionBackendFile     = "file"
	SessionBackendMemory   = "memory"
	SessionBackendRedis    = "redis"
	SessionBackendPostgres = "postgres"

	AssetBackendDisk  = "disk"
	AssetBackendMinio = "minio"
)

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"logLevel"`

	GeminiAPIKey       string `yaml:"geminiAPIKey"`
	VisionModel        string `yaml:"visionModel"`
	ChatModel          string `yaml:"chatModel"`
	CallTimeoutSeconds int    `yaml:"callTimeoutSeconds"`

	SessionBackend string `yaml:"sessionBackend"`
	SessionFile    string `yaml:"sessionFile"`
	DatabaseURL    string `yaml:"databaseURL"`

	AssetBackend   string `yaml:"assetBackend"`
	AssetDir       string `yaml:"assetDir"`
	MinioEndpoint  string `yaml:"minioEndpoint"`
	MinioAccessKey string `yaml:"minioAccessKey"`
	MinioSecretKey string `yaml:"minioSecretKey"`
	MinioBucket    string `yaml:"minioBucket"`
	MinioUseSSL    bool   `yaml:"minioUseSSL"`

	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`

	MaxUploadBytes     int64    `yaml:"maxUploadBytes"`
	AllowedExtensions  []string `yaml:"allowedExtensions"`
	RateLimitPerMinute int      `yaml:"rateLimitPerMinute"`
}

// Load reads config from path (defaults to config.yaml).
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	// Override with environment variables
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.GeminiAPIKey = v
	}
	if v := os.Getenv("GEMINI_VISION_MODEL"); v != "" {
		cfg.VisionModel = v
	}
	if v := os.Getenv("GEMINI_CHAT_MODEL"); v != "" {
		cfg.ChatModel = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("CALL_TIMEOUT_SECONDS"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("parse CALL_TIMEOUT_SECONDS: %w", err)
		}
		cfg.CallTimeoutSeconds = seconds
	}
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyDefaults(cfg *FileConfig) {
	if cfg.VisionModel == "" {
		cfg.VisionModel = "gemini-2.0-flash"
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = "gemini-2.0-flash"
	}
	if cfg.SessionBackend == "" {
		cfg.SessionBackend = SessionBackendFile
	}
	if cfg.SessionFile == "" {
		cfg.SessionFile = "chat_history.json"
	}
	if cfg.AssetBackend == "" {
		cfg.AssetBackend = AssetBackendDisk
	}
	if cfg.AssetDir == "" {
		cfg.AssetDir = "images"
	}
	if cfg.CallTimeoutSeconds <= 0 {
		cfg.CallTimeoutSeconds = 60
	}
	if len(cfg.AllowedExtensions) == 0 {
		cfg.AllowedExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}
	}
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml)")
	}
	if cfg.GeminiAPIKey == "" {
		return errors.New("config: geminiAPIKey is required (set in config.yaml or GEMINI_API_KEY)")
	}
	switch cfg.SessionBackend {
	case SessionBackendFile, SessionBackendMemory:
	case SessionBackendRedis:
		if cfg.RedisAddr == "" {
			return errors.New("config: redisAddr is required for the redis session backend")
		}
	case SessionBackendPostgres:
		if cfg.DatabaseURL == "" {
			return errors.New("config: databaseURL is required for the postgres session backend")
		}
	default:
		return fmt.Errorf("config: unknown sessionBackend %q", cfg.SessionBackend)
	}
	switch cfg.AssetBackend {
	case AssetBackendDisk:
	case AssetBackendMinio:
		if cfg.MinioEndpoint == "" || cfg.MinioBucket == "" {
			return errors.New("config: minioEndpoint and minioBucket are required for the minio asset backend")
		}
	default:
		return fmt.Errorf("config: unknown assetBackend %q", cfg.AssetBackend)
	}
	if cfg.RateLimitPerMinute > 0 && cfg.RedisAddr == "" {
		return errors.New("config: redisAddr is required when rateLimitPerMinute is set")
	}
	return nil
}
