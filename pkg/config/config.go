package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StorageMemory     = "memory"
	StorageFilesystem = "filesystem"
	StorageS3         = "s3"
	StorageCasync     = "casync"

	CatalogContainer = "container"
	CatalogDatabase  = "database"

	ReservationNone   = "none"
	ReservationMemory = "memory"
	ReservationRedis  = "redis"

	minChunkSize = 1024
	maxChunkSize = 4 * 1024 * 1024
)

// Config holds the complete server configuration
type Config struct {
	Server      ServerConfig      `yaml:"server" json:"server"`
	GRPC        GRPCConfig        `yaml:"grpc" json:"grpc"`
	Transfer    TransferConfig    `yaml:"transfer" json:"transfer"`
	Storage     StorageConfig     `yaml:"storage" json:"storage"`
	Catalog     CatalogConfig     `yaml:"catalog" json:"catalog"`
	Reservation ReservationConfig `yaml:"reservation" json:"reservation"`
	HTTP        HTTPConfig        `yaml:"http" json:"http"`
	Logging     LoggingConfig     `yaml:"logging" json:"logging"`
}

// ServerConfig holds the gRPC listener address
type ServerConfig struct {
	Address string `yaml:"address" json:"address"`
	Port    int    `yaml:"port" json:"port"`
}

// GRPCConfig holds gRPC-specific configuration
type GRPCConfig struct {
	MaxRecvMsgSize   int32         `yaml:"maxRecvMsgSize" json:"maxRecvMsgSize"`
	MaxSendMsgSize   int32         `yaml:"maxSendMsgSize" json:"maxSendMsgSize"`
	KeepAliveTime    time.Duration `yaml:"keepAliveTime" json:"keepAliveTime"`
	KeepAliveTimeout time.Duration `yaml:"keepAliveTimeout" json:"keepAliveTimeout"`
}

// TransferConfig tunes the chunked transfer protocol
type TransferConfig struct {
	MaxChunkSize int `yaml:"maxChunkSize" json:"maxChunkSize"`
}

// StorageConfig selects and configures the blob container backend
type StorageConfig struct {
	Backend string   `yaml:"backend" json:"backend"`
	Root    string   `yaml:"root" json:"root"`
	S3      S3Config `yaml:"s3" json:"s3"`
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint" json:"endpoint"`
	Region    string `yaml:"region" json:"region"`
	Bucket    string `yaml:"bucket" json:"bucket"`
	AccessKey string `yaml:"accessKey" json:"accessKey"`
	SecretKey string `yaml:"secretKey" json:"-"`
	UseSSL    bool   `yaml:"useSSL" json:"useSSL"`
	Prefix    string `yaml:"prefix" json:"prefix"`
}

// CatalogConfig selects where media descriptors are looked up
type CatalogConfig struct {
	Backend string `yaml:"backend" json:"backend"`
	DSN     string `yaml:"dsn" json:"dsn"`
}

// ReservationConfig selects the optional upload name reservation
type ReservationConfig struct {
	Backend string      `yaml:"backend" json:"backend"`
	Redis   RedisConfig `yaml:"redis" json:"redis"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr" json:"addr"`
	DB       int           `yaml:"db" json:"db"`
	Password string        `yaml:"password" json:"-"`
	TTL      time.Duration `yaml:"ttl" json:"ttl"`
}

// HTTPConfig holds the optional HTTP gateway settings
type HTTPConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Address string `yaml:"address" json:"address"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	Output string `yaml:"output" json:"output"`
}

// DefaultConfig Default configuration values
var DefaultConfig = Config{
	Server: ServerConfig{
		Address: "0.0.0.0",
		Port:    50060,
	},
	GRPC: GRPCConfig{
		MaxRecvMsgSize:   4 * 1024 * 1024, // 4MB
		MaxSendMsgSize:   4 * 1024 * 1024, // 4MB
		KeepAliveTime:    30 * time.Second,
		KeepAliveTimeout: 5 * time.Second,
	},
	Transfer: TransferConfig{
		MaxChunkSize: 256000,
	},
	Storage: StorageConfig{
		Backend: StorageFilesystem,
		Root:    "/var/lib/mediahub",
		S3: S3Config{
			Region: "us-east-1",
			Bucket: "mediahub",
		},
	},
	Catalog: CatalogConfig{
		Backend: CatalogContainer,
		DSN:     "file:/var/lib/mediahub/catalog.db?cache=shared",
	},
	Reservation: ReservationConfig{
		Backend: ReservationNone,
		Redis: RedisConfig{
			Addr: "localhost:6379",
			TTL:  10 * time.Minute,
		},
	},
	HTTP: HTTPConfig{
		Enabled: false,
		Address: "0.0.0.0:8080",
	},
	Logging: LoggingConfig{
		Level:  "INFO",
		Format: "text",
		Output: "stdout",
	},
}

// LoadConfig loads configuration from multiple sources in order of precedence:
// 1. Environment variables (highest precedence)
// 2. Configuration file
// 3. Default values (lowest precedence)
func LoadConfig() (*Config, string, error) {
	config := DefaultConfig

	path, err := loadFromFile(&config)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config file: %w", err)
	}

	if e := loadFromEnv(&config); e != nil {
		return nil, "", fmt.Errorf("failed to load environment variables: %w", e)
	}

	if e := config.Validate(); e != nil {
		return nil, "", fmt.Errorf("configuration validation failed: %w", e)
	}

	return &config, path, nil
}

// loadFromFile loads configuration from the first YAML file found
func loadFromFile(config *Config) (string, error) {
	configPaths := []string{
		os.Getenv("MEDIAHUB_CONFIG_PATH"),
		"./config.yaml",
		"./config/config.yaml",
		"/etc/mediahub/config.yaml",
	}

	for _, path := range configPaths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return "", fmt.Errorf("failed to parse config file %s: %w", path, err)
		}

		return path, nil
	}

	return "built-in defaults (no config file found)", nil
}

func envInt(name string, dst *int) error {
	val := os.Getenv(name)
	if val == "" {
		return nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = n
	return nil
}

func envInt32(name string, dst *int32) error {
	val := os.Getenv(name)
	if val == "" {
		return nil
	}
	n, err := strconv.ParseInt(val, 10, 32)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = int32(n)
	return nil
}

func envDuration(name string, dst *time.Duration) error {
	val := os.Getenv(name)
	if val == "" {
		return nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = d
	return nil
}

func envString(name string, dst *string) {
	if val := os.Getenv(name); val != "" {
		*dst = val
	}
}

func envBool(name string, dst *bool) {
	if val := os.Getenv(name); val != "" {
		*dst = val == "true" || val == "1"
	}
}

// loadFromEnv loads configuration from environment variables
func loadFromEnv(config *Config) error {
	envString("MEDIAHUB_SERVER_ADDRESS", &config.Server.Address)
	if err := envInt("MEDIAHUB_SERVER_PORT", &config.Server.Port); err != nil {
		return err
	}

	if err := envInt32("MEDIAHUB_GRPC_MAX_RECV_MSG_SIZE", &config.GRPC.MaxRecvMsgSize); err != nil {
		return err
	}
	if err := envInt32("MEDIAHUB_GRPC_MAX_SEND_MSG_SIZE", &config.GRPC.MaxSendMsgSize); err != nil {
		return err
	}
	if err := envDuration("MEDIAHUB_GRPC_KEEPALIVE_TIME", &config.GRPC.KeepAliveTime); err != nil {
		return err
	}
	if err := envDuration("MEDIAHUB_GRPC_KEEPALIVE_TIMEOUT", &config.GRPC.KeepAliveTimeout); err != nil {
		return err
	}

	if err := envInt("MEDIAHUB_TRANSFER_MAX_CHUNK_SIZE", &config.Transfer.MaxChunkSize); err != nil {
		return err
	}

	envString("MEDIAHUB_STORAGE_BACKEND", &config.Storage.Backend)
	envString("MEDIAHUB_STORAGE_ROOT", &config.Storage.Root)
	envString("MEDIAHUB_S3_ENDPOINT", &config.Storage.S3.Endpoint)
	envString("MEDIAHUB_S3_REGION", &config.Storage.S3.Region)
	envString("MEDIAHUB_S3_BUCKET", &config.Storage.S3.Bucket)
	envString("MEDIAHUB_S3_ACCESS_KEY", &config.Storage.S3.AccessKey)
	envString("MEDIAHUB_S3_SECRET_KEY", &config.Storage.S3.SecretKey)
	envBool("MEDIAHUB_S3_USE_SSL", &config.Storage.S3.UseSSL)
	envString("MEDIAHUB_S3_PREFIX", &config.Storage.S3.Prefix)

	envString("MEDIAHUB_CATALOG_BACKEND", &config.Catalog.Backend)
	envString("MEDIAHUB_CATALOG_DSN", &config.Catalog.DSN)

	envString("MEDIAHUB_RESERVATION_BACKEND", &config.Reservation.Backend)
	envString("MEDIAHUB_REDIS_ADDR", &config.Reservation.Redis.Addr)
	if err := envInt("MEDIAHUB_REDIS_DB", &config.Reservation.Redis.DB); err != nil {
		return err
	}
	envString("MEDIAHUB_REDIS_PASSWORD", &config.Reservation.Redis.Password)
	if err := envDuration("MEDIAHUB_REDIS_TTL", &config.Reservation.Redis.TTL); err != nil {
		return err
	}

	envBool("MEDIAHUB_HTTP_ENABLED", &config.HTTP.Enabled)
	envString("MEDIAHUB_HTTP_ADDRESS", &config.HTTP.Address)

	envString("LOG_LEVEL", &config.Logging.Level)
	envString("LOG_FORMAT", &config.Logging.Format)
	envString("LOG_OUTPUT", &config.Logging.Output)

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.GRPC.MaxRecvMsgSize <= 0 || c.GRPC.MaxSendMsgSize <= 0 {
		return fmt.Errorf("grpc message size limits must be positive")
	}

	if c.Transfer.MaxChunkSize < minChunkSize || c.Transfer.MaxChunkSize > maxChunkSize {
		return fmt.Errorf("invalid transfer max chunk size: %d (must be between %d and %d)",
			c.Transfer.MaxChunkSize, minChunkSize, maxChunkSize)
	}
	if c.Transfer.MaxChunkSize > int(c.GRPC.MaxSendMsgSize) {
		return fmt.Errorf("transfer max chunk size %d exceeds grpc max send message size %d",
			c.Transfer.MaxChunkSize, c.GRPC.MaxSendMsgSize)
	}

	switch c.Storage.Backend {
	case StorageMemory:
	case StorageFilesystem, StorageCasync:
		if c.Storage.Root == "" {
			return fmt.Errorf("storage root required for %s backend", c.Storage.Backend)
		}
	case StorageS3:
		if c.Storage.S3.Endpoint == "" || c.Storage.S3.Bucket == "" {
			return fmt.Errorf("s3 endpoint and bucket required for s3 backend")
		}
	default:
		return fmt.Errorf("invalid storage backend: %s", c.Storage.Backend)
	}

	switch c.Catalog.Backend {
	case CatalogContainer:
	case CatalogDatabase:
		if c.Catalog.DSN == "" {
			return fmt.Errorf("catalog dsn required for database backend")
		}
	default:
		return fmt.Errorf("invalid catalog backend: %s", c.Catalog.Backend)
	}

	switch c.Reservation.Backend {
	case ReservationNone, ReservationMemory:
	case ReservationRedis:
		if c.Reservation.Redis.Addr == "" {
			return fmt.Errorf("redis address required for redis reservation backend")
		}
		if c.Reservation.Redis.TTL <= 0 {
			return fmt.Errorf("invalid redis reservation ttl: %s", c.Reservation.Redis.TTL)
		}
	default:
		return fmt.Errorf("invalid reservation backend: %s", c.Reservation.Backend)
	}

	if c.HTTP.Enabled && c.HTTP.Address == "" {
		return fmt.Errorf("http address required when the gateway is enabled")
	}

	switch strings.ToUpper(c.Logging.Level) {
	case "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	return nil
}

func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

func (c *Config) ToYAML() ([]byte, error) {
	return yaml.Marshal(c)
}

func (c *Config) SaveToFile(path string) error {
	data, err := c.ToYAML()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadFromFile loads a specific configuration file
func LoadFromFile(path string) (*Config, error) {
	config := DefaultConfig

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}
