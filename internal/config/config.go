package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lorrc/helpdesk-bridge/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk-bridge/internal/core/errors"
)

// Tag store drivers
const (
	TagStoreFile     = "file"
	TagStoreSQLite   = "sqlite"
	TagStorePostgres = "postgres"
	TagStoreRedis    = "redis"
)

// Config holds all application configuration
type Config struct {
	// Ticket source
	Movidesk MovideskConfig

	// Mirror store
	Notion NotionConfig

	// Chat notifier
	Telegram TelegramConfig

	// Business rules and outbound behaviour
	Sync SyncConfig

	// Notified-tag persistence
	TagStore TagStoreConfig

	// Daemon schedules
	Schedule ScheduleConfig

	// Admin HTTP API
	Admin AdminConfig

	// Rate limiting configuration for the admin API
	RateLimit RateLimitConfig

	// WebSocket configuration
	WebSocket WebSocketConfig

	// Logging configuration
	Logging LoggingConfig

	// Application metadata
	App AppConfig
}

// MovideskConfig holds the helpdesk API settings
type MovideskConfig struct {
	Token             string
	BaseURL           string
	PageSize          int
	RequestsPerSecond float64
}

// NotionConfig holds the mirror workspace settings
type NotionConfig struct {
	Token               string
	BaseURL             string
	Version             string
	TicketDatabaseID    string
	EquipmentDatabaseID string
	RequestsPerSecond   float64

	// Ticket database property names
	TitleProperty       string
	TicketIDProperty    string
	RequesterProperty   string
	ResponsibleProperty string
	AssetsProperty      string
	StatusProperty      string
	CreatedProperty     string // empty: not written

	// Equipment database property names and status labels
	EquipmentNameProperty   string
	EquipmentStatusProperty string
	EquipmentHolderProperty string
	OccupiedLabel           string
	AvailableLabel          string
}

// TelegramConfig holds the chat notifier settings
type TelegramConfig struct {
	BotToken    string
	ChatID      string
	APIEndpoint string
}

// SyncConfig holds the business heuristics and the outbound timeout
type SyncConfig struct {
	Keywords        []string
	ValidStatuses   map[string]string
	OutboundTimeout time.Duration
}

// TagStoreConfig selects and configures the notified-tag backend
type TagStoreConfig struct {
	Driver        string
	Path          string
	DSN           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Key           string
}

// ScheduleConfig holds cron specs for daemon mode. An empty spec disables the
// cycle.
type ScheduleConfig struct {
	Tickets   string
	Equipment string
}

// AdminConfig holds the admin HTTP server configuration
type AdminConfig struct {
	Addr            string
	JWTSecret       string
	TokenTTL        time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	BurstSize         int
	TriggerRPS        float64 // Stricter limit for the manual sync trigger
	TriggerBurst      int
}

// WebSocketConfig holds WebSocket configuration
type WebSocketConfig struct {
	AllowedOrigins  []string
	ReadBufferSize  int
	WriteBufferSize int
	PingInterval    time.Duration
	PongWait        time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

// Load loads configuration from environment variables. The given env files
// (default ".env") are read first when they exist; real environment
// variables take precedence.
func Load(envFiles ...string) (*Config, error) {
	cfg, err := LoadWithoutValidation(envFiles...)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWithoutValidation is Load for commands that need only part of the
// configuration, such as minting an admin token.
func LoadWithoutValidation(envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles...); err != nil {
		return nil, err
	}
	return FromEnv(), nil
}

// FromEnv reads the configuration without validating it.
func FromEnv() *Config {
	return &Config{
		Movidesk: MovideskConfig{
			Token:             os.Getenv("MOVIDESK_API_TOKEN"),
			BaseURL:           getEnvOrDefault("MOVIDESK_BASE_URL", "https://api.movidesk.com/public/v1"),
			PageSize:          getIntOrDefault("MOVIDESK_PAGE_SIZE", 85),
			RequestsPerSecond: getFloatOrDefault("MOVIDESK_RPS", 2),
		},
		Notion: NotionConfig{
			Token:               os.Getenv("NOTION_API_TOKEN"),
			BaseURL:             getEnvOrDefault("NOTION_BASE_URL", "https://api.notion.com/v1"),
			Version:             getEnvOrDefault("NOTION_VERSION", "2022-06-28"),
			TicketDatabaseID:    os.Getenv("NOTION_DATABASE_ID"),
			EquipmentDatabaseID: os.Getenv("NOTION_EQUIPMENT_DATABASE_ID"),
			RequestsPerSecond:   getFloatOrDefault("NOTION_RPS", 3),

			TitleProperty:       getEnvOrDefault("NOTION_PROP_TITLE", "Titulo"),
			TicketIDProperty:    getEnvOrDefault("NOTION_PROP_TICKET_ID", "Chamado"),
			RequesterProperty:   getEnvOrDefault("NOTION_PROP_REQUESTER", "Solicitante"),
			ResponsibleProperty: getEnvOrDefault("NOTION_PROP_RESPONSIBLE", "Responsavel"),
			AssetsProperty:      getEnvOrDefault("NOTION_PROP_ASSETS", "Ativo"),
			StatusProperty:      getEnvOrDefault("NOTION_PROP_STATUS", "Status"),
			CreatedProperty:     os.Getenv("NOTION_PROP_CREATED"),

			EquipmentNameProperty:   getEnvOrDefault("NOTION_EQUIPMENT_PROP_NAME", "Nome"),
			EquipmentStatusProperty: getEnvOrDefault("NOTION_EQUIPMENT_PROP_STATUS", "Status"),
			EquipmentHolderProperty: getEnvOrDefault("NOTION_EQUIPMENT_PROP_HOLDER", "Utilizado por"),
			OccupiedLabel:           getEnvOrDefault("NOTION_EQUIPMENT_OCCUPIED_LABEL", "Ocupado"),
			AvailableLabel:          getEnvOrDefault("NOTION_EQUIPMENT_AVAILABLE_LABEL", "Disponível"),
		},
		Telegram: TelegramConfig{
			BotToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
			ChatID:      os.Getenv("TELEGRAM_CHAT_ID"),
			APIEndpoint: getEnvOrDefault("TELEGRAM_API_ENDPOINT", "https://api.telegram.org/bot%s/%s"),
		},
		Sync: SyncConfig{
			Keywords:        getStringSliceOrDefault("SYNC_KEYWORDS", domain.DefaultKeywords),
			ValidStatuses:   getStringMapOrDefault("SYNC_VALID_STATUSES", domain.DefaultStatuses),
			OutboundTimeout: getDurationOrDefault("OUTBOUND_TIMEOUT", 30*time.Second),
		},
		TagStore: TagStoreConfig{
			Driver:        strings.ToLower(getEnvOrDefault("TAG_STORE_DRIVER", TagStoreFile)),
			Path:          getEnvOrDefault("TAG_STORE_PATH", "chamados_notificados.json"),
			DSN:           os.Getenv("TAG_STORE_DSN"),
			RedisAddr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
			RedisDB:       getIntOrDefault("REDIS_DB", 0),
			Key:           getEnvOrDefault("TAG_STORE_KEY", "bridge:notified_tags"),
		},
		Schedule: ScheduleConfig{
			Tickets:   getEnvOrDefault("SCHEDULE_TICKETS", "@every 5m"),
			Equipment: getEnvOrDefault("SCHEDULE_EQUIPMENT", "@every 15m"),
		},
		Admin: AdminConfig{
			Addr:            getEnvOrDefault("ADMIN_ADDR", ":8080"),
			JWTSecret:       os.Getenv("ADMIN_JWT_SECRET"),
			TokenTTL:        getDurationOrDefault("ADMIN_TOKEN_TTL", 24*time.Hour),
			ReadTimeout:     getDurationOrDefault("ADMIN_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationOrDefault("ADMIN_WRITE_TIMEOUT", 5*time.Minute),
			IdleTimeout:     getDurationOrDefault("ADMIN_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationOrDefault("ADMIN_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		RateLimit: RateLimitConfig{
			Enabled:           getBoolOrDefault("RATE_LIMIT_ENABLED", true),
			RequestsPerSecond: getFloatOrDefault("RATE_LIMIT_RPS", 10),
			BurstSize:         getIntOrDefault("RATE_LIMIT_BURST", 20),
			TriggerRPS:        getFloatOrDefault("RATE_LIMIT_TRIGGER_RPS", 0.2),
			TriggerBurst:      getIntOrDefault("RATE_LIMIT_TRIGGER_BURST", 2),
		},
		WebSocket: WebSocketConfig{
			AllowedOrigins:  getStringSliceOrDefault("WS_ALLOWED_ORIGINS", []string{}),
			ReadBufferSize:  getIntOrDefault("WS_READ_BUFFER_SIZE", 1024),
			WriteBufferSize: getIntOrDefault("WS_WRITE_BUFFER_SIZE", 1024),
			PingInterval:    getDurationOrDefault("WS_PING_INTERVAL", 54*time.Second),
			PongWait:        getDurationOrDefault("WS_PONG_WAIT", 60*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
		App: AppConfig{
			Name:        getEnvOrDefault("APP_NAME", "helpdesk-bridge"),
			Version:     getEnvOrDefault("APP_VERSION", "dev"),
			Environment: getEnvOrDefault("APP_ENV", "development"),
		},
	}
}

// Validate collects every configuration problem into one error.
func (c *Config) Validate() error {
	errs := apperrors.NewValidationErrors()

	// Required fields
	if c.Movidesk.Token == "" {
		errs.Add("MOVIDESK_API_TOKEN", "is required")
	}
	if c.Notion.Token == "" {
		errs.Add("NOTION_API_TOKEN", "is required")
	}
	if c.Notion.TicketDatabaseID == "" && c.Notion.EquipmentDatabaseID == "" {
		errs.Add("NOTION_DATABASE_ID", "at least one of NOTION_DATABASE_ID or NOTION_EQUIPMENT_DATABASE_ID is required")
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		errs.Add("TELEGRAM_CHAT_ID", "is required when TELEGRAM_BOT_TOKEN is set")
	}

	// Logical validations
	if c.Movidesk.PageSize <= 0 {
		errs.Add("MOVIDESK_PAGE_SIZE", "must be positive")
	}
	if c.Sync.OutboundTimeout <= 0 {
		errs.Add("OUTBOUND_TIMEOUT", "must be positive")
	}
	if len(c.Sync.ValidStatuses) == 0 {
		errs.Add("SYNC_VALID_STATUSES", "must name at least one status")
	}

	switch c.TagStore.Driver {
	case TagStoreFile, TagStoreSQLite:
		if c.TagStore.Path == "" {
			errs.Add("TAG_STORE_PATH", "is required for the "+c.TagStore.Driver+" driver")
		}
	case TagStorePostgres:
		if c.TagStore.DSN == "" {
			errs.Add("TAG_STORE_DSN", "is required for the postgres driver")
		}
	case TagStoreRedis:
		if c.TagStore.RedisAddr == "" {
			errs.Add("REDIS_ADDR", "is required for the redis driver")
		}
	default:
		errs.Add("TAG_STORE_DRIVER", fmt.Sprintf("unknown driver %q", c.TagStore.Driver))
	}

	// Security validations
	if c.App.Environment == "production" && len(c.Admin.JWTSecret) < 32 {
		errs.Add("ADMIN_JWT_SECRET", "must be at least 32 characters in production")
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// SyncRules converts the keyword list and status map into the rules the sync
// engines run with.
func (c *Config) SyncRules() domain.SyncRules {
	kw := make([]string, len(c.Sync.Keywords))
	copy(kw, c.Sync.Keywords)
	return domain.SyncRules{
		Keywords: kw,
		Statuses: domain.NewStatusSet(c.Sync.ValidStatuses),
	}
}

// TicketSyncEnabled reports whether the ticket mirror is configured.
func (c *Config) TicketSyncEnabled() bool {
	return c.Notion.TicketDatabaseID != ""
}

// EquipmentSyncEnabled reports whether the equipment database is configured.
func (c *Config) EquipmentSyncEnabled() bool {
	return c.Notion.EquipmentDatabaseID != ""
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func loadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if f == "" {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Helper functions

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

// getStringMapOrDefault parses "key=value,key=value". A bare key maps to
// itself.
func getStringMapOrDefault(key string, defaultValue map[string]string) map[string]string {
	value := os.Getenv(key)
	if value == "" {
		return copyMap(defaultValue)
	}
	result := make(map[string]string)
	for _, pair := range strings.Split(value, ",") {
		k, v, found := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		v = strings.TrimSpace(v)
		if !found || v == "" {
			v = k
		}
		result[k] = v
	}
	if len(result) == 0 {
		return copyMap(defaultValue)
	}
	return result
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// String returns a redacted string representation of the config (safe for logging)
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Movidesk: %s token=%s, Notion: %s token=%s tickets=%s equipment=%s, Telegram: token=%s chat=%s, TagStore: %s %s, Admin: %s jwt=[REDACTED], Environment: %s}",
		c.Movidesk.BaseURL,
		redactToken(c.Movidesk.Token),
		c.Notion.BaseURL,
		redactToken(c.Notion.Token),
		c.Notion.TicketDatabaseID,
		c.Notion.EquipmentDatabaseID,
		redactToken(c.Telegram.BotToken),
		c.Telegram.ChatID,
		c.TagStore.Driver,
		redactURL(c.TagStore.DSN),
		c.Admin.Addr,
		c.App.Environment,
	)
}

// redactToken keeps a short prefix so operators can tell tokens apart.
func redactToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 8 {
		return "[REDACTED]"
	}
	return token[:4] + "...[REDACTED]"
}

// redactURL redacts sensitive parts of a database URL
func redactURL(url string) string {
	if url == "" {
		return ""
	}
	if idx := strings.Index(url, "@"); idx > 0 {
		return "[REDACTED]" + url[idx:]
	}
	return url
}
