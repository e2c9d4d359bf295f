package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	DefaultMarketAddress = "0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0"
	DefaultMarketOwner   = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	DefaultRegistry      = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	DefaultListingFee    = "0.025"
)

type Config struct {
	Env       string
	Port      string
	Debug     bool
	LogFormat string

	Market      MarketConfig
	Database    DatabaseConfig
	DevRegistry DevRegistryConfig
	Nats        NatsConfig
	SendGrid    SendGridConfig
	Cors        CorsConfig
	TLS         TLSConfig
}

type MarketConfig struct {
	Address        string
	Owner          string
	ListingFee     string
	LogicVersion   int
	AdminTokenHash string
}

type DatabaseConfig struct {
	URL          string
	MaxConns     int
	MinConns     int
	MaxIdleTime  time.Duration
	ApplySchema  bool
	SchemaPath   string
	ConnectLimit time.Duration
}

type DevRegistryConfig struct {
	Enabled bool
	Address string
	Name    string
	Symbol  string
}

type NatsConfig struct {
	URL           string
	SubjectPrefix string
}

type SendGridConfig struct {
	APIKey      string
	FromEmail   string
	FromName    string
	NotifyEmail string
}

type CorsConfig struct {
	AllowedOrigins   []string
	AllowCredentials bool
}

// TLSConfig selects the server certificate. Files win over inline PEM; a
// self-signed localhost certificate is the last resort outside production.
type TLSConfig struct {
	Enabled    bool
	CertPath   string
	KeyPath    string
	CertPEM    string
	KeyPEM     string
	SelfSigned bool
}

// Validate rejects TLS settings that are unsafe for env.
func (t TLSConfig) Validate(env string) error {
	if env != "production" {
		return nil
	}
	if !t.Enabled {
		return errors.New("TLS must be enabled in production")
	}
	if t.CertPath == "" || t.KeyPath == "" {
		return errors.New("TLS_CERT_PATH and TLS_KEY_PATH are required in production")
	}
	return nil
}

// ListenPort is SERVER_PORT, or the conventional port for the TLS mode.
func (c *Config) ListenPort() string {
	switch {
	case c.Port != "":
		return c.Port
	case c.TLS.Enabled:
		return "8443"
	default:
		return "8080"
	}
}

// Init loads .env when present and installs the global logger. A missing
// file is not an error: the environment may already be populated.
func Init(newLogger func(debug bool, format string)) {
	err := godotenv.Load()
	newLogger(getBool("DEBUG", false), getString("LOG_FORMAT", "console"))
	if err != nil {
		zap.L().Info("No .env file found, using environment variables")
	}
}

func Get() *Config {
	env := strings.ToLower(strings.TrimSpace(getString("APP_ENV", getString("ENV", "development"))))
	return &Config{
		Env:       env,
		Port:      getString("SERVER_PORT", ""),
		Debug:     getBool("DEBUG", false),
		LogFormat: getString("LOG_FORMAT", "console"),
		Market: MarketConfig{
			Address:        getString("MARKET_ADDRESS", DefaultMarketAddress),
			Owner:          getString("MARKET_OWNER", DefaultMarketOwner),
			ListingFee:     getString("LISTING_FEE", DefaultListingFee),
			LogicVersion:   getInt("LOGIC_VERSION", 1),
			AdminTokenHash: getString("ADMIN_TOKEN_HASH", ""),
		},
		Database: DatabaseConfig{
			URL:          getString("DATABASE_URL", ""),
			MaxConns:     getInt("DB_MAX_CONNS", 10),
			MinConns:     getInt("DB_MIN_CONNS", 2),
			MaxIdleTime:  getDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			ApplySchema:  getBool("APPLY_SCHEMA_ON_START", true),
			SchemaPath:   getString("SCHEMA_PATH", ""),
			ConnectLimit: getDuration("DB_CONNECT_TIMEOUT", 5*time.Second),
		},
		DevRegistry: DevRegistryConfig{
			Enabled: getBool("DEV_REGISTRY", true),
			Address: getString("DEV_REGISTRY_ADDRESS", DefaultRegistry),
			Name:    getString("DEV_REGISTRY_NAME", "BadgeToken"),
			Symbol:  getString("DEV_REGISTRY_SYMBOL", "BADGE"),
		},
		Nats: NatsConfig{
			URL:           getString("NATS_URL", ""),
			SubjectPrefix: getString("NATS_SUBJECT_PREFIX", "market.item"),
		},
		SendGrid: SendGridConfig{
			APIKey:      getString("SENDGRID_API_KEY", ""),
			FromEmail:   getString("SENDGRID_FROM_EMAIL", ""),
			FromName:    getString("SENDGRID_FROM_NAME", "NFT Market"),
			NotifyEmail: getString("NOTIFY_EMAIL", ""),
		},
		Cors: CorsConfig{
			AllowedOrigins:   getSlice("CORS_ALLOWED_ORIGINS", []string{"*"}, ","),
			AllowCredentials: getBool("CORS_ALLOW_CREDENTIALS", false),
		},
		TLS: TLSConfig{
			// production always serves TLS
			Enabled:    getBool("ENABLE_TLS", true) || env == "production",
			CertPath:   getString("TLS_CERT_PATH", ""),
			KeyPath:    getString("TLS_KEY_PATH", ""),
			CertPEM:    getString("TLS_CERT", ""),
			KeyPEM:     getString("TLS_KEY", ""),
			SelfSigned: getBool("TLS_SELF_SIGNED", true),
		},
	}
}

func getString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}

	return defaultValue
}

func getInt(key string, defaultValue int) int {
	val, err := strconv.Atoi(strings.TrimSpace(getString(key, "")))
	if err != nil {
		return defaultValue
	}

	return val
}

func getBool(key string, defaultValue bool) bool {
	if val, err := strconv.ParseBool(getString(key, "")); err == nil {
		return val
	}

	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	valStr := getString(key, "")
	if valStr == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(valStr)
	if err != nil {
		zap.L().With(zap.String("key", key), zap.Duration("default", defaultValue)).Warn("Invalid duration, using default")
		return defaultValue
	}

	return d
}

func getSlice(key string, defaultVal []string, sep string) []string {
	valStr := getString(key, "")
	if valStr == "" {
		return defaultVal
	}

	out := make([]string, 0)
	for _, p := range strings.Split(valStr, sep) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}

	return out
}
