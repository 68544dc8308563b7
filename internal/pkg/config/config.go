package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port      string        `env:"PORT,      default=8080"`
	Env       string        `env:"ENV,       default=development"`
	LogLevel  string        `env:"LOG_LEVEL, default=info"`
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL, default=24h"`

	Mongo   MongoConfig
	Redis   RedisConfig
	Stripe  StripeConfig
	Mpesa   MpesaConfig
	Seed    SeedConfig
	Kafka   KafkaConfig
	Invoice InvoiceConfig
}

type MongoConfig struct {
	URI      string        `env:"MONGO_URI,     default=mongodb://localhost:27017/?replicaSet=rs0"`
	Database string        `env:"MONGO_DB,      default=crownshift"`
	Timeout  time.Duration `env:"MONGO_TIMEOUT, default=10s"`

	MaxPoolSize uint64 `env:"MONGO_MAX_POOL_SIZE, default=100"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
	PoolSize int    `env:"REDIS_POOL_SIZE, default=20"`
}

type StripeConfig struct {
	SecretKey     string `env:"STRIPE_SECRET_KEY"`
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`
}

type MpesaConfig struct {
	Env            string `env:"MPESA_ENV, default=sandbox"`
	ConsumerKey    string `env:"MPESA_CONSUMER_KEY"`
	ConsumerSecret string `env:"MPESA_CONSUMER_SECRET"`
	ShortCode      string `env:"MPESA_SHORTCODE"`
	Passkey        string `env:"MPESA_PASSKEY"`
	CallbackSecret string `env:"MPESA_CALLBACK_SECRET"`
}

type SeedConfig struct {
	AdminToken string `env:"SEED_ADMIN_TOKEN"`
	AdminUID   string `env:"SEED_ADMIN_UID"`
}

type KafkaConfig struct {
	Brokers     []string `env:"KAFKA_BROKERS"`
	TopicPrefix string   `env:"KAFKA_TOPIC_PREFIX, default=crownshift."`
}

type InvoiceConfig struct {
	PublicBaseURL string          `env:"PUBLIC_BASE_URL, default=http://localhost:8080"`
	LinkTTL       time.Duration   `env:"INVOICE_LINK_TTL, default=168h"`
	VATRate       decimal.Decimal `env:"INVOICE_VAT_RATE, default=0.16"`
	Bucket        string          `env:"INVOICE_BUCKET,   default=invoices"`
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.IsProduction() && len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters in production")
	}
	return nil
}

// Load reads configuration from the process environment, after applying the
// optional dotenv file. Variables already set in the environment win.
func Load(ctx context.Context, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration through lookuper.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	return &cfg, nil
}
