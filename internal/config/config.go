// File: internal/config/config.go
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"` // per-request context deadline
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	RateLimit       int           `yaml:"rate_limit"` // requests per minute per IP; 0 disables
	IntentsPerHour  int           `yaml:"intents_per_hour"` // payment intents per user per hour; 0 disables
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

// StoreConfig selects the document store backing users and jobs.
type StoreConfig struct {
	Driver string `yaml:"driver"` // postgres | firestore | memory
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type FirestoreConfig struct {
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
	UsersCollection string `yaml:"users_collection"`
	JobsCollection  string `yaml:"jobs_collection"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // generation lock TTL
	QueueKey string        `yaml:"queue_key"`
}

type StripeConfig struct {
	SecretKey string `yaml:"secret_key"`

	// Noop swaps in an in-process provider whose intents succeed immediately (dev only).
	Noop bool `yaml:"noop"`
}

// PricingConfig overrides the per-page rates in minor units.
type PricingConfig struct {
	StandardPerPage int64  `yaml:"standard_per_page"`
	ProPerPage      int64  `yaml:"pro_per_page"`
	Currency        string `yaml:"currency"`
}

type GeneratorConfig struct {
	Provider        string        `yaml:"provider"` // openai | gemini | noop
	OpenAIKey       string        `yaml:"openai_key"`
	OpenAIBaseURL   string        `yaml:"openai_base_url"`
	GeminiKey       string        `yaml:"gemini_key"`
	StandardModel   string        `yaml:"standard_model"`
	ProModel        string        `yaml:"pro_model"`
	Timeout         time.Duration `yaml:"timeout"`
	MaxOutputTokens int           `yaml:"max_output_tokens"`
}

type WorkerConfig struct {
	Concurrency int           `yaml:"concurrency"`
	QueueSize   int           `yaml:"queue_size"`
	PollTimeout time.Duration `yaml:"poll_timeout"`
}

type ReconcilerConfig struct {
	Interval   time.Duration `yaml:"interval"`
	StaleAfter time.Duration `yaml:"stale_after"`
	BatchSize  int           `yaml:"batch_size"`
}

type AuthConfig struct {
	// ServiceSecret signs service tokens accepted by the refund endpoint. Empty disables the check.
	ServiceSecret string `yaml:"service_secret"`
	Issuer        string `yaml:"issuer"`
}

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Store      StoreConfig      `yaml:"store"`
	Database   DatabaseConfig   `yaml:"database"`
	Firestore  FirestoreConfig  `yaml:"firestore"`
	Redis      RedisConfig      `yaml:"redis"`
	Stripe     StripeConfig     `yaml:"stripe"`
	Pricing    PricingConfig    `yaml:"pricing"`
	Generator  GeneratorConfig  `yaml:"generator"`
	Worker     WorkerConfig     `yaml:"worker"`
	Reconciler ReconcilerConfig `yaml:"reconciler"`
	Auth       AuthConfig       `yaml:"auth"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig parses -config and -dev flags and loads the YAML file.
func LoadConfig() (*Config, error) {
	var configPath string
	var dev bool
	flag.StringVar(&configPath, "config", "config.yaml", "path to config yaml")
	flag.BoolVar(&dev, "dev", false, "development mode")
	flag.Parse()

	return Load(configPath, dev)
}

func Load(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b, dev)
}

// Parse applies defaults, environment overrides and validation to raw YAML.
func Parse(b []byte, dev bool) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	cfg.Runtime.Dev = dev
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	override := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	override(&c.Stripe.SecretKey, "STRIPE_SECRET_KEY")
	override(&c.Database.URL, "DATABASE_URL")
	override(&c.Generator.OpenAIKey, "OPENAI_API_KEY")
	override(&c.Generator.GeminiKey, "GEMINI_API_KEY")
	override(&c.Auth.ServiceSecret, "SERVICE_TOKEN_SECRET")
}

func (c *Config) applyDefaults() {
	if c.Server.Port <= 0 {
		c.Server.Port = 8080
	}
	c.Server.ReadTimeout = orDuration(c.Server.ReadTimeout, 15*time.Second)
	c.Server.WriteTimeout = orDuration(c.Server.WriteTimeout, 30*time.Second)
	c.Server.RequestTimeout = orDuration(c.Server.RequestTimeout, 25*time.Second)
	c.Server.ShutdownTimeout = orDuration(c.Server.ShutdownTimeout, 10*time.Second)

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}

	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	if c.Store.Driver == "" {
		c.Store.Driver = "postgres"
	}
	if c.Database.MaxConns <= 0 {
		c.Database.MaxConns = 10
	}
	if c.Firestore.UsersCollection == "" {
		c.Firestore.UsersCollection = "users"
	}
	if c.Firestore.JobsCollection == "" {
		c.Firestore.JobsCollection = "content_generation_jobs"
	}

	c.Redis.TTL = normalizeTTL(c.Redis.TTL)
	if c.Redis.QueueKey == "" {
		c.Redis.QueueKey = "content:generation:queue"
	}

	if c.Pricing.StandardPerPage <= 0 {
		c.Pricing.StandardPerPage = 149
	}
	if c.Pricing.ProPerPage <= 0 {
		c.Pricing.ProPerPage = 249
	}
	if c.Pricing.Currency == "" {
		c.Pricing.Currency = "usd"
	}

	if c.Generator.Provider == "" {
		c.Generator.Provider = "openai"
	}
	if c.Generator.StandardModel == "" {
		c.Generator.StandardModel = "gpt-4o"
	}
	if c.Generator.ProModel == "" {
		c.Generator.ProModel = "gpt-4-turbo"
	}
	c.Generator.Timeout = orDuration(c.Generator.Timeout, 3*time.Minute)
	if c.Generator.MaxOutputTokens <= 0 {
		c.Generator.MaxOutputTokens = 16000
	}

	if c.Worker.Concurrency <= 0 {
		c.Worker.Concurrency = 4
	}
	if c.Worker.QueueSize <= 0 {
		c.Worker.QueueSize = 64
	}
	c.Worker.PollTimeout = orDuration(c.Worker.PollTimeout, 5*time.Second)

	c.Reconciler.Interval = orDuration(c.Reconciler.Interval, time.Minute)
	c.Reconciler.StaleAfter = orDuration(c.Reconciler.StaleAfter, 15*time.Minute)
	if c.Reconciler.BatchSize <= 0 {
		c.Reconciler.BatchSize = 50
	}
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = "content-payment-service"
	}
}

// Minimal validation
func (c *Config) validate() error {
	switch c.Store.Driver {
	case "postgres":
		if c.Database.URL == "" {
			return errors.New("database.url is required for the postgres store")
		}
	case "firestore":
		if c.Firestore.ProjectID == "" {
			return errors.New("firestore.project_id is required for the firestore store")
		}
	case "memory":
	default:
		return fmt.Errorf("store.driver %q is not supported", c.Store.Driver)
	}
	if c.Stripe.SecretKey == "" && !c.Stripe.Noop {
		return errors.New("stripe.secret_key is required")
	}
	if c.Stripe.Noop && !c.Runtime.Dev {
		return errors.New("stripe.noop is only allowed in dev mode")
	}
	if c.Redis.URL == "" {
		return errors.New("redis.url is required")
	}
	switch c.Generator.Provider {
	case "openai":
		if c.Generator.OpenAIKey == "" {
			return errors.New("generator.openai_key is required")
		}
	case "gemini":
		if c.Generator.GeminiKey == "" {
			return errors.New("generator.gemini_key is required")
		}
	case "noop":
	default:
		return fmt.Errorf("generator.provider %q is not supported", c.Generator.Provider)
	}
	return nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return 10 * time.Minute
	}
	return d
}

func orDuration(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
