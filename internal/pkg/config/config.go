package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Stub server stores.
const (
	StubStoreMemory = "memory"
	StubStoreMongo  = "mongo"
)

// Token store backends.
const (
	TokenStoreFile   = "file"
	TokenStoreRedis  = "redis"
	TokenStoreMemory = "memory"
)

type Config struct {
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=true"`

	Client ClientConfig
	Redis  RedisConfig
	Stub   StubConfig
}

// ClientConfig drives the clinic client and the CLI.
type ClientConfig struct {
	APIURL     string        `env:"CLINIC_API_URL,     default=http://localhost:8000/api"`
	Timeout    time.Duration `env:"CLINIC_TIMEOUT,     default=10s"`
	TokenStore string        `env:"CLINIC_TOKEN_STORE, default=file"`
	TokenFile  string        `env:"CLINIC_TOKEN_FILE"`
	Profile    string        `env:"CLINIC_PROFILE,     default=default"`
}

type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR,      default=localhost:6379"`
	DB       int           `env:"REDIS_DB,        default=0"`
	Password string        `env:"REDIS_PASSWORD"`
	TokenTTL time.Duration `env:"REDIS_TOKEN_TTL, default=0s"`
}

// StubConfig drives cmd/clinic-stub.
type StubConfig struct {
	Port         string        `env:"PORT,         default=8000"`
	JWTSecret    string        `env:"JWT_SECRET,   default=dev-secret"`
	TokenTTL     time.Duration `env:"TOKEN_TTL,    default=1h"`
	AllowOrigins []string      `env:"CORS_ORIGINS, default=http://localhost:5173"`
	Store        string        `env:"STUB_STORE,   default=memory"`
	MongoURI     string        `env:"MONGO_URI,    default=mongodb://localhost:27017"`
	MongoDB      string        `env:"MONGO_DB,     default=clinic"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration from l and validates it.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Client.TokenStore {
	case TokenStoreFile, TokenStoreRedis, TokenStoreMemory:
	default:
		return fmt.Errorf("CLINIC_TOKEN_STORE must be one of %s, %s, %s; got %q",
			TokenStoreFile, TokenStoreRedis, TokenStoreMemory, c.Client.TokenStore)
	}
	switch c.Stub.Store {
	case StubStoreMemory, StubStoreMongo:
	default:
		return fmt.Errorf("STUB_STORE must be %s or %s; got %q", StubStoreMemory, StubStoreMongo, c.Stub.Store)
	}
	if c.Client.APIURL == "" {
		return fmt.Errorf("CLINIC_API_URL must not be empty")
	}
	return nil
}
