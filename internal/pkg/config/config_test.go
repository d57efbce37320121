package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoadWith_Defaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err != nil {
		t.Fatalf("LoadWith: %v", err)
	}
	if cfg.Client.APIURL != "http://localhost:8000/api" {
		t.Fatalf("unexpected api url %q", cfg.Client.APIURL)
	}
	if cfg.Client.Timeout != 10*time.Second {
		t.Fatalf("unexpected timeout %v", cfg.Client.Timeout)
	}
	if cfg.Client.TokenStore != TokenStoreFile || cfg.Client.Profile != "default" {
		t.Fatalf("unexpected client config %+v", cfg.Client)
	}
	if cfg.Stub.Port != "8000" || cfg.Stub.TokenTTL != time.Hour {
		t.Fatalf("unexpected stub config %+v", cfg.Stub)
	}
	if len(cfg.Stub.AllowOrigins) != 1 || cfg.Stub.AllowOrigins[0] != "http://localhost:5173" {
		t.Fatalf("unexpected origins %v", cfg.Stub.AllowOrigins)
	}
}

func TestLoadWith_Overrides(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"CLINIC_API_URL":     "https://clinic.example.com/api",
		"CLINIC_TIMEOUT":     "25s",
		"CLINIC_TOKEN_STORE": "redis",
		"CLINIC_PROFILE":     "frontdesk",
		"REDIS_ADDR":         "redis:6379",
		"REDIS_DB":           "2",
		"LOG_PRETTY":         "false",
	}))
	if err != nil {
		t.Fatalf("LoadWith: %v", err)
	}
	if cfg.Client.APIURL != "https://clinic.example.com/api" || cfg.Client.Timeout != 25*time.Second {
		t.Fatalf("unexpected client config %+v", cfg.Client)
	}
	if cfg.Client.TokenStore != TokenStoreRedis || cfg.Client.Profile != "frontdesk" {
		t.Fatalf("unexpected client config %+v", cfg.Client)
	}
	if cfg.Redis.Addr != "redis:6379" || cfg.Redis.DB != 2 {
		t.Fatalf("unexpected redis config %+v", cfg.Redis)
	}
	if cfg.LogPretty {
		t.Fatalf("expected LOG_PRETTY=false to apply")
	}
}

func TestLoadWith_RejectsUnknownTokenStore(t *testing.T) {
	_, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"CLINIC_TOKEN_STORE": "cookie",
	}))
	if err == nil {
		t.Fatalf("expected error for unknown token store")
	}
}

func TestLoadWith_StubStore(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"STUB_STORE": "mongo",
		"MONGO_URI":  "mongodb://mongo:27017",
	}))
	if err != nil {
		t.Fatalf("LoadWith: %v", err)
	}
	if cfg.Stub.Store != StubStoreMongo || cfg.Stub.MongoURI != "mongodb://mongo:27017" || cfg.Stub.MongoDB != "clinic" {
		t.Fatalf("unexpected stub config %+v", cfg.Stub)
	}

	if _, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{"STUB_STORE": "postgres"})); err == nil {
		t.Fatalf("expected error for unknown stub store")
	}
}
