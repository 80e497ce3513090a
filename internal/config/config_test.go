package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	os.Unsetenv("MONGODB_URI")
	os.Unsetenv("SERVER_PORT")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Fatalf("unexpected default port: %s", cfg.Server.Port)
	}
	if cfg.MongoDB.URI != "" {
		t.Fatalf("mongo URI should default to empty (memory store), got %q", cfg.MongoDB.URI)
	}
	if cfg.Sources.FetchTimeout != 15*time.Second {
		t.Fatalf("unexpected fetch timeout: %v", cfg.Sources.FetchTimeout)
	}
	if cfg.Cache.Dir == "" {
		t.Fatalf("cache dir must have a default")
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	os.Setenv("MONGODB_URI", "mongodb://localhost:27017/testdb")
	os.Setenv("REDIS_HOST", "localhost")
	os.Setenv("COUNTRIES_API_URL", "http://127.0.0.1:9999/countries")
	defer func() {
		os.Unsetenv("MONGODB_URI")
		os.Unsetenv("REDIS_HOST")
		os.Unsetenv("COUNTRIES_API_URL")
	}()

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.MongoDB.URI == "" || cfg.Redis.Host == "" {
		t.Fatalf("unexpected empty config values: %+v", cfg)
	}
	if cfg.Sources.CountriesURL != "http://127.0.0.1:9999/countries" {
		t.Fatalf("source URL override not applied: %s", cfg.Sources.CountriesURL)
	}
}
