package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Driver: DriverPostgres, DSN: "postgres://localhost/rag"},
		Redis:    RedisConfig{Addrs: []string{"localhost:6379"}},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 70000

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_PostgresRequiresDSN(t *testing.T) {
	cfg := validConfig()
	cfg.Database.DSN = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing dsn")
	}
	if !strings.Contains(err.Error(), "database.dsn") {
		t.Errorf("error = %q", err)
	}
}

func TestValidate_MemoryDriverNeedsNoDSN(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = DriverMemory
	cfg.Database.DSN = ""

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = "valkey"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
	expected := `database.driver must be "postgres" or "memory", got "valkey"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_RedisRequiresAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Redis.Addrs = nil

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error without redis addrs")
	}
	if !strings.Contains(err.Error(), "redis.addrs") {
		t.Errorf("error = %q", err)
	}
}

func TestValidate_Dimensions(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Dimensions = -1

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative dimensions")
	}
}

func TestValidate_Retrieval(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"count above max", func(c *Config) { c.Retrieval.DefaultCount = 21 }},
		{"negative text weight", func(c *Config) { c.Retrieval.DefaultTextWeight = -0.1 }},
		{"vector weight above one", func(c *Config) { c.Retrieval.DefaultVectorWeight = 1.5 }},
		{"temperature", func(c *Config) { c.LLM.Temperature = 3 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected Port=8080, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if len(cfg.HTTP.CORSOrigins) != 1 || cfg.HTTP.CORSOrigins[0] != "*" {
		t.Errorf("expected CORSOrigins=[*], got %v", cfg.HTTP.CORSOrigins)
	}
	if cfg.Database.Driver != DriverPostgres {
		t.Errorf("expected Driver=postgres, got %q", cfg.Database.Driver)
	}
	if cfg.Database.PoolSize != 32 {
		t.Errorf("expected PoolSize=32, got %d", cfg.Database.PoolSize)
	}
	if cfg.Embedding.Model != "text-embedding-3-small" {
		t.Errorf("expected embedding model text-embedding-3-small, got %q", cfg.Embedding.Model)
	}
	if cfg.LLM.Model != "gpt-4.1-mini" {
		t.Errorf("expected llm model gpt-4.1-mini, got %q", cfg.LLM.Model)
	}
	if cfg.Retrieval.DefaultCount != 5 {
		t.Errorf("expected DefaultCount=5, got %d", cfg.Retrieval.DefaultCount)
	}
	if cfg.Retrieval.DefaultTextWeight != 0.7 || cfg.Retrieval.DefaultVectorWeight != 0.3 {
		t.Errorf("expected weights 0.7/0.3, got %v/%v",
			cfg.Retrieval.DefaultTextWeight, cfg.Retrieval.DefaultVectorWeight)
	}
	if cfg.Retrieval.FetchMultiplier != 3 {
		t.Errorf("expected FetchMultiplier=3, got %d", cfg.Retrieval.FetchMultiplier)
	}
	if cfg.Ingestion.MaxBatchSize != 1000 {
		t.Errorf("expected MaxBatchSize=1000, got %d", cfg.Ingestion.MaxBatchSize)
	}
	if cfg.Embedding.Dimensions != 1536 {
		t.Errorf("expected Dimensions=1536, got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Index.Name != "hybridrag:chunks:idx" || cfg.Index.KeyPrefix != "hybridrag:chunk:" {
		t.Errorf("index = %+v", cfg.Index)
	}
	if cfg.Redis.ReadinessTimeout != 10 {
		t.Errorf("expected Redis.ReadinessTimeout=10, got %d", cfg.Redis.ReadinessTimeout)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:      HTTPConfig{Port: 9000, ReadTimeoutSec: 30, WriteTimeoutSec: 90, ShutdownSec: 5},
		Database:  DatabaseConfig{Driver: DriverMemory, PoolSize: 4},
		Retrieval: RetrievalConfig{DefaultCount: 10, DefaultTextWeight: 0, DefaultVectorWeight: 1},
		LLM:       LLMConfig{Model: "custom-model"},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 9000 {
		t.Errorf("expected Port=9000, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.WriteTimeoutSec != 90 {
		t.Errorf("expected WriteTimeoutSec=90, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Database.Driver != DriverMemory || cfg.Database.PoolSize != 4 {
		t.Errorf("database overridden: %+v", cfg.Database)
	}
	if cfg.Retrieval.DefaultTextWeight != 0 || cfg.Retrieval.DefaultVectorWeight != 1 {
		t.Errorf("weights overridden: %v/%v", cfg.Retrieval.DefaultTextWeight, cfg.Retrieval.DefaultVectorWeight)
	}
	if cfg.LLM.Model != "custom-model" {
		t.Errorf("expected custom-model, got %q", cfg.LLM.Model)
	}
}

func TestApplyDefaults_LLMInheritsEmbeddingCredentials(t *testing.T) {
	cfg := Config{Embedding: EmbeddingConfig{APIKey: "sk-test", BaseURL: "https://api.example.com/v1"}}
	cfg.ApplyDefaults()

	if cfg.LLM.APIKey != "sk-test" || cfg.LLM.BaseURL != "https://api.example.com/v1" {
		t.Errorf("llm = %+v", cfg.LLM)
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("HYBRIDRAG_TEST_DSN", "postgres://db:5432/rag")
	yml := []byte(`
http:
  port: ${HYBRIDRAG_TEST_PORT:-8081}
database:
  dsn: ${HYBRIDRAG_TEST_DSN}
redis:
  addrs: ["${HYBRIDRAG_TEST_REDIS:-localhost:6379}"]
embedding:
  api_key: ${HYBRIDRAG_TEST_UNSET}
`)

	cfg, err := Parse(yml)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.HTTP.Port != 8081 {
		t.Errorf("expected Port=8081, got %d", cfg.HTTP.Port)
	}
	if cfg.Database.DSN != "postgres://db:5432/rag" {
		t.Errorf("dsn = %q", cfg.Database.DSN)
	}
	if len(cfg.Redis.Addrs) != 1 || cfg.Redis.Addrs[0] != "localhost:6379" {
		t.Errorf("redis addrs = %v", cfg.Redis.Addrs)
	}
	if cfg.Embedding.APIKey != "" {
		t.Errorf("api_key = %q, want empty", cfg.Embedding.APIKey)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("database:\n  driver: sqlite\n")); err == nil {
		t.Fatal("expected validation error")
	}
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Fatal("expected yaml error")
	}
}

func TestLoad_RepoConfigs(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/rag?sslmode=disable")
	for _, env := range []string{"local", "prod"} {
		t.Run(env, func(t *testing.T) {
			if _, err := Load(env); err != nil {
				t.Fatalf("Load(%s): %v", env, err)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("HYBRIDRAG_DOTENV_TEST=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HYBRIDRAG_DOTENV_TEST", "")
	os.Unsetenv("HYBRIDRAG_DOTENV_TEST")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("HYBRIDRAG_DOTENV_TEST"); got != "from-file" {
		t.Errorf("HYBRIDRAG_DOTENV_TEST = %q", got)
	}
}

func TestLoadDotEnv_MissingFileIgnored(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
}
