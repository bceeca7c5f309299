package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const FileName = "streakd.yaml"

type Config struct {
	DataDir     string
	DBPath      string
	SnapshotDir string
	JournalDir  string

	UserID    string            `mapstructure:"user_id"`
	ServerURL string            `mapstructure:"server_url"`
	Token     string            `mapstructure:"token"`
	LogLevel  string            `mapstructure:"log_level"`
	Server    ServerConfig      `mapstructure:"server"`
	Idem      IdempotencyConfig `mapstructure:"idempotency"`
	Verifier  VerifierConfig    `mapstructure:"verifier"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	// Tokens maps bearer tokens to user ids.
	Tokens map[string]string `mapstructure:"tokens"`
}

type IdempotencyConfig struct {
	TTL       time.Duration `mapstructure:"ttl"`
	Sweep     time.Duration `mapstructure:"sweep"`
	RedisAddr string        `mapstructure:"redis_addr"`
}

type VerifierConfig struct {
	Name    string        `mapstructure:"name"`
	Version string        `mapstructure:"version"`
	Binary  string        `mapstructure:"binary"`
	SHA256  string        `mapstructure:"sha256"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// New returns the default configuration rooted at dataDir.
func New(dataDir string) (Config, error) {
	if dataDir == "" {
		return Config{}, fmt.Errorf("data dir is required")
	}
	return Config{
		DataDir:     dataDir,
		DBPath:      filepath.Join(dataDir, ".streakd", "streakd.db"),
		SnapshotDir: filepath.Join(dataDir, ".streakd", "snapshots"),
		JournalDir:  filepath.Join(dataDir, "journal"),
		UserID:      "local",
		LogLevel:    "info",
		Server:      ServerConfig{Addr: "127.0.0.1:8420", Tokens: map[string]string{}},
		Idem:        IdempotencyConfig{TTL: 5 * time.Minute, Sweep: time.Minute},
		Verifier:    VerifierConfig{Name: "verifier", Timeout: 2 * time.Minute},
	}, nil
}

// Load layers <dataDir>/streakd.yaml, when present, over the defaults.
func Load(dataDir string) (Config, error) {
	cfg, err := New(dataDir)
	if err != nil {
		return Config{}, err
	}
	path := filepath.Join(dataDir, FileName)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("stat config: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("STREAKD")
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Verifier.Binary != "" && !filepath.IsAbs(cfg.Verifier.Binary) {
		cfg.Verifier.Binary = filepath.Clean(filepath.Join(dataDir, cfg.Verifier.Binary))
	}
	if cfg.Idem.TTL <= 0 {
		cfg.Idem.TTL = 5 * time.Minute
	}
	if cfg.Verifier.Timeout <= 0 {
		cfg.Verifier.Timeout = 2 * time.Minute
	}
	return cfg, nil
}
