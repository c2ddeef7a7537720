package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/arthas-cli/internal/domain"
	"github.com/spf13/viper"
)

const (
	configName = "config"
	configType = "toml"
	configDir  = ".arthas"
	stateFile  = "state.toml"

	KeyAgentURL       = "arthas.url"
	KeyRequestTimeout = "arthas.timeout"
	KeyPullTimeout    = "async.pull_timeout"
	KeyMaxPulls       = "async.max_pulls"
	KeyCleanupTimeout = "async.cleanup_timeout"
	KeyLogLevel       = "log.level"
	KeyLogFile        = "log.file"
	KeyStatePath      = "state.path"
)

type Config struct {
	AgentURL       string
	RequestTimeout time.Duration
	PullTimeout    time.Duration
	MaxPulls       int
	CleanupTimeout time.Duration
	LogLevel       string
	LogFile        string
	StatePath      string
}

// Load reads ~/.arthas/config.toml when present, layered under ARTHAS_* environment variables.
func Load(cfg *viper.Viper) (Config, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("resolve home directory: %w", err)
	}

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(filepath.Join(homeDir, configDir))
	setDefaults(cfg, homeDir)
	if err := bindEnv(cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	loaded := Config{
		AgentURL:       strings.TrimSpace(cfg.GetString(KeyAgentURL)),
		RequestTimeout: cfg.GetDuration(KeyRequestTimeout),
		PullTimeout:    cfg.GetDuration(KeyPullTimeout),
		MaxPulls:       cfg.GetInt(KeyMaxPulls),
		CleanupTimeout: cfg.GetDuration(KeyCleanupTimeout),
		LogLevel:       cfg.GetString(KeyLogLevel),
		LogFile:        cfg.GetString(KeyLogFile),
		StatePath:      cfg.GetString(KeyStatePath),
	}

	if loaded.StatePath == "" {
		return Config{}, errors.New("state path is empty")
	}
	loaded.StatePath, err = filepath.Abs(loaded.StatePath)
	if err != nil {
		return Config{}, fmt.Errorf("resolve state path: %w", err)
	}
	loaded.StatePath = filepath.Clean(loaded.StatePath)

	if err := loaded.Validate(); err != nil {
		return Config{}, err
	}

	return loaded, nil
}

func (c Config) Validate() error {
	if _, err := domain.ParseConnection(c.AgentURL); err != nil {
		return fmt.Errorf("invalid %s: %w", KeyAgentURL, err)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("invalid %s: must be positive", KeyRequestTimeout)
	}
	if c.PullTimeout <= 0 {
		return fmt.Errorf("invalid %s: must be positive", KeyPullTimeout)
	}
	if c.MaxPulls < 1 {
		return fmt.Errorf("invalid %s: must be at least 1", KeyMaxPulls)
	}
	if c.CleanupTimeout <= 0 {
		return fmt.Errorf("invalid %s: must be positive", KeyCleanupTimeout)
	}

	return nil
}

func setDefaults(cfg *viper.Viper, homeDir string) {
	cfg.SetDefault(KeyAgentURL, domain.DefaultAgentURL)
	cfg.SetDefault(KeyRequestTimeout, 30*time.Second)
	cfg.SetDefault(KeyPullTimeout, 5*time.Second)
	cfg.SetDefault(KeyMaxPulls, 4)
	cfg.SetDefault(KeyCleanupTimeout, 5*time.Second)
	cfg.SetDefault(KeyLogLevel, "info")
	cfg.SetDefault(KeyLogFile, "")
	cfg.SetDefault(KeyStatePath, filepath.Join(homeDir, configDir, stateFile))
}

func bindEnv(cfg *viper.Viper) error {
	bindings := map[string]string{
		KeyAgentURL:       "ARTHAS_URL",
		KeyRequestTimeout: "ARTHAS_TIMEOUT",
		KeyPullTimeout:    "ARTHAS_PULL_TIMEOUT",
		KeyMaxPulls:       "ARTHAS_MAX_PULLS",
		KeyStatePath:      "ARTHAS_STATE_PATH",
	}
	for key, env := range bindings {
		if err := cfg.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s: %w", env, err)
		}
	}

	return nil
}
