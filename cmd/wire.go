package cmd

import (
	"fmt"
	"io"
	"time"

	responseadapter "github.com/bnema/arthas-cli/internal/adapters/render/response"
	tomlrepo "github.com/bnema/arthas-cli/internal/adapters/repo/toml"
	"github.com/bnema/arthas-cli/internal/adapters/transport/httpjson"
	"github.com/bnema/arthas-cli/internal/application"
	"github.com/bnema/arthas-cli/internal/config"
	"github.com/bnema/arthas-cli/internal/domain"
	"github.com/bnema/arthas-cli/internal/logging"
	"github.com/bnema/arthas-cli/internal/ports"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

type app struct {
	client   *application.Client
	config   config.Config
	logger   zerolog.Logger
	closeLog io.Closer
	renderer func(domain.Response, responseadapter.RenderOptions) (string, error)
	now      func() time.Time
	output   outputOptions
}

type outputOptions struct {
	asJSON     bool
	maxRecords int
}

func wireApp() (*app, error) {
	cfg, err := config.Load(viper.New())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logCfg := logging.DefaultConfig(logging.ProfileRuntime)
	if level, ok := logging.ParseLevel(cfg.LogLevel); ok {
		logCfg.Level = level
	}
	logCfg.File = cfg.LogFile
	logging.ApplyEnvOverrides(&logCfg)

	logger, closeLog, err := logging.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("wire logger: %w", err)
	}

	repo, err := tomlrepo.NewConnectionRepository(cfg.StatePath)
	if err != nil {
		_ = closeLog.Close()
		return nil, fmt.Errorf("wire connection repository: %w", err)
	}

	dial := func(baseURL string) (ports.Transport, error) {
		transport, err := httpjson.NewTransport(baseURL, cfg.RequestTimeout)
		if err != nil {
			return nil, err
		}
		return transport, nil
	}

	return &app{
		client: application.NewClient(repo, dial, ports.SystemClock{}, logger, application.AsyncOptions{
			PullTimeout:    cfg.PullTimeout,
			MaxPulls:       cfg.MaxPulls,
			CleanupTimeout: cfg.CleanupTimeout,
		}),
		config:   cfg,
		logger:   logger,
		closeLog: closeLog,
		renderer: responseadapter.Render,
		now:      time.Now,
	}, nil
}
