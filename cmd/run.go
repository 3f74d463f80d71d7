package main

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"gitlab.com/ddpbfs.net/internal/adapter/extractor"
	"gitlab.com/ddpbfs.net/internal/adapter/redis/clientport"
	"gitlab.com/ddpbfs.net/internal/config"
	"gitlab.com/ddpbfs.net/internal/coordinator"
	"gitlab.com/ddpbfs.net/internal/core/ports/primary"
	"gitlab.com/ddpbfs.net/internal/core/ports/secondary"
	"gitlab.com/ddpbfs.net/internal/domain"
	logger2 "gitlab.com/ddpbfs.net/internal/global/logger"
	http2 "gitlab.com/ddpbfs.net/internal/http"
)

// run wires the coordinator from sysCfg and blocks until it finishes.
// Errors returned here are startup failures.
func run(ctx context.Context, sysCfg *config.AppConfig) (coordinator.Result, error) {
	logger2.Init(sysCfg.DebugMode)
	logger := logger2.Logger
	defer logger.Sync()

	if err := sysCfg.CoordinatorCfg.Validate(); err != nil {
		return coordinator.Result{}, fmt.Errorf("%w: %v", errStartup, err)
	}

	// SECONDARY PORTS
	blob, err := extractor.NewScriptExtractor(sysCfg.ExtractorConfig, logger).
		Extract(ctx, domain.DocumentType(sysCfg.ExtractorConfig.DocType), sysCfg.ExtractorConfig.DocPath)
	if err != nil {
		return coordinator.Result{}, fmt.Errorf("%w: %v", errStartup, err)
	}

	var opts []coordinator.Option
	mirror := setupMirror(ctx, sysCfg.RedisConfig, logger)
	if mirror != nil {
		defer mirror.Close()
		opts = append(opts, coordinator.WithClientMirror(mirror))
	}

	coord := coordinator.New(sysCfg.CoordinatorCfg, blob, logger, opts...)
	if err := coord.Bind(); err != nil {
		return coordinator.Result{}, fmt.Errorf("%w: %v", errStartup, err)
	}

	//server
	if sysCfg.StatusConfig.Port > 0 {
		var mirrorPort secondary.ClientRepository
		if mirror != nil {
			mirrorPort = mirror
		}
		httpServer := http2.NewServer(sysCfg.StatusConfig.Port, "status", *http2.NewServiceProvider(coord, mirrorPort), logger)
		if err := httpServer.Init(); err != nil {
			return coordinator.Result{}, fmt.Errorf("%w: %v", errStartup, err)
		}
		if err := httpServer.Start(ctx); err != nil {
			return coordinator.Result{}, fmt.Errorf("%w: %v", errStartup, err)
		}
		defer httpServer.Stop()
	}

	logger.Info("Starting coordinator",
		"dispatch", coord.DispatchAddr().String(),
		"heartbeat", coord.HeartbeatAddr().String(),
		"docType", domain.DocumentType(sysCfg.ExtractorConfig.DocType).String())

	result, err := coord.Run(ctx)
	if err != nil {
		return result, fmt.Errorf("%w: %v", errStartup, err)
	}
	return result, nil
}

// setupMirror connects the optional Redis client mirror. An unreachable server
// is logged and the run continues without it.
func setupMirror(ctx context.Context, cfg *config.RedisConfig, logger primary.Logger) *clientport.ClientRepository {
	if !cfg.Enabled() {
		return nil
	}
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Url,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	session := uuid.NewString()
	repo := clientport.NewClientRepository(redisClient, session, logger)
	if err := repo.Ping(ctx); err != nil {
		logger.Warn("Client mirror disabled", "error", err)
		_ = redisClient.Close()
		return nil
	}
	logger.Info("Mirroring clients to redis", "addr", cfg.Url, "session", session)
	return repo
}
