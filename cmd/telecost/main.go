package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"telecost/internal/config"
	"telecost/internal/server"
)

var (
	port    = flag.Int("port", 0, "服务端口 (config.toml 优先；仅当未显式配置 port 时生效)")
	devMode = flag.Bool("dev", false, "开发模式")
	dataDir = flag.String("dataDir", "", "数据目录 (覆盖配置文件)")
)

func main() {
	flag.Parse()

	// 加载配置
	cfg, info, err := config.LoadConfigWithInfo()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败，使用默认配置: %v\n", err)
		cfg = config.DefaultConfig()
		info = config.LoadConfigInfo{}
	}

	// 命令行参数覆盖配置
	if *port > 0 && !info.PortSpecified {
		cfg.Server.Port = *port
	}
	if *devMode {
		cfg.Server.DevMode = true
		cfg.Log.Pretty = true
	}
	if *dataDir != "" {
		cfg.Data.DataDir = *dataDir
	}

	logger := config.NewLogger(cfg.Log, os.Stdout)
	logger.Info().
		Str("config", info.Path).
		Str("data_dir", config.ResolveDataDir(cfg)).
		Int("port", cfg.Server.Port).
		Bool("dev", cfg.Server.DevMode).
		Msg("telecost starting")

	// 创建服务器
	srv, err := server.NewServer(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create server")
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		if err := srv.Run(addr); err != nil {
			logger.Fatal().Err(err).Str("addr", addr).Msg("server stopped")
		}
	}()
	logger.Info().Str("addr", addr).Msg("listening")

	// 等待信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown failed")
	}
}
