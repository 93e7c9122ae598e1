package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"profitpro/internal/config"
	"profitpro/internal/logging"
	"profitpro/internal/server"
	"profitpro/internal/util"
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
		log.Printf("加载配置失败，使用默认配置: %v", err)
		cfg = config.DefaultConfig()
		info = config.LoadConfigInfo{}
	}

	// 命令行参数覆盖配置
	if *port > 0 && !info.PortSpecified {
		cfg.Server.Port = *port
	}
	if *devMode {
		cfg.Server.DevMode = true
	}
	if *dataDir != "" {
		cfg.Data.DataDir = *dataDir
	}

	logger := logging.New(cfg.Log)
	logger.WithField("config", info.Path).Info("ProfitPro starting")

	dir, err := config.EnsureDataDir(cfg)
	if err != nil {
		logger.WithError(err).Fatal("create data dir failed")
	}
	logger.WithField("dataDir", dir).Info("data dir ready")

	srv, err := server.NewServer(cfg, dir, logger)
	if err != nil {
		logger.WithError(err).Fatal("init server failed")
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	url := fmt.Sprintf("http://localhost:%d", cfg.Server.Port)

	go func() {
		logger.WithField("addr", addr).Info("listening")
		if err := srv.Run(addr); err != nil {
			logger.WithError(err).Fatal("server stopped")
		}
	}()

	// 打开浏览器
	if cfg.Server.OpenBrowser && !cfg.Server.DevMode {
		if err := util.OpenBrowserWithFallback(url); err != nil {
			logger.Warnf("无法自动打开浏览器，请手动访问: %s", url)
		}
	} else {
		logger.Infof("请访问 %s", url)
	}

	// 等待信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	if err := srv.SaveNow(); err != nil {
		logger.WithError(err).Error("save before exit failed")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("shutdown failed")
	}
}
