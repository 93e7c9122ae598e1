package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"profitpro/internal/api"
	"profitpro/internal/config"
	"profitpro/internal/service/project"
	memstore "profitpro/internal/service/store"
	backup "profitpro/internal/store"
)

// devFrontend 开发模式下前端开发服务器地址
const devFrontend = "http://localhost:5173"

// Server HTTP服务器
type Server struct {
	router  *gin.Engine
	manager *project.Manager
	backups *backup.Store
	log     *logrus.Logger

	mu     sync.Mutex
	http   *http.Server
	closed bool
}

// NewServer 创建服务器：加载菜单数据、打开快照库、注册路由
func NewServer(cfg *config.AppConfig, dataDir string, logger *logrus.Logger) (*Server, error) {
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	var backups *backup.Store
	var recorder project.SnapshotRecorder
	var reader api.BackupReader
	if cfg.Data.AutoBackup {
		st, err := backup.Open(config.BackupPath(dataDir))
		if err != nil {
			return nil, fmt.Errorf("open backups: %w", err)
		}
		backups, recorder, reader = st, st, st
	}

	manager, err := project.NewManager(memstore.NewMemoryStore(), project.Options{
		MenusFile: config.MenusPath(cfg, dataDir),
		Defaults: project.Defaults{
			Menus:               cfg.Business.DefaultMenus,
			CostMultiplier:      cfg.Business.DefaultCostMultiplier,
			ResaleFallbackRatio: cfg.Business.ResaleFallbackRatio,
		},
		Backups:    recorder,
		BackupKeep: cfg.Data.BackupKeep,
		Logger:     logger,
	})
	if err != nil {
		closeBackups(backups)
		return nil, err
	}
	if err := manager.Load(); err != nil {
		closeBackups(backups)
		return nil, fmt.Errorf("load menus: %w", err)
	}

	handler := api.NewHandler(api.Options{
		Manager:   manager,
		Backups:   reader,
		ExportDir: config.ExportDir(dataDir),
		TopN:      cfg.Business.TopN,
		Logger:    logger,
	})

	s := &Server{
		router:  gin.New(),
		manager: manager,
		backups: backups,
		log:     logger,
	}
	s.setupRoutes(cfg, handler)
	return s, nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes(cfg *config.AppConfig, handler *api.Handler) {
	s.router.Use(gin.Recovery(), RequestID(), RequestLogger(s.log))

	origins := cfg.Server.AllowOrigins
	if len(origins) == 0 {
		origins = []string{devFrontend}
	}
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", RequestIDHeader},
		ExposeHeaders: []string{RequestIDHeader, "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}))

	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := s.router.Group("/api")
	{
		handler.RegisterRoutes(apiGroup)
	}

	// 静态资源
	switch {
	case cfg.Server.DevMode:
		// 开发模式：代理到前端开发服务器
		s.router.NoRoute(func(c *gin.Context) {
			c.Redirect(http.StatusTemporaryRedirect, devFrontend+c.Request.URL.Path)
		})
	case cfg.Server.StaticDir != "":
		s.serveStatic(cfg.Server.StaticDir)
	}
}

// serveStatic 生产模式：托管前端构建目录，未知路径回落到 index.html
func (s *Server) serveStatic(dir string) {
	index := filepath.Join(dir, "index.html")
	if _, err := os.Stat(index); err != nil {
		s.log.WithField("dir", dir).Warn("static dir has no index.html, frontend disabled")
		return
	}

	s.router.Static("/assets", filepath.Join(dir, "assets"))
	s.router.StaticFile("/favicon.svg", filepath.Join(dir, "favicon.svg"))
	s.router.GET("/", func(c *gin.Context) {
		c.File(index)
	})

	// SPA 路由 fallback
	s.router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, api.Response{Success: false, Error: "Not found"})
			return
		}
		c.File(index)
	})
}

// Handler 路由（用于测试）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run 启动服务器，正常关闭时返回 nil；Shutdown 之后调用直接返回
func (s *Server) Run(addr string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.http = srv
	s.mu.Unlock()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 停止接收请求并关闭快照库
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	srv, backups := s.http, s.backups
	s.backups = nil
	s.mu.Unlock()

	var err error
	if srv != nil {
		err = srv.Shutdown(ctx)
	}
	closeBackups(backups)
	return err
}

// SaveNow 立即持久化菜单数据
func (s *Server) SaveNow() error {
	return s.manager.SaveNow()
}

// Manager 数据文件管理器（用于测试）
func (s *Server) Manager() *project.Manager {
	return s.manager
}

func closeBackups(st *backup.Store) {
	if st != nil {
		_ = st.Close()
	}
}
