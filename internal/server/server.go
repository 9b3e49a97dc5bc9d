package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"telecost/internal/api"
	"telecost/internal/config"
	"telecost/internal/importer"
	"telecost/internal/store"
)

// Server HTTP服务器
type Server struct {
	router *gin.Engine
	store  *store.Store
	api    *api.Handler
	logger zerolog.Logger
	http   *http.Server
}

// NewServer 创建服务器：初始化数据目录、SQLite 存储和路由
func NewServer(cfg *config.AppConfig, logger zerolog.Logger) (*Server, error) {
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare data directory: %w", err)
	}

	sqliteStore, err := store.New(config.DBPath(dataDir), config.UploadDir(dataDir))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	coordinator := importer.NewCoordinator(sqliteStore, logger)

	s := &Server{
		router: gin.New(),
		store:  sqliteStore,
		api:    api.NewHandler(coordinator, sqliteStore, logger, cfg.Import.MaxUploadBytes()),
		logger: logger,
	}
	s.setupRoutes()

	return s, nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	s.router.Use(gin.Recovery(), RequestLogger(s.logger), CORS())

	group := s.router.Group("/api")
	{
		s.api.RegisterRoutes(group)
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "接口不存在"})
	})
}

// Handler 路由处理器（用于测试）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run 启动服务器，直到 Shutdown 被调用
func (s *Server) Run(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 停止接收请求并关闭数据库
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.http != nil {
		err = s.http.Shutdown(ctx)
	}
	if closeErr := s.store.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}
