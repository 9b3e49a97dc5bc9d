package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"telecost/internal/importer"
	"telecost/internal/model"
	"telecost/internal/store"
)

// RequestIDKey gin 上下文中请求 ID 的键
const RequestIDKey = "request_id"

// Store API 所需的存储能力
type Store interface {
	CreateImport(ctx context.Context, fileName string, data []byte) (*model.BillingImport, error)
	GetImport(ctx context.Context, id int64) (*model.BillingImport, error)
	ListImports(ctx context.Context, limit int) ([]*model.BillingImport, error)
	ListExpenseMonths(ctx context.Context) ([]store.ExpenseMonthStat, error)
}

// Handler 账单导入 API 处理器
type Handler struct {
	coordinator *importer.Coordinator
	store       Store
	logger      zerolog.Logger
	maxUpload   int64
}

// NewHandler 创建 API 处理器；maxUpload 为单个上传文件字节上限
func NewHandler(coordinator *importer.Coordinator, store Store, logger zerolog.Logger, maxUpload int64) *Handler {
	return &Handler{
		coordinator: coordinator,
		store:       store,
		logger:      logger.With().Str("component", "api").Logger(),
		maxUpload:   maxUpload,
	}
}

// RegisterRoutes 注册 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)

	// 账单导入
	router.GET("/billing-imports", h.ListImports)
	router.POST("/billing-imports", h.Upload)
	router.GET("/billing-imports/:id", h.GetImport)
	router.POST("/billing-imports/:id/preview", h.Preview)
	router.POST("/billing-imports/:id/apply", h.Apply)

	// 费用统计
	router.GET("/expense-months", h.ListExpenseMonths)
}

// log 带请求 ID 的日志
func (h *Handler) log(c *gin.Context) *zerolog.Logger {
	logger := h.logger
	if id := c.GetString(RequestIDKey); id != "" {
		logger = logger.With().Str("req_id", id).Logger()
	}
	return &logger
}
