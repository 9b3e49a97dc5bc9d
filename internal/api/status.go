package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	Status string `json:"status"`
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, StatusResponse{Status: "ok"})
}

// ListExpenseMonths 已导入费用的账期月份
// GET /api/expense-months
func (h *Handler) ListExpenseMonths(c *gin.Context) {
	months, err := h.store.ListExpenseMonths(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, months)
}
