package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"telecost/internal/importer"
	"telecost/internal/parser"
	"telecost/internal/store"
)

const defaultListLimit = 50

// UploadResponse 上传响应
type UploadResponse struct {
	ImportID int64  `json:"importId"`
	FileName string `json:"fileName"`
}

// Upload 上传账单文件
// POST /api/billing-imports
func (h *Handler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "未找到上传文件"})
		return
	}
	if header.Size > h.maxUpload {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("文件超过 %d 字节上限", h.maxUpload)})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无法读取上传文件"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUpload))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无法读取上传文件"})
		return
	}
	if len(data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "上传文件为空"})
		return
	}

	record, err := h.store.CreateImport(c.Request.Context(), header.Filename, data)
	if err != nil {
		h.log(c).Error().Err(err).Str("file", header.Filename).Msg("create billing import failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "保存文件失败"})
		return
	}

	h.log(c).Info().
		Int64("import_id", record.ID).
		Str("file", record.FileName).
		Int64("size", record.FileSize).
		Msg("billing file uploaded")

	c.JSON(http.StatusCreated, UploadResponse{ImportID: record.ID, FileName: record.FileName})
}

// ListImports 最近的导入记录
// GET /api/billing-imports?limit=50
func (h *Handler) ListImports(c *gin.Context) {
	limit := defaultListLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "无效的 limit"})
			return
		}
		limit = n
	}

	imports, err := h.store.ListImports(c.Request.Context(), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, imports)
}

// GetImport 导入记录详情
// GET /api/billing-imports/:id
func (h *Handler) GetImport(c *gin.Context) {
	id, ok := importID(c)
	if !ok {
		return
	}
	record, err := h.store.GetImport(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// Preview 预览导入结果
// POST /api/billing-imports/:id/preview
func (h *Handler) Preview(c *gin.Context) {
	id, ok := importID(c)
	if !ok {
		return
	}
	result, err := h.coordinator.Preview(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Apply 按处理决定应用导入
// POST /api/billing-imports/:id/apply
func (h *Handler) Apply(c *gin.Context) {
	id, ok := importID(c)
	if !ok {
		return
	}

	var body ApplyRequestDTO
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数: " + err.Error()})
		return
	}
	req, err := body.toRequest()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.coordinator.Apply(c.Request.Context(), id, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if !result.OK {
		c.JSON(http.StatusConflict, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func importID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的导入 ID"})
		return 0, false
	}
	return id, true
}

// writeError 将领域错误映射为 HTTP 状态码
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "导入记录不存在"})
	case errors.Is(err, importer.ErrAlreadyApplied):
		c.JSON(http.StatusConflict, gin.H{"error": "导入已应用"})
	case errors.Is(err, parser.ErrUnsupportedFormat):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": "主数据已被并发修改，请重新预览"})
	default:
		h.log(c).Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "服务器内部错误"})
	}
}
