package api

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"profitpro/internal/analysis"
)

type costRequest struct {
	Ingredients  map[string]float64 `json:"ingredients"`
	SellingPrice float64            `json:"sellingPrice" binding:"gte=0"`
}

// PreviewCost 编辑配方时的实时成本预览
// POST /api/menus/:menu/cost
func (h *Handler) PreviewCost(c *gin.Context) {
	var req costRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	menu, err := h.store.GetMenu(c.Param("menu"))
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, analysis.PreviewRecipe(req.Ingredients, req.SellingPrice, menu))
}

// GetAnalysis 菜单毛利分析
// GET /api/menus/:menu/analysis?top=3
func (h *Handler) GetAnalysis(c *gin.Context) {
	name := c.Param("menu")
	menu, err := h.store.GetMenu(name)
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, analysis.Build(name, menu, h.topFromQuery(c)))
}

// ExportAnalysis 导出分析报告 xlsx
// GET /api/menus/:menu/export
func (h *Handler) ExportAnalysis(c *gin.Context) {
	name := c.Param("menu")
	menu, err := h.store.GetMenu(name)
	if err != nil {
		h.fail(c, err)
		return
	}

	report := analysis.Build(name, menu, h.topFromQuery(c))
	file, err := h.exporter.ExportAnalysis(report, menu)
	if err != nil {
		h.fail(c, err)
		return
	}
	defer file.Close()

	filename := fmt.Sprintf("%s-analysis.xlsx", name)
	setHeaders := func() {
		c.Header("Content-Disposition", contentDisposition(filename))
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	}

	if h.exportDir == "" {
		setHeaders()
		if err := file.Write(c.Writer); err != nil {
			h.entry(c).WithError(err).Error("write export failed")
		}
		return
	}

	// 先写入 exports 目录，下载完成后删除
	path := filepath.Join(h.exportDir, fmt.Sprintf("%s-%s.xlsx", name, uuid.New().String()[:8]))
	if err := file.SaveAs(path); err != nil {
		h.fail(c, err)
		return
	}
	defer os.Remove(path)
	setHeaders()
	c.File(path)
}

func (h *Handler) topFromQuery(c *gin.Context) int {
	if v := c.Query("top"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return h.topN
}

func contentDisposition(filename string) string {
	return fmt.Sprintf("attachment; filename=%q; filename*=UTF-8''%s", filename, url.PathEscape(filename))
}
