package api

import (
	"bytes"
	"io"
	"net/http"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"profitpro/internal/model"
	"profitpro/internal/service/excel"
	memstore "profitpro/internal/service/store"
)

// IngredientRow 原料列表行
type IngredientRow struct {
	Name     string     `json:"name"`
	Cost     float64    `json:"cost"`
	Unit     model.Unit `json:"unit"`
	Category string     `json:"category"`
	UsedBy   int        `json:"usedBy"`
}

// ListIngredients 原料列表（按名称排序）
// GET /api/menus/:menu/ingredients?q=&category=
func (h *Handler) ListIngredients(c *gin.Context) {
	menu, err := h.store.GetMenu(c.Param("menu"))
	if err != nil {
		h.fail(c, err)
		return
	}

	usage := map[string]int{}
	for _, item := range menu.Items {
		for name := range item.Ingredients {
			usage[name]++
		}
	}

	q := strings.ToLower(strings.TrimSpace(c.Query("q")))
	category := strings.TrimSpace(c.Query("category"))
	rows := []IngredientRow{}
	for name, ing := range menu.InitialIngredients {
		if q != "" && !strings.Contains(strings.ToLower(name), q) {
			continue
		}
		if category != "" && ing.Category != category {
			continue
		}
		rows = append(rows, IngredientRow{
			Name:     name,
			Cost:     ing.Cost,
			Unit:     ing.Unit,
			Category: ing.Category,
			UsedBy:   usage[name],
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	success(c, rows)
}

// CreateIngredient 新增或覆盖原料；kg、L 价格换算为每 g、每 ml
// POST /api/menus/:menu/ingredients
func (h *Handler) CreateIngredient(c *gin.Context) {
	var in model.IngredientInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	name := c.Param("menu")
	cmd := memstore.UpsertIngredient{Menu: name, Input: in}
	if err := h.mutate(c, "save ingredient "+strings.TrimSpace(in.Name), cmd); err != nil {
		h.fail(c, err)
		return
	}
	h.respondIngredient(c, name, strings.TrimSpace(in.Name), http.StatusCreated)
}

// UpdateIngredient 修改原料；body 中名称不同时改名并同步配方
// PUT /api/menus/:menu/ingredients/:name
func (h *Handler) UpdateIngredient(c *gin.Context) {
	var in model.IngredientInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	name, from := c.Param("menu"), c.Param("name")
	cmd := memstore.RenameIngredient{Menu: name, From: from, Input: in}
	if err := h.mutate(c, "update ingredient "+from, cmd); err != nil {
		h.fail(c, err)
		return
	}
	to := strings.TrimSpace(in.Name)
	if to == "" {
		to = from
	}
	h.respondIngredient(c, name, to, http.StatusOK)
}

// DeleteIngredient 删除原料
// DELETE /api/menus/:menu/ingredients/:name
func (h *Handler) DeleteIngredient(c *gin.Context) {
	cmd := memstore.DeleteIngredient{Menu: c.Param("menu"), Name: c.Param("name")}
	if err := h.mutate(c, "delete ingredient "+cmd.Name, cmd); err != nil {
		h.fail(c, err)
		return
	}
	success(c, gin.H{"deleted": true, "name": cmd.Name})
}

// ImportIngredients 上传 xlsx 价目表批量导入
// POST /api/menus/:menu/ingredients/import
func (h *Handler) ImportIngredients(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "Please upload a price list file")
		return
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		errorResponse(c, http.StatusBadRequest, "File is too large, maximum size is 10MB")
		return
	}
	if ext := strings.ToLower(filepath.Ext(header.Filename)); ext != ".xlsx" {
		errorResponse(c, http.StatusBadRequest, "Only .xlsx files are supported")
		return
	}

	content, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "Failed to read file")
		return
	}
	result, err := excel.ParseIngredients(bytes.NewReader(content))
	if err != nil {
		// 解析失败均视为文件内容问题
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	name := c.Param("menu")
	if len(result.Rows) > 0 {
		batch := make(memstore.Batch, 0, len(result.Rows))
		for _, in := range result.Rows {
			batch = append(batch, memstore.UpsertIngredient{Menu: name, Input: in})
		}
		if err := h.mutate(c, "import "+header.Filename, batch); err != nil {
			h.fail(c, err)
			return
		}
	} else if _, err := h.store.GetMenu(name); err != nil {
		h.fail(c, err)
		return
	}

	h.entry(c).WithField("file", header.Filename).
		WithField("imported", len(result.Rows)).
		WithField("rejected", len(result.Errors)).
		Info("price list imported")
	success(c, gin.H{
		"sheet":    result.Sheet,
		"imported": len(result.Rows),
		"errors":   result.Errors,
	})
}

func (h *Handler) respondIngredient(c *gin.Context, menuName, name string, status int) {
	menu, err := h.store.GetMenu(menuName)
	if err != nil {
		h.fail(c, err)
		return
	}
	ing, ok := menu.InitialIngredients[name]
	if !ok {
		h.fail(c, memstore.ErrIngredientNotFound)
		return
	}
	c.JSON(status, Response{Success: true, Data: IngredientRow{
		Name:     name,
		Cost:     ing.Cost,
		Unit:     ing.Unit,
		Category: ing.Category,
	}})
}
