package api

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"profitpro/internal/analysis"
	"profitpro/internal/catalog"
	"profitpro/internal/model"
	"profitpro/internal/service/calculator"
	memstore "profitpro/internal/service/store"
)

type createMenuRequest struct {
	Name           string  `json:"name" binding:"required"`
	CostMultiplier float64 `json:"costMultiplier" binding:"omitempty,gte=1"`
}

type menuConfigRequest struct {
	CostMultiplier float64 `json:"costMultiplier" binding:"required,gte=1"`
}

// dishRequest 菜品表单；hasRecipe 缺省视为配方菜品
type dishRequest struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Category     string             `json:"category"`
	SellingPrice float64            `json:"sellingPrice"`
	HasRecipe    *bool              `json:"hasRecipe"`
	BuyingPrice  *float64           `json:"buyingPrice"`
	Ingredients  map[string]float64 `json:"ingredients"`
	Description  string             `json:"description"`
}

func (r dishRequest) toItem() model.MenuItem {
	hasRecipe := true
	if r.HasRecipe != nil {
		hasRecipe = *r.HasRecipe
	}
	return model.MenuItem{
		ID:           r.ID,
		Name:         r.Name,
		Category:     r.Category,
		SellingPrice: r.SellingPrice,
		HasRecipe:    hasRecipe,
		BuyingPrice:  r.BuyingPrice,
		Ingredients:  r.Ingredients,
		Description:  strings.TrimSpace(r.Description),
	}
}

// ListMenus 获取全部菜单
// GET /api/menus
func (h *Handler) ListMenus(c *gin.Context) {
	success(c, h.store.Snapshot())
}

// CreateMenu 新建菜单
// POST /api/menus
func (h *Handler) CreateMenu(c *gin.Context) {
	var req createMenuRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.CostMultiplier == 0 {
		req.CostMultiplier = h.manager.Defaults().CostMultiplier
	}
	name := strings.TrimSpace(req.Name)
	cmd := memstore.CreateMenu{Name: name, CostMultiplier: req.CostMultiplier}
	if err := h.mutate(c, "create menu "+name, cmd); err != nil {
		h.fail(c, err)
		return
	}
	menu, _ := h.store.GetMenu(name)
	created(c, menu)
}

// GetMenu 获取单个菜单
// GET /api/menus/:menu
func (h *Handler) GetMenu(c *gin.Context) {
	menu, err := h.store.GetMenu(c.Param("menu"))
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, menu)
}

// UpdateMenuConfig 修改成本系数
// PATCH /api/menus/:menu/config
func (h *Handler) UpdateMenuConfig(c *gin.Context) {
	var req menuConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	name := c.Param("menu")
	cmd := memstore.SetCostMultiplier{Menu: name, CostMultiplier: req.CostMultiplier}
	if err := h.mutate(c, fmt.Sprintf("set %s cost multiplier %.2f", name, req.CostMultiplier), cmd); err != nil {
		h.fail(c, err)
		return
	}
	success(c, gin.H{"costMultiplier": req.CostMultiplier})
}

// ListDishes 菜品列表（含成本与毛利）
// GET /api/menus/:menu/dishes?q=&category=&sort=name|price|price_desc|margin
func (h *Handler) ListDishes(c *gin.Context) {
	menu, err := h.store.GetMenu(c.Param("menu"))
	if err != nil {
		h.fail(c, err)
		return
	}

	q := strings.ToLower(strings.TrimSpace(c.Query("q")))
	category := strings.TrimSpace(c.Query("category"))
	prices := calculator.PriceList(menu.InitialIngredients)

	out := []analysis.ItemMetrics{}
	for _, item := range menu.Items {
		if category != "" && !strings.EqualFold(category, "all") && item.Category != category {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(item.Name), q) &&
			!strings.Contains(strings.ToLower(item.Description), q) {
			continue
		}
		out = append(out, analysis.Measure(item, prices, menu.CostMultiplier))
	}

	switch c.Query("sort") {
	case "name":
		sort.SliceStable(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	case "price":
		sort.SliceStable(out, func(i, j int) bool { return out[i].SellingPrice < out[j].SellingPrice })
	case "price_desc":
		sort.SliceStable(out, func(i, j int) bool { return out[i].SellingPrice > out[j].SellingPrice })
	case "margin":
		sort.SliceStable(out, func(i, j int) bool { return out[i].Margin() > out[j].Margin() })
	case "category":
		sort.SliceStable(out, func(i, j int) bool {
			return catalog.CategoryRank(out[i].Category) < catalog.CategoryRank(out[j].Category)
		})
	}
	success(c, out)
}

// CreateDish 新增菜品
// POST /api/menus/:menu/dishes
func (h *Handler) CreateDish(c *gin.Context) {
	var req dishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	name := c.Param("menu")
	var id string
	cmd := memstore.AddItem{Menu: name, Item: req.toItem(), AssignedID: &id}
	if err := h.mutate(c, "add dish "+strings.TrimSpace(req.Name), cmd); err != nil {
		h.fail(c, err)
		return
	}
	h.respondItem(c, name, id, true)
}

// UpdateDish 修改菜品
// PUT /api/menus/:menu/dishes/:id
func (h *Handler) UpdateDish(c *gin.Context) {
	var req dishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	name, id := c.Param("menu"), c.Param("id")
	cmd := memstore.UpdateItem{Menu: name, ID: id, Item: req.toItem()}
	if err := h.mutate(c, "update dish "+strings.TrimSpace(req.Name), cmd); err != nil {
		h.fail(c, err)
		return
	}
	h.respondItem(c, name, id, false)
}

// DeleteDish 删除菜品
// DELETE /api/menus/:menu/dishes/:id
func (h *Handler) DeleteDish(c *gin.Context) {
	cmd := memstore.DeleteItem{Menu: c.Param("menu"), ID: c.Param("id")}
	if err := h.mutate(c, "delete dish "+cmd.ID, cmd); err != nil {
		h.fail(c, err)
		return
	}
	success(c, gin.H{"deleted": true, "id": cmd.ID})
}

func (h *Handler) respondItem(c *gin.Context, menuName, id string, isNew bool) {
	menu, err := h.store.GetMenu(menuName)
	if err != nil {
		h.fail(c, err)
		return
	}
	idx := menu.FindItem(id)
	if idx < 0 {
		h.fail(c, memstore.ErrItemNotFound)
		return
	}
	item := menu.Items[idx]
	if isNew {
		created(c, item)
		return
	}
	success(c, item)
}
