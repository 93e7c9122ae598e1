package project

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"profitpro/internal/catalog"
	"profitpro/internal/model"
	"profitpro/internal/service/calculator"
)

// Normalize 解析数据文件并修复旧数据，返回修复项数量
//   - 缺少的默认菜单补为空菜单
//   - 缺少 hasRecipe 视为配方菜品
//   - 转售商品缺少进价时按售价 × ResaleFallbackRatio 补齐
//   - 缺少成本系数时使用默认系数
//   - 原料单位缺失或无法识别时视为 unit，kg、L 价格换算为每 g、每 ml
//   - 原料缺少分类时按名称自动分类，菜品缺少 ID 时生成
func Normalize(data []byte, d Defaults) (model.Menus, int, error) {
	raw := rawDocument{}
	if len(strings.TrimSpace(string(data))) > 0 {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, 0, fmt.Errorf("decode menus document: %w", err)
		}
	}

	fixes := 0
	menus := make(model.Menus, len(raw)+len(d.Menus))
	for _, name := range d.Menus {
		if _, ok := raw[name]; !ok {
			menus[name] = model.NewMenu(d.CostMultiplier)
			fixes++
		}
	}

	for name, rm := range raw {
		if rm == nil {
			menus[name] = model.NewMenu(d.CostMultiplier)
			fixes++
			continue
		}
		m, n := normalizeMenu(rm, d)
		menus[name] = m
		fixes += n
	}
	return menus, fixes, nil
}

func normalizeMenu(rm *rawMenu, d Defaults) (*model.Menu, int) {
	fixes := 0
	m := model.NewMenu(d.CostMultiplier)

	if rm.CostMultiplier != nil && *rm.CostMultiplier > 0 {
		m.CostMultiplier = *rm.CostMultiplier
	} else {
		fixes++
	}

	for name, ing := range rm.InitialIngredients {
		if !ing.Unit.IsKnown() {
			ing.Unit = model.UnitPiece
			fixes++
		}
		if ing.Unit == model.UnitKilogram || ing.Unit == model.UnitLitre {
			ing.Cost, ing.Unit = calculator.ToBaseUnit(ing.Cost, ing.Unit)
			fixes++
		}
		if ing.Category == "" {
			ing.Category = catalog.CategorizeIngredient(name)
			fixes++
		}
		m.InitialIngredients[name] = ing
	}

	seen := map[string]bool{}
	for _, c := range rm.Categories {
		if !seen[c] {
			seen[c] = true
			m.Categories = append(m.Categories, c)
		}
	}

	ids := map[string]bool{}
	for _, ri := range rm.Items {
		item := model.MenuItem{
			ID:           ri.ID,
			Name:         ri.Name,
			Category:     ri.Category,
			SellingPrice: ri.SellingPrice,
			HasRecipe:    true,
			BuyingPrice:  ri.BuyingPrice,
			Ingredients:  ri.Ingredients,
			Description:  ri.Description,
		}
		if ri.HasRecipe == nil {
			fixes++
		} else {
			item.HasRecipe = *ri.HasRecipe
		}

		if item.HasRecipe {
			if item.Ingredients == nil {
				item.Ingredients = map[string]float64{}
			}
		} else if item.BuyingPrice == nil {
			item.BuyingPrice = model.Float(item.SellingPrice * d.ResaleFallbackRatio)
			fixes++
		}

		if item.ID == "" || ids[item.ID] {
			item.ID = uuid.New().String()
			fixes++
		}
		ids[item.ID] = true

		if item.Category != "" && !seen[item.Category] {
			seen[item.Category] = true
			m.Categories = append(m.Categories, item.Category)
		}
		m.Items = append(m.Items, item)
	}
	return m, fixes
}
