package analysis

import (
	"profitpro/internal/model"
	"profitpro/internal/service/calculator"
)

// Preview 编辑菜品时的实时成本预览
type Preview struct {
	Breakdown    calculator.Breakdown `json:"breakdown"`
	Cost         float64              `json:"cost"`
	DisplayCost  float64              `json:"displayCost"`
	SellingPrice float64              `json:"sellingPrice"`
	ProfitMargin string               `json:"profitMargin"`
	Tier         calculator.Tier      `json:"tier"`
}

// PreviewRecipe 按菜单价目表与成本系数计算配方预览
func PreviewRecipe(recipe map[string]float64, sellingPrice float64, menu *model.Menu) Preview {
	var prices calculator.PriceList
	multiplier := 1.0
	if menu != nil {
		prices = calculator.PriceList(menu.InitialIngredients)
		multiplier = menu.CostMultiplier
	}

	b := calculator.RecipeBreakdown(recipe, prices, multiplier)
	margin := calculator.ComputeProfitMarginPercent(sellingPrice, b.Total)
	return Preview{
		Breakdown:    b,
		Cost:         b.Total,
		DisplayCost:  calculator.RoundCurrency(b.Total),
		SellingPrice: sellingPrice,
		ProfitMargin: margin,
		Tier:         calculator.ClassifyMargin(calculator.ProfitMargin(sellingPrice, b.Total)),
	}
}
