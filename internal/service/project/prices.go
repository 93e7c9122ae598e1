package project

import (
	"sort"

	"profitpro/internal/model"
	"profitpro/internal/service/calculator"
)

// PriceRange 基础单位价格合理区间（含端点）
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// PriceRanges 每 g 不超过 £50/kg，每 ml 不超过 £10/L，每件 £0.5 ~ £10
var PriceRanges = map[model.Unit]PriceRange{
	model.UnitGram:       {Min: 0.001, Max: 0.05},
	model.UnitMillilitre: {Min: 0.001, Max: 0.01},
	model.UnitPiece:      {Min: 0.5, Max: 10},
}

// PriceWarning 价格超出合理区间的原料，多为录入时单位选错
type PriceWarning struct {
	Menu       string     `json:"menu"`
	Ingredient string     `json:"ingredient"`
	Cost       float64    `json:"cost"`
	Unit       model.Unit `json:"unit"`
	PriceRange
}

// CheckPrices 找出价格可疑的原料，按菜单、原料名排序
func CheckPrices(menus model.Menus) []PriceWarning {
	out := []PriceWarning{}
	for menuName, menu := range menus {
		if menu == nil {
			continue
		}
		for name, ing := range menu.InitialIngredients {
			cost, unit := calculator.ToBaseUnit(ing.Cost, ing.Unit)
			r, ok := PriceRanges[unit]
			if !ok || (cost >= r.Min && cost <= r.Max) {
				continue
			}
			out = append(out, PriceWarning{
				Menu:       menuName,
				Ingredient: name,
				Cost:       cost,
				Unit:       unit,
				PriceRange: r,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Menu != out[j].Menu {
			return out[i].Menu < out[j].Menu
		}
		return out[i].Ingredient < out[j].Ingredient
	})
	return out
}
