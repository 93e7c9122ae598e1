package calculator

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"profitpro/internal/model"
)

// PriceList 原料价目表，按原料名精确匹配
type PriceList map[string]model.Ingredient

// CostPerBaseUnit 折算为每个基础单位（g / ml / unit）的价格
// 按 kg、L 记录的价格除以 1000，其余原样返回
func CostPerBaseUnit(cost float64, unit model.Unit) float64 {
	switch unit {
	case model.UnitKilogram, model.UnitLitre:
		return cost / 1000
	default:
		return cost
	}
}

// ToBaseUnit 写入前把采购单位价格换算为基础单位价格：kg→g，L→ml，unit→unit
func ToBaseUnit(cost float64, unit model.Unit) (float64, model.Unit) {
	switch unit {
	case model.UnitKilogram:
		return cost / 1000, model.UnitGram
	case model.UnitLitre:
		return cost / 1000, model.UnitMillilitre
	default:
		return cost, unit
	}
}

// ComputeRecipeCost 计算配方成本
// 价目表中找不到的原料按 0 计入；结果乘以菜单成本系数，不做取整
func ComputeRecipeCost(recipe map[string]float64, prices PriceList, costMultiplier float64) float64 {
	return RecipeBreakdown(recipe, prices, costMultiplier).Total
}

// Line 配方中单个原料的成本明细
type Line struct {
	Ingredient      string     `json:"ingredient"`
	Quantity        float64    `json:"quantity"`
	Unit            model.Unit `json:"unit,omitempty"`
	CostPerBaseUnit float64    `json:"costPerBaseUnit"`
	Cost            float64    `json:"cost"`
	Found           bool       `json:"found"`
}

// Breakdown 配方成本明细
// Subtotal 为系数前合计，Total 与 ComputeRecipeCost 完全一致
type Breakdown struct {
	Lines          []Line   `json:"lines"`
	Subtotal       float64  `json:"subtotal"`
	CostMultiplier float64  `json:"costMultiplier"`
	Total          float64  `json:"total"`
	Missing        []string `json:"missing"`
}

// Complete 所有原料都在价目表中
func (b Breakdown) Complete() bool {
	return len(b.Missing) == 0
}

// RecipeBreakdown 计算配方成本并给出逐项明细与缺失原料
func RecipeBreakdown(recipe map[string]float64, prices PriceList, costMultiplier float64) Breakdown {
	// 按名称排序累加，保证浮点结果可复现
	names := make([]string, 0, len(recipe))
	for name := range recipe {
		names = append(names, name)
	}
	sort.Strings(names)

	b := Breakdown{
		Lines:          make([]Line, 0, len(names)),
		CostMultiplier: costMultiplier,
		Missing:        []string{},
	}
	for _, name := range names {
		qty := recipe[name]
		ing, ok := prices[name]
		if !ok {
			b.Missing = append(b.Missing, name)
			b.Lines = append(b.Lines, Line{Ingredient: name, Quantity: qty})
			continue
		}
		perBase := CostPerBaseUnit(ing.Cost, ing.Unit)
		cost := qty * perBase
		b.Subtotal += cost
		b.Lines = append(b.Lines, Line{
			Ingredient:      name,
			Quantity:        qty,
			Unit:            ing.Unit,
			CostPerBaseUnit: perBase,
			Cost:            cost,
			Found:           true,
		})
	}
	b.Total = b.Subtotal * costMultiplier
	return b
}

// ItemCost 菜品成本：有配方按配方计算，转售商品直接取进价（缺失为 0）
func ItemCost(item model.MenuItem, prices PriceList, costMultiplier float64) float64 {
	if item.HasRecipe {
		return ComputeRecipeCost(item.Ingredients, prices, costMultiplier)
	}
	if item.BuyingPrice == nil {
		return 0
	}
	return *item.BuyingPrice
}

// ComputeProfitMarginPercent 毛利率（百分比，保留两位小数）
// 售价不大于 0 时返回 "0.00"；成本高于售价时为负数，不做截断
func ComputeProfitMarginPercent(sellingPrice, cost float64) string {
	if sellingPrice <= 0 {
		return "0.00"
	}
	return fmt.Sprintf("%.2f", (sellingPrice-cost)/sellingPrice*100)
}

// ProfitMargin 毛利率数值（两位小数）
func ProfitMargin(sellingPrice, cost float64) float64 {
	v, _ := strconv.ParseFloat(ComputeProfitMarginPercent(sellingPrice, cost), 64)
	return v
}

// RoundCurrency 金额展示取整到分
func RoundCurrency(v float64) float64 {
	return math.Round(v*100) / 100
}
