package analysis

import (
	"fmt"
	"sort"
	"strconv"

	"profitpro/internal/catalog"
	"profitpro/internal/model"
	"profitpro/internal/service/calculator"
)

// DefaultTopN 业绩榜默认条数
const DefaultTopN = 3

// ItemMetrics 单个菜品的成本与毛利
type ItemMetrics struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Category           string          `json:"category"`
	Description        string          `json:"description,omitempty"`
	HasRecipe          bool            `json:"hasRecipe"`
	SellingPrice       float64         `json:"sellingPrice"`
	Cost               float64         `json:"cost"`
	ProfitMargin       string          `json:"profitMargin"`
	Tier               calculator.Tier `json:"tier"`
	MissingIngredients []string        `json:"missingIngredients,omitempty"`

	margin float64
}

// Section 配方类或转售类汇总
type Section struct {
	TotalItems      int           `json:"totalItems"`
	AvgProfitMargin string        `json:"avgProfitMargin"`
	Top             []ItemMetrics `json:"top"`
	Bottom          []ItemMetrics `json:"bottom"`
}

// CategoryTable 按分类分组的菜品表
type CategoryTable struct {
	Category string        `json:"category"`
	Items    []ItemMetrics `json:"items"`
}

// Report 菜单毛利分析结果
type Report struct {
	Menu           string          `json:"menu"`
	CostMultiplier float64         `json:"costMultiplier"`
	Recipe         Section         `json:"recipe"`
	Resale         Section         `json:"resale"`
	Categories     []CategoryTable `json:"categories"`
	Items          []ItemMetrics   `json:"items"`
}

// Measure 计算单个菜品的成本、毛利与档位
func Measure(item model.MenuItem, prices calculator.PriceList, costMultiplier float64) ItemMetrics {
	m := ItemMetrics{
		ID:           item.ID,
		Name:         item.Name,
		Category:     item.Category,
		Description:  item.Description,
		HasRecipe:    item.HasRecipe,
		SellingPrice: item.SellingPrice,
	}

	if item.HasRecipe {
		b := calculator.RecipeBreakdown(item.Ingredients, prices, costMultiplier)
		m.Cost = b.Total
		m.ProfitMargin = calculator.ComputeProfitMarginPercent(item.SellingPrice, m.Cost)
		if len(b.Missing) > 0 {
			m.MissingIngredients = b.Missing
		}
	} else {
		m.Cost = calculator.ItemCost(item, prices, costMultiplier)
		// 无进价的转售商品毛利记为 0
		m.ProfitMargin = "0.00"
		if item.BuyingPrice != nil && *item.BuyingPrice != 0 {
			m.ProfitMargin = calculator.ComputeProfitMarginPercent(item.SellingPrice, m.Cost)
		}
	}

	m.margin, _ = strconv.ParseFloat(m.ProfitMargin, 64)
	m.Tier = calculator.ClassifyMargin(m.margin)
	return m
}

// Build 生成菜单分析报告，topN <= 0 时使用 DefaultTopN
func Build(menuName string, menu *model.Menu, topN int) *Report {
	if topN <= 0 {
		topN = DefaultTopN
	}
	report := &Report{
		Menu:       menuName,
		Categories: []CategoryTable{},
		Items:      []ItemMetrics{},
	}
	if menu == nil {
		report.Recipe = summarize(nil, topN)
		report.Resale = summarize(nil, topN)
		return report
	}
	report.CostMultiplier = menu.CostMultiplier

	prices := calculator.PriceList(menu.InitialIngredients)
	var recipe, resale []ItemMetrics
	byCategory := map[string][]ItemMetrics{}
	var order []string

	for _, item := range menu.Items {
		m := Measure(item, prices, menu.CostMultiplier)
		report.Items = append(report.Items, m)
		if m.HasRecipe {
			recipe = append(recipe, m)
		} else {
			resale = append(resale, m)
		}

		category := item.Category
		if category == "" {
			category = catalog.Uncategorized
		}
		if _, ok := byCategory[category]; !ok {
			order = append(order, category)
		}
		byCategory[category] = append(byCategory[category], m)
	}

	report.Recipe = summarize(recipe, topN)
	report.Resale = summarize(resale, topN)
	for _, category := range catalog.SortCategories(order) {
		report.Categories = append(report.Categories, CategoryTable{
			Category: category,
			Items:    byCategory[category],
		})
	}
	return report
}

func summarize(items []ItemMetrics, topN int) Section {
	s := Section{
		TotalItems:      len(items),
		AvgProfitMargin: "0.00",
		Top:             []ItemMetrics{},
		Bottom:          []ItemMetrics{},
	}
	if len(items) == 0 {
		return s
	}

	var sum float64
	for _, it := range items {
		sum += it.margin
	}
	s.AvgProfitMargin = fmt.Sprintf("%.2f", sum/float64(len(items)))

	desc := append([]ItemMetrics{}, items...)
	sort.SliceStable(desc, func(i, j int) bool { return desc[i].margin > desc[j].margin })
	asc := append([]ItemMetrics{}, items...)
	sort.SliceStable(asc, func(i, j int) bool { return asc[i].margin < asc[j].margin })

	s.Top = head(desc, topN)
	s.Bottom = head(asc, topN)
	return s
}

func head(items []ItemMetrics, n int) []ItemMetrics {
	if len(items) > n {
		return items[:n]
	}
	return items
}

// Margin 毛利率数值
func (m ItemMetrics) Margin() float64 {
	return m.margin
}
