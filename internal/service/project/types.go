package project

import (
	"time"

	"profitpro/internal/model"
)

// Defaults 新建或修复数据文件时使用的默认值
type Defaults struct {
	Menus               []string
	CostMultiplier      float64
	ResaleFallbackRatio float64
}

// DefaultDefaults 与历史数据保持一致：izMenu、bellFood 两个菜单，系数 1.1
func DefaultDefaults() Defaults {
	return Defaults{
		Menus:               []string{"izMenu", "bellFood"},
		CostMultiplier:      1.1,
		ResaleFallbackRatio: 0.7,
	}
}

// rawItem 读取旧数据时区分“字段缺失”与“零值”
type rawItem struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Category     string             `json:"category"`
	SellingPrice float64            `json:"sellingPrice"`
	HasRecipe    *bool              `json:"hasRecipe"`
	BuyingPrice  *float64           `json:"buyingPrice"`
	Ingredients  map[string]float64 `json:"ingredients"`
	Description  string             `json:"description"`
}

type rawMenu struct {
	Items              []rawItem                   `json:"items"`
	InitialIngredients map[string]model.Ingredient `json:"initialIngredients"`
	CostMultiplier     *float64                    `json:"costMultiplier"`
	Categories         []string                    `json:"categories"`
}

type rawDocument map[string]*rawMenu

// Status 数据文件状态（/api/status）
type Status struct {
	MenusFile   string    `json:"menusFile"`
	Menus       []string  `json:"menus"`
	ItemCount   int       `json:"itemCount"`
	LastSavedAt time.Time `json:"lastSavedAt"`
	LastReason  string    `json:"lastReason"`
	CanUndo     bool      `json:"canUndo"`
	Repaired    int       `json:"repaired"`
	Backups     bool      `json:"backups"`
	// CorruptFile 启动时无法解析而被移走的数据文件
	CorruptFile   string         `json:"corruptFile,omitempty"`
	PriceWarnings []PriceWarning `json:"priceWarnings"`
}
