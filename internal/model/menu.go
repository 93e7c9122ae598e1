package model

// Unit 计量单位
type Unit string

const (
	UnitKilogram   Unit = "kg"
	UnitGram       Unit = "g"
	UnitLitre      Unit = "L"
	UnitMillilitre Unit = "ml"
	UnitPiece      Unit = "unit"
)

// PurchaseUnits 表单允许录入的采购单位
var PurchaseUnits = []Unit{UnitKilogram, UnitLitre, UnitPiece}

// IsPurchaseUnit 是否为可录入的采购单位
func (u Unit) IsPurchaseUnit() bool {
	for _, p := range PurchaseUnits {
		if u == p {
			return true
		}
	}
	return false
}

// IsKnown 是否为已知单位（含基础单位）
func (u Unit) IsKnown() bool {
	switch u {
	case UnitKilogram, UnitGram, UnitLitre, UnitMillilitre, UnitPiece:
		return true
	}
	return false
}

// Ingredient 原料价格（按名称作为 map key 存储）
// 落盘时 Cost 已换算为每个基础单位（g / ml / unit）的价格
type Ingredient struct {
	Cost     float64 `json:"cost"`
	Unit     Unit    `json:"unit"`
	Category string  `json:"category,omitempty"`
}

// IngredientInput 原料表单请求体
type IngredientInput struct {
	Name     string  `json:"name"`
	Cost     float64 `json:"cost"`
	Unit     Unit    `json:"unit"`
	Category string  `json:"category"`
}

// MenuItem 菜品
// HasRecipe 为 true 时按配方计算成本，否则为转售商品，成本即 BuyingPrice
type MenuItem struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Category     string             `json:"category"`
	SellingPrice float64            `json:"sellingPrice"`
	HasRecipe    bool               `json:"hasRecipe"`
	BuyingPrice  *float64           `json:"buyingPrice,omitempty"`
	Ingredients  map[string]float64 `json:"ingredients,omitempty"`
	Description  string             `json:"description,omitempty"`
}

// Menu 单个菜单：菜品、原料价目表与成本系数
type Menu struct {
	Items              []MenuItem            `json:"items"`
	InitialIngredients map[string]Ingredient `json:"initialIngredients"`
	CostMultiplier     float64               `json:"costMultiplier"`
	Categories         []string              `json:"categories"`
}

// Menus 整个数据文件，按菜单名索引
type Menus map[string]*Menu

// NewMenu 创建空菜单
func NewMenu(costMultiplier float64) *Menu {
	return &Menu{
		Items:              []MenuItem{},
		InitialIngredients: map[string]Ingredient{},
		CostMultiplier:     costMultiplier,
		Categories:         []string{},
	}
}

// FindItem 按 ID 查找菜品下标，未找到返回 -1
func (m *Menu) FindItem(id string) int {
	for i := range m.Items {
		if m.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone 深拷贝菜单
func (m *Menu) Clone() *Menu {
	if m == nil {
		return nil
	}
	out := &Menu{
		Items:              make([]MenuItem, len(m.Items)),
		InitialIngredients: make(map[string]Ingredient, len(m.InitialIngredients)),
		CostMultiplier:     m.CostMultiplier,
		Categories:         append([]string{}, m.Categories...),
	}
	for i, item := range m.Items {
		out.Items[i] = item.Clone()
	}
	for name, ing := range m.InitialIngredients {
		out.InitialIngredients[name] = ing
	}
	return out
}

// Clone 深拷贝菜品
func (it MenuItem) Clone() MenuItem {
	out := it
	if it.BuyingPrice != nil {
		v := *it.BuyingPrice
		out.BuyingPrice = &v
	}
	if it.Ingredients != nil {
		out.Ingredients = make(map[string]float64, len(it.Ingredients))
		for k, v := range it.Ingredients {
			out.Ingredients[k] = v
		}
	}
	return out
}

// Clone 深拷贝整个数据文件
func (ms Menus) Clone() Menus {
	out := make(Menus, len(ms))
	for name, m := range ms {
		out[name] = m.Clone()
	}
	return out
}

// Float 返回浮点指针，便于构造 BuyingPrice
func Float(v float64) *float64 {
	return &v
}
