package catalog

import "sort"

// Uncategorized 菜品未填写分类时的展示分组
const Uncategorized = "Uncategorized"

// ItemCategories 菜品分类展示顺序：配方类在前，转售类在后
var ItemCategories = []string{
	"Starters", "Mains", "Mains Grill", "Mains Oven", "Steaks", "Pizzas", "Pastas", "Risottos", "Orzotto",
	"Side Dishes", "Desserts",
	"Drinks", "Soft Drinks", "Beers & Ciders", "White Wines", "Red Wines", "Rose Wines", "Sparkling Wines",
	"Cocktails", "Hot Drinks", "Liqueur Coffees",
}

// categoryOrder 分析页分类排序，在菜品分类之后追加原料分组
var categoryOrder = buildCategoryOrder()

func buildCategoryOrder() map[string]int {
	ordered := append([]string{}, ItemCategories...)
	ordered = append(ordered,
		"Baking Supplies", "Beverages", "Canned Goods", "Condiments", "Dairy", "Fruits", "Grains",
		"Herbs and Spices", "Miscellaneous", "Nuts and Seeds", "Oils and Vinegars", "Proteins", "Sauces",
		"Sweeteners", "Vegetables", Uncategorized,
	)
	out := make(map[string]int, len(ordered))
	for i, c := range ordered {
		if _, ok := out[c]; !ok {
			out[c] = i
		}
	}
	return out
}

// CategoryRank 分类排序位置，未知分类排在最后
func CategoryRank(category string) int {
	if rank, ok := categoryOrder[category]; ok {
		return rank
	}
	return len(categoryOrder)
}

// SortCategories 按固定顺序稳定排序，未知分类保持原有先后
func SortCategories(categories []string) []string {
	out := append([]string{}, categories...)
	sort.SliceStable(out, func(i, j int) bool {
		return CategoryRank(out[i]) < CategoryRank(out[j])
	})
	return out
}
