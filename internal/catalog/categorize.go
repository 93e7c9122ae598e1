package catalog

import "strings"

// DefaultIngredientGroup 无法识别时的原料分组
const DefaultIngredientGroup = "Miscellaneous"

// IngredientGroups 原料分组（按匹配优先级排列）
var IngredientGroups = []string{
	"Proteins", "Vegetables", "Fruits", "Dairy", "Grains", "Legumes", "Nuts and Seeds",
	"Herbs and Spices", "Oils and Vinegars", "Sweeteners", "Beverages", "Condiments",
	"Baking Supplies", "Canned Goods", "Frozen Foods", DefaultIngredientGroup,
}

// groupKeywords 各分组的关键词，名称包含任一关键词即归入该分组
var groupKeywords = map[string][]string{
	"Proteins": {
		"lamb", "beef", "chicken", "pork", "turkey", "duck", "goose", "venison", "bison", "rabbit",
		"salmon", "tuna", "cod", "haddock", "trout", "mackerel", "sardine", "anchovy", "fish",
		"shrimp", "prawn", "lobster", "crab", "scallop", "mussel", "clam", "oyster", "squid", "octopus",
		"tofu", "tempeh", "seitan", "egg", "bacon", "sausage", "ham", "prosciutto", "salami", "pepperoni",
		"kalamari", "oxcheek", "mince",
	},
	"Vegetables": {
		"lettuce", "spinach", "kale", "arugula", "cabbage", "bok choy", "collard", "chard",
		"broccoli", "cauliflower", "brussels sprout", "asparagus", "artichoke", "celery",
		"carrot", "potato", "yam", "beet", "radish", "turnip", "parsnip",
		"onion", "garlic", "shallot", "leek", "scallion", "chive",
		"tomato", "pepper", "chili", "jalapeno", "cucumber", "zucchini", "squash", "pumpkin", "eggplant",
		"mushroom", "truffle", "okra", "green bean", "corn", "pea", "aubergine", "courgette",
		"rocket", "chips", "fries", "vegetables",
	},
	"Fruits": {
		"apple", "banana", "orange", "lemon", "lime", "grapefruit", "mandarin", "tangerine",
		"strawberry", "blueberry", "raspberry", "blackberry", "cranberry", "cherry", "grape",
		"pineapple", "mango", "papaya", "kiwi", "peach", "nectarine", "plum", "apricot", "pear",
		"watermelon", "melon", "fig", "date", "pomegranate", "avocado",
	},
	"Dairy": {
		"milk", "cheese", "yogurt", "butter", "cream", "ricotta", "mozzarella", "cheddar", "parmesan",
		"gouda", "brie", "camembert", "feta", "halloumi", "mascarpone", "grana padano", "granapadano",
	},
	"Grains": {
		"rice", "wheat", "oats", "barley", "quinoa", "cornmeal", "polenta", "bulgur", "couscous",
		"millet", "rye", "spelt", "farro", "bread", "pasta", "noodle", "tortilla", "pita", "pitta",
		"bagel", "cracker", "flour", "orzo", "sourdough", "filo",
	},
	"Legumes": {"bean", "lentil", "chickpea", "soybean", "edamame", "split pea"},
	"Nuts and Seeds": {
		"almond", "walnut", "pecan", "cashew", "peanut", "hazelnut", "macadamia", "pistachio",
		"chia", "flax", "sesame", "pumpkin seed", "sunflower seed", "pine nut",
	},
	"Herbs and Spices": {
		"basil", "oregano", "thyme", "rosemary", "parsley", "cilantro", "dill", "mint", "sage", "tarragon",
		"bay leaf", "marjoram", "cumin", "paprika", "coriander", "turmeric", "ginger", "cinnamon",
		"nutmeg", "clove", "allspice", "cardamom", "saffron", "curry", "salt", "cayenne", "sumac",
		"peppercorn", "herbs",
	},
	"Oils and Vinegars": {"oil", "vinegar", "balsamic"},
	"Sweeteners":        {"sugar", "honey", "maple syrup", "agave", "molasses", "stevia", "syrup"},
	"Beverages": {
		"water", "juice", "soda", "cola", "coke", "lemonade", "beer", "wine", "vodka", "gin", "rum",
		"whiskey", "tequila", "coffee", "tea", "espresso", "smoothie", "prosecco", "champagne",
	},
	"Condiments": {
		"ketchup", "mustard", "mayonnaise", "soy sauce", "hot sauce", "barbecue", "bbq", "worcestershire",
		"relish", "pickle", "salsa", "chutney", "horseradish", "aioli", "tahini", "sriracha", "tzatziki",
		"jam",
	},
	"Baking Supplies": {"baking powder", "baking soda", "yeast", "vanilla", "cocoa", "chocolate", "cornstarch", "gelatin"},
	"Canned Goods":    {"canned", "tomato paste", "broth", "stock", "olive"},
	"Frozen Foods":    {"frozen", "ice cream"},
}

// CategorizeIngredient 按名称关键词推断原料分组（大小写不敏感，按 IngredientGroups 顺序首个命中）
func CategorizeIngredient(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return DefaultIngredientGroup
	}
	for _, group := range IngredientGroups {
		for _, kw := range groupKeywords[group] {
			if strings.Contains(lower, kw) {
				return group
			}
		}
	}
	return DefaultIngredientGroup
}
