package model

import (
	"errors"
	"strings"
)

// ErrInvalid 所有校验错误都可通过 errors.Is(err, ErrInvalid) 识别
var ErrInvalid = errors.New("invalid input")

// ValidationError 表单校验错误
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ValidateItem 校验菜品
func ValidateItem(item MenuItem) error {
	if strings.TrimSpace(item.Name) == "" {
		return invalid("name", "Name is required and must be a non-empty string")
	}
	if strings.TrimSpace(item.Category) == "" {
		return invalid("category", "Category is required and must be a non-empty string")
	}
	if item.SellingPrice <= 0 {
		return invalid("sellingPrice", "Selling price must be a positive number")
	}
	if !item.HasRecipe && (item.BuyingPrice == nil || *item.BuyingPrice <= 0) {
		return invalid("buyingPrice", "Buying price must be a positive number for resale items")
	}
	if item.HasRecipe {
		for name, qty := range item.Ingredients {
			if strings.TrimSpace(name) == "" {
				return invalid("ingredients", "Ingredient name must be a non-empty string")
			}
			if qty <= 0 {
				return invalid("ingredients", "Quantity for "+name+" must be greater than 0")
			}
		}
	}
	return nil
}

// ValidateIngredient 校验原料表单
func ValidateIngredient(in IngredientInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("name", "Name is required and must be a non-empty string")
	}
	if in.Cost <= 0 {
		return invalid("cost", "Cost must be a positive number")
	}
	if strings.TrimSpace(string(in.Unit)) == "" {
		return invalid("unit", "Unit is required and must be a non-empty string")
	}
	if !in.Unit.IsPurchaseUnit() {
		return invalid("unit", "Unit must be kg, L, or unit")
	}
	return nil
}

// ValidateCostMultiplier 成本系数必须不小于 1
func ValidateCostMultiplier(m float64) error {
	if m < 1 {
		return invalid("costMultiplier", "Cost multiplier must be at least 1")
	}
	return nil
}

// ValidateMenuName 菜单名不能为空
func ValidateMenuName(name string) error {
	if strings.TrimSpace(name) == "" {
		return invalid("name", "Menu name is required")
	}
	return nil
}
