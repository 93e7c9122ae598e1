package excel

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"profitpro/internal/model"
)

// headerScanRows 表头所在行的最大查找范围
const headerScanRows = 5

var (
	ErrNoSheet  = errors.New("workbook has no sheets")
	ErrNoHeader = errors.New("price list header not found, expected name and cost columns")
)

// RowError 未通过校验的行
type RowError struct {
	Row     int    `json:"row"`
	Name    string `json:"name,omitempty"`
	Message string `json:"message"`
}

// ImportResult 价目表解析结果
type ImportResult struct {
	Sheet  string                  `json:"sheet"`
	Rows   []model.IngredientInput `json:"rows"`
	Errors []RowError              `json:"errors"`
}

var headerAliases = map[string][]string{
	"name":     {"name", "ingredient", "ingredientname", "item"},
	"cost":     {"cost", "price", "unitcost", "costperunit", "purchaseprice"},
	"unit":     {"unit", "units", "uom", "purchaseunit"},
	"category": {"category", "group", "type"},
}

var (
	bracketRe  = regexp.MustCompile(`\(.*?\)`)
	nonAlnumRe = regexp.MustCompile(`[^a-z0-9]+`)
)

// ParseIngredients 读取原料价目表：第一个工作表，表头按别名识别
// 空行跳过；未通过校验的行记录到 Errors，不影响其他行
func ParseIngredients(reader io.Reader) (*ImportResult, error) {
	wb, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel: %w", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheet
	}
	sheet := sheets[0]
	rows, err := wb.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}

	headerRow, cols := findHeader(rows)
	if headerRow < 0 {
		return nil, ErrNoHeader
	}

	result := &ImportResult{
		Sheet:  sheet,
		Rows:   []model.IngredientInput{},
		Errors: []RowError{},
	}
	for i := headerRow + 1; i < len(rows); i++ {
		row := rows[i]
		name := getCell(row, cols["name"])
		costText := getCell(row, cols["cost"])
		if name == "" && costText == "" {
			continue
		}

		in := model.IngredientInput{
			Name:     name,
			Unit:     parseUnit(getCell(row, cols["unit"])),
			Category: getCell(row, cols["category"]),
		}
		cost, ok := parseCost(costText)
		if !ok {
			result.Errors = append(result.Errors, RowError{Row: i + 1, Name: name, Message: "Cost must be a positive number"})
			continue
		}
		in.Cost = cost

		if err := model.ValidateIngredient(in); err != nil {
			result.Errors = append(result.Errors, RowError{Row: i + 1, Name: name, Message: err.Error()})
			continue
		}
		result.Rows = append(result.Rows, in)
	}
	return result, nil
}

// findHeader 返回表头行下标与字段列映射；未找到返回 -1
func findHeader(rows [][]string) (int, map[string]int) {
	limit := headerScanRows
	if limit > len(rows) {
		limit = len(rows)
	}
	for i := 0; i < limit; i++ {
		cols := map[string]int{"name": -1, "cost": -1, "unit": -1, "category": -1}
		for j, h := range rows[i] {
			key := normalizeHeader(h)
			for field, aliases := range headerAliases {
				if cols[field] >= 0 {
					continue
				}
				for _, a := range aliases {
					if key == a {
						cols[field] = j
						break
					}
				}
			}
		}
		if cols["name"] >= 0 && cols["cost"] >= 0 {
			return i, cols
		}
	}
	return -1, nil
}

// normalizeHeader "Cost (£/kg)" -> "cost"，"Ingredient Name" -> "ingredientname"
func normalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = bracketRe.ReplaceAllString(s, "")
	return nonAlnumRe.ReplaceAllString(s, "")
}

func parseUnit(s string) model.Unit {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "kg", "kgs", "kilo", "kilogram", "kilograms":
		return model.UnitKilogram
	case "l", "litre", "litres", "liter", "liters":
		return model.UnitLitre
	case "unit", "units", "each", "ea", "pc", "pcs", "piece", "bottle", "can":
		return model.UnitPiece
	default:
		return model.Unit(strings.TrimSpace(s))
	}
}

func parseCost(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "£$€")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return 0, false
	}
	return f, true
}

func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
