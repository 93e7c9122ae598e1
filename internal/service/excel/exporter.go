package excel

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"profitpro/internal/analysis"
	"profitpro/internal/model"
)

const (
	SheetSummary     = "Summary"
	SheetItems       = "Items"
	SheetIngredients = "Ingredients"
)

// Exporter Excel导出器
type Exporter struct{}

// NewExporter 创建导出器
func NewExporter() *Exporter {
	return &Exporter{}
}

// ExportAnalysis 导出菜单毛利分析：汇总、菜品明细、原料价目表三个工作表
func (e *Exporter) ExportAnalysis(report *analysis.Report, menu *model.Menu) (*excelize.File, error) {
	if report == nil {
		return nil, fmt.Errorf("report is required")
	}
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", SheetSummary)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeSummary(f, report, headerStyle); err != nil {
		return nil, err
	}
	if err := writeItems(f, report, headerStyle); err != nil {
		return nil, err
	}
	if err := writeIngredients(f, menu, headerStyle); err != nil {
		return nil, err
	}
	f.SetActiveSheet(0)
	return f, nil
}

func writeSummary(f *excelize.File, report *analysis.Report, headerStyle int) error {
	rows := [][]interface{}{
		{"Menu", report.Menu},
		{"Cost multiplier", report.CostMultiplier},
		{},
		{"Section", "Items", "Avg margin %"},
		{"Recipe", report.Recipe.TotalItems, report.Recipe.AvgProfitMargin},
		{"Resale", report.Resale.TotalItems, report.Resale.AvgProfitMargin},
		{},
		{"Ranking", "Name", "Category", "Margin %"},
	}
	rankings := []struct {
		label string
		items []analysis.ItemMetrics
	}{
		{"Top recipe", report.Recipe.Top},
		{"Bottom recipe", report.Recipe.Bottom},
		{"Top resale", report.Resale.Top},
		{"Bottom resale", report.Resale.Bottom},
	}
	for _, r := range rankings {
		for _, it := range r.items {
			rows = append(rows, []interface{}{r.label, it.Name, it.Category, it.ProfitMargin})
		}
	}

	if err := writeRows(f, SheetSummary, rows); err != nil {
		return err
	}
	f.SetRowStyle(SheetSummary, 4, 4, headerStyle)
	f.SetRowStyle(SheetSummary, 8, 8, headerStyle)
	f.SetColWidth(SheetSummary, "A", "A", 18)
	f.SetColWidth(SheetSummary, "B", "C", 28)
	f.SetColWidth(SheetSummary, "D", "D", 12)
	return nil
}

func writeItems(f *excelize.File, report *analysis.Report, headerStyle int) error {
	if _, err := f.NewSheet(SheetItems); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", SheetItems, err)
	}

	rows := [][]interface{}{
		{"Category", "Name", "Type", "Selling price", "Cost", "Margin %", "Tier", "Missing ingredients"},
	}
	for _, table := range report.Categories {
		for _, it := range table.Items {
			kind := "Resale"
			if it.HasRecipe {
				kind = "Recipe"
			}
			rows = append(rows, []interface{}{
				table.Category,
				it.Name,
				kind,
				it.SellingPrice,
				roundCost(it.Cost),
				it.ProfitMargin,
				string(it.Tier),
				strings.Join(it.MissingIngredients, ", "),
			})
		}
	}

	if err := writeRows(f, SheetItems, rows); err != nil {
		return err
	}
	f.SetRowStyle(SheetItems, 1, 1, headerStyle)
	f.SetColWidth(SheetItems, "A", "A", 20)
	f.SetColWidth(SheetItems, "B", "B", 32)
	f.SetColWidth(SheetItems, "C", "G", 14)
	f.SetColWidth(SheetItems, "H", "H", 30)
	return nil
}

func writeIngredients(f *excelize.File, menu *model.Menu, headerStyle int) error {
	if _, err := f.NewSheet(SheetIngredients); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", SheetIngredients, err)
	}

	rows := [][]interface{}{{"Name", "Category", "Cost per base unit", "Unit"}}
	if menu != nil {
		names := make([]string, 0, len(menu.InitialIngredients))
		for name := range menu.InitialIngredients {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			ing := menu.InitialIngredients[name]
			rows = append(rows, []interface{}{name, ing.Category, ing.Cost, string(ing.Unit)})
		}
	}

	if err := writeRows(f, SheetIngredients, rows); err != nil {
		return err
	}
	f.SetRowStyle(SheetIngredients, 1, 1, headerStyle)
	f.SetColWidth(SheetIngredients, "A", "B", 28)
	f.SetColWidth(SheetIngredients, "C", "D", 18)
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// 成本只在导出时保留 4 位小数，便于核对
func roundCost(v float64) float64 {
	return math.Round(v*10000) / 10000
}
