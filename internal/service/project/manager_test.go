package project

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"

	"profitpro/internal/model"
	"profitpro/internal/service/store"
)

type fakeRecorder struct {
	reasons []string
	pruned  int
	fail    bool
}

func (f *fakeRecorder) Save(reason string, document []byte) (int64, error) {
	if f.fail {
		return 0, errors.New("disk full")
	}
	f.reasons = append(f.reasons, reason)
	return int64(len(f.reasons)), nil
}

func (f *fakeRecorder) Prune(keep int) (int64, error) {
	f.pruned++
	return 0, nil
}

func newTestManager(t *testing.T, rec SnapshotRecorder) (*Manager, string) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	path := filepath.Join(t.TempDir(), "menus.json")
	m, err := NewManager(store.NewMemoryStore(), Options{
		MenusFile:  path,
		Defaults:   DefaultDefaults(),
		Backups:    rec,
		BackupKeep: 10,
		Logger:     logger,
	})
	if err != nil {
		t.Fatalf("create manager failed: %v", err)
	}
	return m, path
}

func readMenus(t *testing.T, path string) model.Menus {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read menus file failed: %v", err)
	}
	var menus model.Menus
	if err := json.Unmarshal(data, &menus); err != nil {
		t.Fatalf("decode menus file failed: %v", err)
	}
	return menus
}

func TestLoadCreatesDefaultMenus(t *testing.T) {
	m, path := newTestManager(t, nil)
	if err := m.Load(); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	menus := readMenus(t, path)
	for _, name := range []string{"izMenu", "bellFood"} {
		menu, ok := menus[name]
		if !ok {
			t.Fatalf("default menu %s missing", name)
		}
		if menu.CostMultiplier != 1.1 || len(menu.Items) != 0 {
			t.Errorf("unexpected default menu %s: %+v", name, menu)
		}
	}
}

func TestLoadRepairsLegacyData(t *testing.T) {
	rec := &fakeRecorder{}
	m, path := newTestManager(t, rec)
	legacy := `{
  "izMenu": {
    "items": [
      {"id": "1", "name": "Flatbread", "category": "Starters", "sellingPrice": 5, "ingredients": {"Flour": 200}},
      {"id": "2", "name": "Coke", "category": "Soft Drinks", "sellingPrice": 3, "hasRecipe": false},
      {"name": "Water", "category": "Soft Drinks", "sellingPrice": 2, "hasRecipe": false, "buyingPrice": 0.5}
    ],
    "initialIngredients": {"Flour": {"cost": 0.002, "unit": "g"}},
    "categories": ["Starters"]
  }
}`
	if err := os.WriteFile(path, []byte(legacy), 0644); err != nil {
		t.Fatal(err)
	}
	if err := m.Load(); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	menu, err := m.Store().GetMenu("izMenu")
	if err != nil {
		t.Fatalf("izMenu missing: %v", err)
	}
	if !menu.Items[0].HasRecipe {
		t.Error("missing hasRecipe should default to true")
	}
	coke := menu.Items[1]
	if coke.BuyingPrice == nil || !floatEquals(*coke.BuyingPrice, 2.1) {
		t.Errorf("resale without buying price should get sellingPrice*0.7, got %v", coke.BuyingPrice)
	}
	if menu.Items[2].ID == "" {
		t.Error("missing id should be assigned")
	}
	if menu.CostMultiplier != 1.1 {
		t.Errorf("missing multiplier should default to 1.1, got %v", menu.CostMultiplier)
	}
	if menu.InitialIngredients["Flour"].Category != "Grains" {
		t.Errorf("ingredient category should be filled, got %q", menu.InitialIngredients["Flour"].Category)
	}
	if len(menu.Categories) != 2 || menu.Categories[1] != "Soft Drinks" {
		t.Errorf("categories = %v", menu.Categories)
	}
	if _, err := m.Store().GetMenu("bellFood"); err != nil {
		t.Error("missing default menu should be added")
	}

	// 修复结果写回文件
	if readMenus(t, path)["izMenu"].Items[1].BuyingPrice == nil {
		t.Error("repaired data should be saved")
	}
	if len(rec.reasons) != 1 || rec.reasons[0] != "repair" {
		t.Errorf("expected one repair backup, got %v", rec.reasons)
	}
	if m.Status().Repaired == 0 {
		t.Error("status should report repairs")
	}
}

func TestLoadCorruptFileFallsBack(t *testing.T) {
	m, path := newTestManager(t, nil)
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := m.Load(); err != nil {
		t.Fatalf("corrupt file should not fail load: %v", err)
	}
	if len(m.Store().MenuNames()) != 2 {
		t.Errorf("expected default menus, got %v", m.Store().MenuNames())
	}
	if fileExists(path) {
		t.Error("corrupt file should be moved aside")
	}
	aside := m.Status().CorruptFile
	matches, _ := filepath.Glob(path + ".corrupt-*")
	if len(matches) != 1 || matches[0] != aside {
		t.Fatalf("expected one corrupt copy, got %v (status %q)", matches, aside)
	}
	if data, _ := os.ReadFile(aside); string(data) != "{not json" {
		t.Error("corrupt copy should keep the original bytes")
	}

	// 之后的修改不会覆盖损坏文件的副本
	if err := m.Mutate("set multiplier", store.SetCostMultiplier{Menu: "izMenu", CostMultiplier: 1.2}); err != nil {
		t.Fatalf("mutate failed: %v", err)
	}
	if data, _ := os.ReadFile(aside); string(data) != "{not json" {
		t.Error("corrupt copy should survive later saves")
	}
}

func TestLoadCorruptFileRenameFails(t *testing.T) {
	m, path := newTestManager(t, nil)
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	orig := osRename
	osRename = func(string, string) error { return errors.New("permission denied") }
	defer func() { osRename = orig }()

	if err := m.Load(); err != nil {
		t.Fatalf("corrupt file should not fail load: %v", err)
	}
	if m.Status().CorruptFile != "" {
		t.Error("corrupt file should not be reported when it was not moved")
	}
	if data, _ := os.ReadFile(path); string(data) != "{not json" {
		t.Error("corrupt file should be left in place when it cannot be moved")
	}
}

func TestLoadConvertsLegacyUnits(t *testing.T) {
	m, path := newTestManager(t, nil)
	legacy := `{
  "izMenu": {
    "items": [],
    "initialIngredients": {
      "Lamb Shank": {"cost": 7.8, "unit": "kg", "category": "Proteins"},
      "Olive Oil": {"cost": 8, "unit": "L", "category": "Oils & Fats"},
      "Egg": {"cost": 0.3, "category": "Dairy & Eggs"},
      "Lemon": {"cost": 0.6, "unit": "each", "category": "Fruits"},
      "Salt": {"cost": 0.002, "unit": "g", "category": "Spices & Herbs"}
    },
    "costMultiplier": 1.1,
    "categories": []
  },
  "bellFood": {"items": [], "initialIngredients": {}, "costMultiplier": 1.1, "categories": []}
}`
	if err := os.WriteFile(path, []byte(legacy), 0644); err != nil {
		t.Fatal(err)
	}
	if err := m.Load(); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	tests := []struct {
		name string
		cost float64
		unit model.Unit
	}{
		{"Lamb Shank", 0.0078, model.UnitGram},
		{"Olive Oil", 0.008, model.UnitMillilitre},
		{"Egg", 0.3, model.UnitPiece},
		{"Lemon", 0.6, model.UnitPiece},
		{"Salt", 0.002, model.UnitGram},
	}
	saved := readMenus(t, path)["izMenu"]
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := saved.InitialIngredients[tt.name]
			if got.Unit != tt.unit || !floatEquals(got.Cost, tt.cost) {
				t.Errorf("got %v %s, want %v %s", got.Cost, got.Unit, tt.cost, tt.unit)
			}
		})
	}
	if m.Status().Repaired != 4 {
		t.Errorf("repaired = %d, want 4", m.Status().Repaired)
	}
}

func TestStatusPriceWarnings(t *testing.T) {
	m, _ := newTestManager(t, nil)
	if err := m.Load(); err != nil {
		t.Fatal(err)
	}
	for _, in := range []model.IngredientInput{
		{Name: "Saffron", Cost: 3000, Unit: model.UnitKilogram, Category: "Spices & Herbs"},
		{Name: "Egg", Cost: 0.3, Unit: model.UnitPiece, Category: "Dairy & Eggs"},
		{Name: "Flour", Cost: 2, Unit: model.UnitKilogram, Category: "Grains"},
	} {
		if err := m.Mutate("save "+in.Name, store.UpsertIngredient{Menu: "izMenu", Input: in}); err != nil {
			t.Fatalf("save %s: %v", in.Name, err)
		}
	}

	warnings := m.Status().PriceWarnings
	if len(warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %+v", warnings)
	}
	if warnings[0].Ingredient != "Egg" || warnings[0].Min != 0.5 {
		t.Errorf("first warning = %+v", warnings[0])
	}
	if w := warnings[1]; w.Ingredient != "Saffron" || w.Unit != model.UnitGram || !floatEquals(w.Cost, 3) {
		t.Errorf("second warning = %+v", w)
	}
}

func TestMutateSavesAndUndo(t *testing.T) {
	rec := &fakeRecorder{}
	m, path := newTestManager(t, rec)
	if err := m.Load(); err != nil {
		t.Fatal(err)
	}

	err := m.Mutate("set multiplier", store.SetCostMultiplier{Menu: "izMenu", CostMultiplier: 1.3})
	if err != nil {
		t.Fatalf("mutate failed: %v", err)
	}
	if got := readMenus(t, path)["izMenu"].CostMultiplier; got != 1.3 {
		t.Errorf("saved multiplier = %v, want 1.3", got)
	}
	if !m.Status().CanUndo {
		t.Error("undo should be available after a mutation")
	}
	if len(rec.reasons) != 1 || rec.pruned != 1 {
		t.Errorf("expected one backup and prune, got %v / %d", rec.reasons, rec.pruned)
	}

	if err := m.UndoLast(); err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if got := readMenus(t, path)["izMenu"].CostMultiplier; got != 1.1 {
		t.Errorf("multiplier after undo = %v, want 1.1", got)
	}
	if err := m.UndoLast(); !errors.Is(err, ErrNoUndo) {
		t.Errorf("second undo should return ErrNoUndo, got %v", err)
	}
}

func TestMutateFailureLeavesFile(t *testing.T) {
	m, path := newTestManager(t, nil)
	if err := m.Load(); err != nil {
		t.Fatal(err)
	}
	before, _ := os.ReadFile(path)

	err := m.Mutate("delete", store.DeleteItem{Menu: "izMenu", ID: "missing"})
	if !errors.Is(err, store.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
	after, _ := os.ReadFile(path)
	if string(before) != string(after) {
		t.Error("failed mutation must not rewrite the file")
	}
	if m.Status().CanUndo {
		t.Error("failed mutation must not create an undo snapshot")
	}
}

func TestMutateRollsBackWhenWriteFails(t *testing.T) {
	m, _ := newTestManager(t, nil)
	if err := m.Load(); err != nil {
		t.Fatal(err)
	}

	orig := osRename
	osRename = func(string, string) error { return errors.New("read-only filesystem") }
	defer func() { osRename = orig }()

	err := m.Mutate("set multiplier", store.SetCostMultiplier{Menu: "izMenu", CostMultiplier: 2})
	if err == nil {
		t.Fatal("expected write error")
	}
	menu, _ := m.Store().GetMenu("izMenu")
	if menu.CostMultiplier != 1.1 {
		t.Errorf("store should roll back, multiplier=%v", menu.CostMultiplier)
	}
}

func TestBackupFailureDoesNotFailSave(t *testing.T) {
	m, _ := newTestManager(t, &fakeRecorder{fail: true})
	if err := m.Load(); err != nil {
		t.Fatal(err)
	}
	if err := m.Mutate("set multiplier", store.SetCostMultiplier{Menu: "izMenu", CostMultiplier: 1.2}); err != nil {
		t.Fatalf("backup failure should be logged only: %v", err)
	}
}

func TestRestore(t *testing.T) {
	m, path := newTestManager(t, nil)
	if err := m.Load(); err != nil {
		t.Fatal(err)
	}
	doc := []byte(`{"bellFood": {"items": [], "initialIngredients": {}, "costMultiplier": 1.5, "categories": []}}`)
	if err := m.Restore("restore 3", doc); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	saved := readMenus(t, path)
	if saved["bellFood"].CostMultiplier != 1.5 {
		t.Errorf("restored multiplier = %v", saved["bellFood"].CostMultiplier)
	}
	if _, ok := saved["izMenu"]; !ok {
		t.Error("default menus should be kept after restore")
	}
	if err := m.UndoLast(); err != nil {
		t.Fatalf("restore should be undoable: %v", err)
	}
}

func floatEquals(a, b float64) bool {
	const epsilon = 1e-9
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < epsilon
}
