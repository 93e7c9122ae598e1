package store

import (
	"errors"
	"sync"
	"testing"

	"profitpro/internal/model"
)

func newTestStore(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemoryStore()
	if err := s.Apply(CreateMenu{Name: "izMenu", CostMultiplier: 1.1}); err != nil {
		t.Fatalf("CreateMenu failed: %v", err)
	}
	return s
}

// TestNewMemoryStore 测试创建存储
func TestNewMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	if s.Count() != 0 || len(s.MenuNames()) != 0 {
		t.Errorf("New store should be empty")
	}
}

// TestCreateMenu 测试新建菜单
func TestCreateMenu(t *testing.T) {
	s := newTestStore(t)

	if err := s.Apply(CreateMenu{Name: "izMenu", CostMultiplier: 1.2}); !errors.Is(err, ErrMenuExists) {
		t.Errorf("duplicate menu should return ErrMenuExists, got %v", err)
	}
	if err := s.Apply(CreateMenu{Name: "bellFood", CostMultiplier: 0.5}); !errors.Is(err, model.ErrInvalid) {
		t.Errorf("multiplier below 1 should be invalid, got %v", err)
	}
	if err := s.Apply(CreateMenu{Name: " ", CostMultiplier: 1}); !errors.Is(err, model.ErrInvalid) {
		t.Errorf("blank name should be invalid, got %v", err)
	}

	m, err := s.GetMenu("izMenu")
	if err != nil {
		t.Fatalf("GetMenu failed: %v", err)
	}
	if m.CostMultiplier != 1.1 || m.Items == nil || m.InitialIngredients == nil {
		t.Errorf("unexpected new menu: %+v", m)
	}
}

// TestAddItem 测试新增菜品
func TestAddItem(t *testing.T) {
	s := newTestStore(t)

	var id string
	err := s.Apply(AddItem{
		Menu: "izMenu",
		Item: model.MenuItem{
			Name: " Flatbread ", Category: "Starters", SellingPrice: 5, HasRecipe: true,
			BuyingPrice: model.Float(1), Ingredients: map[string]float64{"Flour": 200},
		},
		AssignedID: &id,
	})
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if id == "" {
		t.Fatal("AddItem should assign an id")
	}

	m, _ := s.GetMenu("izMenu")
	if len(m.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(m.Items))
	}
	got := m.Items[0]
	if got.ID != id || got.Name != "Flatbread" {
		t.Errorf("unexpected item: %+v", got)
	}
	if got.BuyingPrice != nil {
		t.Error("recipe items should not keep a buying price")
	}
	if len(m.Categories) != 1 || m.Categories[0] != "Starters" {
		t.Errorf("categories = %v", m.Categories)
	}
}

// TestAddItemValidation 测试菜品校验
func TestAddItemValidation(t *testing.T) {
	tests := []struct {
		name string
		item model.MenuItem
	}{
		{"缺少名称", model.MenuItem{Category: "Starters", SellingPrice: 5, HasRecipe: true}},
		{"缺少分类", model.MenuItem{Name: "A", SellingPrice: 5, HasRecipe: true}},
		{"售价为零", model.MenuItem{Name: "A", Category: "Starters", HasRecipe: true}},
		{"转售无进价", model.MenuItem{Name: "Coke", Category: "Soft Drinks", SellingPrice: 3}},
		{"配方数量为零", model.MenuItem{Name: "A", Category: "Starters", SellingPrice: 5, HasRecipe: true,
			Ingredients: map[string]float64{"Flour": 0}}},
	}

	s := newTestStore(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Apply(AddItem{Menu: "izMenu", Item: tt.item})
			if !errors.Is(err, model.ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
	if s.Count() != 0 {
		t.Errorf("failed commands must not change the store, count=%d", s.Count())
	}
}

// TestUpdateAndDeleteItem 测试修改、删除菜品
func TestUpdateAndDeleteItem(t *testing.T) {
	s := newTestStore(t)
	_ = s.Apply(AddItem{Menu: "izMenu", Item: model.MenuItem{
		ID: "coke", Name: "Coke", Category: "Soft Drinks", SellingPrice: 3, BuyingPrice: model.Float(0.9),
	}})

	err := s.Apply(UpdateItem{Menu: "izMenu", ID: "coke", Item: model.MenuItem{
		ID: "other", Name: "Coke Zero", Category: "Soft Drinks", SellingPrice: 3.2, BuyingPrice: model.Float(1),
	}})
	if err != nil {
		t.Fatalf("UpdateItem failed: %v", err)
	}
	m, _ := s.GetMenu("izMenu")
	if m.Items[0].ID != "coke" || m.Items[0].Name != "Coke Zero" {
		t.Errorf("update should keep the id: %+v", m.Items[0])
	}

	if err := s.Apply(UpdateItem{Menu: "izMenu", ID: "missing", Item: m.Items[0]}); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}
	if err := s.Apply(DeleteItem{Menu: "izMenu", ID: "coke"}); err != nil {
		t.Fatalf("DeleteItem failed: %v", err)
	}
	if err := s.Apply(DeleteItem{Menu: "izMenu", ID: "coke"}); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}
	if err := s.Apply(DeleteItem{Menu: "nope", ID: "coke"}); !errors.Is(err, ErrMenuNotFound) {
		t.Errorf("expected ErrMenuNotFound, got %v", err)
	}
}

// TestUpsertIngredient 测试原料换算为基础单位与自动分类
func TestUpsertIngredient(t *testing.T) {
	tests := []struct {
		name     string
		input    model.IngredientInput
		wantCost float64
		wantUnit model.Unit
		wantCat  string
	}{
		{"千克换算为克", model.IngredientInput{Name: "Lamb Shank", Cost: 7.8, Unit: model.UnitKilogram}, 0.0078, model.UnitGram, "Proteins"},
		{"升换算为毫升", model.IngredientInput{Name: "Olive Oil", Cost: 9, Unit: model.UnitLitre}, 0.009, model.UnitMillilitre, "Oils and Vinegars"},
		{"按个计价", model.IngredientInput{Name: "Egg", Cost: 0.25, Unit: model.UnitPiece, Category: "Dairy"}, 0.25, model.UnitPiece, "Dairy"},
	}

	s := newTestStore(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.Apply(UpsertIngredient{Menu: "izMenu", Input: tt.input}); err != nil {
				t.Fatalf("UpsertIngredient failed: %v", err)
			}
			m, _ := s.GetMenu("izMenu")
			got := m.InitialIngredients[tt.input.Name]
			if !floatEquals(got.Cost, tt.wantCost) || got.Unit != tt.wantUnit || got.Category != tt.wantCat {
				t.Errorf("got %+v, want cost=%v unit=%s category=%s", got, tt.wantCost, tt.wantUnit, tt.wantCat)
			}
		})
	}

	err := s.Apply(UpsertIngredient{Menu: "izMenu", Input: model.IngredientInput{Name: "Salt", Cost: 1, Unit: model.UnitGram}})
	if !errors.Is(err, model.ErrInvalid) {
		t.Errorf("base unit g is not accepted from forms, got %v", err)
	}
	err = s.Apply(UpsertIngredient{Menu: "izMenu", Input: model.IngredientInput{Name: "Salt", Cost: 1, Unit: model.UnitKilogram}, RequireExisting: true})
	if !errors.Is(err, ErrIngredientNotFound) {
		t.Errorf("expected ErrIngredientNotFound, got %v", err)
	}
}

// TestRenameIngredient 测试原料改名同步配方
func TestRenameIngredient(t *testing.T) {
	s := newTestStore(t)
	_ = s.Apply(Batch{
		UpsertIngredient{Menu: "izMenu", Input: model.IngredientInput{Name: "Flour", Cost: 2, Unit: model.UnitKilogram}},
		AddItem{Menu: "izMenu", Item: model.MenuItem{ID: "f", Name: "Flatbread", Category: "Starters", SellingPrice: 5,
			HasRecipe: true, Ingredients: map[string]float64{"Flour": 200}}},
	})

	err := s.Apply(RenameIngredient{Menu: "izMenu", From: "Flour",
		Input: model.IngredientInput{Name: "Wheat Flour", Cost: 2.5, Unit: model.UnitKilogram}})
	if err != nil {
		t.Fatalf("RenameIngredient failed: %v", err)
	}
	m, _ := s.GetMenu("izMenu")
	if _, ok := m.InitialIngredients["Flour"]; ok {
		t.Error("old ingredient name should be removed")
	}
	if got := m.Items[0].Ingredients["Wheat Flour"]; got != 200 {
		t.Errorf("recipe reference not renamed: %v", m.Items[0].Ingredients)
	}
}

// TestDeleteIngredientKeepsRecipe 测试删除原料后配方引用保留
func TestDeleteIngredientKeepsRecipe(t *testing.T) {
	s := newTestStore(t)
	_ = s.Apply(Batch{
		UpsertIngredient{Menu: "izMenu", Input: model.IngredientInput{Name: "Flour", Cost: 2, Unit: model.UnitKilogram}},
		AddItem{Menu: "izMenu", Item: model.MenuItem{ID: "f", Name: "Flatbread", Category: "Starters", SellingPrice: 5,
			HasRecipe: true, Ingredients: map[string]float64{"Flour": 200}}},
	})

	if err := s.Apply(DeleteIngredient{Menu: "izMenu", Name: "Flour"}); err != nil {
		t.Fatalf("DeleteIngredient failed: %v", err)
	}
	m, _ := s.GetMenu("izMenu")
	if _, ok := m.Items[0].Ingredients["Flour"]; !ok {
		t.Error("recipe should keep the dangling reference")
	}
	if err := s.Apply(DeleteIngredient{Menu: "izMenu", Name: "Flour"}); !errors.Is(err, ErrIngredientNotFound) {
		t.Errorf("expected ErrIngredientNotFound, got %v", err)
	}
}

// TestBatchAtomic 测试批量命令失败时整体回滚
func TestBatchAtomic(t *testing.T) {
	s := newTestStore(t)
	err := s.Apply(Batch{
		SetCostMultiplier{Menu: "izMenu", CostMultiplier: 1.5},
		DeleteItem{Menu: "izMenu", ID: "missing"},
	})
	if !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
	m, _ := s.GetMenu("izMenu")
	if m.CostMultiplier != 1.1 {
		t.Errorf("batch should roll back, multiplier=%v", m.CostMultiplier)
	}
}

// TestSnapshotIsCopy 测试读取结果与内部数据隔离
func TestSnapshotIsCopy(t *testing.T) {
	s := newTestStore(t)
	snap := s.Snapshot()
	snap["izMenu"].CostMultiplier = 9
	snap["other"] = model.NewMenu(1)

	m, _ := s.GetMenu("izMenu")
	if m.CostMultiplier != 1.1 || len(s.MenuNames()) != 1 {
		t.Error("modifying a snapshot must not change the store")
	}

	s.Replace(nil)
	if len(s.MenuNames()) != 0 {
		t.Error("Replace(nil) should clear the store")
	}
}

// TestConcurrentAccess 测试并发读写
func TestConcurrentAccess(t *testing.T) {
	s := newTestStore(t)
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.Apply(AddItem{Menu: "izMenu", Item: model.MenuItem{
				Name: "Coke", Category: "Soft Drinks", SellingPrice: 3, BuyingPrice: model.Float(0.9),
			}})
		}()
		go func() {
			defer wg.Done()
			_ = s.Snapshot()
		}()
	}
	wg.Wait()

	if s.Count() != 50 {
		t.Errorf("expected 50 items, got %d", s.Count())
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
