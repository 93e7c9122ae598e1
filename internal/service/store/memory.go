package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"profitpro/internal/catalog"
	"profitpro/internal/model"
	"profitpro/internal/service/calculator"
)

var (
	ErrMenuNotFound       = errors.New("Menu not found")
	ErrItemNotFound       = errors.New("Item not found")
	ErrIngredientNotFound = errors.New("Ingredient not found")
	ErrMenuExists         = errors.New("Menu already exists")
)

// MemoryStore 内存中的全部菜单数据
// 所有修改都通过 Apply 执行命令完成，读取返回深拷贝
type MemoryStore struct {
	menus model.Menus
	mu    sync.RWMutex
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{menus: model.Menus{}}
}

// Snapshot 返回整个数据文件的拷贝
func (s *MemoryStore) Snapshot() model.Menus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.menus.Clone()
}

// Replace 整体替换数据（加载、撤销、恢复备份）
func (s *MemoryStore) Replace(menus model.Menus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if menus == nil {
		menus = model.Menus{}
	}
	s.menus = menus.Clone()
}

// GetMenu 获取单个菜单拷贝
func (s *MemoryStore) GetMenu(name string) (*model.Menu, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.menus[name]
	if !ok {
		return nil, ErrMenuNotFound
	}
	return m.Clone(), nil
}

// MenuNames 菜单名（排序）
func (s *MemoryStore) MenuNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.menus))
	for name := range s.menus {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count 菜品总数
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, m := range s.menus {
		n += len(m.Items)
	}
	return n
}

// Command 对数据的一次修改
type Command interface {
	apply(menus model.Menus) error
}

// Apply 在写锁内执行命令；命令失败时数据不变
func (s *MemoryStore) Apply(cmd Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.menus.Clone()
	if err := cmd.apply(next); err != nil {
		return err
	}
	s.menus = next
	return nil
}

func lookupMenu(menus model.Menus, name string) (*model.Menu, error) {
	m, ok := menus[name]
	if !ok || m == nil {
		return nil, ErrMenuNotFound
	}
	return m, nil
}

// CreateMenu 新建菜单
type CreateMenu struct {
	Name           string
	CostMultiplier float64
}

func (c CreateMenu) apply(menus model.Menus) error {
	if err := model.ValidateMenuName(c.Name); err != nil {
		return err
	}
	if err := model.ValidateCostMultiplier(c.CostMultiplier); err != nil {
		return err
	}
	if _, ok := menus[c.Name]; ok {
		return ErrMenuExists
	}
	menus[c.Name] = model.NewMenu(c.CostMultiplier)
	return nil
}

// SetCostMultiplier 修改菜单成本系数
type SetCostMultiplier struct {
	Menu           string
	CostMultiplier float64
}

func (c SetCostMultiplier) apply(menus model.Menus) error {
	m, err := lookupMenu(menus, c.Menu)
	if err != nil {
		return err
	}
	if err := model.ValidateCostMultiplier(c.CostMultiplier); err != nil {
		return err
	}
	m.CostMultiplier = c.CostMultiplier
	return nil
}

// AddItem 新增菜品，未带 ID 时自动生成
type AddItem struct {
	Menu string
	Item model.MenuItem

	// 执行后写回实际保存的 ID
	AssignedID *string
}

func (c AddItem) apply(menus model.Menus) error {
	m, err := lookupMenu(menus, c.Menu)
	if err != nil {
		return err
	}
	item := prepareItem(c.Item)
	if err := model.ValidateItem(item); err != nil {
		return err
	}
	if item.ID == "" || m.FindItem(item.ID) >= 0 {
		item.ID = uuid.New().String()
	}
	m.Items = append(m.Items, item)
	rememberCategory(m, item.Category)
	if c.AssignedID != nil {
		*c.AssignedID = item.ID
	}
	return nil
}

// UpdateItem 整体替换菜品，保留原 ID
type UpdateItem struct {
	Menu string
	ID   string
	Item model.MenuItem
}

func (c UpdateItem) apply(menus model.Menus) error {
	m, err := lookupMenu(menus, c.Menu)
	if err != nil {
		return err
	}
	item := prepareItem(c.Item)
	if err := model.ValidateItem(item); err != nil {
		return err
	}
	idx := m.FindItem(c.ID)
	if idx < 0 {
		return ErrItemNotFound
	}
	item.ID = c.ID
	m.Items[idx] = item
	rememberCategory(m, item.Category)
	return nil
}

// DeleteItem 删除菜品
type DeleteItem struct {
	Menu string
	ID   string
}

func (c DeleteItem) apply(menus model.Menus) error {
	m, err := lookupMenu(menus, c.Menu)
	if err != nil {
		return err
	}
	idx := m.FindItem(c.ID)
	if idx < 0 {
		return ErrItemNotFound
	}
	m.Items = append(m.Items[:idx], m.Items[idx+1:]...)
	return nil
}

// UpsertIngredient 新增或覆盖原料，价格换算为基础单位后保存
// RequireExisting 为 true 时原料必须已存在
type UpsertIngredient struct {
	Menu            string
	Input           model.IngredientInput
	RequireExisting bool
}

func (c UpsertIngredient) apply(menus model.Menus) error {
	m, err := lookupMenu(menus, c.Menu)
	if err != nil {
		return err
	}
	in := c.Input
	in.Name = strings.TrimSpace(in.Name)
	if err := model.ValidateIngredient(in); err != nil {
		return err
	}
	if c.RequireExisting {
		if _, ok := m.InitialIngredients[in.Name]; !ok {
			return ErrIngredientNotFound
		}
	}
	cost, unit := calculator.ToBaseUnit(in.Cost, in.Unit)
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = catalog.CategorizeIngredient(in.Name)
	}
	if m.InitialIngredients == nil {
		m.InitialIngredients = map[string]model.Ingredient{}
	}
	m.InitialIngredients[in.Name] = model.Ingredient{Cost: cost, Unit: unit, Category: category}
	return nil
}

// RenameIngredient 修改原料时更换名称，并同步更新引用该原料的配方
type RenameIngredient struct {
	Menu  string
	From  string
	Input model.IngredientInput
}

func (c RenameIngredient) apply(menus model.Menus) error {
	m, err := lookupMenu(menus, c.Menu)
	if err != nil {
		return err
	}
	if _, ok := m.InitialIngredients[c.From]; !ok {
		return ErrIngredientNotFound
	}
	in := c.Input
	to := strings.TrimSpace(in.Name)
	if to == "" || to == c.From {
		in.Name = c.From
		return UpsertIngredient{Menu: c.Menu, Input: in, RequireExisting: true}.apply(menus)
	}
	if _, ok := m.InitialIngredients[to]; ok {
		return &model.ValidationError{Field: "name", Message: "Ingredient " + to + " already exists"}
	}
	if err := (UpsertIngredient{Menu: c.Menu, Input: in}).apply(menus); err != nil {
		return err
	}
	delete(m.InitialIngredients, c.From)
	for i := range m.Items {
		qty, ok := m.Items[i].Ingredients[c.From]
		if !ok {
			continue
		}
		delete(m.Items[i].Ingredients, c.From)
		m.Items[i].Ingredients[to] += qty
	}
	return nil
}

// DeleteIngredient 删除原料；配方中的引用保留，计算时按缺失原料处理
type DeleteIngredient struct {
	Menu string
	Name string
}

func (c DeleteIngredient) apply(menus model.Menus) error {
	m, err := lookupMenu(menus, c.Menu)
	if err != nil {
		return err
	}
	if _, ok := m.InitialIngredients[c.Name]; !ok {
		return ErrIngredientNotFound
	}
	delete(m.InitialIngredients, c.Name)
	return nil
}

// Batch 依次执行多条命令，任一失败则整体不生效
type Batch []Command

func (b Batch) apply(menus model.Menus) error {
	for i, cmd := range b {
		if err := cmd.apply(menus); err != nil {
			return fmt.Errorf("command %d: %w", i+1, err)
		}
	}
	return nil
}

// prepareItem 清理表单数据：去除首尾空格，转售商品不保留配方，配方商品不保留进价
func prepareItem(item model.MenuItem) model.MenuItem {
	item = item.Clone()
	item.Name = strings.TrimSpace(item.Name)
	item.Category = strings.TrimSpace(item.Category)
	if item.HasRecipe {
		item.BuyingPrice = nil
		if item.Ingredients == nil {
			item.Ingredients = map[string]float64{}
		}
	} else {
		item.Ingredients = nil
	}
	return item
}

func rememberCategory(m *model.Menu, category string) {
	for _, c := range m.Categories {
		if c == category {
			return
		}
	}
	m.Categories = append(m.Categories, category)
}
