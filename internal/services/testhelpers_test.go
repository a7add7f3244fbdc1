package services

import (
	"sort"
	"sync"
	"testing"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// The fakes below implement the repository interfaces in memory. The fake tx
// manager serializes callers with a mutex, which mirrors how row locks
// serialize transactions touching the same items, so the concurrency tests
// observe the same interleaving guarantees the real engine provides.

type fakeTxManager struct {
	mu sync.Mutex
}

func (m *fakeTxManager) WithinTx(fn func(tx repositories.SQLExecutor) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(nil)
}

// --- warehouse fake ---

type fakeWarehouseRepo struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]*models.WarehouseItem
	ops    []models.WarehouseOperation
}

func newFakeWarehouseRepo() *fakeWarehouseRepo {
	return &fakeWarehouseRepo{items: map[int64]*models.WarehouseItem{}}
}

func (r *fakeWarehouseRepo) CreateItem(_ repositories.SQLExecutor, item *models.WarehouseItem) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.Name == item.Name {
			return 0, repositories.ErrDuplicateKey
		}
	}
	r.nextID++
	item.ID = r.nextID
	clone := *item
	r.items[item.ID] = &clone
	return item.ID, nil
}

func (r *fakeWarehouseRepo) GetItemByID(_ repositories.SQLExecutor, itemID int64) (*models.WarehouseItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[itemID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	clone := *item
	return &clone, nil
}

func (r *fakeWarehouseRepo) GetItemForUpdate(executor repositories.SQLExecutor, itemID int64) (*models.WarehouseItem, error) {
	return r.GetItemByID(executor, itemID)
}

func (r *fakeWarehouseRepo) GetItems(page, pageSize int) ([]models.WarehouseItem, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int64, 0, len(r.items))
	for id := range r.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	all := make([]models.WarehouseItem, 0, len(ids))
	for _, id := range ids {
		all = append(all, *r.items[id])
	}
	return pageSlice(all, page, pageSize), len(all), nil
}

func (r *fakeWarehouseRepo) AdjustQuantity(_ repositories.SQLExecutor, itemID int64, delta decimal.Decimal) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[itemID]
	if !ok {
		return decimal.Zero, repositories.ErrNotFound
	}
	next := item.Quantity.Add(delta)
	if next.IsNegative() {
		return decimal.Zero, repositories.ErrInsufficientQuantity
	}
	item.Quantity = next
	return next, nil
}

func (r *fakeWarehouseRepo) LowStockItems() ([]models.WarehouseItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var low []models.WarehouseItem
	for _, item := range r.items {
		if item.Quantity.LessThanOrEqual(item.MinQuantity) {
			low = append(low, *item)
		}
	}
	sort.Slice(low, func(i, j int) bool { return low[i].ID < low[j].ID })
	return low, nil
}

func (r *fakeWarehouseRepo) TotalValue() (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := decimal.Zero
	for _, item := range r.items {
		total = total.Add(item.Quantity.Mul(item.UnitPrice))
	}
	return total, nil
}

func (r *fakeWarehouseRepo) CreateOperation(_ repositories.SQLExecutor, op *models.WarehouseOperation) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	op.ID = r.nextID
	if item, ok := r.items[op.ItemID]; ok {
		op.ItemName = item.Name
	}
	r.ops = append(r.ops, *op)
	return op.ID, nil
}

func (r *fakeWarehouseRepo) GetOperations(itemID *int64, page, pageSize int) ([]models.WarehouseOperation, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var filtered []models.WarehouseOperation
	for i := len(r.ops) - 1; i >= 0; i-- {
		if itemID == nil || r.ops[i].ItemID == *itemID {
			filtered = append(filtered, r.ops[i])
		}
	}
	return pageSlice(filtered, page, pageSize), len(filtered), nil
}

// opsFor returns the recorded operations for one item, oldest first.
func (r *fakeWarehouseRepo) opsFor(itemID int64) []models.WarehouseOperation {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.WarehouseOperation
	for _, op := range r.ops {
		if op.ItemID == itemID {
			out = append(out, op)
		}
	}
	return out
}

// --- recipe fake ---

type fakeRecipeRepo struct {
	mu      sync.Mutex
	nextID  int64
	recipes map[int64]*models.Recipe
}

func newFakeRecipeRepo() *fakeRecipeRepo {
	return &fakeRecipeRepo{recipes: map[int64]*models.Recipe{}}
}

func cloneRecipe(r *models.Recipe) *models.Recipe {
	clone := *r
	clone.Ingredients = append([]models.RecipeIngredient(nil), r.Ingredients...)
	return &clone
}

func (r *fakeRecipeRepo) CreateRecipe(_ repositories.SQLExecutor, recipe *models.Recipe) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.recipes {
		if existing.DishID == recipe.DishID {
			return 0, repositories.ErrDuplicateKey
		}
	}
	r.nextID++
	recipe.ID = r.nextID
	for i := range recipe.Ingredients {
		r.nextID++
		recipe.Ingredients[i].ID = r.nextID
		recipe.Ingredients[i].RecipeID = recipe.ID
	}
	r.recipes[recipe.ID] = cloneRecipe(recipe)
	return recipe.ID, nil
}

func (r *fakeRecipeRepo) GetRecipeByID(_ repositories.SQLExecutor, recipeID int64) (*models.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	recipe, ok := r.recipes[recipeID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return cloneRecipe(recipe), nil
}

func (r *fakeRecipeRepo) GetRecipeByDishID(_ repositories.SQLExecutor, dishID int64) (*models.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, recipe := range r.recipes {
		if recipe.DishID == dishID {
			return cloneRecipe(recipe), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeRecipeRepo) GetRecipes(page, pageSize int) ([]models.Recipe, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int64, 0, len(r.recipes))
	for id := range r.recipes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	all := make([]models.Recipe, 0, len(ids))
	for _, id := range ids {
		all = append(all, *cloneRecipe(r.recipes[id]))
	}
	return pageSlice(all, page, pageSize), len(all), nil
}

func (r *fakeRecipeRepo) ReplaceIngredients(_ repositories.SQLExecutor, recipeID int64, ingredients []models.RecipeIngredient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	recipe, ok := r.recipes[recipeID]
	if !ok {
		return repositories.ErrNotFound
	}
	recipe.Ingredients = append([]models.RecipeIngredient(nil), ingredients...)
	for i := range recipe.Ingredients {
		r.nextID++
		recipe.Ingredients[i].ID = r.nextID
		recipe.Ingredients[i].RecipeID = recipeID
	}
	return nil
}

func (r *fakeRecipeRepo) DeleteRecipe(_ repositories.SQLExecutor, recipeID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.recipes[recipeID]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.recipes, recipeID)
	return nil
}

// --- menu fake ---

type fakeMenuRepo struct {
	mu     sync.Mutex
	dishes map[int64]*models.MenuItem
}

func newFakeMenuRepo() *fakeMenuRepo {
	return &fakeMenuRepo{dishes: map[int64]*models.MenuItem{}}
}

func (r *fakeMenuRepo) add(dish models.MenuItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := dish
	r.dishes[dish.ID] = &clone
}

func (r *fakeMenuRepo) GetDishByID(dishID int64) (*models.MenuItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	dish, ok := r.dishes[dishID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	clone := *dish
	return &clone, nil
}

func (r *fakeMenuRepo) GetDishes(page, pageSize int) ([]models.MenuItem, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int64, 0, len(r.dishes))
	for id := range r.dishes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	all := make([]models.MenuItem, 0, len(ids))
	for _, id := range ids {
		all = append(all, *r.dishes[id])
	}
	return pageSlice(all, page, pageSize), len(all), nil
}

// --- order fake ---

type fakeOrderRepo struct {
	mu     sync.Mutex
	nextID int64
	orders map[int64]*models.Order
	lines  map[int64]*models.OrderLine
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders: map[int64]*models.Order{},
		lines:  map[int64]*models.OrderLine{},
	}
}

func (r *fakeOrderRepo) CreateOrder(_ repositories.SQLExecutor, order *models.Order) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	order.ID = r.nextID
	clone := *order
	clone.Lines = nil
	r.orders[order.ID] = &clone
	return order.ID, nil
}

func (r *fakeOrderRepo) GetOrderByID(_ repositories.SQLExecutor, orderID int64) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	clone := *order
	clone.Lines = nil
	return &clone, nil
}

func (r *fakeOrderRepo) GetOrders(filters models.OrderFilters) ([]models.Order, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int64, 0, len(r.orders))
	for id := range r.orders {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	var all []models.Order
	for _, id := range ids {
		order := r.orders[id]
		if filters.TableNumber != nil && order.TableNumber != *filters.TableNumber {
			continue
		}
		if filters.Status != nil && order.Status != *filters.Status {
			continue
		}
		clone := *order
		clone.Lines = nil
		all = append(all, clone)
	}
	return pageSlice(all, filters.Page, filters.PageSize), len(all), nil
}

func (r *fakeOrderRepo) GetOrderLines(_ repositories.SQLExecutor, orderID int64) ([]models.OrderLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int64, 0, len(r.lines))
	for id := range r.lines {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	var out []models.OrderLine
	for _, id := range ids {
		if r.lines[id].OrderID == orderID {
			out = append(out, *r.lines[id])
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) GetLineByID(_ repositories.SQLExecutor, lineID int64) (*models.OrderLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	line, ok := r.lines[lineID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	clone := *line
	return &clone, nil
}

func (r *fakeOrderRepo) GetLineByDish(_ repositories.SQLExecutor, orderID, dishID int64) (*models.OrderLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, line := range r.lines {
		if line.OrderID == orderID && line.DishID == dishID {
			clone := *line
			return &clone, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeOrderRepo) CreateLine(_ repositories.SQLExecutor, line *models.OrderLine) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	line.ID = r.nextID
	clone := *line
	r.lines[line.ID] = &clone
	return line.ID, nil
}

func (r *fakeOrderRepo) UpdateLine(_ repositories.SQLExecutor, line *models.OrderLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.lines[line.ID]; !ok {
		return repositories.ErrNotFound
	}
	clone := *line
	r.lines[line.ID] = &clone
	return nil
}

func (r *fakeOrderRepo) DeleteLine(_ repositories.SQLExecutor, lineID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.lines[lineID]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.lines, lineID)
	return nil
}

func (r *fakeOrderRepo) UpdateOrderStatus(_ repositories.SQLExecutor, orderID int64, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return repositories.ErrNotFound
	}
	order.Status = status
	return nil
}

func (r *fakeOrderRepo) UpdateOrderTotal(_ repositories.SQLExecutor, orderID int64, total decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return repositories.ErrNotFound
	}
	order.TotalAmount = total
	return nil
}

// --- auth fake ---

type fakeAuthRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[string]*models.User
	hashes map[string]string
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{users: map[string]*models.User{}, hashes: map[string]string{}}
}

func (r *fakeAuthRepo) CreateUser(_ repositories.SQLExecutor, user *models.User, hashedPassword string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.Username]; ok {
		return 0, repositories.ErrDuplicateKey
	}
	r.nextID++
	user.ID = r.nextID
	clone := *user
	r.users[user.Username] = &clone
	r.hashes[user.Username] = hashedPassword
	return user.ID, nil
}

func (r *fakeAuthRepo) FindUserByUsername(username string) (*models.User, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[username]
	if !ok {
		return nil, "", repositories.ErrNotFound
	}
	clone := *user
	return &clone, r.hashes[username], nil
}

func (r *fakeAuthRepo) FindUserByID(userID int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.ID == userID {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repositories.ErrNotFound
}

// --- shared helpers ---

func pageSlice[T any](all []T, page, pageSize int) []T {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = len(all)
	}
	start := (page - 1) * pageSize
	if start >= len(all) {
		return nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return append([]T(nil), all[start:end]...)
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func requireDecimalEqual(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	require.True(t, dec(t, expected).Equal(actual), "expected %s, got %s", expected, actual)
}

// fixture wires the whole service stack onto in-memory repositories.
type fixture struct {
	warehouseRepo *fakeWarehouseRepo
	recipeRepo    *fakeRecipeRepo
	menuRepo      *fakeMenuRepo
	orderRepo     *fakeOrderRepo
	txManager     *fakeTxManager

	warehouse    WarehouseService
	recipes      RecipeService
	reservations ReservationEngine
	orders       OrderService
}

func newFixture() *fixture {
	f := &fixture{
		warehouseRepo: newFakeWarehouseRepo(),
		recipeRepo:    newFakeRecipeRepo(),
		menuRepo:      newFakeMenuRepo(),
		orderRepo:     newFakeOrderRepo(),
		txManager:     &fakeTxManager{},
	}
	f.warehouse = NewWarehouseService(f.warehouseRepo, f.txManager, nil)
	f.recipes = NewRecipeService(f.recipeRepo, f.menuRepo, f.warehouseRepo, f.txManager, nil)
	f.reservations = NewReservationEngine(f.recipeRepo, f.warehouseRepo)
	f.orders = NewOrderService(f.orderRepo, f.menuRepo, f.reservations, f.txManager, nil)
	return f
}

// addItem seeds a warehouse item and returns its id.
func (f *fixture) addItem(t *testing.T, name, unit, quantity, minQuantity, unitPrice string) int64 {
	t.Helper()
	item := &models.WarehouseItem{
		Name:        name,
		Category:    models.CategoryOther,
		Unit:        unit,
		Quantity:    dec(t, quantity),
		MinQuantity: dec(t, minQuantity),
		UnitPrice:   dec(t, unitPrice),
	}
	id, err := f.warehouseRepo.CreateItem(nil, item)
	require.NoError(t, err)
	return id
}

// addDish seeds a menu dish.
func (f *fixture) addDish(t *testing.T, id int64, name, price string, available bool) {
	t.Helper()
	f.menuRepo.add(models.MenuItem{
		ID:        id,
		Name:      name,
		Category:  "main",
		Price:     dec(t, price),
		Available: available,
	})
}

// addRecipe seeds a recipe directly in the repository.
func (f *fixture) addRecipe(t *testing.T, dishID int64, ingredients []models.RecipeIngredient) {
	t.Helper()
	_, err := f.recipeRepo.CreateRecipe(nil, &models.Recipe{
		DishID:      dishID,
		Ingredients: ingredients,
	})
	require.NoError(t, err)
}

func (f *fixture) itemQuantity(t *testing.T, itemID int64) decimal.Decimal {
	t.Helper()
	item, err := f.warehouseRepo.GetItemByID(nil, itemID)
	require.NoError(t, err)
	return item.Quantity
}
