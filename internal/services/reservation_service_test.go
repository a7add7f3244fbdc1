package services

import (
	"errors"
	"sync"
	"testing"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) reserve(dishID int64, dishName string, portions int, orderID int64) error {
	return f.txManager.WithinTx(func(tx repositories.SQLExecutor) error {
		return f.reservations.Reserve(tx, dishID, dishName, portions, orderID, "tester")
	})
}

func (f *fixture) release(dishID int64, dishName string, portions int, orderID int64) error {
	return f.txManager.WithinTx(func(tx repositories.SQLExecutor) error {
		return f.reservations.Release(tx, dishID, dishName, portions, orderID, "tester")
	})
}

func TestReserveDishWithoutRecipeIsUnconstrained(t *testing.T) {
	f := newFixture()
	f.addDish(t, 1, "Espresso", "2.50", true)

	require.NoError(t, f.reserve(1, "Espresso", 100, 7))
	assert.Empty(t, f.warehouseRepo.ops)
}

func TestReserveDeductsStockAndRecordsOperation(t *testing.T) {
	f := newFixture()
	beefID := f.addItem(t, "Beef tenderloin", models.UnitKilogram, "10", "2", "25.00")
	f.addDish(t, 1, "Steak with vegetables", "18.50", true)
	f.addRecipe(t, 1, []models.RecipeIngredient{
		{ItemID: beefID, ItemName: "Beef tenderloin", QuantityPerPortion: dec(t, "0.3"), Unit: models.UnitKilogram},
	})

	require.NoError(t, f.reserve(1, "Steak with vegetables", 20, 42))

	requireDecimalEqual(t, "4", f.itemQuantity(t, beefID))

	ops := f.warehouseRepo.opsFor(beefID)
	require.Len(t, ops, 1)
	assert.Equal(t, models.OperationOutgoing, ops[0].Kind)
	requireDecimalEqual(t, "-6", ops[0].Quantity)
	require.NotNil(t, ops[0].OrderID)
	assert.Equal(t, int64(42), *ops[0].OrderID)
	assert.Equal(t, "tester", ops[0].Actor)
	require.NotNil(t, ops[0].Notes)
	assert.Contains(t, *ops[0].Notes, "Order #42")
}

func TestReserveReportsDeficitAgainstCurrentStock(t *testing.T) {
	f := newFixture()
	beefID := f.addItem(t, "Beef tenderloin", models.UnitKilogram, "10", "2", "25.00")
	f.addDish(t, 1, "Steak with vegetables", "18.50", true)
	f.addRecipe(t, 1, []models.RecipeIngredient{
		{ItemID: beefID, ItemName: "Beef tenderloin", QuantityPerPortion: dec(t, "0.3"), Unit: models.UnitKilogram},
	})

	require.NoError(t, f.reserve(1, "Steak with vegetables", 20, 1))

	err := f.reserve(1, "Steak with vegetables", 20, 2)
	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Len(t, insufficient.Shortages, 1)
	requireDecimalEqual(t, "6", insufficient.Shortages[0].Required)
	requireDecimalEqual(t, "4", insufficient.Shortages[0].Available)
	assert.Equal(t, "Beef tenderloin", insufficient.Shortages[0].IngredientName)

	requireDecimalEqual(t, "4", f.itemQuantity(t, beefID))
}

func TestReserveAllOrNothing(t *testing.T) {
	f := newFixture()
	beefID := f.addItem(t, "Beef tenderloin", models.UnitKilogram, "100", "2", "25.00")
	truffleID := f.addItem(t, "Truffle", models.UnitGram, "5", "1", "3.00")
	f.addDish(t, 1, "Truffle steak", "35.00", true)
	f.addRecipe(t, 1, []models.RecipeIngredient{
		{ItemID: beefID, ItemName: "Beef tenderloin", QuantityPerPortion: dec(t, "0.3"), Unit: models.UnitKilogram},
		{ItemID: truffleID, ItemName: "Truffle", QuantityPerPortion: dec(t, "10"), Unit: models.UnitGram},
	})

	err := f.reserve(1, "Truffle steak", 1, 1)
	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Len(t, insufficient.Shortages, 1)
	assert.Equal(t, truffleID, insufficient.Shortages[0].IngredientID)

	// The sufficient ingredient was not deducted either.
	requireDecimalEqual(t, "100", f.itemQuantity(t, beefID))
	requireDecimalEqual(t, "5", f.itemQuantity(t, truffleID))
	assert.Empty(t, f.warehouseRepo.ops)
}

func TestReserveReportsEveryShortageAtOnce(t *testing.T) {
	f := newFixture()
	beefID := f.addItem(t, "Beef tenderloin", models.UnitKilogram, "0.1", "2", "25.00")
	truffleID := f.addItem(t, "Truffle", models.UnitGram, "5", "1", "3.00")
	f.addDish(t, 1, "Truffle steak", "35.00", true)
	f.addRecipe(t, 1, []models.RecipeIngredient{
		{ItemID: truffleID, ItemName: "Truffle", QuantityPerPortion: dec(t, "10"), Unit: models.UnitGram},
		{ItemID: beefID, ItemName: "Beef tenderloin", QuantityPerPortion: dec(t, "0.3"), Unit: models.UnitKilogram},
	})

	err := f.reserve(1, "Truffle steak", 1, 1)
	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Len(t, insufficient.Shortages, 2)
	// Shortages come back in warehouse item order.
	assert.Equal(t, beefID, insufficient.Shortages[0].IngredientID)
	assert.Equal(t, truffleID, insufficient.Shortages[1].IngredientID)
}

func TestReserveReportsDeletedIngredientAsFullyMissing(t *testing.T) {
	f := newFixture()
	f.addDish(t, 1, "Ghost dish", "10.00", true)
	f.addRecipe(t, 1, []models.RecipeIngredient{
		{ItemID: 999, ItemName: "Discontinued sauce", QuantityPerPortion: dec(t, "0.1"), Unit: models.UnitLitre},
	})

	err := f.reserve(1, "Ghost dish", 2, 1)
	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Len(t, insufficient.Shortages, 1)
	assert.Equal(t, "Discontinued sauce", insufficient.Shortages[0].IngredientName)
	requireDecimalEqual(t, "0.2", insufficient.Shortages[0].Required)
	assert.True(t, insufficient.Shortages[0].Available.IsZero())
}

func TestReserveRejectsNonPositivePortions(t *testing.T) {
	f := newFixture()
	err := f.reserve(1, "Anything", 0, 1)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestReleaseReturnsStockWithIncomingOperation(t *testing.T) {
	f := newFixture()
	beefID := f.addItem(t, "Beef tenderloin", models.UnitKilogram, "10", "2", "25.00")
	f.addDish(t, 1, "Steak with vegetables", "18.50", true)
	f.addRecipe(t, 1, []models.RecipeIngredient{
		{ItemID: beefID, ItemName: "Beef tenderloin", QuantityPerPortion: dec(t, "0.3"), Unit: models.UnitKilogram},
	})

	require.NoError(t, f.reserve(1, "Steak with vegetables", 10, 3))
	requireDecimalEqual(t, "7", f.itemQuantity(t, beefID))

	require.NoError(t, f.release(1, "Steak with vegetables", 10, 3))
	requireDecimalEqual(t, "10", f.itemQuantity(t, beefID))

	ops := f.warehouseRepo.opsFor(beefID)
	require.Len(t, ops, 2)
	assert.Equal(t, models.OperationIncoming, ops[1].Kind)
	requireDecimalEqual(t, "3", ops[1].Quantity)
}

func TestOperationDeltasReproduceCurrentQuantity(t *testing.T) {
	f := newFixture()
	beefID := f.addItem(t, "Beef tenderloin", models.UnitKilogram, "10", "2", "25.00")
	f.addDish(t, 1, "Steak with vegetables", "18.50", true)
	f.addRecipe(t, 1, []models.RecipeIngredient{
		{ItemID: beefID, ItemName: "Beef tenderloin", QuantityPerPortion: dec(t, "0.3"), Unit: models.UnitKilogram},
	})

	require.NoError(t, f.reserve(1, "Steak with vegetables", 5, 1))
	require.NoError(t, f.release(1, "Steak with vegetables", 2, 1))
	require.NoError(t, f.reserve(1, "Steak with vegetables", 7, 2))

	sum := dec(t, "10") // opening balance
	for _, op := range f.warehouseRepo.opsFor(beefID) {
		sum = sum.Add(op.Quantity)
	}
	assert.True(t, sum.Equal(f.itemQuantity(t, beefID)),
		"sum of deltas %s should equal current quantity %s", sum, f.itemQuantity(t, beefID))
}

func TestConcurrentReservationsNeverOversell(t *testing.T) {
	f := newFixture()
	flourID := f.addItem(t, "Flour", models.UnitKilogram, "5", "1", "1.20")
	f.addDish(t, 1, "Pasta", "12.00", true)
	f.addRecipe(t, 1, []models.RecipeIngredient{
		{ItemID: flourID, ItemName: "Flour", QuantityPerPortion: dec(t, "1"), Unit: models.UnitKilogram},
	})

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = f.reserve(1, "Pasta", 3, int64(i+1))
		}(i)
	}
	wg.Wait()

	var failures []error
	for _, err := range results {
		if err != nil {
			failures = append(failures, err)
		}
	}
	require.Len(t, failures, 1, "exactly one reservation must win")

	var insufficient *InsufficientStockError
	require.ErrorAs(t, failures[0], &insufficient)
	require.Len(t, insufficient.Shortages, 1)
	requireDecimalEqual(t, "3", insufficient.Shortages[0].Required)
	requireDecimalEqual(t, "2", insufficient.Shortages[0].Available)

	requireDecimalEqual(t, "2", f.itemQuantity(t, flourID))
	assert.False(t, f.itemQuantity(t, flourID).IsNegative())
}

func TestReserveSharedIngredientAcrossDishes(t *testing.T) {
	f := newFixture()
	tomatoID := f.addItem(t, "Tomato", models.UnitKilogram, "3", "1", "2.00")
	f.addDish(t, 1, "Salad", "9.00", true)
	f.addDish(t, 2, "Soup", "7.00", true)
	f.addRecipe(t, 1, []models.RecipeIngredient{
		{ItemID: tomatoID, ItemName: "Tomato", QuantityPerPortion: dec(t, "0.5"), Unit: models.UnitKilogram},
	})
	f.addRecipe(t, 2, []models.RecipeIngredient{
		{ItemID: tomatoID, ItemName: "Tomato", QuantityPerPortion: dec(t, "1"), Unit: models.UnitKilogram},
	})

	require.NoError(t, f.reserve(1, "Salad", 4, 1)) // uses 2 kg
	err := f.reserve(2, "Soup", 2, 2)               // needs 2 kg, only 1 left
	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	requireDecimalEqual(t, "1", insufficient.Shortages[0].Available)

	require.NoError(t, f.reserve(2, "Soup", 1, 3))
	requireDecimalEqual(t, "0", f.itemQuantity(t, tomatoID))
}
