package services

import (
	"errors"
	"testing"

	"restaurant_pos_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateItemValidation(t *testing.T) {
	f := newFixture()

	_, err := f.warehouse.CreateItem(CreateWarehouseItemRequest{Name: "  ", Unit: models.UnitKilogram, UnitPrice: 1})
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = f.warehouse.CreateItem(CreateWarehouseItemRequest{Name: "Salt", Unit: models.UnitKilogram, UnitPrice: 1, Quantity: -1})
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestCreateItemDefaultsCategory(t *testing.T) {
	f := newFixture()

	item, err := f.warehouse.CreateItem(CreateWarehouseItemRequest{
		Name: "Salt", Unit: models.UnitKilogram, UnitPrice: 0.80, Quantity: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, models.CategoryOther, item.Category)

	_, err = f.warehouse.CreateItem(CreateWarehouseItemRequest{
		Name: "Salt", Unit: models.UnitKilogram, UnitPrice: 0.80,
	})
	assert.True(t, errors.Is(err, ErrItemExists))
}

func TestIncomingIncreasesStock(t *testing.T) {
	f := newFixture()
	id := f.addItem(t, "Milk", models.UnitLitre, "2", "5", "1.10")

	item, err := f.warehouse.Incoming(id, AdjustStockRequest{Quantity: 10}, "manager")
	require.NoError(t, err)
	requireDecimalEqual(t, "12", item.Quantity)

	ops := f.warehouseRepo.opsFor(id)
	require.Len(t, ops, 1)
	assert.Equal(t, models.OperationIncoming, ops[0].Kind)
	requireDecimalEqual(t, "10", ops[0].Quantity)
	assert.Equal(t, "manager", ops[0].Actor)
}

func TestOutgoingDecreasesStock(t *testing.T) {
	f := newFixture()
	id := f.addItem(t, "Milk", models.UnitLitre, "12", "5", "1.10")

	item, err := f.warehouse.Outgoing(id, AdjustStockRequest{Quantity: 4}, "manager")
	require.NoError(t, err)
	requireDecimalEqual(t, "8", item.Quantity)

	ops := f.warehouseRepo.opsFor(id)
	require.Len(t, ops, 1)
	assert.Equal(t, models.OperationOutgoing, ops[0].Kind)
	requireDecimalEqual(t, "-4", ops[0].Quantity)
}

func TestOutgoingBeyondStockFailsAndChangesNothing(t *testing.T) {
	f := newFixture()
	id := f.addItem(t, "Milk", models.UnitLitre, "3", "5", "1.10")

	_, err := f.warehouse.Outgoing(id, AdjustStockRequest{Quantity: 4}, "manager")
	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Len(t, insufficient.Shortages, 1)
	requireDecimalEqual(t, "4", insufficient.Shortages[0].Required)
	requireDecimalEqual(t, "3", insufficient.Shortages[0].Available)

	requireDecimalEqual(t, "3", f.itemQuantity(t, id))
	assert.Empty(t, f.warehouseRepo.opsFor(id))
}

func TestWriteOffTagsOperationKind(t *testing.T) {
	f := newFixture()
	id := f.addItem(t, "Cream", models.UnitLitre, "2", "1", "2.40")

	notes := "spoiled"
	item, err := f.warehouse.WriteOff(id, AdjustStockRequest{Quantity: 0.5, Notes: &notes}, "manager")
	require.NoError(t, err)
	requireDecimalEqual(t, "1.5", item.Quantity)

	ops := f.warehouseRepo.opsFor(id)
	require.Len(t, ops, 1)
	assert.Equal(t, models.OperationWriteOff, ops[0].Kind)
	require.NotNil(t, ops[0].Notes)
	assert.Equal(t, "spoiled", *ops[0].Notes)
}

func TestAdjustRejectsNonPositiveQuantity(t *testing.T) {
	f := newFixture()
	id := f.addItem(t, "Milk", models.UnitLitre, "3", "5", "1.10")

	_, err := f.warehouse.Incoming(id, AdjustStockRequest{Quantity: 0}, "manager")
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = f.warehouse.Outgoing(id, AdjustStockRequest{Quantity: -2}, "manager")
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestAdjustUnknownItem(t *testing.T) {
	f := newFixture()
	_, err := f.warehouse.Incoming(404, AdjustStockRequest{Quantity: 1}, "manager")
	assert.True(t, errors.Is(err, ErrItemNotFound))
}

func TestLowStockItems(t *testing.T) {
	f := newFixture()
	lowID := f.addItem(t, "Milk", models.UnitLitre, "3", "5", "1.10")
	f.addItem(t, "Flour", models.UnitKilogram, "50", "10", "1.20")
	boundaryID := f.addItem(t, "Eggs", models.UnitPiece, "10", "10", "0.30")

	low, err := f.warehouse.LowStockItems()
	require.NoError(t, err)
	require.Len(t, low, 2)
	assert.Equal(t, lowID, low[0].ID)
	assert.Equal(t, boundaryID, low[1].ID)
}

func TestTotalValue(t *testing.T) {
	f := newFixture()
	f.addItem(t, "Milk", models.UnitLitre, "3", "5", "1.10")
	f.addItem(t, "Flour", models.UnitKilogram, "50", "10", "1.20")

	total, err := f.warehouse.TotalValue()
	require.NoError(t, err)
	requireDecimalEqual(t, "63.30", total)
}

func TestGetOperationsFiltersAndPaginates(t *testing.T) {
	f := newFixture()
	milkID := f.addItem(t, "Milk", models.UnitLitre, "0", "5", "1.10")
	flourID := f.addItem(t, "Flour", models.UnitKilogram, "0", "10", "1.20")

	for i := 0; i < 3; i++ {
		_, err := f.warehouse.Incoming(milkID, AdjustStockRequest{Quantity: 1}, "manager")
		require.NoError(t, err)
	}
	_, err := f.warehouse.Incoming(flourID, AdjustStockRequest{Quantity: 5}, "manager")
	require.NoError(t, err)

	ops, total, err := f.warehouse.GetOperations(&milkID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, ops, 2)

	all, total, err := f.warehouse.GetOperations(nil, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Len(t, all, 4)
}
