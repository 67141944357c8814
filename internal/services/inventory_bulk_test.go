package services

import (
	"encoding/json"
	"errors"
	"fmt"

	"haventory/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func bulkOp(opID, kind string, payload any) models.BulkOperation {
	raw, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	return models.BulkOperation{OpID: opID, Kind: kind, Payload: raw}
}

func (suite *InventoryServiceTestSuite) TestBulkItemsMixedResults() {
	suite.expectSaves(2) // create, then one save for the whole batch
	items := suite.subscribe(models.TopicItems)
	view := suite.createItem("Batteries", nil)
	nextEvent(suite.T(), items)
	missing := uuid.New()

	result, err := suite.service.BulkItems(suite.ctx, []models.BulkOperation{
		bulkOp("1", models.BulkItemAdjustQuantity, map[string]any{"item_id": view.ID.String(), "delta": 4}),
		bulkOp("2", models.BulkItemCheckIn, map[string]any{"item_id": missing.String()}),
		bulkOp("3", "item_teleport", map[string]any{"item_id": view.ID.String()}),
		bulkOp("4", models.BulkItemSetQuantity, map[string]any{"item_id": view.ID.String()}),
		bulkOp("5", models.BulkItemAddTags, map[string]any{"item_id": view.ID.String(), "tags": []string{"AA"}, "expected_version": 2}),
	})
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), "partial", result.Status)
	assert.Equal(suite.T(), 5, result.TotalItems)
	assert.Equal(suite.T(), 2, result.ProcessedItems)
	assert.Equal(suite.T(), 3, result.FailedItems)

	adjusted := result.Results["1"]
	require.True(suite.T(), adjusted.Success)
	assert.Equal(suite.T(), 5, adjusted.Result.Quantity)

	notFound := result.Results["2"]
	assert.False(suite.T(), notFound.Success)
	assert.Equal(suite.T(), models.CodeNotFound, notFound.Error.Code)
	assert.Equal(suite.T(), "2", notFound.Error.Context["op_id"])
	assert.Equal(suite.T(), missing.String(), notFound.Error.Context["item_id"])

	assert.Equal(suite.T(), models.CodeValidation, result.Results["3"].Error.Code)
	assert.Equal(suite.T(), "unknown operation kind", result.Results["3"].Error.Message)
	assert.Equal(suite.T(), models.CodeValidation, result.Results["4"].Error.Code)

	tagged := result.Results["5"]
	require.True(suite.T(), tagged.Success)
	assert.Equal(suite.T(), []string{"aa"}, tagged.Result.Tags)
	assert.Equal(suite.T(), 3, tagged.Result.Version)

	assert.Equal(suite.T(), models.ActionQuantityChanged, nextEvent(suite.T(), items).Action)
	assert.Equal(suite.T(), models.ActionUpdated, nextEvent(suite.T(), items).Action)
	assertNoEvent(suite.T(), items)
}

func (suite *InventoryServiceTestSuite) TestBulkItemsAllFailedSkipsPersist() {
	result, err := suite.service.BulkItems(suite.ctx, []models.BulkOperation{
		bulkOp("a", models.BulkItemDelete, map[string]any{"item_id": uuid.NewString()}),
		bulkOp("b", models.BulkItemCheckIn, map[string]any{"item_id": "not-a-uuid"}),
	})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "failed", result.Status)
	assert.Equal(suite.T(), models.CodeNotFound, result.Results["a"].Error.Code)
	assert.Equal(suite.T(), models.CodeValidation, result.Results["b"].Error.Code)
}

func (suite *InventoryServiceTestSuite) TestBulkItemsRejectsBadOpIDs() {
	cases := map[string][]models.BulkOperation{
		"empty":     nil,
		"missing":   {bulkOp(" ", models.BulkItemCheckIn, map[string]any{})},
		"duplicate": {bulkOp("x", models.BulkItemCheckIn, map[string]any{}), bulkOp("x", models.BulkItemCheckIn, map[string]any{})},
	}
	for name, ops := range cases {
		_, err := suite.service.BulkItems(suite.ctx, ops)
		assert.ErrorIs(suite.T(), err, models.ErrValidation, name)
	}
}

func (suite *InventoryServiceTestSuite) TestBulkItemsDeleteAndMove() {
	suite.expectSaves(4)
	loc, err := suite.service.CreateLocation(suite.ctx, "Closet", nil, nil)
	require.NoError(suite.T(), err)
	keep := suite.createItem("Coat", nil)
	drop := suite.createItem("Umbrella", nil)

	result, err := suite.service.BulkItems(suite.ctx, []models.BulkOperation{
		bulkOp("move", models.BulkItemMove, map[string]any{"item_id": keep.ID.String(), "location_id": loc.ID.String()}),
		bulkOp("delete", models.BulkItemDelete, map[string]any{"item_id": drop.ID.String(), "expected_version": 1}),
	})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "completed", result.Status)
	assert.Equal(suite.T(), "Closet", result.Results["move"].Result.LocationPath.DisplayPath)
	assert.Equal(suite.T(), drop.ID, result.Results["delete"].Result.ID)

	_, err = suite.service.GetItem(suite.ctx, drop.ID)
	assert.ErrorIs(suite.T(), err, models.ErrNotFound)
}

func (suite *InventoryServiceTestSuite) TestBulkItemsPersistFailure() {
	suite.expectSaves(1)
	view := suite.createItem("Glue", nil)
	suite.store.On("Save", mock.Anything, mock.Anything).
		Return(models.NewStorageError("save snapshot", errors.New("disk full"))).Once()

	_, err := suite.service.BulkItems(suite.ctx, []models.BulkOperation{
		bulkOp("1", models.BulkItemSetQuantity, map[string]any{"item_id": view.ID.String(), "quantity": 0}),
	})
	assert.ErrorIs(suite.T(), err, models.ErrStorage)
}

func (suite *InventoryServiceTestSuite) TestBulkItemsCustomFieldsAndThreshold() {
	suite.expectSaves(2)
	view := suite.createItem("Paint", nil)

	result, err := suite.service.BulkItems(suite.ctx, []models.BulkOperation{
		bulkOp("fields", models.BulkItemUpdateCustomFields, map[string]any{
			"item_id": view.ID.String(),
			"set":     map[string]any{"color": "blue", "liters": 2.5},
		}),
		bulkOp("threshold", models.BulkItemSetLowStockThreshold, map[string]any{
			"item_id":             view.ID.String(),
			"low_stock_threshold": 1,
		}),
		bulkOp("update", models.BulkItemUpdate, map[string]any{
			"item_id":     view.ID.String(),
			"description": nil,
			"category":    "Supplies",
		}),
	})
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), "completed", result.Status, fmt.Sprintf("%+v", result.Results))

	final := result.Results["update"].Result
	assert.Equal(suite.T(), map[string]any{"color": "blue", "liters": 2.5}, final.CustomFields)
	require.NotNil(suite.T(), final.LowStockThreshold)
	assert.Equal(suite.T(), 1, *final.LowStockThreshold)
	assert.Equal(suite.T(), "Supplies", *final.Category)
	assert.True(suite.T(), final.IsLowStock())
	assert.Equal(suite.T(), 4, final.Version)
}
