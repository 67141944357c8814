package jobs

import (
	"context"
	"errors"
	"testing"

	"haventory/internal/models"
	"haventory/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type MockLowStockSource struct {
	mock.Mock
}

func (m *MockLowStockSource) LowStockItems(ctx context.Context) ([]*models.ItemView, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ItemView), args.Error(1)
}

type MockAreaNamer struct {
	mock.Mock
}

func (m *MockAreaNamer) ResolveName(ctx context.Context, areaID string) (*string, error) {
	args := m.Called(ctx, areaID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*string), args.Error(1)
}

type InventoryAlertServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	source  *MockLowStockSource
	areas   *MockAreaNamer
	service *InventoryAlertService
}

func (suite *InventoryAlertServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.source = new(MockLowStockSource)
	suite.areas = new(MockAreaNamer)
	suite.service = NewInventoryAlertService(suite.source, suite.areas, nil, logger.Discard())
}

func (suite *InventoryAlertServiceTestSuite) TearDownTest() {
	suite.source.AssertExpectations(suite.T())
	suite.areas.AssertExpectations(suite.T())
}

func TestInventoryAlertServiceTestSuite(t *testing.T) {
	suite.Run(t, new(InventoryAlertServiceTestSuite))
}

func lowStockView(name string, quantity, threshold int, areaID *string) *models.ItemView {
	return &models.ItemView{
		Item: &models.Item{
			ID:                uuid.New(),
			Name:              name,
			Quantity:          quantity,
			LowStockThreshold: &threshold,
			LocationPath:      models.LocationPath{DisplayPath: "Garage / Shelf"},
		},
		EffectiveAreaID: areaID,
	}
}

func strPtr(s string) *string { return &s }

func (suite *InventoryAlertServiceTestSuite) TestCheckLowStockBuildsAlerts() {
	garage := "garage"
	items := []*models.ItemView{
		lowStockView("Fuses", 0, 2, &garage),
		lowStockView("Tape", 2, 2, nil),
	}
	suite.source.On("LowStockItems", suite.ctx).Return(items, nil).Once()
	suite.areas.On("ResolveName", suite.ctx, "garage").Return(strPtr("Garage"), nil).Once()

	alerts, err := suite.service.CheckLowStock(suite.ctx)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), alerts, 2)

	assert.Equal(suite.T(), "Fuses", alerts[0].ItemName)
	assert.Equal(suite.T(), "Garage", alerts[0].AreaName)
	assert.Equal(suite.T(), "Garage / Shelf", alerts[0].Location)
	assert.Equal(suite.T(), 0, alerts[0].CurrentStock)
	assert.Equal(suite.T(), 2, alerts[0].Threshold)

	assert.Equal(suite.T(), "Tape", alerts[1].ItemName)
	assert.Empty(suite.T(), alerts[1].AreaName)
}

func (suite *InventoryAlertServiceTestSuite) TestAreaLookupFailureKeepsAlert() {
	attic := "attic"
	suite.source.On("LowStockItems", suite.ctx).Return([]*models.ItemView{lowStockView("Bulbs", 1, 4, &attic)}, nil).Once()
	suite.areas.On("ResolveName", suite.ctx, "attic").Return(nil, errors.New("registry down")).Once()

	alerts, err := suite.service.CheckLowStock(suite.ctx)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), alerts, 1)
	assert.Empty(suite.T(), alerts[0].AreaName)
}

func (suite *InventoryAlertServiceTestSuite) TestNoAlerts() {
	suite.source.On("LowStockItems", suite.ctx).Return([]*models.ItemView{}, nil).Once()

	alerts, err := suite.service.CheckLowStock(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), alerts)
}

func (suite *InventoryAlertServiceTestSuite) TestSourceErrorPropagates() {
	suite.source.On("LowStockItems", suite.ctx).Return(nil, models.NewValidationError("bad filter")).Once()

	err := suite.service.ScheduledLowStockCheck(suite.ctx)
	assert.ErrorIs(suite.T(), err, models.ErrValidation)
}

func (suite *InventoryAlertServiceTestSuite) TestScheduledLowStockCheck() {
	suite.source.On("LowStockItems", suite.ctx).Return([]*models.ItemView{lowStockView("Salt", 1, 1, nil)}, nil).Once()

	assert.NoError(suite.T(), suite.service.ScheduledLowStockCheck(suite.ctx))
}

func TestAlertsWithoutAreaRegistry(t *testing.T) {
	ctx := context.Background()
	source := new(MockLowStockSource)
	area := "garage"
	source.On("LowStockItems", ctx).Return([]*models.ItemView{lowStockView("Oil", 0, 1, &area)}, nil).Once()

	alerts, err := NewInventoryAlertService(source, nil, nil, logger.Discard()).CheckLowStock(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Empty(t, alerts[0].AreaName)
	source.AssertExpectations(t)
}
