package service

import (
	"context"
	"testing"

	"github.com/RoyceAzure/lab/livesale/internal/domain/model"
	"github.com/RoyceAzure/lab/livesale/internal/infra/repository/db"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type LiveItemServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	store   db.UnifiedDB
	service *LiveItemService
}

func (suite *LiveItemServiceTestSuite) SetupSuite() {
	conn, err := db.GetDbConn("lab_livesale", "localhost", "5432", "royce", "password")
	require.NoError(suite.T(), err)

	store := db.NewUnifiedDB(conn)
	require.NoError(suite.T(), store.InitMigrate())

	suite.db = conn
	suite.store = store
	suite.service = NewLiveItemService(store, nil)
}

func (suite *LiveItemServiceTestSuite) SetupTest() {
	suite.db.Exec("DELETE FROM stock_movements")
	suite.db.Exec("DELETE FROM payments")
	suite.db.Exec("DELETE FROM sale_items")
	suite.db.Exec("DELETE FROM sales")
	suite.db.Exec("DELETE FROM live_item_attributes")
	suite.db.Exec("DELETE FROM live_items")
	suite.db.Exec("DELETE FROM product_categories")
	suite.db.Exec("DELETE FROM livestreams")
	suite.db.Exec("DELETE FROM customers")
}

func (suite *LiveItemServiceTestSuite) TearDownSuite() {
	sqlDB, _ := suite.db.DB()
	sqlDB.Close()
}

func TestLiveItemServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LiveItemServiceTestSuite))
}

func (suite *LiveItemServiceTestSuite) createTestCategory() *model.ProductCategory {
	category := &model.ProductCategory{
		ID:             uuid.NewString(),
		OrganizationID: testOrgID,
		Name:           "服飾",
	}
	require.NoError(suite.T(), suite.store.CreateCategory(context.Background(), category))
	return category
}

func (suite *LiveItemServiceTestSuite) TestCreateLiveItem() {
	category := suite.createTestCategory()

	num := 42.0
	item, err := suite.service.CreateLiveItem(context.Background(), CreateLiveItemParams{
		OrganizationID: testOrgID,
		CategoryID:     category.ID,
		Price:          decimal.NewFromInt(1000),
		Quantity:       5,
		Attributes: []LiveItemAttributeParams{
			{Name: "color", TextValue: "red"},
			{Name: "size", NumberValue: &num},
		},
	})
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), model.LiveItemStatusAvailable, item.Status)
	require.Equal(suite.T(), 5, item.Quantity)

	found, err := suite.service.GetLiveItem(context.Background(), item.ID, testOrgID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), found.Attributes, 2)
}

func (suite *LiveItemServiceTestSuite) TestCreateLiveItem_DefaultQuantity() {
	category := suite.createTestCategory()

	// 沒給數量預設1顆
	item, err := suite.service.CreateLiveItem(context.Background(), CreateLiveItemParams{
		OrganizationID: testOrgID,
		CategoryID:     category.ID,
		Price:          decimal.NewFromInt(1000),
	})
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), 1, item.Quantity)
}

func (suite *LiveItemServiceTestSuite) TestCreateLiveItem_CategoryNotExist() {
	_, err := suite.service.CreateLiveItem(context.Background(), CreateLiveItemParams{
		OrganizationID: testOrgID,
		CategoryID:     uuid.NewString(),
		Price:          decimal.NewFromInt(1000),
	})
	require.ErrorIs(suite.T(), err, ErrCategoryNotExist)
}

func (suite *LiveItemServiceTestSuite) TestCreateLiveItem_NegativePrice() {
	category := suite.createTestCategory()

	_, err := suite.service.CreateLiveItem(context.Background(), CreateLiveItemParams{
		OrganizationID: testOrgID,
		CategoryID:     category.ID,
		Price:          decimal.NewFromInt(-1),
	})
	require.ErrorIs(suite.T(), err, ErrInvalidPrice)
}

func (suite *LiveItemServiceTestSuite) TestUpdateLiveItem() {
	category := suite.createTestCategory()
	item, err := suite.service.CreateLiveItem(context.Background(), CreateLiveItemParams{
		OrganizationID: testOrgID,
		CategoryID:     category.ID,
		Price:          decimal.NewFromInt(1000),
		Quantity:       5,
	})
	require.NoError(suite.T(), err)

	newPrice := decimal.NewFromInt(1200)
	newNotes := "限量"
	updated, err := suite.service.UpdateLiveItem(context.Background(), item.ID, testOrgID, UpdateLiveItemParams{
		Price: &newPrice,
		Notes: &newNotes,
	})
	require.NoError(suite.T(), err)
	require.True(suite.T(), newPrice.Equal(updated.Price))
	require.Equal(suite.T(), "限量", updated.Notes)
	// 沒給的欄位不動
	require.Equal(suite.T(), 5, updated.Quantity)
}

func (suite *LiveItemServiceTestSuite) TestDeleteLiveItem_RefusedWhenInSale() {
	category := suite.createTestCategory()
	item, err := suite.service.CreateLiveItem(context.Background(), CreateLiveItemParams{
		OrganizationID: testOrgID,
		CategoryID:     category.ID,
		Price:          decimal.NewFromInt(1000),
		Quantity:       5,
	})
	require.NoError(suite.T(), err)

	customer := &model.Customer{
		ID:             uuid.NewString(),
		OrganizationID: testOrgID,
		Name:           "小美",
	}
	require.NoError(suite.T(), suite.store.CreateCustomer(context.Background(), customer))

	engine := NewReservationService(suite.store, nil, nil, nil)
	_, err = engine.AddItemToCart(context.Background(), AddItemParams{
		CustomerID:     customer.ID,
		OrganizationID: testOrgID,
		SellerID:       "seller-1",
		LiveItemID:     item.ID,
		Quantity:       1,
	})
	require.NoError(suite.T(), err)

	err = suite.service.DeleteLiveItem(context.Background(), item.ID, testOrgID)
	require.ErrorIs(suite.T(), err, ErrLiveItemInSale)
}

func (suite *LiveItemServiceTestSuite) TestGetStats() {
	category := suite.createTestCategory()
	for i := 0; i < 3; i++ {
		_, err := suite.service.CreateLiveItem(context.Background(), CreateLiveItemParams{
			OrganizationID: testOrgID,
			CategoryID:     category.ID,
			Price:          decimal.NewFromInt(1000),
			Quantity:       1,
		})
		require.NoError(suite.T(), err)
	}

	stats, err := suite.service.GetStats(context.Background(), testOrgID, "")
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), int64(3), stats.Available)
	require.Equal(suite.T(), int64(3), stats.Total)
}
