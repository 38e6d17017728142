package redis_decorator

import (
	"context"
	"testing"

	"github.com/RoyceAzure/lab/livesale/internal/domain/model"
	"github.com/RoyceAzure/lab/livesale/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/livesale/internal/infra/repository/redis_repo"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

const testOrgID = "org-test-1"

type CacheAsideLiveItemRepoTestSuite struct {
	suite.Suite
	db        *gorm.DB
	store     db.UnifiedDB
	rdb       *redis.Client
	stockRepo redis_repo.IItemStockRedisRepository
	repo      db.ILiveItemRepository
}

func (suite *CacheAsideLiveItemRepoTestSuite) SetupSuite() {
	conn, err := db.GetDbConn("lab_livesale", "localhost", "5432", "royce", "password")
	require.NoError(suite.T(), err)

	store := db.NewUnifiedDB(conn)
	require.NoError(suite.T(), store.InitMigrate())

	rdb := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   1, // 用測試DB
	})
	stockRepo := redis_repo.NewItemStockRepo(rdb)

	suite.db = conn
	suite.store = store
	suite.rdb = rdb
	suite.stockRepo = stockRepo
	suite.repo = NewCacheAsideLiveItemRepo(store, stockRepo)
}

func (suite *CacheAsideLiveItemRepoTestSuite) SetupTest() {
	suite.db.Exec("DELETE FROM sale_items")
	suite.db.Exec("DELETE FROM sales")
	suite.db.Exec("DELETE FROM live_item_attributes")
	suite.db.Exec("DELETE FROM live_items")
	suite.db.Exec("DELETE FROM product_categories")
	suite.rdb.FlushDB(context.Background())
}

func (suite *CacheAsideLiveItemRepoTestSuite) TearDownSuite() {
	suite.rdb.Close()
	sqlDB, _ := suite.db.DB()
	sqlDB.Close()
}

func TestCacheAsideLiveItemRepoTestSuite(t *testing.T) {
	suite.Run(t, new(CacheAsideLiveItemRepoTestSuite))
}

func (suite *CacheAsideLiveItemRepoTestSuite) newTestItem(quantity int) *model.LiveItem {
	category := &model.ProductCategory{
		ID:             uuid.NewString(),
		OrganizationID: testOrgID,
		Name:           "Test Category",
	}
	require.NoError(suite.T(), suite.store.CreateCategory(context.Background(), category))

	return &model.LiveItem{
		ID:             uuid.NewString(),
		OrganizationID: testOrgID,
		CategoryID:     category.ID,
		Price:          decimal.NewFromInt(1000),
		Quantity:       quantity,
		Status:         model.LiveItemStatusAvailable,
	}
}

func (suite *CacheAsideLiveItemRepoTestSuite) TestCreateLiveItem_SeedsCache() {
	item := suite.newTestItem(5)
	require.NoError(suite.T(), suite.repo.CreateLiveItem(context.Background(), item))

	cached, err := suite.stockRepo.GetItemStock(context.Background(), item.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), 5, cached)
}

func (suite *CacheAsideLiveItemRepoTestSuite) TestUpdateLiveItem_RefreshesCache() {
	item := suite.newTestItem(5)
	require.NoError(suite.T(), suite.repo.CreateLiveItem(context.Background(), item))

	// 上架前補登庫存，快取要跟著新數字走
	item.Quantity = 8
	require.NoError(suite.T(), suite.repo.UpdateLiveItem(context.Background(), item))

	cached, err := suite.stockRepo.GetItemStock(context.Background(), item.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), 8, cached)
}

func (suite *CacheAsideLiveItemRepoTestSuite) TestHardDeleteLiveItem_EvictsCache() {
	item := suite.newTestItem(5)
	require.NoError(suite.T(), suite.repo.CreateLiveItem(context.Background(), item))

	require.NoError(suite.T(), suite.repo.HardDeleteLiveItem(context.Background(), item.ID, testOrgID))

	_, err := suite.stockRepo.GetItemStock(context.Background(), item.ID)
	require.ErrorIs(suite.T(), err, redis_repo.ErrItemStockNotFound)
}

func (suite *CacheAsideLiveItemRepoTestSuite) TestReadsPassThrough() {
	item := suite.newTestItem(5)
	require.NoError(suite.T(), suite.repo.CreateLiveItem(context.Background(), item))

	found, err := suite.repo.GetLiveItemByID(context.Background(), item.ID, testOrgID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), item.ID, found.ID)
	require.Equal(suite.T(), 5, found.Quantity)
}
