package db

import (
	"context"
	"time"

	"github.com/RoyceAzure/lab/livesale/internal/domain/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UnifiedDB 統一的資料庫介面
// 引擎的每個寫入操作都要包在Transaction裡跨repo執行
type UnifiedDB interface {
	GetDB() *gorm.DB
	InitMigrate() error

	// Transaction 在單一交易內執行fn，fn拿到的是綁定交易的UnifiedDB
	// fn回傳錯誤時整包rollback
	Transaction(ctx context.Context, fn func(tx UnifiedDB) error) error

	ILiveItemRepository
	ISaleRepository
	IPaymentRepository
	ICustomerRepository
	ICategoryRepository
	ILivestreamRepository
	IStockMovementRepository
}

// ILiveItemRepository LiveItem 相關操作介面
type ILiveItemRepository interface {
	CreateLiveItem(ctx context.Context, item *model.LiveItem) error
	GetLiveItemByID(ctx context.Context, id, organizationID string) (*model.LiveItem, error)
	GetLiveItemForUpdate(ctx context.Context, id, organizationID string) (*model.LiveItem, error)
	GetLiveItems(ctx context.Context, organizationID string, filter LiveItemFilter) ([]model.LiveItem, int64, error)
	UpdateLiveItem(ctx context.Context, item *model.LiveItem) error
	DeductStock(ctx context.Context, id string, quantity int) (int, error)
	RestoreStock(ctx context.Context, id string, quantity int) (int, error)
	MarkSold(ctx context.Context, id string) error
	HardDeleteLiveItem(ctx context.Context, id, organizationID string) error
	GetLiveItemStats(ctx context.Context, organizationID, livestreamID string) (*LiveItemStats, error)
}

// ISaleRepository Sale 相關操作介面
type ISaleRepository interface {
	CreateSale(ctx context.Context, sale *model.Sale) error
	GetSaleByID(ctx context.Context, id, organizationID string) (*model.Sale, error)
	GetSaleForUpdate(ctx context.Context, id, organizationID string) (*model.Sale, error)
	GetOpenCart(ctx context.Context, organizationID, customerID string) (*model.Sale, error)
	GetOpenCartForUpdate(ctx context.Context, organizationID, customerID string) (*model.Sale, error)
	GetSales(ctx context.Context, organizationID string, filter SaleFilter) ([]model.Sale, error)
	GetActiveCarts(ctx context.Context, organizationID string, filter SaleFilter) ([]model.Sale, error)
	GetStaleCarts(ctx context.Context, organizationID string, cutoff time.Time) ([]model.Sale, error)
	UpdateSale(ctx context.Context, sale *model.Sale) error
	UpdateSaleStatus(ctx context.Context, id string, status model.SaleStatus) error
	UpdateSaleTotal(ctx context.Context, id string, total decimal.Decimal) error
	TouchSale(ctx context.Context, id string, lastLivestreamID *string) error
	AddSaleItem(ctx context.Context, item *model.SaleItem) error
	GetSaleItem(ctx context.Context, saleID, itemID string) (*model.SaleItem, error)
	GetSaleItems(ctx context.Context, saleID string) ([]model.SaleItem, error)
	UpdateSaleItem(ctx context.Context, item *model.SaleItem) error
	DeleteSaleItem(ctx context.Context, saleID, itemID string) error
	SumSaleItems(ctx context.Context, saleID string) (decimal.Decimal, error)
}

// IPaymentRepository Payment 相關操作介面
type IPaymentRepository interface {
	CreatePayment(ctx context.Context, payment *model.Payment) error
	GetPaymentsBySaleID(ctx context.Context, saleID string) ([]model.Payment, error)
	HasPaidPayment(ctx context.Context, saleID string) (bool, error)
}

// ICustomerRepository Customer 相關操作介面
type ICustomerRepository interface {
	CreateCustomer(ctx context.Context, customer *model.Customer) error
	GetCustomerByID(ctx context.Context, id, organizationID string) (*model.Customer, error)
	GetCustomerByName(ctx context.Context, name, organizationID string) (*model.Customer, error)
	CustomerExists(ctx context.Context, id, organizationID string) (bool, error)
	GetCustomers(ctx context.Context, organizationID, search string) ([]model.Customer, error)
	UpdateCustomer(ctx context.Context, customer *model.Customer) error
	TouchLastPurchase(ctx context.Context, id string, at time.Time) error
	DeleteCustomer(ctx context.Context, id, organizationID string) error
}

// ICategoryRepository 分類存在性檢查
type ICategoryRepository interface {
	CreateCategory(ctx context.Context, category *model.ProductCategory) error
	CategoryExists(ctx context.Context, id, organizationID string) (bool, error)
}

// ILivestreamRepository 直播場次存在性檢查
type ILivestreamRepository interface {
	CreateLivestream(ctx context.Context, livestream *model.Livestream) error
	LivestreamExists(ctx context.Context, id, organizationID string) (bool, error)
}

// IStockMovementRepository 庫存流水帳
type IStockMovementRepository interface {
	CreateMovement(ctx context.Context, movement *model.StockMovement) error
	GetMovementsByItem(ctx context.Context, liveItemID string) ([]model.StockMovement, error)
	GetMovementsBySale(ctx context.Context, saleID string) ([]model.StockMovement, error)
	NetMovement(ctx context.Context, liveItemID string) (int, error)
}

// UnifiedDBImpl 統一資料庫實現
type UnifiedDBImpl struct {
	db    *gorm.DB
	dbDao *DbDao
	*LiveItemRepo
	*SaleRepo
	*PaymentRepo
	*CustomerRepo
	*CategoryRepo
	*LivestreamRepo
	*StockMovementRepo
}

// NewUnifiedDB 創建新的統一資料庫實例
func NewUnifiedDB(db *gorm.DB) *UnifiedDBImpl {
	dbDao := NewDbDao(db)
	return &UnifiedDBImpl{
		db:                db,
		dbDao:             dbDao,
		LiveItemRepo:      NewLiveItemRepo(dbDao),
		SaleRepo:          NewSaleRepo(dbDao),
		PaymentRepo:       NewPaymentRepo(dbDao),
		CustomerRepo:      NewCustomerRepo(dbDao),
		CategoryRepo:      NewCategoryRepo(dbDao),
		LivestreamRepo:    NewLivestreamRepo(dbDao),
		StockMovementRepo: NewStockMovementRepo(dbDao),
	}
}

func (u *UnifiedDBImpl) InitMigrate() error {
	return u.dbDao.InitMigrate()
}

// GetDB 獲取資料庫連接
func (u *UnifiedDBImpl) GetDB() *gorm.DB {
	return u.db
}

// Transaction 跨repo交易，fn內任何錯誤整包rollback
func (u *UnifiedDBImpl) Transaction(ctx context.Context, fn func(tx UnifiedDB) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewUnifiedDB(tx))
	})
}

var _ UnifiedDB = (*UnifiedDBImpl)(nil)
