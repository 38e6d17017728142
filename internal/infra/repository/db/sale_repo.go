package db

import (
	"context"
	"errors"
	"time"

	"github.com/RoyceAzure/lab/livesale/internal/domain/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrSaleNotFound 銷售單不存在或不屬於該組織
	ErrSaleNotFound = errors.New("sale not found")
	// ErrSaleItemNotFound 明細不存在
	ErrSaleItemNotFound = errors.New("sale item not found")
	// ErrOpenCartExists 該顧客已有一張 reserved 購物車，撞到 partial unique index
	ErrOpenCartExists = errors.New("customer already has an open cart")
)

type SaleRepo struct {
	db *DbDao
}

func NewSaleRepo(db *DbDao) *SaleRepo {
	return &SaleRepo{db: db}
}

// CreateSale 兩個請求同時幫同一顧客開車，輸家會撞 uniq_open_cart_per_customer
func (s *SaleRepo) CreateSale(ctx context.Context, sale *model.Sale) error {
	err := s.db.WithContext(ctx).Create(sale).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrOpenCartExists
	}
	return err
}

// Read - 含明細與付款紀錄
func (s *SaleRepo) GetSaleByID(ctx context.Context, id, organizationID string) (*model.Sale, error) {
	var sale model.Sale
	err := s.db.WithContext(ctx).
		Preload("SaleItems").
		Preload("SaleItems.LiveItem").
		Preload("Payments").
		Where("id = ? AND organization_id = ?", id, organizationID).
		First(&sale).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSaleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// GetSaleForUpdate 鎖定銷售單列，必須在交易內呼叫
// FOR UPDATE 不能跟 Preload 的 LEFT JOIN 混用，先鎖主列再載明細
func (s *SaleRepo) GetSaleForUpdate(ctx context.Context, id, organizationID string) (*model.Sale, error) {
	var sale model.Sale
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND organization_id = ?", id, organizationID).
		First(&sale).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSaleNotFound
	}
	if err != nil {
		return nil, err
	}

	items, err := s.GetSaleItems(ctx, sale.ID)
	if err != nil {
		return nil, err
	}
	sale.SaleItems = items
	if err := s.db.WithContext(ctx).
		Where("sale_id = ?", sale.ID).
		Find(&sale.Payments).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

// GetOpenCart 查詢顧客目前的 reserved 購物車，沒有回傳 ErrSaleNotFound
func (s *SaleRepo) GetOpenCart(ctx context.Context, organizationID, customerID string) (*model.Sale, error) {
	var sale model.Sale
	err := s.db.WithContext(ctx).
		Preload("SaleItems").
		Preload("SaleItems.LiveItem").
		Where("organization_id = ? AND customer_id = ? AND status = ?",
			organizationID, customerID, model.SaleStatusReserved).
		First(&sale).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSaleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// GetOpenCartForUpdate 鎖定顧客的 reserved 購物車列
// getOrCreate 的 check-then-create 競態靠這把鎖加上 partial unique index 擋住
func (s *SaleRepo) GetOpenCartForUpdate(ctx context.Context, organizationID, customerID string) (*model.Sale, error) {
	var sale model.Sale
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("organization_id = ? AND customer_id = ? AND status = ?",
			organizationID, customerID, model.SaleStatusReserved).
		First(&sale).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSaleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

type SaleFilter struct {
	Status       model.SaleStatus
	CustomerID   string
	LivestreamID string
	SellerID     string
}

// GetSales 一般銷售單查詢，reserved排前面、最近異動優先
func (s *SaleRepo) GetSales(ctx context.Context, organizationID string, filter SaleFilter) ([]model.Sale, error) {
	query := s.db.WithContext(ctx).
		Preload("SaleItems").
		Where("organization_id = ?", organizationID)

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CustomerID != "" {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.LivestreamID != "" {
		query = query.Where("livestream_id = ?", filter.LivestreamID)
	}
	if filter.SellerID != "" {
		query = query.Where("seller_id = ?", filter.SellerID)
	}

	var sales []model.Sale
	err := query.Order("status ASC").Order("updated_at DESC").Find(&sales).Error
	return sales, err
}

// GetActiveCarts 查詢組織內所有 reserved 購物車
// livestream 過濾用黏性指標 last_livestream_id，跨場次加過東西的購物車也要算進該場
func (s *SaleRepo) GetActiveCarts(ctx context.Context, organizationID string, filter SaleFilter) ([]model.Sale, error) {
	query := s.db.WithContext(ctx).
		Preload("SaleItems").
		Preload("SaleItems.LiveItem").
		Where("organization_id = ? AND status = ?", organizationID, model.SaleStatusReserved)

	if filter.CustomerID != "" {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.LivestreamID != "" {
		query = query.Where("last_livestream_id = ?", filter.LivestreamID)
	}
	if filter.SellerID != "" {
		query = query.Where("seller_id = ?", filter.SellerID)
	}

	var sales []model.Sale
	err := query.Order("updated_at DESC").Find(&sales).Error
	return sales, err
}

// GetStaleCarts 查詢太久沒動的 reserved 購物車，清理排程用
// organizationID 給空字串表示跨租戶撈
func (s *SaleRepo) GetStaleCarts(ctx context.Context, organizationID string, cutoff time.Time) ([]model.Sale, error) {
	query := s.db.WithContext(ctx).
		Preload("SaleItems").
		Where("status = ? AND updated_at < ?", model.SaleStatusReserved, cutoff)
	if organizationID != "" {
		query = query.Where("organization_id = ?", organizationID)
	}

	var sales []model.Sale
	err := query.Order("updated_at ASC").Find(&sales).Error
	return sales, err
}

// UpdateSale 只存主檔欄位，明細與付款各有自己的寫入路徑
func (s *SaleRepo) UpdateSale(ctx context.Context, sale *model.Sale) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Save(sale).Error
}

func (s *SaleRepo) UpdateSaleStatus(ctx context.Context, id string, status model.SaleStatus) error {
	result := s.db.WithContext(ctx).Model(&model.Sale{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSaleNotFound
	}
	return nil
}

func (s *SaleRepo) UpdateSaleTotal(ctx context.Context, id string, total decimal.Decimal) error {
	return s.db.WithContext(ctx).Model(&model.Sale{}).
		Where("id = ?", id).
		Update("total_amount", total).Error
}

// TouchSale 更新黏性直播指標並推進updated_at
// updated_at是「最近異動」排序與stale cart判定的依據
func (s *SaleRepo) TouchSale(ctx context.Context, id string, lastLivestreamID *string) error {
	updates := map[string]interface{}{"updated_at": time.Now()}
	if lastLivestreamID != nil {
		updates["last_livestream_id"] = *lastLivestreamID
	}
	return s.db.WithContext(ctx).Model(&model.Sale{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// 明細操作

func (s *SaleRepo) AddSaleItem(ctx context.Context, item *model.SaleItem) error {
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *SaleRepo) GetSaleItem(ctx context.Context, saleID, itemID string) (*model.SaleItem, error) {
	var item model.SaleItem
	err := s.db.WithContext(ctx).
		Where("id = ? AND sale_id = ?", itemID, saleID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSaleItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *SaleRepo) GetSaleItems(ctx context.Context, saleID string) ([]model.SaleItem, error) {
	var items []model.SaleItem
	err := s.db.WithContext(ctx).Where("sale_id = ?", saleID).Find(&items).Error
	return items, err
}

func (s *SaleRepo) UpdateSaleItem(ctx context.Context, item *model.SaleItem) error {
	return s.db.WithContext(ctx).Save(item).Error
}

func (s *SaleRepo) DeleteSaleItem(ctx context.Context, saleID, itemID string) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND sale_id = ?", itemID, saleID).
		Delete(&model.SaleItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSaleItemNotFound
	}
	return nil
}

// SumSaleItems 以DB彙總明細總額，總額重算的唯一來源
func (s *SaleRepo) SumSaleItems(ctx context.Context, saleID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.db.WithContext(ctx).Model(&model.SaleItem{}).
		Where("sale_id = ?", saleID).
		Select("COALESCE(SUM(total_price), 0)").
		Row().
		Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}
