package db

import (
	"context"
	"errors"

	"github.com/RoyceAzure/lab/livesale/internal/domain/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrLiveItemNotFound 品項不存在或不屬於該組織
	ErrLiveItemNotFound = errors.New("live item not found")
	// ErrStockNotEnough 庫存不足
	ErrStockNotEnough = errors.New("live item stock not enough")
	// ErrStockBroken 庫存出現負數，引擎有bug，不是使用者輸入問題
	ErrStockBroken = errors.New("live item stock went negative")
	// ErrLiveItemInSale 品項已被銷售單引用，不可刪除
	ErrLiveItemInSale = errors.New("live item is referenced by a sale")
)

/*
庫存數量以quantity欄位為準
扣減用條件式UPDATE一次完成，檢查與扣減之間不會有第二個請求插進來
*/
type LiveItemRepo struct {
	db *DbDao
}

func NewLiveItemRepo(db *DbDao) *LiveItemRepo {
	return &LiveItemRepo{db: db}
}

func (s *LiveItemRepo) CreateLiveItem(ctx context.Context, item *model.LiveItem) error {
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *LiveItemRepo) GetLiveItemByID(ctx context.Context, id, organizationID string) (*model.LiveItem, error) {
	var item model.LiveItem
	err := s.db.WithContext(ctx).
		Preload("Attributes").
		Where("id = ? AND organization_id = ?", id, organizationID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLiveItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetLiveItemForUpdate 鎖定品項列後回傳，必須在交易內呼叫
// FOR UPDATE 不能跟 Preload 混用，先鎖主列再載屬性
func (s *LiveItemRepo) GetLiveItemForUpdate(ctx context.Context, id, organizationID string) (*model.LiveItem, error) {
	var item model.LiveItem
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND organization_id = ?", id, organizationID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLiveItemNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).
		Where("live_item_id = ?", item.ID).
		Find(&item.Attributes).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

type LiveItemFilter struct {
	CategoryID   string
	LivestreamID string
	Status       model.LiveItemStatus
	Page         int
	Limit        int
}

// 分頁查詢品項
func (s *LiveItemRepo) GetLiveItems(ctx context.Context, organizationID string, filter LiveItemFilter) ([]model.LiveItem, int64, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 20
	}

	query := s.db.WithContext(ctx).Model(&model.LiveItem{}).
		Where("organization_id = ?", organizationID)

	if filter.CategoryID != "" {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if filter.LivestreamID != "" {
		query = query.Where("livestream_id = ?", filter.LivestreamID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []model.LiveItem
	err := query.Preload("Attributes").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&items).Error

	return items, total, err
}

func (s *LiveItemRepo) UpdateLiveItem(ctx context.Context, item *model.LiveItem) error {
	return s.db.WithContext(ctx).Save(item).Error
}

// DeductStock 原子性扣庫存，回傳剩餘數量
// 條件式UPDATE，庫存不足時rows affected為0
// 錯誤:
//   - ErrStockNotEnough: 庫存不足（或品項不存在）
//   - ErrStockBroken: 扣完出現負數
func (s *LiveItemRepo) DeductStock(ctx context.Context, id string, quantity int) (int, error) {
	var remaining int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.LiveItem{}).
			Where("id = ? AND quantity >= ?", id, quantity).
			Update("quantity", gorm.Expr("quantity - ?", quantity))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStockNotEnough
		}

		var item model.LiveItem
		if err := tx.Select("quantity").Where("id = ?", id).First(&item).Error; err != nil {
			return err
		}
		if item.Quantity < 0 {
			return ErrStockBroken
		}
		remaining = item.Quantity

		// 數量歸零表示已被整批保留
		if remaining == 0 {
			return tx.Model(&model.LiveItem{}).
				Where("id = ?", id).
				Update("status", model.LiveItemStatusReserved).Error
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return remaining, nil
}

// RestoreStock 還庫存，回傳剩餘數量
// 還回的量必須等於當初扣掉的量，呼叫端負責不重複呼叫
func (s *LiveItemRepo) RestoreStock(ctx context.Context, id string, quantity int) (int, error) {
	var remaining int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.LiveItem{}).
			Where("id = ?", id).
			Update("quantity", gorm.Expr("quantity + ?", quantity))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrLiveItemNotFound
		}

		var item model.LiveItem
		if err := tx.Select("quantity", "status").Where("id = ?", id).First(&item).Error; err != nil {
			return err
		}
		remaining = item.Quantity

		// sold是終態，還庫存只會把reserved翻回available
		if item.Status == model.LiveItemStatusReserved && remaining > 0 {
			return tx.Model(&model.LiveItem{}).
				Where("id = ?", id).
				Update("status", model.LiveItemStatusAvailable).Error
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return remaining, nil
}

// MarkSold 結單時標記售出，數量已在保留時扣過，不再異動
func (s *LiveItemRepo) MarkSold(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Model(&model.LiveItem{}).
		Where("id = ?", id).
		Update("status", model.LiveItemStatusSold)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLiveItemNotFound
	}
	return nil
}

// HardDeleteLiveItem 硬刪除品項，已被銷售單引用時拒絕
func (s *LiveItemRepo) HardDeleteLiveItem(ctx context.Context, id, organizationID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.SaleItem{}).
			Where("live_item_id = ?", id).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrLiveItemInSale
		}

		if err := tx.Where("live_item_id = ?", id).
			Delete(&model.LiveItemAttribute{}).Error; err != nil {
			return err
		}

		result := tx.Unscoped().
			Where("id = ? AND organization_id = ?", id, organizationID).
			Delete(&model.LiveItem{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrLiveItemNotFound
		}
		return nil
	})
}

// LiveItemStats 品項狀態統計
type LiveItemStats struct {
	Available      int64           `json:"available"`
	Reserved       int64           `json:"reserved"`
	Sold           int64           `json:"sold"`
	Total          int64           `json:"total"`
	TotalSoldValue float64         `json:"total_sold_value"`
}

// GetLiveItemStats 依狀態統計品項數與售出總額
func (s *LiveItemRepo) GetLiveItemStats(ctx context.Context, organizationID, livestreamID string) (*LiveItemStats, error) {
	query := s.db.WithContext(ctx).Model(&model.LiveItem{}).
		Where("organization_id = ?", organizationID)
	if livestreamID != "" {
		query = query.Where("livestream_id = ?", livestreamID)
	}

	var rows []struct {
		Status model.LiveItemStatus
		Count  int64
	}
	if err := query.Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	stats := &LiveItemStats{}
	for _, row := range rows {
		switch row.Status {
		case model.LiveItemStatusAvailable:
			stats.Available = row.Count
		case model.LiveItemStatusReserved:
			stats.Reserved = row.Count
		case model.LiveItemStatusSold:
			stats.Sold = row.Count
		}
		stats.Total += row.Count
	}

	soldQuery := s.db.WithContext(ctx).Model(&model.LiveItem{}).
		Where("organization_id = ? AND status = ?", organizationID, model.LiveItemStatusSold)
	if livestreamID != "" {
		soldQuery = soldQuery.Where("livestream_id = ?", livestreamID)
	}
	err := soldQuery.Select("COALESCE(SUM(price), 0)").Row().Scan(&stats.TotalSoldValue)
	if err != nil {
		return nil, err
	}

	return stats, nil
}
