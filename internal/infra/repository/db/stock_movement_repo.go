package db

import (
	"context"

	"github.com/RoyceAzure/lab/livesale/internal/domain/model"
)

/*
庫存流水帳，只insert不update
reserve為負向、release為正向、sale為零向(數量已在reserve扣過)
同一品項所有異動加總應等於 現有庫存 - 建檔庫存
*/
type StockMovementRepo struct {
	db *DbDao
}

func NewStockMovementRepo(db *DbDao) *StockMovementRepo {
	return &StockMovementRepo{db: db}
}

func (s *StockMovementRepo) CreateMovement(ctx context.Context, movement *model.StockMovement) error {
	return s.db.WithContext(ctx).Create(movement).Error
}

func (s *StockMovementRepo) GetMovementsByItem(ctx context.Context, liveItemID string) ([]model.StockMovement, error) {
	var movements []model.StockMovement
	err := s.db.WithContext(ctx).
		Where("live_item_id = ?", liveItemID).
		Order("id ASC").
		Find(&movements).Error
	return movements, err
}

func (s *StockMovementRepo) GetMovementsBySale(ctx context.Context, saleID string) ([]model.StockMovement, error) {
	var movements []model.StockMovement
	err := s.db.WithContext(ctx).
		Where("sale_id = ?", saleID).
		Order("id ASC").
		Find(&movements).Error
	return movements, err
}

// NetMovement 品項異動淨額，對帳用
// reserve記負數、release記正數，淨額應等於 現有quantity - 建檔quantity
func (s *StockMovementRepo) NetMovement(ctx context.Context, liveItemID string) (int, error) {
	var net int
	err := s.db.WithContext(ctx).Model(&model.StockMovement{}).
		Where("live_item_id = ?", liveItemID).
		Select(`COALESCE(SUM(CASE type
			WHEN 'reserve' THEN -quantity
			WHEN 'release' THEN quantity
			ELSE 0 END), 0)`).
		Row().
		Scan(&net)
	return net, err
}
