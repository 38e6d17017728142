package service

import (
	"context"
	"errors"
	"time"

	"github.com/RoyceAzure/lab/livesale/internal/domain/model"
	"github.com/RoyceAzure/lab/livesale/internal/infra/repository/db"
)

type ISaleService interface {
	GetSale(ctx context.Context, id, organizationID string) (*model.Sale, error)
	GetSales(ctx context.Context, organizationID string, filter db.SaleFilter) ([]model.Sale, error)
	GetActiveCarts(ctx context.Context, organizationID string, filter db.SaleFilter) ([]model.Sale, error)
	GetStaleCarts(ctx context.Context, organizationID string, olderThan time.Duration) ([]model.Sale, error)
	GetCustomerCart(ctx context.Context, customerID, organizationID string) (*model.Sale, error)
}

// 讀取端，報表跟後台看的，不會動到庫存
type SaleService struct {
	store db.UnifiedDB
}

func NewSaleService(store db.UnifiedDB) *SaleService {
	return &SaleService{store: store}
}

func (s *SaleService) GetSale(ctx context.Context, id, organizationID string) (*model.Sale, error) {
	sale, err := s.store.GetSaleByID(ctx, id, organizationID)
	if errors.Is(err, db.ErrSaleNotFound) {
		return nil, ErrCartNotExist
	}
	if err != nil {
		return nil, err
	}
	return sale, nil
}

func (s *SaleService) GetSales(ctx context.Context, organizationID string, filter db.SaleFilter) ([]model.Sale, error) {
	return s.store.GetSales(ctx, organizationID, filter)
}

func (s *SaleService) GetActiveCarts(ctx context.Context, organizationID string, filter db.SaleFilter) ([]model.Sale, error) {
	return s.store.GetActiveCarts(ctx, organizationID, filter)
}

// GetStaleCarts 太久沒動的reserved購物車，外部清理工具拿去處理
func (s *SaleService) GetStaleCarts(ctx context.Context, organizationID string, olderThan time.Duration) ([]model.Sale, error) {
	cutoff := time.Now().Add(-olderThan)
	return s.store.GetStaleCarts(ctx, organizationID, cutoff)
}

// GetCustomerCart 顧客目前的購物車，沒有回傳ErrCartNotExist
func (s *SaleService) GetCustomerCart(ctx context.Context, customerID, organizationID string) (*model.Sale, error) {
	cart, err := s.store.GetOpenCart(ctx, organizationID, customerID)
	if errors.Is(err, db.ErrSaleNotFound) {
		return nil, ErrCartNotExist
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}

var _ ISaleService = (*SaleService)(nil)
