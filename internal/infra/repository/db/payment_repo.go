package db

import (
	"context"

	"github.com/RoyceAzure/lab/livesale/internal/domain/model"
)

type PaymentRepo struct {
	db *DbDao
}

func NewPaymentRepo(db *DbDao) *PaymentRepo {
	return &PaymentRepo{db: db}
}

func (s *PaymentRepo) CreatePayment(ctx context.Context, payment *model.Payment) error {
	return s.db.WithContext(ctx).Create(payment).Error
}

func (s *PaymentRepo) GetPaymentsBySaleID(ctx context.Context, saleID string) ([]model.Payment, error) {
	var payments []model.Payment
	err := s.db.WithContext(ctx).Where("sale_id = ?", saleID).Find(&payments).Error
	return payments, err
}

// HasPaidPayment 是否已有付款完成紀錄，取消購物車前要先檢查
func (s *PaymentRepo) HasPaidPayment(ctx context.Context, saleID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Payment{}).
		Where("sale_id = ? AND status = ?", saleID, model.PaymentStatusPaid).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
