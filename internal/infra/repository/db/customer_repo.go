package db

import (
	"context"
	"errors"
	"time"

	"github.com/RoyceAzure/lab/livesale/internal/domain/model"
	"gorm.io/gorm"
)

// ErrCustomerNotFound 顧客不存在或不屬於該組織
var ErrCustomerNotFound = errors.New("customer not found")

type CustomerRepo struct {
	db *DbDao
}

func NewCustomerRepo(db *DbDao) *CustomerRepo {
	return &CustomerRepo{db: db}
}

func (s *CustomerRepo) CreateCustomer(ctx context.Context, customer *model.Customer) error {
	return s.db.WithContext(ctx).Create(customer).Error
}

func (s *CustomerRepo) GetCustomerByID(ctx context.Context, id, organizationID string) (*model.Customer, error) {
	var customer model.Customer
	err := s.db.WithContext(ctx).
		Where("id = ? AND organization_id = ?", id, organizationID).
		First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// GetCustomerByName 名稱完全比對
func (s *CustomerRepo) GetCustomerByName(ctx context.Context, name, organizationID string) (*model.Customer, error) {
	var customer model.Customer
	err := s.db.WithContext(ctx).
		Where("name = ? AND organization_id = ?", name, organizationID).
		First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (s *CustomerRepo) CustomerExists(ctx context.Context, id, organizationID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Customer{}).
		Where("id = ? AND organization_id = ?", id, organizationID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// 搜尋限制100筆，避免直播中打全表
func (s *CustomerRepo) GetCustomers(ctx context.Context, organizationID, search string) ([]model.Customer, error) {
	query := s.db.WithContext(ctx).Where("organization_id = ?", organizationID)

	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("name ILIKE ? OR username ILIKE ? OR contact ILIKE ?", pattern, pattern, pattern)
	}

	var customers []model.Customer
	err := query.Order("last_purchase_at DESC NULLS LAST").
		Order("name ASC").
		Limit(100).
		Find(&customers).Error
	return customers, err
}

func (s *CustomerRepo) UpdateCustomer(ctx context.Context, customer *model.Customer) error {
	return s.db.WithContext(ctx).Save(customer).Error
}

// TouchLastPurchase 結單後更新最後購買時間
func (s *CustomerRepo) TouchLastPurchase(ctx context.Context, id string, at time.Time) error {
	return s.db.WithContext(ctx).Model(&model.Customer{}).
		Where("id = ?", id).
		Update("last_purchase_at", at).Error
}

// DeleteCustomer 軟刪除
func (s *CustomerRepo) DeleteCustomer(ctx context.Context, id, organizationID string) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND organization_id = ?", id, organizationID).
		Delete(&model.Customer{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCustomerNotFound
	}
	return nil
}
