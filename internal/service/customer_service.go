package service

import (
	"context"
	"errors"

	"github.com/RoyceAzure/lab/livesale/internal/domain/model"
	"github.com/RoyceAzure/lab/livesale/internal/infra/repository/db"
	"github.com/google/uuid"
)

type ICustomerService interface {
	FindOrCreateCustomer(ctx context.Context, name, organizationID string) (*model.Customer, error)
	GetCustomer(ctx context.Context, id, organizationID string) (*model.Customer, error)
	GetCustomers(ctx context.Context, organizationID, search string) ([]model.Customer, error)
	DeleteCustomer(ctx context.Context, id, organizationID string) error
}

type CustomerService struct {
	store db.UnifiedDB
}

func NewCustomerService(store db.UnifiedDB) *CustomerService {
	return &CustomerService{store: store}
}

// FindOrCreateCustomer 直播留言下單常常只有名字，用名字找，沒有就建
func (c *CustomerService) FindOrCreateCustomer(ctx context.Context, name, organizationID string) (*model.Customer, error) {
	customer, err := c.store.GetCustomerByName(ctx, name, organizationID)
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, db.ErrCustomerNotFound) {
		return nil, err
	}

	customer = &model.Customer{
		ID:             uuid.NewString(),
		OrganizationID: organizationID,
		Name:           name,
	}
	if err := c.store.CreateCustomer(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func (c *CustomerService) GetCustomer(ctx context.Context, id, organizationID string) (*model.Customer, error) {
	customer, err := c.store.GetCustomerByID(ctx, id, organizationID)
	if errors.Is(err, db.ErrCustomerNotFound) {
		return nil, ErrCustomerNotExist
	}
	if err != nil {
		return nil, err
	}
	return customer, nil
}

func (c *CustomerService) GetCustomers(ctx context.Context, organizationID, search string) ([]model.Customer, error) {
	return c.store.GetCustomers(ctx, organizationID, search)
}

func (c *CustomerService) DeleteCustomer(ctx context.Context, id, organizationID string) error {
	err := c.store.DeleteCustomer(ctx, id, organizationID)
	if errors.Is(err, db.ErrCustomerNotFound) {
		return ErrCustomerNotExist
	}
	return err
}

var _ ICustomerService = (*CustomerService)(nil)
