package db

import (
	"github.com/RoyceAzure/lab/livesale/internal/domain/model"
	"gorm.io/gorm"
)

type DbDao struct {
	*gorm.DB
}

func NewDbDao(conn *gorm.DB) *DbDao {
	return &DbDao{
		DB: conn,
	}
}

// 初始化db schema
// 冪等性
// 每個 (org, customer) 同時只能有一張 reserved Sale，
// AutoMigrate 做不出 partial unique index，這裡補建
func (d *DbDao) InitMigrate() error {
	err := d.AutoMigrate(
		&model.ProductCategory{},
		&model.Livestream{},
		&model.Customer{},
		&model.LiveItem{},
		&model.LiveItemAttribute{},
		&model.Sale{},
		&model.SaleItem{},
		&model.Payment{},
		&model.StockMovement{},
	)
	if err != nil {
		return err
	}

	return d.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS uniq_open_cart_per_customer
		ON sales (organization_id, customer_id)
		WHERE status = 'reserved' AND deleted_at IS NULL`).Error
}
