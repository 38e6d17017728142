package model

import "time"

type StockMovementType string

const (
	StockMovementReserve StockMovementType = "reserve" // 加入購物車扣庫存
	StockMovementRelease StockMovementType = "release" // 移除或取消還庫存
	StockMovementSale    StockMovementType = "sale"    // 結單定案
)

// StockMovement 庫存異動流水帳，只增不改
// 與引擎寫入操作同一個交易內落帳，事後稽核用
type StockMovement struct {
	ID             uint              `gorm:"primaryKey;autoIncrement" json:"id"`
	OrganizationID string            `gorm:"not null;index;type:varchar(36)" json:"organization_id"`
	LiveItemID     string            `gorm:"not null;index;type:varchar(36)" json:"live_item_id"`
	SaleID         *string           `gorm:"index;type:varchar(36)" json:"sale_id"`
	Type           StockMovementType `gorm:"not null;type:varchar(20)" json:"type"`
	Quantity       int               `gorm:"not null" json:"quantity"`
	CreatedAt      time.Time         `gorm:"not null;default:now()" json:"created_at"`
}
