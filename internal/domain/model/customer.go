package model

import "time"

// Customer 直播間顧客，以 (organization, name) 查找或建立
type Customer struct {
	ID             string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OrganizationID string     `gorm:"not null;index;type:varchar(36)" json:"organization_id"`
	Name           string     `gorm:"not null;type:varchar(100);index" json:"name"`
	Username       string     `gorm:"type:varchar(100)" json:"username"`
	Contact        string     `gorm:"type:varchar(100)" json:"contact"`
	LastPurchaseAt *time.Time `json:"last_purchase_at"`
	BaseModel
}
