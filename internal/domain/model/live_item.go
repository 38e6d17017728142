package model

import (
	"github.com/shopspring/decimal"
)

type LiveItemStatus string

const (
	LiveItemStatusAvailable LiveItemStatus = "available" // 可販售
	LiveItemStatusReserved  LiveItemStatus = "reserved"  // 已被購物車保留
	LiveItemStatusSold      LiveItemStatus = "sold"      // 已售出，終態
)

// LiveItem 直播中上架的販售品項
// quantity 為真相來源，status 只是粗略標記:
// 數量歸零時標記 reserved，釋放後恢復 available，結單後標記 sold
type LiveItem struct {
	ID             string              `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OrganizationID string              `gorm:"not null;index;type:varchar(36)" json:"organization_id"`
	CategoryID     string              `gorm:"not null;type:varchar(36)" json:"category_id"`
	LivestreamID   *string             `gorm:"type:varchar(36)" json:"livestream_id"`
	Price          decimal.Decimal     `gorm:"not null;type:decimal(10,2)" json:"price"`
	Quantity       int                 `gorm:"not null;check:quantity >= 0" json:"quantity"`
	Status         LiveItemStatus      `gorm:"not null;type:varchar(20);default:available" json:"status"`
	ImageURL       string              `gorm:"type:varchar(255)" json:"image_url"`
	Notes          string              `gorm:"type:text" json:"notes"`
	Attributes     []LiveItemAttribute `gorm:"foreignKey:LiveItemID;constraint:OnDelete:CASCADE" json:"attributes"`
	BaseModel
}

// LiveItemAttribute 品項自由屬性（顏色、尺寸等）
type LiveItemAttribute struct {
	ID          uint     `gorm:"primaryKey;autoIncrement" json:"id"`
	LiveItemID  string   `gorm:"not null;index;type:varchar(36)" json:"live_item_id"`
	Name        string   `gorm:"not null;type:varchar(50)" json:"name"`
	TextValue   string   `gorm:"type:varchar(100)" json:"text_value"`
	NumberValue *float64 `json:"number_value"`
}
