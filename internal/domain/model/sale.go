package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type SaleStatus string

const (
	SaleStatusReserved  SaleStatus = "reserved"  // 購物車狀態，唯一可變狀態
	SaleStatusConfirmed SaleStatus = "confirmed" // 已結單，終態
	SaleStatusCancelled SaleStatus = "cancelled" // 已取消，終態
)

// Sale 購物車與銷售單共用同一實體，由 status 區分
// 每個 (organization, customer) 同時最多只能有一張 reserved Sale
type Sale struct {
	ID             string  `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OrganizationID string  `gorm:"not null;index:idx_sales_org_customer;type:varchar(36)" json:"organization_id"`
	CustomerID     string  `gorm:"not null;index:idx_sales_org_customer;type:varchar(36)" json:"customer_id"`
	SellerID       string  `gorm:"not null;type:varchar(36)" json:"seller_id"`
	LivestreamID   *string `gorm:"type:varchar(36)" json:"livestream_id"`
	// 黏性指標: 每次在不同直播觸碰購物車就更新，跨場次歸因用
	LastLivestreamID *string         `gorm:"type:varchar(36)" json:"last_livestream_id"`
	Status           SaleStatus      `gorm:"not null;type:varchar(20);default:reserved;index" json:"status"`
	TotalAmount      decimal.Decimal `gorm:"not null;type:decimal(10,2)" json:"total_amount"`
	DiscountAmount   decimal.Decimal `gorm:"not null;type:decimal(10,2);default:0" json:"discount_amount"`
	Notes            string          `gorm:"type:text" json:"notes"`
	SaleItems        []SaleItem      `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE" json:"sale_items"` // 一對多，級聯刪除
	Payments         []Payment       `gorm:"foreignKey:SaleID" json:"payments"`
	BaseModel
}

// IsEditable 只有 reserved 狀態可以異動明細
func (s *Sale) IsEditable() bool {
	return s.Status == SaleStatusReserved
}

// LineTotal 依現有明細計算總額 (sum(total_price) - discount)
func (s *Sale) LineTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.SaleItems {
		total = total.Add(item.TotalPrice)
	}
	return total.Sub(s.DiscountAmount)
}

// HasPaidPayment 是否已附掛付款完成的紀錄
func (s *Sale) HasPaidPayment() bool {
	for _, p := range s.Payments {
		if p.Status == PaymentStatusPaid {
			return true
		}
	}
	return false
}

// SaleItem 購物車明細，加入當下快照單價與屬性
type SaleItem struct {
	ID         string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	SaleID     string          `gorm:"not null;index;type:varchar(36)" json:"sale_id"`
	LiveItemID string          `gorm:"not null;index;type:varchar(36)" json:"live_item_id"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"not null;type:decimal(10,2)" json:"unit_price"`
	TotalPrice decimal.Decimal `gorm:"not null;type:decimal(10,2)" json:"total_price"`
	// 加入當下的屬性快照，品項屬性之後改了報表不受影響
	AttributeSnapshot string    `gorm:"type:text" json:"attribute_snapshot"`
	LiveItem          *LiveItem `gorm:"foreignKey:LiveItemID" json:"live_item,omitempty"`
	BaseModel
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Payment 結單時附掛的付款紀錄
type Payment struct {
	ID        string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	SaleID    string          `gorm:"not null;index;type:varchar(36)" json:"sale_id"`
	Method    string          `gorm:"not null;type:varchar(30)" json:"method"`
	Amount    decimal.Decimal `gorm:"not null;type:decimal(10,2)" json:"amount"`
	Status    PaymentStatus   `gorm:"not null;type:varchar(20)" json:"status"`
	Reference string          `gorm:"type:varchar(100)" json:"reference"`
	PaidAt    *time.Time      `json:"paid_at"`
	BaseModel
}
