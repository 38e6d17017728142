package model

import (
	"github.com/shopspring/decimal"
)

// 銷售事件給報表/直播統計端消費，引擎只發不收

type ItemReservedEvent struct {
	BaseEvent
	CustomerID   string          `json:"customerId"`
	LiveItemID   string          `json:"liveItemId"`
	LivestreamID *string         `json:"livestreamId"`
	Quantity     int             `json:"quantity"`
	TotalPrice   decimal.Decimal `json:"totalPrice"`
}

func NewItemReservedEvent(saleID, customerID, liveItemID string, livestreamID *string, quantity int, totalPrice decimal.Decimal) *ItemReservedEvent {
	return &ItemReservedEvent{
		BaseEvent:    *NewBaseEvent(saleID, ItemReservedEventName),
		CustomerID:   customerID,
		LiveItemID:   liveItemID,
		LivestreamID: livestreamID,
		Quantity:     quantity,
		TotalPrice:   totalPrice,
	}
}

func (e *ItemReservedEvent) Type() EventType {
	return ItemReservedEventName
}

type ItemReleasedEvent struct {
	BaseEvent
	CustomerID string `json:"customerId"`
	LiveItemID string `json:"liveItemId"`
	Quantity   int    `json:"quantity"`
}

func NewItemReleasedEvent(saleID, customerID, liveItemID string, quantity int) *ItemReleasedEvent {
	return &ItemReleasedEvent{
		BaseEvent:  *NewBaseEvent(saleID, ItemReleasedEventName),
		CustomerID: customerID,
		LiveItemID: liveItemID,
		Quantity:   quantity,
	}
}

func (e *ItemReleasedEvent) Type() EventType {
	return ItemReleasedEventName
}

type SaleConfirmedEvent struct {
	BaseEvent
	CustomerID  string          `json:"customerId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	ItemCount   int             `json:"itemCount"`
}

func NewSaleConfirmedEvent(saleID, customerID string, totalAmount decimal.Decimal, itemCount int) *SaleConfirmedEvent {
	return &SaleConfirmedEvent{
		BaseEvent:   *NewBaseEvent(saleID, SaleConfirmedEventName),
		CustomerID:  customerID,
		TotalAmount: totalAmount,
		ItemCount:   itemCount,
	}
}

func (e *SaleConfirmedEvent) Type() EventType {
	return SaleConfirmedEventName
}

type SaleCancelledEvent struct {
	BaseEvent
	CustomerID string `json:"customerId"`
}

func NewSaleCancelledEvent(saleID, customerID string) *SaleCancelledEvent {
	return &SaleCancelledEvent{
		BaseEvent:  *NewBaseEvent(saleID, SaleCancelledEventName),
		CustomerID: customerID,
	}
}

func (e *SaleCancelledEvent) Type() EventType {
	return SaleCancelledEventName
}
