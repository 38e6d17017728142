package model

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	ItemReservedEventName  EventType = "ItemReserved"
	ItemReleasedEventName  EventType = "ItemReleased"
	SaleConfirmedEventName EventType = "SaleConfirmed"
	SaleCancelledEventName EventType = "SaleCancelled"
)

type BaseEvent struct {
	EventID     string    `json:"eventId"`
	AggregateID string    `json:"aggregateId"`
	CreatedAt   time.Time `json:"createdAt"`
	EventType   EventType `json:"eventType"`
}

func NewBaseEvent(aggregateID string, eventType EventType) *BaseEvent {
	return &BaseEvent{
		EventID:     uuid.NewString(),
		AggregateID: aggregateID,
		CreatedAt:   time.Now(),
		EventType:   eventType,
	}
}

func (e *BaseEvent) GetID() string {
	return e.EventID
}

type Event interface {
	Type() EventType
	GetID() string
}
