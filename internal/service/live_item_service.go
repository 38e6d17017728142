package service

import (
	"context"
	"errors"

	"github.com/RoyceAzure/lab/livesale/internal/domain/model"
	"github.com/RoyceAzure/lab/livesale/internal/infra/repository/db"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrCategoryNotExist = errors.New("category is not exist")
	ErrLiveItemInSale   = errors.New("live item is referenced by a sale")
	ErrInvalidPrice     = errors.New("price must not be negative")
)

type ILiveItemService interface {
	CreateLiveItem(ctx context.Context, params CreateLiveItemParams) (*model.LiveItem, error)
	GetLiveItem(ctx context.Context, id, organizationID string) (*model.LiveItem, error)
	GetLiveItems(ctx context.Context, organizationID string, filter db.LiveItemFilter) ([]model.LiveItem, int64, error)
	UpdateLiveItem(ctx context.Context, id, organizationID string, params UpdateLiveItemParams) (*model.LiveItem, error)
	DeleteLiveItem(ctx context.Context, id, organizationID string) error
	GetStats(ctx context.Context, organizationID, livestreamID string) (*db.LiveItemStats, error)
}

type LiveItemAttributeParams struct {
	Name        string
	TextValue   string
	NumberValue *float64
}

type CreateLiveItemParams struct {
	OrganizationID string
	CategoryID     string
	LivestreamID   *string
	Price          decimal.Decimal
	Quantity       int
	ImageURL       string
	Notes          string
	Attributes     []LiveItemAttributeParams
}

type UpdateLiveItemParams struct {
	Price        *decimal.Decimal
	Quantity     *int
	ImageURL     *string
	Notes        *string
	LivestreamID *string
}

// 上架品項的目錄維護，庫存量只有預約引擎能動，
// 這裡的quantity更新僅限上架前補登
type LiveItemService struct {
	store db.UnifiedDB
	items db.ILiveItemRepository
}

// items可以傳包了快取decorator的實作，nil時直接用store
func NewLiveItemService(store db.UnifiedDB, items db.ILiveItemRepository) *LiveItemService {
	if items == nil {
		items = store
	}
	return &LiveItemService{store: store, items: items}
}

func (l *LiveItemService) CreateLiveItem(ctx context.Context, params CreateLiveItemParams) (*model.LiveItem, error) {
	if params.Price.IsNegative() {
		return nil, ErrInvalidPrice
	}

	exists, err := l.store.CategoryExists(ctx, params.CategoryID, params.OrganizationID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrCategoryNotExist
	}

	if params.LivestreamID != nil {
		exists, err := l.store.LivestreamExists(ctx, *params.LivestreamID, params.OrganizationID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrLivestreamNotExist
		}
	}

	quantity := params.Quantity
	if quantity < 1 {
		quantity = 1
	}

	item := &model.LiveItem{
		ID:             uuid.NewString(),
		OrganizationID: params.OrganizationID,
		CategoryID:     params.CategoryID,
		LivestreamID:   params.LivestreamID,
		Price:          params.Price,
		Quantity:       quantity,
		Status:         model.LiveItemStatusAvailable,
		ImageURL:       params.ImageURL,
		Notes:          params.Notes,
	}
	for _, attr := range params.Attributes {
		item.Attributes = append(item.Attributes, model.LiveItemAttribute{
			LiveItemID:  item.ID,
			Name:        attr.Name,
			TextValue:   attr.TextValue,
			NumberValue: attr.NumberValue,
		})
	}

	if err := l.items.CreateLiveItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (l *LiveItemService) GetLiveItem(ctx context.Context, id, organizationID string) (*model.LiveItem, error) {
	item, err := l.items.GetLiveItemByID(ctx, id, organizationID)
	if errors.Is(err, db.ErrLiveItemNotFound) {
		return nil, ErrLiveItemNotAvailable
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (l *LiveItemService) GetLiveItems(ctx context.Context, organizationID string, filter db.LiveItemFilter) ([]model.LiveItem, int64, error) {
	return l.items.GetLiveItems(ctx, organizationID, filter)
}

func (l *LiveItemService) UpdateLiveItem(ctx context.Context, id, organizationID string, params UpdateLiveItemParams) (*model.LiveItem, error) {
	if params.Price != nil && params.Price.IsNegative() {
		return nil, ErrInvalidPrice
	}
	if params.Quantity != nil && *params.Quantity < 0 {
		return nil, ErrInvalidQuantity
	}
	if params.LivestreamID != nil {
		exists, err := l.store.LivestreamExists(ctx, *params.LivestreamID, organizationID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrLivestreamNotExist
		}
	}

	item, err := l.GetLiveItem(ctx, id, organizationID)
	if err != nil {
		return nil, err
	}

	if params.Price != nil {
		item.Price = *params.Price
	}
	if params.Quantity != nil {
		item.Quantity = *params.Quantity
	}
	if params.ImageURL != nil {
		item.ImageURL = *params.ImageURL
	}
	if params.Notes != nil {
		item.Notes = *params.Notes
	}
	if params.LivestreamID != nil {
		item.LivestreamID = params.LivestreamID
	}

	if err := l.items.UpdateLiveItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteLiveItem 品項已進任何銷售單就不能刪
func (l *LiveItemService) DeleteLiveItem(ctx context.Context, id, organizationID string) error {
	err := l.items.HardDeleteLiveItem(ctx, id, organizationID)
	if errors.Is(err, db.ErrLiveItemInSale) {
		return ErrLiveItemInSale
	}
	if errors.Is(err, db.ErrLiveItemNotFound) {
		return ErrLiveItemNotAvailable
	}
	return err
}

func (l *LiveItemService) GetStats(ctx context.Context, organizationID, livestreamID string) (*db.LiveItemStats, error) {
	return l.items.GetLiveItemStats(ctx, organizationID, livestreamID)
}

var _ ILiveItemService = (*LiveItemService)(nil)
