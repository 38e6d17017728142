package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/RoyceAzure/lab/livesale/internal/domain/model"
	evt_model "github.com/RoyceAzure/lab/livesale/internal/domain/model/event"
	"github.com/RoyceAzure/lab/livesale/internal/infra/producer"
	"github.com/RoyceAzure/lab/livesale/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/livesale/internal/infra/repository/redis_repo"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var (
	ErrLiveItemNotAvailable = errors.New("live item not found or not available")
	ErrStockNotEnough       = errors.New("requested quantity exceeds available stock")
	ErrCartNotExist         = errors.New("cart is not exist")
	ErrCartItemNotExist     = errors.New("cart item is not exist")
	ErrCartNotEditable      = errors.New("cart is not in reserved status")
	ErrCartEmpty            = errors.New("cart has no items")
	ErrCartAlreadyPaid      = errors.New("cart has a paid payment attached")
	ErrCustomerNotExist     = errors.New("customer is not exist")
	ErrLivestreamNotExist   = errors.New("livestream is not exist")
	ErrInvalidQuantity      = errors.New("quantity must be positive")
	ErrInvalidDiscount      = errors.New("discount must be between zero and the item subtotal")
	ErrDuplicateRequest     = errors.New("duplicate request")
)

type IReservationService interface {
	GetOrCreateCart(ctx context.Context, params GetOrCreateCartParams) (*model.Sale, error)
	AddItemToCart(ctx context.Context, params AddItemParams) (*model.SaleItem, error)
	RemoveItemFromCart(ctx context.Context, cartID, itemID, organizationID string) (*model.Sale, error)
	UpdateCartItem(ctx context.Context, cartID, itemID, organizationID string, params UpdateItemParams) (*model.SaleItem, error)
	ApplyDiscount(ctx context.Context, cartID, organizationID string, discount decimal.Decimal) (*model.Sale, error)
	ConfirmCart(ctx context.Context, params ConfirmCartParams) (*model.Sale, error)
	CancelCart(ctx context.Context, cartID, organizationID string) (*model.Sale, error)
}

// GetOrCreateCartParams 進引擎前已通過驗證的請求參數
type GetOrCreateCartParams struct {
	CustomerID     string
	OrganizationID string
	SellerID       string
	LivestreamID   *string
}

type AddItemParams struct {
	CustomerID     string
	OrganizationID string
	SellerID       string
	LiveItemID     string
	Quantity       int
	LivestreamID   *string
}

type UpdateItemParams struct {
	Quantity  *int
	UnitPrice *decimal.Decimal
}

type PaymentInfo struct {
	Method    string
	Reference string
}

type ConfirmCartParams struct {
	CartID         string
	OrganizationID string
	Payment        PaymentInfo
}

/*
預約引擎，唯一允許搬動庫存的元件
所有寫入操作都包在單一交易內: 品項扣/還庫存、明細增刪、總額重算、流水帳落帳
交易內先鎖列再讀寫，兩個請求搶同一顆品項只會有一個成功
*/
type ReservationService struct {
	store    db.UnifiedDB
	producer producer.ISaleEventProducer
	guard    redis_repo.IReservationGuardRepository
	stock    redis_repo.IItemStockRedisRepository
}

// producer/guard/stock可為nil，nil時略過事件發佈/防重複提交/快取同步
func NewReservationService(store db.UnifiedDB, producer producer.ISaleEventProducer, guard redis_repo.IReservationGuardRepository, stock redis_repo.IItemStockRedisRepository) *ReservationService {
	return &ReservationService{store: store, producer: producer, guard: guard, stock: stock}
}

// GetOrCreateCart 取得顧客目前的購物車，沒有就開一張新的
// 同一個 (organization, customer) 同時只會有一張 reserved 購物車:
// 交易內先鎖現有購物車列，配合partial unique index擋住並發重複建立
func (r *ReservationService) GetOrCreateCart(ctx context.Context, params GetOrCreateCartParams) (*model.Sale, error) {
	exists, err := r.store.CustomerExists(ctx, params.CustomerID, params.OrganizationID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrCustomerNotExist
	}

	if err := r.checkLivestream(ctx, params.LivestreamID, params.OrganizationID); err != nil {
		return nil, err
	}

	var cartID string
	err = r.store.Transaction(ctx, func(tx db.UnifiedDB) error {
		cart, err := tx.GetOpenCartForUpdate(ctx, params.OrganizationID, params.CustomerID)
		if errors.Is(err, db.ErrSaleNotFound) {
			cart = &model.Sale{
				ID:               uuid.NewString(),
				OrganizationID:   params.OrganizationID,
				CustomerID:       params.CustomerID,
				SellerID:         params.SellerID,
				LivestreamID:     params.LivestreamID,
				LastLivestreamID: params.LivestreamID,
				Status:           model.SaleStatusReserved,
				TotalAmount:      decimal.Zero,
				DiscountAmount:   decimal.Zero,
			}
			cartID = cart.ID
			return tx.CreateSale(ctx, cart)
		}
		if err != nil {
			return err
		}

		cartID = cart.ID
		// 換了直播場次就更新黏性指標，明細不動
		if params.LivestreamID != nil &&
			(cart.LastLivestreamID == nil || *cart.LastLivestreamID != *params.LivestreamID) {
			return tx.TouchSale(ctx, cart.ID, params.LivestreamID)
		}
		return nil
	})
	// 兩個請求同時幫同一顧客開車只會成功一張，輸家直接回贏家那張
	if errors.Is(err, db.ErrOpenCartExists) {
		return r.store.GetOpenCart(ctx, params.OrganizationID, params.CustomerID)
	}
	if err != nil {
		return nil, err
	}

	return r.store.GetSaleByID(ctx, cartID, params.OrganizationID)
}

// AddItemToCart 把品項加進顧客購物車
// 單一交易: 鎖購物車 -> 鎖品項 -> 檢查狀態與數量 -> 扣庫存 -> 建明細快照 -> 重算總額 -> 落流水帳
func (r *ReservationService) AddItemToCart(ctx context.Context, params AddItemParams) (*model.SaleItem, error) {
	if params.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	if err := r.checkLivestream(ctx, params.LivestreamID, params.OrganizationID); err != nil {
		return nil, err
	}

	// 防連點，短窗口內同一顧客同一品項只放第一發過
	if r.guard != nil {
		ok, err := r.guard.AcquireOnce(ctx, params.CustomerID, params.LiveItemID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrDuplicateRequest
		}
	}

	var line *model.SaleItem
	var remaining int
	// 鎖序固定: 先購物車列再品項列，跟其他引擎操作一致才不會互相等成死結
	run := func() error {
		return r.store.Transaction(ctx, func(tx db.UnifiedDB) error {
			cart, err := r.getOrCreateCartTx(ctx, tx, params)
			if err != nil {
				return err
			}

			item, err := tx.GetLiveItemForUpdate(ctx, params.LiveItemID, params.OrganizationID)
			if errors.Is(err, db.ErrLiveItemNotFound) {
				return ErrLiveItemNotAvailable
			}
			if err != nil {
				return err
			}
			if item.Status != model.LiveItemStatusAvailable {
				return ErrLiveItemNotAvailable
			}
			if params.Quantity > item.Quantity {
				return ErrStockNotEnough
			}

			remaining, err = tx.DeductStock(ctx, item.ID, params.Quantity)
			if err != nil {
				if errors.Is(err, db.ErrStockNotEnough) {
					return ErrStockNotEnough
				}
				return err
			}

			line = &model.SaleItem{
				ID:                uuid.NewString(),
				SaleID:            cart.ID,
				LiveItemID:        item.ID,
				Quantity:          params.Quantity,
				UnitPrice:         item.Price,
				TotalPrice:        item.Price.Mul(decimal.NewFromInt(int64(params.Quantity))),
				AttributeSnapshot: snapshotAttributes(item),
			}
			if err := tx.AddSaleItem(ctx, line); err != nil {
				return err
			}

			if err := r.recomputeTotal(ctx, tx, cart); err != nil {
				return err
			}
			if err := tx.TouchSale(ctx, cart.ID, params.LivestreamID); err != nil {
				return err
			}

			return tx.CreateMovement(ctx, &model.StockMovement{
				OrganizationID: params.OrganizationID,
				LiveItemID:     item.ID,
				SaleID:         &cart.ID,
				Type:           model.StockMovementReserve,
				Quantity:       params.Quantity,
			})
		})
	}
	err := run()
	// 搶開車輸了整包rollback，贏家那張已提交，重跑一次掛上去
	if errors.Is(err, db.ErrOpenCartExists) {
		err = run()
	}
	if err != nil {
		// 操作失敗就放掉防重複窗口，使用者能立刻重試
		if r.guard != nil {
			if gerr := r.guard.Release(ctx, params.CustomerID, params.LiveItemID); gerr != nil {
				log.Error().Err(gerr).Msgf("release reservation guard failed, customer_id: %s", params.CustomerID)
			}
		}
		return nil, err
	}

	r.refreshStockCache(map[string]int{params.LiveItemID: remaining})
	r.produceEvent(params.CustomerID, evt_model.NewItemReservedEvent(
		line.SaleID, params.CustomerID, params.LiveItemID, params.LivestreamID, params.Quantity, line.TotalPrice))

	item, err := r.store.GetLiveItemByID(ctx, params.LiveItemID, params.OrganizationID)
	if err == nil {
		line.LiveItem = item
	}
	return line, nil
}

// RemoveItemFromCart 把明細移出購物車，庫存原數還回去
// 還回的量就是明細上當初扣掉的量，不會多也不會少
func (r *ReservationService) RemoveItemFromCart(ctx context.Context, cartID, itemID, organizationID string) (*model.Sale, error) {
	var customerID, liveItemID string
	var quantity, remaining int
	err := r.store.Transaction(ctx, func(tx db.UnifiedDB) error {
		cart, err := tx.GetSaleForUpdate(ctx, cartID, organizationID)
		if errors.Is(err, db.ErrSaleNotFound) {
			return ErrCartNotExist
		}
		if err != nil {
			return err
		}
		if !cart.IsEditable() {
			return ErrCartNotEditable
		}

		line, err := tx.GetSaleItem(ctx, cartID, itemID)
		if errors.Is(err, db.ErrSaleItemNotFound) {
			return ErrCartItemNotExist
		}
		if err != nil {
			return err
		}
		customerID = cart.CustomerID
		liveItemID = line.LiveItemID
		quantity = line.Quantity

		if remaining, err = tx.RestoreStock(ctx, line.LiveItemID, line.Quantity); err != nil {
			return err
		}
		if err := tx.DeleteSaleItem(ctx, cartID, itemID); err != nil {
			return err
		}

		if err := r.recomputeTotal(ctx, tx, cart); err != nil {
			return err
		}
		if err := tx.TouchSale(ctx, cart.ID, nil); err != nil {
			return err
		}

		return tx.CreateMovement(ctx, &model.StockMovement{
			OrganizationID: organizationID,
			LiveItemID:     line.LiveItemID,
			SaleID:         &cartID,
			Type:           model.StockMovementRelease,
			Quantity:       line.Quantity,
		})
	})
	if err != nil {
		return nil, err
	}

	r.refreshStockCache(map[string]int{liveItemID: remaining})
	r.produceEvent(customerID, evt_model.NewItemReleasedEvent(cartID, customerID, liveItemID, quantity))

	return r.store.GetSaleByID(ctx, cartID, organizationID)
}

// UpdateCartItem 改明細數量或單價
// 數量加量時補扣庫存、減量時還差額，只動delta不做整筆還了再扣
func (r *ReservationService) UpdateCartItem(ctx context.Context, cartID, itemID, organizationID string, params UpdateItemParams) (*model.SaleItem, error) {
	if params.Quantity != nil && *params.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if params.UnitPrice != nil && params.UnitPrice.IsNegative() {
		return nil, ErrInvalidQuantity
	}

	var line *model.SaleItem
	stockAfter := map[string]int{}
	err := r.store.Transaction(ctx, func(tx db.UnifiedDB) error {
		cart, err := tx.GetSaleForUpdate(ctx, cartID, organizationID)
		if errors.Is(err, db.ErrSaleNotFound) {
			return ErrCartNotExist
		}
		if err != nil {
			return err
		}
		if !cart.IsEditable() {
			return ErrCartNotEditable
		}

		line, err = tx.GetSaleItem(ctx, cartID, itemID)
		if errors.Is(err, db.ErrSaleItemNotFound) {
			return ErrCartItemNotExist
		}
		if err != nil {
			return err
		}

		newQuantity := line.Quantity
		if params.Quantity != nil {
			newQuantity = *params.Quantity
		}
		delta := newQuantity - line.Quantity

		if delta > 0 {
			// 加量前先鎖品項重驗庫存，跟加入購物車同一套檢查
			item, err := tx.GetLiveItemForUpdate(ctx, line.LiveItemID, organizationID)
			if errors.Is(err, db.ErrLiveItemNotFound) {
				return ErrLiveItemNotAvailable
			}
			if err != nil {
				return err
			}
			if delta > item.Quantity {
				return ErrStockNotEnough
			}
			remaining, err := tx.DeductStock(ctx, line.LiveItemID, delta)
			if err != nil {
				if errors.Is(err, db.ErrStockNotEnough) {
					return ErrStockNotEnough
				}
				return err
			}
			stockAfter[line.LiveItemID] = remaining
			if err := tx.CreateMovement(ctx, &model.StockMovement{
				OrganizationID: organizationID,
				LiveItemID:     line.LiveItemID,
				SaleID:         &cartID,
				Type:           model.StockMovementReserve,
				Quantity:       delta,
			}); err != nil {
				return err
			}
		} else if delta < 0 {
			remaining, err := tx.RestoreStock(ctx, line.LiveItemID, -delta)
			if err != nil {
				return err
			}
			stockAfter[line.LiveItemID] = remaining
			if err := tx.CreateMovement(ctx, &model.StockMovement{
				OrganizationID: organizationID,
				LiveItemID:     line.LiveItemID,
				SaleID:         &cartID,
				Type:           model.StockMovementRelease,
				Quantity:       -delta,
			}); err != nil {
				return err
			}
		}

		line.Quantity = newQuantity
		if params.UnitPrice != nil {
			line.UnitPrice = *params.UnitPrice
		}
		line.TotalPrice = line.UnitPrice.Mul(decimal.NewFromInt(int64(newQuantity)))
		if err := tx.UpdateSaleItem(ctx, line); err != nil {
			return err
		}

		if err := r.recomputeTotal(ctx, tx, cart); err != nil {
			return err
		}
		return tx.TouchSale(ctx, cart.ID, nil)
	})
	if err != nil {
		return nil, err
	}
	r.refreshStockCache(stockAfter)
	return line, nil
}

// ApplyDiscount 設定整單折扣，總額重算為 明細合計 - 折扣
// 折扣不能是負數也不能超過明細合計
func (r *ReservationService) ApplyDiscount(ctx context.Context, cartID, organizationID string, discount decimal.Decimal) (*model.Sale, error) {
	if discount.IsNegative() {
		return nil, ErrInvalidDiscount
	}

	err := r.store.Transaction(ctx, func(tx db.UnifiedDB) error {
		cart, err := tx.GetSaleForUpdate(ctx, cartID, organizationID)
		if errors.Is(err, db.ErrSaleNotFound) {
			return ErrCartNotExist
		}
		if err != nil {
			return err
		}
		if !cart.IsEditable() {
			return ErrCartNotEditable
		}

		sum, err := tx.SumSaleItems(ctx, cart.ID)
		if err != nil {
			return err
		}
		if discount.GreaterThan(sum) {
			return ErrInvalidDiscount
		}

		cart.DiscountAmount = discount
		cart.TotalAmount = sum.Sub(discount)
		if err := tx.UpdateSale(ctx, cart); err != nil {
			return err
		}
		return tx.TouchSale(ctx, cart.ID, nil)
	})
	if err != nil {
		return nil, err
	}
	return r.store.GetSaleByID(ctx, cartID, organizationID)
}

// ConfirmCart 結單
// 所有品項標sold(數量在保留時已扣過)、附掛paid付款、購物車轉confirmed
// 任一步失敗整包rollback，購物車維持reserved
func (r *ReservationService) ConfirmCart(ctx context.Context, params ConfirmCartParams) (*model.Sale, error) {
	var customerID string
	var totalAmount decimal.Decimal
	var itemCount int
	err := r.store.Transaction(ctx, func(tx db.UnifiedDB) error {
		cart, err := tx.GetSaleForUpdate(ctx, params.CartID, params.OrganizationID)
		if errors.Is(err, db.ErrSaleNotFound) {
			return ErrCartNotExist
		}
		if err != nil {
			return err
		}
		if !cart.IsEditable() {
			return ErrCartNotEditable
		}
		if len(cart.SaleItems) == 0 {
			return ErrCartEmpty
		}
		customerID = cart.CustomerID
		totalAmount = cart.TotalAmount
		itemCount = len(cart.SaleItems)

		for _, line := range cart.SaleItems {
			if err := tx.MarkSold(ctx, line.LiveItemID); err != nil {
				return err
			}
			if err := tx.CreateMovement(ctx, &model.StockMovement{
				OrganizationID: params.OrganizationID,
				LiveItemID:     line.LiveItemID,
				SaleID:         &cart.ID,
				Type:           model.StockMovementSale,
				Quantity:       line.Quantity,
			}); err != nil {
				return err
			}
		}

		now := time.Now()
		payment := &model.Payment{
			ID:        uuid.NewString(),
			SaleID:    cart.ID,
			Method:    params.Payment.Method,
			Amount:    cart.TotalAmount,
			Status:    model.PaymentStatusPaid,
			Reference: params.Payment.Reference,
			PaidAt:    &now,
		}
		if err := tx.CreatePayment(ctx, payment); err != nil {
			return err
		}

		if err := tx.UpdateSaleStatus(ctx, cart.ID, model.SaleStatusConfirmed); err != nil {
			return err
		}
		return tx.TouchLastPurchase(ctx, cart.CustomerID, now)
	})
	if err != nil {
		return nil, err
	}

	r.produceEvent(customerID, evt_model.NewSaleConfirmedEvent(params.CartID, customerID, totalAmount, itemCount))

	return r.store.GetSaleByID(ctx, params.CartID, params.OrganizationID)
}

// CancelCart 取消購物車
// 已付款的不能取消，全部品項還庫存，明細保留稽核、總額歸零
func (r *ReservationService) CancelCart(ctx context.Context, cartID, organizationID string) (*model.Sale, error) {
	var customerID string
	stockAfter := map[string]int{}
	err := r.store.Transaction(ctx, func(tx db.UnifiedDB) error {
		cart, err := tx.GetSaleForUpdate(ctx, cartID, organizationID)
		if errors.Is(err, db.ErrSaleNotFound) {
			return ErrCartNotExist
		}
		if err != nil {
			return err
		}
		if !cart.IsEditable() {
			return ErrCartNotEditable
		}

		paid, err := tx.HasPaidPayment(ctx, cart.ID)
		if err != nil {
			return err
		}
		if paid {
			return ErrCartAlreadyPaid
		}
		customerID = cart.CustomerID

		for _, line := range cart.SaleItems {
			remaining, err := tx.RestoreStock(ctx, line.LiveItemID, line.Quantity)
			if err != nil {
				return err
			}
			stockAfter[line.LiveItemID] = remaining
			if err := tx.CreateMovement(ctx, &model.StockMovement{
				OrganizationID: organizationID,
				LiveItemID:     line.LiveItemID,
				SaleID:         &cart.ID,
				Type:           model.StockMovementRelease,
				Quantity:       line.Quantity,
			}); err != nil {
				return err
			}
		}

		if err := tx.UpdateSaleTotal(ctx, cart.ID, decimal.Zero); err != nil {
			return err
		}
		return tx.UpdateSaleStatus(ctx, cart.ID, model.SaleStatusCancelled)
	})
	if err != nil {
		return nil, err
	}

	r.refreshStockCache(stockAfter)
	r.produceEvent(customerID, evt_model.NewSaleCancelledEvent(cartID, customerID))

	return r.store.GetSaleByID(ctx, cartID, organizationID)
}

// getOrCreateCartTx 交易內版本，加入品項時使用
func (r *ReservationService) getOrCreateCartTx(ctx context.Context, tx db.UnifiedDB, params AddItemParams) (*model.Sale, error) {
	cart, err := tx.GetOpenCartForUpdate(ctx, params.OrganizationID, params.CustomerID)
	if errors.Is(err, db.ErrSaleNotFound) {
		cart = &model.Sale{
			ID:               uuid.NewString(),
			OrganizationID:   params.OrganizationID,
			CustomerID:       params.CustomerID,
			SellerID:         params.SellerID,
			LivestreamID:     params.LivestreamID,
			LastLivestreamID: params.LivestreamID,
			Status:           model.SaleStatusReserved,
			TotalAmount:      decimal.Zero,
			DiscountAmount:   decimal.Zero,
		}
		if err := tx.CreateSale(ctx, cart); err != nil {
			return nil, err
		}
		return cart, nil
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// recomputeTotal 總額一律由DB明細彙總重算，不做增量加減
func (r *ReservationService) recomputeTotal(ctx context.Context, tx db.UnifiedDB, cart *model.Sale) error {
	sum, err := tx.SumSaleItems(ctx, cart.ID)
	if err != nil {
		return err
	}
	return tx.UpdateSaleTotal(ctx, cart.ID, sum.Sub(cart.DiscountAmount))
}

func (r *ReservationService) checkLivestream(ctx context.Context, livestreamID *string, organizationID string) error {
	if livestreamID == nil {
		return nil
	}
	exists, err := r.store.LivestreamExists(ctx, *livestreamID, organizationID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrLivestreamNotExist
	}
	return nil
}

// refreshStockCache 交易提交後把redis的庫存數字同步成交易後的量
// 快取寫失敗不影響已提交的交易，補一次重試後記log放掉
func (r *ReservationService) refreshStockCache(stockAfter map[string]int) {
	if r.stock == nil {
		return
	}
	ctx := context.Background()
	for liveItemID, quantity := range stockAfter {
		if err := r.stock.SetItemStock(ctx, liveItemID, quantity); err != nil {
			go func(liveItemID string, quantity int) {
				time.Sleep(500 * time.Millisecond)
				if err := r.stock.SetItemStock(ctx, liveItemID, quantity); err != nil {
					log.Error().Err(err).Msgf("refresh item stock cache failed, live_item_id with quantity: %s, %d", liveItemID, quantity)
				}
			}(liveItemID, quantity)
		}
	}
}

// produceEvent 事件發佈失敗只記log，不影響已提交的交易
func (r *ReservationService) produceEvent(customerID string, event evt_model.Event) {
	if r.producer == nil {
		return
	}
	go func() {
		if err := r.producer.ProduceSaleEvent(context.Background(), customerID, event); err != nil {
			log.Error().Err(err).Msgf("sale event produce failed, event_type with aggregate: %s, %s", event.Type(), event.GetID())
		}
	}()
}

func snapshotAttributes(item *model.LiveItem) string {
	if len(item.Attributes) == 0 {
		return ""
	}
	raw, err := json.Marshal(item.Attributes)
	if err != nil {
		return ""
	}
	return string(raw)
}

var _ IReservationService = (*ReservationService)(nil)
