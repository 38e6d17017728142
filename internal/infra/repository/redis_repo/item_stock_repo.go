package redis_repo

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

type ItemStockRepoError error

var ErrItemStockNotFound ItemStockRepoError = errors.New("item stock not found in cache")

// IItemStockRedisRepository 品項庫存快取
// 直播中觀眾端狂刷庫存數，讀走redis，DB仍是唯一真相來源
type IItemStockRedisRepository interface {
	// SetItemStock 寫入品項庫存快取
	SetItemStock(ctx context.Context, liveItemID string, quantity int) error

	// GetItemStock 取得品項庫存快取數量
	GetItemStock(ctx context.Context, liveItemID string) (int, error)

	// DeleteItemStock 刪除品項庫存快取
	DeleteItemStock(ctx context.Context, liveItemID string) error
}

/*	redis 只放庫存數字
	結構:
	item:{liveItemID}:stock -> quantity */

type ItemStockRedisRepo struct {
	stockCache *redis.Client
}

func NewItemStockRepo(stockCache *redis.Client) *ItemStockRedisRepo {
	return &ItemStockRedisRepo{stockCache: stockCache}
}

func generateItemStockKey(liveItemID string) string {
	return fmt.Sprintf("item:%s:stock", liveItemID)
}

func (s *ItemStockRedisRepo) SetItemStock(ctx context.Context, liveItemID string, quantity int) error {
	return s.stockCache.Set(ctx, generateItemStockKey(liveItemID), quantity, 0).Err()
}

// 錯誤:
//   - ErrItemStockNotFound: 快取沒這個品項，去DB查
//   - err: 其他錯誤
func (s *ItemStockRedisRepo) GetItemStock(ctx context.Context, liveItemID string) (int, error) {
	val, err := s.stockCache.Get(ctx, generateItemStockKey(liveItemID)).Result()
	if err == redis.Nil {
		return 0, ErrItemStockNotFound
	}
	if err != nil {
		return 0, err
	}

	quantity, err := strconv.Atoi(val)
	if err != nil {
		return 0, err
	}
	return quantity, nil
}

func (s *ItemStockRedisRepo) DeleteItemStock(ctx context.Context, liveItemID string) error {
	return s.stockCache.Del(ctx, generateItemStockKey(liveItemID)).Err()
}

var _ IItemStockRedisRepository = (*ItemStockRedisRepo)(nil)
