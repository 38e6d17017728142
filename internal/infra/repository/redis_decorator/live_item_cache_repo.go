package redis_decorator

import (
	"context"
	"time"

	"github.com/RoyceAzure/lab/livesale/internal/domain/model"
	"github.com/RoyceAzure/lab/livesale/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/livesale/internal/infra/repository/redis_repo"
	"github.com/rs/zerolog/log"
)

/*
redis 只放庫存數字，品項詳細資料都在db
目錄維護這邊建檔/改檔/刪檔時連動快取，
預約引擎的扣/還庫存在交易提交後自己同步
快取寫失敗不能讓交易失敗，補一次重試後記log放掉
*/
type CacheAsideLiveItemRepo struct {
	db.ILiveItemRepository
	redis redis_repo.IItemStockRedisRepository
}

func NewCacheAsideLiveItemRepo(dbRepo db.ILiveItemRepository, redis redis_repo.IItemStockRedisRepository) db.ILiveItemRepository {
	return &CacheAsideLiveItemRepo{ILiveItemRepository: dbRepo, redis: redis}
}

func (p *CacheAsideLiveItemRepo) CreateLiveItem(ctx context.Context, item *model.LiveItem) error {
	err := p.ILiveItemRepository.CreateLiveItem(ctx, item)
	if err != nil {
		return err
	}
	p.refreshStock(item.ID, item.Quantity)
	return nil
}

func (p *CacheAsideLiveItemRepo) UpdateLiveItem(ctx context.Context, item *model.LiveItem) error {
	err := p.ILiveItemRepository.UpdateLiveItem(ctx, item)
	if err != nil {
		return err
	}
	p.refreshStock(item.ID, item.Quantity)
	return nil
}

func (p *CacheAsideLiveItemRepo) HardDeleteLiveItem(ctx context.Context, id, organizationID string) error {
	err := p.ILiveItemRepository.HardDeleteLiveItem(ctx, id, organizationID)
	if err != nil {
		return err
	}
	if err := p.redis.DeleteItemStock(context.Background(), id); err != nil {
		log.Error().Err(err).Msgf("delete item stock cache failed, live_item_id: %s", id)
	}
	return nil
}

// refreshStock 用獨立context，外層交易的逾時/取消不該影響快取同步
func (p *CacheAsideLiveItemRepo) refreshStock(liveItemID string, quantity int) {
	ctx := context.Background()
	if err := p.redis.SetItemStock(ctx, liveItemID, quantity); err != nil {
		go func() {
			time.Sleep(500 * time.Millisecond)
			if err := p.redis.SetItemStock(ctx, liveItemID, quantity); err != nil {
				log.Error().Err(err).Msgf("refresh item stock cache failed, live_item_id with quantity: %s, %d", liveItemID, quantity)
			}
		}()
	}
}

var _ db.ILiveItemRepository = (*CacheAsideLiveItemRepo)(nil)
