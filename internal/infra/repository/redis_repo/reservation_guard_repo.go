package redis_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// IReservationGuardRepository 加入購物車防重複提交
// 直播中同一顆按鈕會被連點，SETNX短窗口內只放第一發過
type IReservationGuardRepository interface {
	// AcquireOnce 搶到回傳true，窗口內重複提交回傳false
	AcquireOnce(ctx context.Context, customerID, liveItemID string) (bool, error)

	// Release 操作失敗時提前釋放，讓使用者能立刻重試
	Release(ctx context.Context, customerID, liveItemID string) error
}

type ReservationGuardRepo struct {
	guard  *redis.Client
	window time.Duration
}

func NewReservationGuardRepo(guard *redis.Client, window time.Duration) *ReservationGuardRepo {
	if window <= 0 {
		window = 3 * time.Second
	}
	return &ReservationGuardRepo{guard: guard, window: window}
}

func generateGuardKey(customerID, liveItemID string) string {
	return fmt.Sprintf("reserve:%s:%s", customerID, liveItemID)
}

func (r *ReservationGuardRepo) AcquireOnce(ctx context.Context, customerID, liveItemID string) (bool, error) {
	ok, err := r.guard.SetNX(ctx, generateGuardKey(customerID, liveItemID), 1, r.window).Result()
	if err != nil {
		return false, fmt.Errorf("reservation guard failed: %w", err)
	}
	return ok, nil
}

func (r *ReservationGuardRepo) Release(ctx context.Context, customerID, liveItemID string) error {
	return r.guard.Del(ctx, generateGuardKey(customerID, liveItemID)).Err()
}

var _ IReservationGuardRepository = (*ReservationGuardRepo)(nil)
