package redis_repo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type ReservationGuardRepoTestSuite struct {
	suite.Suite
	guardRepo *ReservationGuardRepo
}

func (suite *ReservationGuardRepoTestSuite) SetupTest() {
	rdb := setupTestRedis()
	rdb.FlushDB(context.Background())
	suite.guardRepo = NewReservationGuardRepo(rdb, 2*time.Second)
}

func TestReservationGuardRepoTestSuite(t *testing.T) {
	suite.Run(t, new(ReservationGuardRepoTestSuite))
}

func (suite *ReservationGuardRepoTestSuite) TestAcquireOnce() {
	ctx := context.Background()

	// 第一發過
	ok, err := suite.guardRepo.AcquireOnce(ctx, "customer-1", "item-1")
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), ok)

	// 窗口內重複提交被擋
	ok, err = suite.guardRepo.AcquireOnce(ctx, "customer-1", "item-1")
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), ok)
}

func (suite *ReservationGuardRepoTestSuite) TestAcquireOnce_DifferentKeys() {
	ctx := context.Background()

	ok, _ := suite.guardRepo.AcquireOnce(ctx, "customer-1", "item-1")
	assert.True(suite.T(), ok)

	// 不同顧客或不同品項互不影響
	ok, _ = suite.guardRepo.AcquireOnce(ctx, "customer-2", "item-1")
	assert.True(suite.T(), ok)

	ok, _ = suite.guardRepo.AcquireOnce(ctx, "customer-1", "item-2")
	assert.True(suite.T(), ok)
}

func (suite *ReservationGuardRepoTestSuite) TestRelease() {
	ctx := context.Background()

	ok, _ := suite.guardRepo.AcquireOnce(ctx, "customer-1", "item-1")
	assert.True(suite.T(), ok)

	// 釋放後可以立刻重試
	err := suite.guardRepo.Release(ctx, "customer-1", "item-1")
	assert.NoError(suite.T(), err)

	ok, _ = suite.guardRepo.AcquireOnce(ctx, "customer-1", "item-1")
	assert.True(suite.T(), ok)
}
