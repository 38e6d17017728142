package db

import (
	"context"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/livesale/internal/domain/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type PaymentRepoTestSuite struct {
	suite.Suite
	db          *gorm.DB
	paymentRepo *PaymentRepo
	saleRepo    *SaleRepo
}

// SetupSuite 在測試套件開始前執行
func (suite *PaymentRepoTestSuite) SetupSuite() {
	db, err := GetDbConn("lab_livesale", "localhost", "5432", "royce", "password")
	require.NoError(suite.T(), err)
	dbDao := NewDbDao(db)
	require.NoError(suite.T(), dbDao.InitMigrate())

	suite.db = db
	suite.paymentRepo = NewPaymentRepo(dbDao)
	suite.saleRepo = NewSaleRepo(dbDao)
}

// SetupTest 在每個測試前執行
func (suite *PaymentRepoTestSuite) SetupTest() {
	suite.db.Exec("DELETE FROM payments")
	suite.db.Exec("DELETE FROM sales")
}

// TearDownSuite 在測試套件結束後執行
func (suite *PaymentRepoTestSuite) TearDownSuite() {
	sqlDB, _ := suite.db.DB()
	sqlDB.Close()
}

func TestPaymentRepoTestSuite(t *testing.T) {
	suite.Run(t, new(PaymentRepoTestSuite))
}

// 創建測試用的銷售單
func (suite *PaymentRepoTestSuite) createTestSale() *model.Sale {
	sale := &model.Sale{
		ID:             uuid.NewString(),
		OrganizationID: testOrgID,
		CustomerID:     uuid.NewString(),
		SellerID:       uuid.NewString(),
		Status:         model.SaleStatusConfirmed,
		TotalAmount:    decimal.NewFromInt(2000),
		DiscountAmount: decimal.Zero,
	}
	require.NoError(suite.T(), suite.saleRepo.CreateSale(context.Background(), sale))
	return sale
}

func (suite *PaymentRepoTestSuite) createTestPayment(saleID string, status model.PaymentStatus) *model.Payment {
	now := time.Now()
	payment := &model.Payment{
		ID:     uuid.NewString(),
		SaleID: saleID,
		Method: "cash",
		Amount: decimal.NewFromInt(2000),
		Status: status,
		PaidAt: &now,
	}
	require.NoError(suite.T(), suite.paymentRepo.CreatePayment(context.Background(), payment))
	return payment
}

func (suite *PaymentRepoTestSuite) TestGetPaymentsBySaleID() {
	sale := suite.createTestSale()
	other := suite.createTestSale()
	first := suite.createTestPayment(sale.ID, model.PaymentStatusPaid)
	second := suite.createTestPayment(sale.ID, model.PaymentStatusRefunded)
	suite.createTestPayment(other.ID, model.PaymentStatusPaid)

	payments, err := suite.paymentRepo.GetPaymentsBySaleID(context.Background(), sale.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), payments, 2)

	ids := []string{payments[0].ID, payments[1].ID}
	require.Contains(suite.T(), ids, first.ID)
	require.Contains(suite.T(), ids, second.ID)
}

func (suite *PaymentRepoTestSuite) TestGetPaymentsBySaleID_Empty() {
	sale := suite.createTestSale()

	payments, err := suite.paymentRepo.GetPaymentsBySaleID(context.Background(), sale.ID)
	require.NoError(suite.T(), err)
	require.Empty(suite.T(), payments)
}

func (suite *PaymentRepoTestSuite) TestHasPaidPayment() {
	sale := suite.createTestSale()

	paid, err := suite.paymentRepo.HasPaidPayment(context.Background(), sale.ID)
	require.NoError(suite.T(), err)
	require.False(suite.T(), paid)

	// pending不算付款完成
	suite.createTestPayment(sale.ID, model.PaymentStatusPending)
	paid, err = suite.paymentRepo.HasPaidPayment(context.Background(), sale.ID)
	require.NoError(suite.T(), err)
	require.False(suite.T(), paid)

	suite.createTestPayment(sale.ID, model.PaymentStatusPaid)
	paid, err = suite.paymentRepo.HasPaidPayment(context.Background(), sale.ID)
	require.NoError(suite.T(), err)
	require.True(suite.T(), paid)
}
