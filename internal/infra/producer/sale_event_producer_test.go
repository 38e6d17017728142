package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	evt_model "github.com/RoyceAzure/lab/livesale/internal/domain/model/event"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const testBroker = "localhost:9092"

type SaleEventProducerTestSuite struct {
	suite.Suite
	topic    string
	producer *SaleEventProducer
}

// SetupSuite 建測試topic，retention設短讓broker自己清
func (suite *SaleEventProducerTestSuite) SetupSuite() {
	suite.topic = fmt.Sprintf("test-sale-events-%d", time.Now().UnixNano())

	conn, err := kafka.Dial("tcp", testBroker)
	require.NoError(suite.T(), err)
	defer conn.Close()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             suite.topic,
		NumPartitions:     3,
		ReplicationFactor: 1,
		ConfigEntries: []kafka.ConfigEntry{
			{ConfigName: "retention.ms", ConfigValue: "60000"},
		},
	})
	require.NoError(suite.T(), err)

	suite.producer = NewSaleEventProducer(SaleEventProducerConfig{
		Brokers:       []string{testBroker},
		Topic:         suite.topic,
		BatchSize:     1,
		BatchTimeout:  100 * time.Millisecond,
		NumPartitions: 3,
	})
}

func (suite *SaleEventProducerTestSuite) TearDownSuite() {
	suite.producer.Close()
}

func TestSaleEventProducerTestSuite(t *testing.T) {
	suite.Run(t, new(SaleEventProducerTestSuite))
}

func (suite *SaleEventProducerTestSuite) TestProduceSaleEvent() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	event := evt_model.NewItemReservedEvent(
		"sale-1", "customer-1", "item-1", nil, 2, decimal.NewFromInt(2000))
	err := suite.producer.ProduceSaleEvent(ctx, "customer-1", event)
	require.NoError(suite.T(), err)

	// 消費回來驗證key、header與內容
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{testBroker},
		Topic:   suite.topic,
		GroupID: fmt.Sprintf("test-group-%d", time.Now().UnixNano()),
	})
	defer reader.Close()

	msg, err := reader.ReadMessage(ctx)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), "customer-1", string(msg.Key))

	var headerType string
	for _, h := range msg.Headers {
		if h.Key == "event_type" {
			headerType = string(h.Value)
		}
	}
	require.Equal(suite.T(), string(evt_model.ItemReservedEventName), headerType)

	var got evt_model.ItemReservedEvent
	require.NoError(suite.T(), json.Unmarshal(msg.Value, &got))
	require.Equal(suite.T(), "sale-1", got.AggregateID)
	require.Equal(suite.T(), 2, got.Quantity)
}

func (suite *SaleEventProducerTestSuite) TestProduceSaleEvent_SameCustomerSamePartition() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 同顧客連發數筆，分區必須一致
	for i := 0; i < 5; i++ {
		event := evt_model.NewItemReleasedEvent("sale-2", "customer-2", fmt.Sprintf("item-%d", i), 1)
		require.NoError(suite.T(), suite.producer.ProduceSaleEvent(ctx, "customer-2", event))
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{testBroker},
		Topic:   suite.topic,
		GroupID: fmt.Sprintf("test-group-%d", time.Now().UnixNano()),
	})
	defer reader.Close()

	partitions := make(map[int]bool)
	seen := 0
	for seen < 5 {
		msg, err := reader.ReadMessage(ctx)
		require.NoError(suite.T(), err)
		if string(msg.Key) != "customer-2" {
			continue
		}
		partitions[msg.Partition] = true
		seen++
	}
	require.Len(suite.T(), partitions, 1)
}
