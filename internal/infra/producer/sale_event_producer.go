package producer

import (
	"context"
	"encoding/json"
	"time"

	evt_model "github.com/RoyceAzure/lab/livesale/internal/domain/model/event"
	"github.com/RoyceAzure/lab/livesale/internal/infra/producer/balancer"
	"github.com/segmentio/kafka-go"
)

// ISaleEventProducer 銷售事件發佈，給報表/直播統計端消費
type ISaleEventProducer interface {
	ProduceSaleEvent(ctx context.Context, customerID string, event evt_model.Event) error
	Close() error
}

// topic: 由建立producer時設置
// 用customerID當msg key分區，同顧客事件保序
type SaleEventProducer struct {
	writer *kafka.Writer
}

type SaleEventProducerConfig struct {
	Brokers       []string
	Topic         string
	BatchSize     int
	BatchTimeout  time.Duration
	NumPartitions int
}

func NewSaleEventProducer(cfg SaleEventProducerConfig) *SaleEventProducer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     balancer.NewSaleBalancer(cfg.NumPartitions),
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		// 設置較短的超時時間以快速發現問題
		WriteTimeout: 5 * time.Second,
		MaxAttempts:  3,
	}

	return &SaleEventProducer{writer: w}
}

func (p *SaleEventProducer) ProduceSaleEvent(ctx context.Context, customerID string, event evt_model.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(customerID),
		Value: value,
		Headers: []kafka.Header{
			{
				Key:   "event_type",
				Value: []byte(event.Type()),
			},
		},
	})
}

func (p *SaleEventProducer) Close() error {
	return p.writer.Close()
}

var _ ISaleEventProducer = (*SaleEventProducer)(nil)
