package balancer

import (
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
)

func makePartitions(n int) []int {
	partitions := make([]int, n)
	for i := range partitions {
		partitions[i] = i
	}
	return partitions
}

func TestSaleBalancer_SameKeySamePartition(t *testing.T) {
	b := NewSaleBalancer(6)
	partitions := makePartitions(6)

	msg := kafka.Message{Key: []byte("customer-123")}

	// 同顧客永遠落在同一個partition，事件才保序
	first := b.Balance(msg, partitions...)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, b.Balance(msg, partitions...))
	}
}

func TestSaleBalancer_WithinRange(t *testing.T) {
	b := NewSaleBalancer(6)
	partitions := makePartitions(6)

	for _, key := range []string{"a", "customer-1", "customer-2", "某個很長的顧客識別碼"} {
		p := b.Balance(kafka.Message{Key: []byte(key)}, partitions...)
		assert.GreaterOrEqual(t, p, 0)
		assert.Less(t, p, 6)
	}
}

func TestSaleBalancer_EmptyKey(t *testing.T) {
	b := NewSaleBalancer(6)
	partitions := makePartitions(6)

	p := b.Balance(kafka.Message{}, partitions...)
	assert.GreaterOrEqual(t, p, 0)
	assert.Less(t, p, 6)
}
