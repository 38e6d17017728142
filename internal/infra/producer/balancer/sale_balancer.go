package balancer

import (
	"hash/fnv"

	"github.com/segmentio/kafka-go"
)

type IBaseBalancer interface {
	Balance(msg kafka.Message, partitions ...int) (partition int)
}

// SaleBalancer 銷售事件用customerID當key分區
// 同一位顧客的事件必須落在同一分區，消費端才看得到正確順序
type SaleBalancer struct {
	numPartitions int
}

func NewSaleBalancer(numPartitions int) IBaseBalancer {
	return &SaleBalancer{numPartitions: numPartitions}
}

func (s *SaleBalancer) Balance(msg kafka.Message, partitions ...int) (partition int) {
	h := fnv.New32a()
	h.Write(msg.Key)
	idx := int(h.Sum32())

	if len(partitions) != 0 {
		return partitions[idx%len(partitions)]
	}

	return idx % s.numPartitions
}
