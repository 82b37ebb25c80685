package queue

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/IBM/sarama"
)

type PublisherConfig struct {
	Brokers  []string
	ClientID string
	Topic    string
}

// IngestEvent 文档入库终态事件
type IngestEvent struct {
	DocID     string `json:"doc_id"`
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
	EmittedAt string `json:"emitted_at"`
}

// SaramaIngestPublisher 把入库终态事件写入 Kafka，下游归档通知消费
type SaramaIngestPublisher struct {
	p     sarama.SyncProducer
	topic string
}

func NewSaramaIngestPublisher(cfg PublisherConfig) (*SaramaIngestPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers is empty")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, errors.New("kafka topic is empty")
	}

	sc := sarama.NewConfig()
	sc.Version = sarama.V2_8_0_0
	sc.Producer.Return.Successes = true
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = 10
	sc.Producer.Retry.Backoff = 100 * time.Millisecond
	sc.Producer.Idempotent = true
	sc.Net.MaxOpenRequests = 1
	sc.Producer.Partitioner = sarama.NewHashPartitioner
	sc.ClientID = strings.TrimSpace(cfg.ClientID)

	p, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, err
	}
	return &SaramaIngestPublisher{p: p, topic: strings.TrimSpace(cfg.Topic)}, nil
}

func (s *SaramaIngestPublisher) PublishTerminal(ctx context.Context, docID, status, reason string) error {
	if ctx != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	payload, err := json.Marshal(IngestEvent{
		DocID:     docID,
		Status:    status,
		Reason:    reason,
		EmittedAt: time.Now().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	// 以 doc_id 为 key：同一文档的事件保持分区内有序
	_, _, err = s.p.SendMessage(&sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.ByteEncoder(docID),
		Value: sarama.ByteEncoder(payload),
	})
	return err
}

func (s *SaramaIngestPublisher) Close() error {
	if s == nil || s.p == nil {
		return nil
	}
	return s.p.Close()
}
