package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/nguyentranbao-ct/meritflow/internal/config"
	"github.com/nguyentranbao-ct/meritflow/internal/models"
	"github.com/nguyentranbao-ct/meritflow/pkg/logger/log"
	"github.com/nguyentranbao-ct/meritflow/pkg/util"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

type kudosPublisher struct {
	producer sarama.SyncProducer
	topic    string
	metrics  *prometheus.HistogramVec
	now      func() time.Time
}

// NewKudosPublisher returns a sarama backed publisher, or a no-op one when
// Kafka is disabled.
func NewKudosPublisher(lc fx.Lifecycle, conf *config.Config) (KudosPublisher, error) {
	if !conf.Kafka.Enabled {
		log.Warnw(context.Background(), "kafka publisher is disabled in configuration")
		return noopPublisher{}, nil
	}

	saramaConf := sarama.NewConfig()
	saramaConf.ClientID = conf.Kafka.ClientID
	saramaConf.Producer.RequiredAcks = sarama.WaitForAll
	saramaConf.Producer.Return.Successes = true
	saramaConf.Producer.Return.Errors = true

	producer, err := sarama.NewSyncProducer(conf.Kafka.Brokers, saramaConf)
	if err != nil {
		return nil, fmt.Errorf("new sync producer: %w", err)
	}

	p, err := newKudosPublisher(producer, conf.Kafka.Topic)
	if err != nil {
		_ = producer.Close()
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return p.Close()
		},
	})
	return p, nil
}

func newKudosPublisher(producer sarama.SyncProducer, topic string) (*kudosPublisher, error) {
	metrics, err := util.GetHistogramVec("kafka_messages_produced", "status", "topic")
	if err != nil {
		return nil, fmt.Errorf("get histogram vec: %w", err)
	}
	return &kudosPublisher{
		producer: producer,
		topic:    topic,
		metrics:  metrics,
		now:      time.Now,
	}, nil
}

func (p *kudosPublisher) PublishCreated(ctx context.Context, kudos models.Kudos, requestID string) error {
	value, err := json.Marshal(Message[models.Kudos]{
		Pattern:    PatternKudosCreated,
		OccurredAt: p.now().UTC(),
		RequestID:  requestID,
		Data:       kudos,
	})
	if err != nil {
		return fmt.Errorf("marshal kudos event: %w", err)
	}

	headers := []sarama.RecordHeader{
		{Key: []byte("pattern"), Value: []byte(PatternKudosCreated)},
	}
	if requestID != "" {
		headers = append(headers, sarama.RecordHeader{Key: []byte("x-request-id"), Value: []byte(requestID)})
	}

	start := time.Now()
	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic:   p.topic,
		Key:     sarama.StringEncoder(kudos.KudosID),
		Value:   sarama.ByteEncoder(value),
		Headers: headers,
	})
	status := "success"
	if err != nil {
		status = "error"
	}
	p.metrics.WithLabelValues(status, p.topic).Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("send kudos event: %w", err)
	}

	log.Debugw(ctx, "kudos event published",
		"kudos_id", kudos.KudosID,
		"related_event_id", util.Val(kudos.RelatedEventID),
		"topic", p.topic,
		"partition", partition,
		"offset", offset,
	)
	return nil
}

func (p *kudosPublisher) Close() error {
	return p.producer.Close()
}

type noopPublisher struct{}

func (noopPublisher) PublishCreated(context.Context, models.Kudos, string) error { return nil }

func (noopPublisher) Close() error { return nil }
