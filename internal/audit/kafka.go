package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaSink publishes audit events to a kafka topic. Production deployments
// point this at the shared audit cluster; without brokers configured the
// portal falls back to the channel worker with a memory sink.
type KafkaSink struct {
	client *kgo.Client
	topic  string
}

// NewKafkaSink connects to the brokers and makes sure the topic exists.
func NewKafkaSink(ctx context.Context, brokers []string, topic string) (*KafkaSink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}

	// One partition is plenty; the audit stream is ordered and low volume.
	// The topic may already exist, so creation is best effort and real
	// broker failures surface at first produce.
	adm := kadm.NewClient(client)
	_, _ = adm.CreateTopic(ctx, 1, 1, nil, topic)

	return &KafkaSink{client: client, topic: topic}, nil
}

func (s *KafkaSink) Append(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.Action),
		Value: payload,
	}
	return s.client.ProduceSync(ctx, record).FirstErr()
}

func (s *KafkaSink) Close() {
	s.client.Close()
}
