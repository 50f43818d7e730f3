package kafka

import (
	"context"

	"github.com/Shopify/sarama"
	"github.com/luckydrop/backend/pkg/pubsub"
	"github.com/pkg/errors"
)

type publisher struct {
	clientID    string
	brokerAddrs []string
	producer    sarama.SyncProducer
}

func NewPublisher(clientID string, brokerAddrs []string) (*publisher, error) {
	config := sarama.NewConfig()
	config.ClientID = clientID
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForLocal

	producer, err := sarama.NewSyncProducer(brokerAddrs, config)
	if err != nil {
		return nil, errors.Wrap(err, "create kafka producer")
	}

	return &publisher{
		clientID:    clientID,
		brokerAddrs: brokerAddrs,
		producer:    producer,
	}, nil
}

func (p *publisher) Stop(ctx context.Context) error {
	return p.producer.Close()
}

func (p *publisher) Publish(ctx context.Context, topic string, msg *pubsub.Pack) error {
	m := &sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(msg.Msg),
		Key:   sarama.ByteEncoder(msg.Key),
	}

	if _, _, err := p.producer.SendMessage(m); err != nil {
		return errors.Wrapf(err, "send message to %s", topic)
	}

	return nil
}
