package sinks

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/rs/zerolog/log"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/tarungka/sonata/sources"
	"github.com/tarungka/sonata/stream"
)

// KafkaSink produces every tuple it receives as a msgpack encoded record.
// Resets are produced as well, marked with sources.ResetHeader, when
// forward_resets is set, so that a downstream pipeline can consume the
// topic with a kafka source.
type KafkaSink struct {
	name string
	// Kafka Producer details
	bootstrapServers string
	topic            string
	forwardResets    bool

	kafkaProducerClient *kgo.Client
}

// NewKafkaSink creates a KafkaSink. Config keys: bootstrap_servers and topic
// (required), forward_resets (false).
func NewKafkaSink(cfg SinkConfig) (Sink, error) {
	k := &KafkaSink{name: cfg.Name}
	var err error
	if k.bootstrapServers, err = cfg.required("bootstrap_servers"); err != nil {
		return nil, err
	}
	if k.topic, err = cfg.required("topic"); err != nil {
		return nil, err
	}
	if k.forwardResets, err = cfg.bool("forward_resets", false); err != nil {
		return nil, err
	}
	log.Debug().Str("bootstrap_servers", k.bootstrapServers).Str("topic", k.topic).Send()

	log.Trace().Msg("Connecting to kafka cluster as a sink...")
	opts := []kgo.Opt{
		kgo.SeedBrokers(k.bootstrapServers),
		kgo.DefaultProduceTopic(k.topic),
		kgo.AllowAutoTopicCreation(),
	}
	client, err := kgo.NewClient(opts...)
	if err != nil {
		log.Err(err).Msg("Error when creating a kafka producer!")
		return nil, err
	}
	k.kafkaProducerClient = client
	return k, nil
}

func (k *KafkaSink) produce(ctx context.Context, record *kgo.Record) error {
	var (
		wg      sync.WaitGroup
		sendErr error
	)
	wg.Add(1)
	k.kafkaProducerClient.Produce(ctx, record, func(record *kgo.Record, err error) {
		defer wg.Done()
		if err != nil {
			sendErr = err
			log.Err(err).Str("topic", record.Topic).Msg("record had a produce error")
			return
		}
		log.Trace().Str("topic", record.Topic).Int64("offset", record.Offset).Msg("Successfully produced message")
	})
	wg.Wait()
	return sendErr
}

// Next produces tup.
func (k *KafkaSink) Next(tup stream.Tuple) error {
	value, err := stream.EncodeTuple(tup)
	if err != nil {
		return err
	}
	if err := k.produce(context.Background(), &kgo.Record{Value: value}); err != nil {
		return errors.Wrap(err, "kafka sink")
	}
	return nil
}

// Reset produces ctx as a reset record when resets are forwarded.
func (k *KafkaSink) Reset(ctx stream.Tuple) error {
	if !k.forwardResets {
		return nil
	}
	value, err := stream.EncodeTuple(ctx)
	if err != nil {
		return err
	}
	record := &kgo.Record{
		Value:   value,
		Headers: []kgo.RecordHeader{{Key: sources.ResetHeader}},
	}
	if err := k.produce(context.Background(), record); err != nil {
		return errors.Wrap(err, "kafka sink reset")
	}
	return nil
}

// Close flushes pending records and closes the client.
func (k *KafkaSink) Close() error {
	log.Info().Str("sink", k.name).Msg("Disconnecting kafka sink")
	err := k.kafkaProducerClient.Flush(context.Background())
	k.kafkaProducerClient.Close()
	return err
}
