package sources

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/rs/zerolog/log"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/tarungka/sonata/stream"
)

// ResetHeader marks a Kafka record whose value is a reset context rather
// than a data tuple.
const ResetHeader = "sonata-reset"

// KafkaSource consumes msgpack encoded tuples from one topic.
type KafkaSource struct {
	name string
	// Kafka consumer details
	bootstrapServers string
	consumerGroup    string
	topic            string
	maxRecords       int64

	kafkaConsumerClient *kgo.Client
	err                 error
}

// NewKafkaSource creates a KafkaSource. Config keys: bootstrap_servers, group
// and topic (required), max_records (0 means consume until cancelled).
func NewKafkaSource(cfg SourceConfig) (stream.Source, error) {
	k := &KafkaSource{name: cfg.Name}
	var err error
	if k.bootstrapServers, err = cfg.required("bootstrap_servers"); err != nil {
		return nil, err
	}
	if k.consumerGroup, err = cfg.required("group"); err != nil {
		return nil, err
	}
	if k.topic, err = cfg.required("topic"); err != nil {
		return nil, err
	}
	if k.maxRecords, err = cfg.int("max_records", 0); err != nil {
		return nil, err
	}
	log.Debug().Str("bootstrap_servers", k.bootstrapServers).Str("topic", k.topic).Str("group", k.consumerGroup).Send()
	return k, nil
}

func (k *KafkaSource) connect() error {
	log.Trace().Msg("Connecting to kafka cluster as a source...")
	opts := []kgo.Opt{
		kgo.SeedBrokers(k.bootstrapServers),
		kgo.ConsumerGroup(k.consumerGroup),
		kgo.ConsumeTopics(k.topic),
		kgo.AllowAutoTopicCreation(),
		kgo.AutoCommitMarks(),
	}
	client, err := kgo.NewClient(opts...)
	if err != nil {
		log.Err(err).Msg("Error when creating a kafka consumer!")
		return err
	}
	k.kafkaConsumerClient = client
	return nil
}

// Open connects to the cluster and starts consuming.
func (k *KafkaSource) Open(ctx context.Context) (<-chan stream.Event, error) {
	if err := k.connect(); err != nil {
		return nil, err
	}

	out := make(chan stream.Event, 5)
	go func() {
		defer func() {
			log.Trace().Str("topic", k.topic).Msg("Done reading from the kafka source")
			close(out)
		}()
		k.err = k.consume(ctx, out)
	}()
	return out, nil
}

func (k *KafkaSource) consume(ctx context.Context, out chan<- stream.Event) error {
	var seen int64
	for {
		if ctx.Err() != nil {
			return nil
		}

		fetches := k.kafkaConsumerClient.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		fetches.EachError(func(t string, p int32, err error) {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Err(err).Msgf("fetch err topic %s partition %d", t, p)
		})

		if fetches.Empty() {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		iter := fetches.RecordIter()
		for !iter.Done() {
			record := iter.Next()

			ev, err := recordEvent(record)
			if err != nil {
				return errors.Wrapf(err, "topic %s partition %d offset %d", record.Topic, record.Partition, record.Offset)
			}

			select {
			case <-ctx.Done():
				return nil
			case out <- ev:
			}
			k.kafkaConsumerClient.MarkCommitRecords(record)

			seen++
			if k.maxRecords > 0 && seen >= k.maxRecords {
				log.Debug().Int64("records", seen).Msg("Kafka source reached max records")
				return nil
			}
		}
	}
}

func recordEvent(record *kgo.Record) (stream.Event, error) {
	tup, err := stream.DecodeTuple(record.Value)
	if err != nil {
		return stream.Event{}, err
	}
	for _, h := range record.Headers {
		if h.Key == ResetHeader {
			return stream.ResetEvent(tup), nil
		}
	}
	return stream.Data(tup), nil
}

// Err returns the decode error that stopped consumption, if any.
func (k *KafkaSource) Err() error {
	return k.err
}

// Close commits marked offsets and closes the client.
func (k *KafkaSource) Close() error {
	if k.kafkaConsumerClient == nil {
		return nil
	}
	log.Trace().Msg("Disconnecting kafka source")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := k.kafkaConsumerClient.CommitMarkedOffsets(ctx)
	k.kafkaConsumerClient.Close()
	k.kafkaConsumerClient = nil
	return err
}
