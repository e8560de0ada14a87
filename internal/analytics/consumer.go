package analytics

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// MessageReader is the part of *kafka.Reader the consumer needs.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

func NewReader(brokers []string, topic, group string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})
}

// Consume feeds every decodable event into metrics until ctx is done or the
// reader fails.
func Consume(ctx context.Context, reader MessageReader, metrics *Metrics) error {
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "read event")
		}
		var e Event
		if err := json.Unmarshal(msg.Value, &e); err != nil {
			log.Warn().Err(err).Int64("offset", msg.Offset).Msg("failed to decode event")
			continue
		}
		metrics.Record(e)
		log.Debug().Str("event", e.Event).Interface("payload", e.Payload).Msg("event")
	}
}
