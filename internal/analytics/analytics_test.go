package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/segmentio/kafka-go"
)

type fakeReader struct {
	msgs []kafka.Message
}

func (f *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(f.msgs) == 0 {
		return kafka.Message{}, io.EOF
	}
	msg := f.msgs[0]
	f.msgs = f.msgs[1:]
	return msg, nil
}

func encode(t *testing.T, event string, payload map[string]any) kafka.Message {
	t.Helper()
	data, err := json.Marshal(Event{Event: event, Payload: payload})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return kafka.Message{Value: data}
}

func TestConsumeAggregates(t *testing.T) {
	reader := &fakeReader{msgs: []kafka.Message{
		encode(t, EventMoveChosen, map[string]any{"column": 1, "nodes": 100, "durationMs": 4}),
		{Value: []byte("not json")},
		encode(t, EventMoveChosen, map[string]any{"column": 1, "nodes": 300, "durationMs": 6}),
		encode(t, EventMatchFinished, map[string]any{"winner": "A", "plies": 9, "duration": 2}),
		encode(t, EventMatchFinished, map[string]any{"winner": "", "plies": 20, "duration": 4.5}),
		encode(t, "something_else", nil),
	}}
	metrics := NewMetrics()

	err := Consume(context.Background(), reader, metrics)
	if !errors.Is(err, io.EOF) {
		t.Fatalf("expected wrapped io.EOF, got %v", err)
	}

	s := metrics.Summary()
	if s.Searches != 2 || s.AvgNodes != 200 || s.AvgDurationMs != 5 {
		t.Fatalf("search metrics wrong: %+v", s)
	}
	if s.Columns[1] != 2 {
		t.Fatalf("column histogram wrong: %v", s.Columns)
	}
	if s.Matches != 2 || s.AvgPlies != 14.5 || s.Winners["A"] != 1 || s.Winners["draw"] != 1 {
		t.Fatalf("match metrics wrong: %+v", s)
	}
	if s.AvgMatchSeconds != 3.25 {
		t.Fatalf("avg match seconds = %v, want 3.25", s.AvgMatchSeconds)
	}
	if s.Unknown != 1 {
		t.Fatalf("unknown events = %d", s.Unknown)
	}
	metrics.Log()
}

func TestConsumeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Consume(ctx, &fakeReader{}, NewMetrics()); err != nil {
		t.Fatalf("cancelled consume should return nil, got %v", err)
	}
}

func TestNilProducerIsSafe(t *testing.T) {
	var p *Producer
	p.Publish(context.Background(), EventMoveChosen, map[string]any{"column": 1})
	p.Close()
	if NewProducer(nil, "topic") != nil {
		t.Fatalf("producer without brokers should be nil")
	}
}
