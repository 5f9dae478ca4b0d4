package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/user/clipcutter/batch"
)

// DefaultTopic receives batch events when no topic is configured.
const DefaultTopic = "clipcutter.events"

const source = "clipcutter"

// messageWriter is the part of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher is a batch.Notifier that writes every event as JSON,
// keyed by run ID so a run's events stay on one partition.
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher returns a publisher writing to topic on brokers.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireOne,
		WriteTimeout:           10 * time.Second,
		ReadTimeout:            10 * time.Second,
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: w}, nil
}

// Notify implements batch.Notifier.
func (p *KafkaPublisher) Notify(ctx context.Context, ev batch.Event) error {
	msg, err := encodeEvent(ev)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s event to kafka: %w", ev.Type, err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

type eventPayload struct {
	Type    string          `json:"type"`
	RunID   string          `json:"run_id"`
	Time    time.Time       `json:"timestamp"`
	Quality string          `json:"quality"`
	Total   int             `json:"total"`
	Job     *jobPayload     `json:"job,omitempty"`
	Summary *summaryPayload `json:"summary,omitempty"`
}

type jobPayload struct {
	Position   int     `json:"position"`
	Label      string  `json:"label"`
	File       string  `json:"file"`
	Recording  string  `json:"recording,omitempty"`
	Seek       float64 `json:"seek_seconds,omitempty"`
	Duration   float64 `json:"duration_seconds"`
	Status     string  `json:"status"`
	Failure    string  `json:"failure,omitempty"`
	Error      string  `json:"error_message,omitempty"`
	Retries    int     `json:"retries"`
	OutputSize int64   `json:"file_size_bytes,omitempty"`
}

type summaryPayload struct {
	Completed int     `json:"completed"`
	Failed    int     `json:"failed"`
	Skipped   int     `json:"skipped"`
	Cancelled bool    `json:"cancelled"`
	Elapsed   float64 `json:"elapsed_seconds"`
}

func encodeEvent(ev batch.Event) (kafka.Message, error) {
	payload := eventPayload{
		Type:    string(ev.Type),
		RunID:   ev.RunID,
		Time:    ev.Time,
		Quality: ev.Quality.String(),
		Total:   ev.Total,
	}
	if j := ev.Job; j != nil {
		jp := &jobPayload{
			Position:   j.Index + 1,
			Label:      j.Request.Label,
			File:       filepath.Base(j.Request.OutputPath),
			Duration:   j.End.Sub(j.Start).Seconds(),
			Status:     j.Status.String(),
			Failure:    j.Failure.String(),
			Error:      j.Error,
			Retries:    j.Retries,
			OutputSize: j.OutputSize,
		}
		if j.Recording != nil {
			jp.Recording = j.Recording.Path
			jp.Seek = j.Seek()
		}
		payload.Job = jp
	}
	if r := ev.Report; r != nil {
		payload.Summary = &summaryPayload{
			Completed: r.Completed,
			Failed:    r.Failed,
			Skipped:   r.Skipped,
			Cancelled: r.Cancelled,
			Elapsed:   r.FinishedAt.Sub(r.StartedAt).Seconds(),
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal %s event: %w", ev.Type, err)
	}
	return kafka.Message{
		Key:   []byte(ev.RunID),
		Value: body,
		Time:  ev.Time,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(ev.Type)},
			{Key: "source", Value: []byte(source)},
		},
	}, nil
}
