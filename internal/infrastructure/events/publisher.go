// Package events publishes connection lifecycle events.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"imet-backend/internal/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"
)

// Publisher delivers connection events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, events []domain.ConnectionEvent) error
}

// PutEventsAPI is the subset of the EventBridge client the publisher uses.
type PutEventsAPI interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// EventBridge accepts at most 10 entries per PutEvents call.
const maxBatchSize = 10

// EventBridgePublisher implements Publisher using AWS EventBridge
type EventBridgePublisher struct {
	client    PutEventsAPI
	eventBus  string
	source    string
	batchSize int
}

// NewEventBridgePublisher creates a new EventBridge publisher
func NewEventBridgePublisher(client PutEventsAPI, eventBus, source string) *EventBridgePublisher {
	if eventBus == "" {
		eventBus = "default"
	}
	if source == "" {
		source = "imet-backend"
	}

	return &EventBridgePublisher{
		client:    client,
		eventBus:  eventBus,
		source:    source,
		batchSize: maxBatchSize,
	}
}

// Publish publishes events to EventBridge in batches.
func (p *EventBridgePublisher) Publish(ctx context.Context, events []domain.ConnectionEvent) error {
	for i := 0; i < len(events); i += p.batchSize {
		end := i + p.batchSize
		if end > len(events) {
			end = len(events)
		}

		if err := p.publishBatch(ctx, events[i:end]); err != nil {
			return fmt.Errorf("failed to publish event batch: %w", err)
		}
	}
	return nil
}

func (p *EventBridgePublisher) publishBatch(ctx context.Context, events []domain.ConnectionEvent) error {
	entries := make([]types.PutEventsRequestEntry, 0, len(events))
	for _, event := range events {
		detail, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal event: %w", err)
		}
		entries = append(entries, types.PutEventsRequestEntry{
			EventBusName: aws.String(p.eventBus),
			Source:       aws.String(p.source),
			DetailType:   aws.String(string(event.Type)),
			Detail:       aws.String(string(detail)),
			Time:         aws.Time(event.OccurredAt),
			Resources:    []string{event.ConnectionID},
		})
	}

	output, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{Entries: entries})
	if err != nil {
		return fmt.Errorf("failed to put events: %w", err)
	}
	if output.FailedEntryCount > 0 {
		return fmt.Errorf("%d events failed to publish", output.FailedEntryCount)
	}
	return nil
}

// LogPublisher writes events to the log, for local development.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher creates a publisher that only logs.
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.Named("events")}
}

func (p *LogPublisher) Publish(_ context.Context, events []domain.ConnectionEvent) error {
	for _, e := range events {
		p.logger.Info("Connection event",
			zap.String("eventID", e.EventID),
			zap.String("type", string(e.Type)),
			zap.String("connectionID", e.ConnectionID),
			zap.Int("version", e.Version),
		)
	}
	return nil
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, []domain.ConnectionEvent) error { return nil }
