package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"

	"github.com/exeflow/exeflow/pkg/models"
)

// WatermillNotifier publishes completion events over a watermill pub/sub.
// The default construction uses the in-process gochannel transport; any
// watermill publisher (kafka, amqp) can be substituted for distribution.
type WatermillNotifier struct {
	publisher message.Publisher
}

// NewGoChannelNotifier creates a notifier backed by the in-process transport
// and returns the pub/sub so callers can subscribe to Topic.
func NewGoChannelNotifier(logger *slog.Logger) (*WatermillNotifier, *gochannel.GoChannel) {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NewSlogLogger(logger),
	)

	return &WatermillNotifier{publisher: pubSub}, pubSub
}

// NewWatermillNotifier wraps an existing watermill publisher.
func NewWatermillNotifier(publisher message.Publisher) *WatermillNotifier {
	return &WatermillNotifier{publisher: publisher}
}

// NotifyCompletion publishes one event for the invocation's terminal result.
func (n *WatermillNotifier) NotifyCompletion(_ context.Context, nc *models.NodeExecutionContext, result *models.NodeExecutionResult) error {
	event := NodeExecutionFinished{
		ID:          uuid.New().String(),
		Type:        EventTypeForStatus(result.Status),
		Timestamp:   time.Now().UTC(),
		NodeID:      nc.NodeID,
		NodeType:    nc.NodeType,
		WorkflowID:  nc.WorkflowID,
		ExecutionID: nc.ExecutionID,
		Status:      result.Status,
		OutputData:  result.OutputData,
		Error:       result.ErrorMessage,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal completion event: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("event_type", string(event.Type))
	msg.Metadata.Set("node_type", nc.NodeType)

	if err := n.publisher.Publish(Topic, msg); err != nil {
		return fmt.Errorf("failed to publish completion event: %w", err)
	}

	return nil
}

func (n *WatermillNotifier) Close() error {
	return n.publisher.Close()
}
