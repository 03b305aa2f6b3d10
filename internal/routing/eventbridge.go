package routing

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	ebtypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
)

// EventSource is the Source of every work order event put on a bus.
const EventSource = "workorders.api"

// EventBridgeAPI is the subset of the EventBridge client the publisher needs.
type EventBridgeAPI interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// EventBridgePublisher puts envelopes on an event bus. The envelope channel
// is the bus name and the detail type is the status, so bus rules route by
// status.
type EventBridgePublisher struct {
	client EventBridgeAPI
}

// NewEventBridgePublisher creates an EventBridgePublisher.
func NewEventBridgePublisher(client EventBridgeAPI) *EventBridgePublisher {
	return &EventBridgePublisher{client: client}
}

// Publish implements Publisher.
func (p *EventBridgePublisher) Publish(ctx context.Context, env *Envelope) (string, error) {
	detailType := env.RoutingAttribute
	if detailType == "" {
		detailType = env.GroupKey
	}
	out, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []ebtypes.PutEventsRequestEntry{{
			EventBusName: aws.String(env.Channel),
			Source:       aws.String(EventSource),
			DetailType:   aws.String(detailType),
			Detail:       aws.String(string(env.Payload)),
		}},
	})
	if err != nil {
		return "", err
	}
	if len(out.Entries) == 0 {
		return "", fmt.Errorf("event rejected by bus %s", env.Channel)
	}
	entry := out.Entries[0]
	if entry.ErrorCode != nil {
		return "", fmt.Errorf("event rejected: %s: %s", aws.ToString(entry.ErrorCode), aws.ToString(entry.ErrorMessage))
	}
	return aws.ToString(entry.EventId), nil
}
