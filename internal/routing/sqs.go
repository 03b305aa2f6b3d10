package routing

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// SQSAPI is the subset of the SQS client the publisher needs.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSPublisher sends envelopes to SQS queues. The envelope channel is the
// queue URL. FIFO queues receive the group and deduplication keys.
type SQSPublisher struct {
	client SQSAPI
}

// NewSQSPublisher creates an SQSPublisher.
func NewSQSPublisher(client SQSAPI) *SQSPublisher {
	return &SQSPublisher{client: client}
}

// Publish implements Publisher.
func (p *SQSPublisher) Publish(ctx context.Context, env *Envelope) (string, error) {
	in := &sqs.SendMessageInput{
		QueueUrl:    aws.String(env.Channel),
		MessageBody: aws.String(string(env.Payload)),
	}
	if isFIFO(env.Channel) {
		in.MessageGroupId = aws.String(env.GroupKey)
		in.MessageDeduplicationId = aws.String(env.DedupKey)
	}
	if env.RoutingAttribute != "" {
		in.MessageAttributes = map[string]sqstypes.MessageAttributeValue{
			RoutingAttribute: {
				DataType:    aws.String("String"),
				StringValue: aws.String(env.RoutingAttribute),
			},
		}
	}

	out, err := p.client.SendMessage(ctx, in)
	if err != nil {
		return "", err
	}
	return aws.ToString(out.MessageId), nil
}

func isFIFO(channel string) bool {
	return strings.HasSuffix(channel, ".fifo")
}
