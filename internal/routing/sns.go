package routing

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNSAPI is the subset of the SNS client the publisher needs.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSPublisher publishes envelopes to an SNS topic. The envelope channel is
// the topic ARN; the routing attribute becomes a message attribute so
// subscription filter policies can select by status.
type SNSPublisher struct {
	client SNSAPI
}

// NewSNSPublisher creates an SNSPublisher.
func NewSNSPublisher(client SNSAPI) *SNSPublisher {
	return &SNSPublisher{client: client}
}

// Publish implements Publisher.
func (p *SNSPublisher) Publish(ctx context.Context, env *Envelope) (string, error) {
	in := &sns.PublishInput{
		TopicArn: aws.String(env.Channel),
		Message:  aws.String(string(env.Payload)),
	}
	if env.RoutingAttribute != "" {
		in.MessageAttributes = map[string]snstypes.MessageAttributeValue{
			RoutingAttribute: {
				DataType:    aws.String("String"),
				StringValue: aws.String(env.RoutingAttribute),
			},
		}
	}
	if isFIFO(env.Channel) {
		in.MessageGroupId = aws.String(env.GroupKey)
		in.MessageDeduplicationId = aws.String(env.DedupKey)
	}

	out, err := p.client.Publish(ctx, in)
	if err != nil {
		return "", err
	}
	return aws.ToString(out.MessageId), nil
}
