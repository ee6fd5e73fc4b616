package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/phenrril/storefront/internal/domain"
)

// SQSAPI is the part of the SQS client the sink uses.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSSink enqueues notifications for an out-of-process delivery worker.
type SQSSink struct {
	SQS      SQSAPI
	QueueURL string
}

func NewSQSSink(client SQSAPI, queueURL string) *SQSSink {
	return &SQSSink{SQS: client, QueueURL: queueURL}
}

// NewSQSClient builds a client from the default AWS credential chain.
func NewSQSClient(ctx context.Context, region string) (*sqs.Client, error) {
	if region == "" {
		region = "us-east-1"
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return sqs.NewFromConfig(cfg), nil
}

type queuedNotification struct {
	Recipient string `json:"recipient"`
	Message   string `json:"message"`
}

func (s *SQSSink) Send(ctx context.Context, n domain.Notification) error {
	body, err := json.Marshal(queuedNotification{Recipient: n.Recipient, Message: n.Message})
	if err != nil {
		return err
	}
	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.QueueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"kind": {DataType: aws.String("String"), StringValue: aws.String("order_placed")},
		},
	}
	if n.Recipient != "" {
		input.MessageAttributes["recipient"] = sqstypes.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(n.Recipient),
		}
	}
	if _, err := s.SQS.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}
