package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"example.com/tileflow/services/planning/config"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/rs/zerolog/log"
)

// MessageHandler processes one received document message
type MessageHandler func(ctx context.Context, message *azservicebus.ReceivedMessage) error

// ServiceBusClient is an interface for Azure Service Bus operations on the
// parsed-document queue
type ServiceBusClient interface {
	SendMessage(ctx context.Context, body interface{}) error
	ProcessMessages(ctx context.Context, handler MessageHandler) error
	Close() error
}

// serviceBusClient implements the ServiceBusClient interface
type serviceBusClient struct {
	client    *azservicebus.Client
	sender    *azservicebus.Sender
	receiver  *azservicebus.Receiver
	queueName string
}

// NewServiceBusClient creates a new Azure Service Bus client for the
// parsed-document queue
func NewServiceBusClient(cfg config.AzureConfig) (ServiceBusClient, error) {
	if cfg.QueueConnStr == "" {
		return nil, fmt.Errorf("Azure Service Bus connection string is empty")
	}

	client, err := azservicebus.NewClientFromConnectionString(cfg.QueueConnStr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Service Bus client: %w", err)
	}

	sender, err := client.NewSender(cfg.QueueName, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Service Bus sender: %w", err)
	}

	receiver, err := client.NewReceiverForQueue(cfg.QueueName, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Service Bus receiver: %w", err)
	}

	return &serviceBusClient{
		client:    client,
		sender:    sender,
		receiver:  receiver,
		queueName: cfg.QueueName,
	}, nil
}

// SendMessage sends a message to the queue
func (s *serviceBusClient) SendMessage(ctx context.Context, body interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal message body: %w", err)
	}

	msg := &azservicebus.Message{
		Body: data,
		ApplicationProperties: map[string]interface{}{
			"source": "planning",
			"time":   time.Now().UTC().Format(time.RFC3339),
		},
	}

	return s.sender.SendMessage(ctx, msg, nil)
}

// ProcessMessages pulls messages from the queue in batches and hands each
// one to the handler until the context is cancelled. Failed messages are
// abandoned so the broker redelivers them.
func (s *serviceBusClient) ProcessMessages(ctx context.Context, handler MessageHandler) error {
	for {
		messages, err := s.receiver.ReceiveMessages(ctx, 10, nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to receive messages: %w", err)
		}

		for _, message := range messages {
			if err := handler(ctx, message); err != nil {
				log.Error().
					Err(err).
					Str("message_id", message.MessageID).
					Str("queue", s.queueName).
					Msg("Failed to process message, abandoning for redelivery")
				if abandonErr := s.receiver.AbandonMessage(ctx, message, nil); abandonErr != nil {
					log.Error().Err(abandonErr).Str("message_id", message.MessageID).Msg("Failed to abandon message")
				}
				continue
			}
			if err := s.receiver.CompleteMessage(ctx, message, nil); err != nil {
				log.Error().Err(err).Str("message_id", message.MessageID).Msg("Failed to complete message")
			}
		}
	}
}

// Close closes the Service Bus client
func (s *serviceBusClient) Close() error {
	if s.receiver != nil {
		if err := s.receiver.Close(context.Background()); err != nil {
			return err
		}
	}
	if s.sender != nil {
		if err := s.sender.Close(context.Background()); err != nil {
			return err
		}
	}
	if s.client != nil {
		return s.client.Close(context.Background())
	}
	return nil
}
