package subscriber

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

type Subscriber struct {
	logger     *slog.Logger
	client     *redis.Client
	topic      string
	controller Controller
}

func NewSubscriber(logger *slog.Logger, client *redis.Client, topic string, controller Controller) *Subscriber {
	return &Subscriber{
		logger:     logger,
		client:     client,
		topic:      topic,
		controller: controller,
	}
}

func (s *Subscriber) Start(ctx context.Context) error {
	pubsub := s.client.Subscribe(ctx, s.topic)
	defer func() {
		if err := pubsub.Close(); err != nil {
			s.logger.Warn("failed to close pubsub", "error", err)
		}
	}()

	// Wait for the subscription to be confirmed before reporting ready.
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribing to %q: %w", s.topic, err)
	}
	s.logger.Info("Redis subscriber is running", "topic", s.topic)

	msgCh := pubsub.Channel()

	for {
		select {
		case msg, ok := <-msgCh:
			if !ok {
				s.logger.Warn("pubsub channel closed by Redis")
				return nil
			}
			if err := s.handleMessage(ctx, msg.Payload); err != nil {
				s.logger.Error("error handling message", "error", err)
			}
		case <-ctx.Done():
			s.logger.Info("shutting down Redis subscriber")
			return nil
		}
	}
}

func (s *Subscriber) handleMessage(ctx context.Context, payload string) error {
	var msg CommandMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return fmt.Errorf("unmarshalling command: %w", err)
	}
	if !msg.Command.IsValid() {
		return fmt.Errorf("invalid command %q", msg.Command)
	}

	s.logger.Debug("received playback command", "command", msg.Command)

	var err error
	switch msg.Command {
	case Toggle:
		_, err = s.controller.Toggle(ctx)
	case Play:
		_, err = s.controller.Play(ctx)
	case Pause:
		_, err = s.controller.Pause(ctx)
	}
	if err != nil {
		return fmt.Errorf("applying %s: %w", msg.Command, err)
	}
	return nil
}
