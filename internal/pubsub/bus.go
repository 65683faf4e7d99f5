package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/webitel/tournament-runtime/internal/repository"
)

// Bus wraps a Publisher/Subscriber pair with the domain-event helpers the
// Runtime needs.
type Bus struct {
	publisher message.Publisher
	router    *message.Router
	logger    *slog.Logger
}

// NewBus builds the pub/sub pair from factory and wires a persistence
// subscriber that writes RoomEnded events through repo, decoupling that
// call from the broadcast goroutine that triggers it.
func NewBus(factory Factory, repo repository.Repository, logger *slog.Logger) (*Bus, error) {
	publisher, subscriber, err := factory.Build()
	if err != nil {
		return nil, fmt.Errorf("pubsub: build factory: %w", err)
	}

	router, err := message.NewRouter(message.RouterConfig{}, watermill.NewSlogLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("pubsub: new router: %w", err)
	}

	router.AddNoPublisherHandler(
		"persist-room-ended",
		RoomEndedTopic,
		subscriber,
		func(msg *message.Message) error {
			var ev RoomEnded
			if err := json.Unmarshal(msg.Payload, &ev); err != nil {
				logger.Error("pubsub: discarding malformed RoomEnded message", "error", err)
				return nil
			}
			ended := ev.EndedAt
			if err := repo.UpdateTournament(msg.Context(), repository.TournamentUpdate{ID: ev.TournamentID, EndedAt: &ended}); err != nil {
				logger.Error("pubsub: failed to persist room-ended", "tournament_id", ev.TournamentID, "error", err)
			}
			return nil
		},
	)

	return &Bus{publisher: publisher, router: router, logger: logger}, nil
}

// PublishRoomStarted publishes a RoomStarted event.
func (b *Bus) PublishRoomStarted(ctx context.Context, tournamentID string, startedAt time.Time) error {
	return b.publish(ctx, RoomStartedTopic, RoomStarted{TournamentID: tournamentID, StartedAt: startedAt})
}

// PublishRoomEnded publishes a RoomEnded event.
func (b *Bus) PublishRoomEnded(ctx context.Context, tournamentID string, endedAt time.Time) error {
	return b.publish(ctx, RoomEndedTopic, RoomEnded{TournamentID: tournamentID, EndedAt: endedAt})
}

func (b *Bus) publish(ctx context.Context, topic string, ev any) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("pubsub: marshal event: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	return b.publisher.Publish(topic, msg)
}

// Run blocks until ctx is canceled, pumping the router. Intended to be
// called on its own goroutine from an fx.Lifecycle OnStart hook.
func (b *Bus) Run(ctx context.Context) error {
	return b.router.Run(ctx)
}

// Close stops the router.
func (b *Bus) Close() error {
	return b.router.Close()
}
